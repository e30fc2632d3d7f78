package scans

import (
	"time"
)

// ID tipe untuk Scan
type ScanID string

// ScanType enum
type ScanType string

const (
	TypeQuick    ScanType = "quick"
	TypeStandard ScanType = "standard"
	TypeDeep     ScanType = "deep"
)

// Status enum
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// RiskCounts value object
type RiskCounts struct {
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	Informational int `json:"informational"`
	Total         int `json:"total"`
}

// Add increments the bucket matching the given ZAP risk label.
func (c *RiskCounts) Add(risk string) {
	switch risk {
	case "High":
		c.High++
	case "Medium":
		c.Medium++
	case "Low":
		c.Low++
	default:
		c.Informational++
	}
	c.Total++
}

// Aggregate Root: Scan
type Scan struct {
	ID         ScanID     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	TargetURL  string     `json:"target_url"`
	Type       ScanType   `json:"scan_type"`
	Status     Status     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Counts     RiskCounts `json:"counts"`
	ReportURL  string     `json:"report_url,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	ZapVersion string     `json:"zap_version,omitempty"`
	Source     string     `json:"source,omitempty"`
	Metadata   any        `json:"metadata,omitempty"`
}

// ValidType reports whether t is one of the supported scan types.
func ValidType(t ScanType) bool {
	switch t {
	case TypeQuick, TypeStandard, TypeDeep:
		return true
	}
	return false
}
