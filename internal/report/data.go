package report

import (
	"time"

	"github.com/bryanwahyu/zapscan/internal/domain/scans"
	"github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

// Data is the flattened input every reporter renders from.
type Data struct {
	ScanID          string                 `json:"scan_id"`
	TargetURL       string                 `json:"target_url"`
	ScanType        string                 `json:"scan_type"`
	Status          string                 `json:"status"`
	StartedAt       time.Time              `json:"started_at"`
	FinishedAt      *time.Time             `json:"finished_at,omitempty"`
	Counts          scans.RiskCounts       `json:"counts"`
	ZapVersion      string                 `json:"zap_version,omitempty"`
	GeneratedAt     time.Time              `json:"generated_at"`
	Vulnerabilities []*vulns.Vulnerability `json:"vulnerabilities"`
}

// Build assembles reporter input from a scan row and its findings.
func Build(scan *scans.Scan, findings []*vulns.Vulnerability) *Data {
	return &Data{
		ScanID:          string(scan.ID),
		TargetURL:       scan.TargetURL,
		ScanType:        string(scan.Type),
		Status:          string(scan.Status),
		StartedAt:       scan.StartedAt,
		FinishedAt:      scan.FinishedAt,
		Counts:          scan.Counts,
		ZapVersion:      scan.ZapVersion,
		GeneratedAt:     time.Now(),
		Vulnerabilities: findings,
	}
}
