package scanerrors

import "time"

// Phases a scan can fail in.
const (
	PhaseSpider  = "spider"
	PhaseActive  = "active"
	PhasePassive = "passive"
	PhaseAlerts  = "alerts"
	PhasePersist = "persist"
	PhaseReport  = "report"
)

// ScanError represents a persisted scan error entry
type ScanError struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ScanID      string    `json:"scan_id"`
	Phase       string    `json:"phase,omitempty"` // spider | active | passive | alerts | persist | report
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
