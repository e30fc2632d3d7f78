package analyst

import "time"

// AnalysisID identifier type
type AnalysisID string

// Analysis represents an AI review of a scan's findings, stored for
// auditing and retrieval
type Analysis struct {
	ID        AnalysisID `json:"id"`
	TenantID  string     `json:"tenant_id"`
	ScanID    string     `json:"scan_id"`
	TargetURL string     `json:"target_url,omitempty"`
	Result    string     `json:"result"` // JSON string from AI
	CreatedAt time.Time  `json:"created_at"`
}
