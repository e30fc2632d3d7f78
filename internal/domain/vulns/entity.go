package vulns

import "time"

// Vulnerability is one persisted ZAP alert. Rows belong to exactly one
// scan and are immutable once inserted; deleting the scan cascades.
type Vulnerability struct {
	ID          int64     `json:"id"`
	ScanID      string    `json:"scan_id"`
	PluginID    string    `json:"plugin_id,omitempty"`
	Name        string    `json:"name"`
	Risk        string    `json:"risk"`
	Confidence  string    `json:"confidence"`
	URL         string    `json:"url"`
	Param       string    `json:"param,omitempty"`
	Attack      string    `json:"attack,omitempty"`
	Evidence    string    `json:"evidence,omitempty"`
	Method      string    `json:"method,omitempty"`
	Description string    `json:"description"`
	Solution    string    `json:"solution"`
	Reference   string    `json:"reference,omitempty"`
	CWEID       int       `json:"cwe_id,omitempty"`
	WASCID      int       `json:"wasc_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
