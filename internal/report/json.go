package report

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/bryanwahyu/zapscan/internal/domain/scans"
)

// JSONReporter outputs structured JSON.
type JSONReporter struct {
	// Compact outputs single-line JSON when true (no indentation).
	Compact bool
}

// Format returns "json".
func (r *JSONReporter) Format() string { return "json" }

func (r *JSONReporter) ContentType() string { return "application/json" }

// jsonOutput is the top-level JSON structure.
type jsonOutput struct {
	SchemaVersion string           `json:"schema_version"`
	Tool          string           `json:"tool"`
	Scan          jsonScan         `json:"scan"`
	Counts        scans.RiskCounts `json:"counts"`
	Findings      []jsonFinding    `json:"findings"`
}

// jsonScan represents scan metadata in JSON.
type jsonScan struct {
	ID         string     `json:"id"`
	TargetURL  string     `json:"target_url"`
	Type       string     `json:"scan_type"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ZapVersion string     `json:"zap_version,omitempty"`
}

// jsonFinding represents one vulnerability in JSON.
type jsonFinding struct {
	Name        string `json:"name"`
	Risk        string `json:"risk"`
	Confidence  string `json:"confidence"`
	URL         string `json:"url"`
	Param       string `json:"param,omitempty"`
	Evidence    string `json:"evidence,omitempty"`
	Description string `json:"description,omitempty"`
	Solution    string `json:"solution,omitempty"`
	Reference   string `json:"reference,omitempty"`
	CWEID       int    `json:"cwe_id,omitempty"`
	WASCID      int    `json:"wasc_id,omitempty"`
	PluginID    string `json:"plugin_id,omitempty"`
}

// Generate writes the formatted scan result to w.
func (r *JSONReporter) Generate(ctx context.Context, data *Data, w io.Writer) error {
	out := jsonOutput{
		SchemaVersion: "1.0",
		Tool:          "zapscan",
		Scan: jsonScan{
			ID:         data.ScanID,
			TargetURL:  data.TargetURL,
			Type:       data.ScanType,
			Status:     data.Status,
			StartedAt:  data.StartedAt,
			FinishedAt: data.FinishedAt,
			ZapVersion: data.ZapVersion,
		},
		Counts:   data.Counts,
		Findings: make([]jsonFinding, 0, len(data.Vulnerabilities)),
	}
	for _, v := range data.Vulnerabilities {
		out.Findings = append(out.Findings, jsonFinding{
			Name:        v.Name,
			Risk:        v.Risk,
			Confidence:  v.Confidence,
			URL:         v.URL,
			Param:       v.Param,
			Evidence:    v.Evidence,
			Description: v.Description,
			Solution:    v.Solution,
			Reference:   v.Reference,
			CWEID:       v.CWEID,
			WASCID:      v.WASCID,
			PluginID:    v.PluginID,
		})
	}

	enc := json.NewEncoder(w)
	if !r.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
