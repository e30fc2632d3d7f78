package scans

// RunRequest untuk Engine
type RunRequest struct {
	TargetURL string
	Type      ScanType
}

// Alert is one finding reported by the ZAP daemon, as returned by the
// core/view/alerts API. The engine maps the daemon's JSON onto this
// struct; persistence happens elsewhere.
type Alert struct {
	PluginID    string
	Name        string
	Risk        string // High | Medium | Low | Informational
	Confidence  string
	URL         string
	Param       string
	Attack      string
	Evidence    string
	Method      string
	Description string
	Solution    string
	Reference   string
	CWEID       int
	WASCID      int
}

// RunResult hasil dari Engine
type RunResult struct {
	Alerts     []Alert
	Counts     RiskCounts
	ZapVersion string
	DurationMS int64
}

// EngineError wraps an engine failure with the phase it happened in
// (spider, active, passive, alerts).
type EngineError struct {
	Phase string
	Err   error
}

func (e *EngineError) Error() string { return e.Phase + ": " + e.Err.Error() }
func (e *EngineError) Unwrap() error { return e.Err }

// CountAlerts tallies risk buckets over a fetched alert list.
func CountAlerts(alerts []Alert) RiskCounts {
	var c RiskCounts
	for _, a := range alerts {
		c.Add(a.Risk)
	}
	return c
}
