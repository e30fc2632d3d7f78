package zapapi

import (
	"context"
	"strconv"
	"time"

	domain "github.com/bryanwahyu/zapscan/internal/domain/scanerrors"
	scansdomain "github.com/bryanwahyu/zapscan/internal/domain/scans"
)

const (
	// quickMaxChildren bounds the spider for quick scans. Deep scans
	// spider without a limit.
	quickMaxChildren = 10

	// alertPageSize is the page size used when fetching alerts.
	alertPageSize = 500
)

// Compile-time check that Client implements the Engine port.
var _ scansdomain.Engine = (*Client)(nil)

// Run drives one scan end to end against the daemon:
// spider → (active scan for standard/deep) → passive drain → alerts.
func (c *Client) Run(ctx context.Context, req scansdomain.RunRequest) (scansdomain.RunResult, error) {
	start := time.Now()

	version, err := c.Version(ctx)
	if err != nil {
		return scansdomain.RunResult{}, &scansdomain.EngineError{Phase: domain.PhaseSpider, Err: err}
	}

	maxChildren := quickMaxChildren
	if req.Type == scansdomain.TypeDeep {
		maxChildren = 0 // unlimited
	}

	spiderID, err := c.SpiderScan(ctx, req.TargetURL, maxChildren)
	if err != nil {
		return scansdomain.RunResult{}, &scansdomain.EngineError{Phase: domain.PhaseSpider, Err: err}
	}
	if err := c.waitProgress(ctx, spiderID, c.SpiderStatus); err != nil {
		return scansdomain.RunResult{}, &scansdomain.EngineError{Phase: domain.PhaseSpider, Err: err}
	}

	if req.Type == scansdomain.TypeStandard || req.Type == scansdomain.TypeDeep {
		ascanID, err := c.ActiveScan(ctx, req.TargetURL)
		if err != nil {
			return scansdomain.RunResult{}, &scansdomain.EngineError{Phase: domain.PhaseActive, Err: err}
		}
		if err := c.waitProgress(ctx, ascanID, c.ActiveScanStatus); err != nil {
			return scansdomain.RunResult{}, &scansdomain.EngineError{Phase: domain.PhaseActive, Err: err}
		}
	}

	// Passive analysis keeps running after the spider finishes; wait for
	// the queue to drain so quick scans see their findings too.
	if err := c.waitPassive(ctx); err != nil {
		return scansdomain.RunResult{}, &scansdomain.EngineError{Phase: domain.PhasePassive, Err: err}
	}

	alerts, err := c.fetchAllAlerts(ctx, req.TargetURL)
	if err != nil {
		return scansdomain.RunResult{}, &scansdomain.EngineError{Phase: domain.PhaseAlerts, Err: err}
	}

	return scansdomain.RunResult{
		Alerts:     alerts,
		Counts:     scansdomain.CountAlerts(alerts),
		ZapVersion: version,
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

// waitProgress polls a status endpoint until it reports 100.
func (c *Client) waitProgress(ctx context.Context, scanID string, status func(context.Context, string) (int, error)) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		progress, err := status(ctx, scanID)
		if err != nil {
			return err
		}
		if progress >= 100 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// waitPassive polls the passive scanner queue until it is empty.
func (c *Client) waitPassive(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		records, err := c.PassiveRecordsToScan(ctx)
		if err != nil {
			return err
		}
		if records == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// fetchAllAlerts pages through core/view/alerts for the target.
func (c *Client) fetchAllAlerts(ctx context.Context, baseURL string) ([]scansdomain.Alert, error) {
	var all []scansdomain.Alert
	for start := 0; ; start += alertPageSize {
		page, err := c.Alerts(ctx, baseURL, start, alertPageSize)
		if err != nil {
			return nil, err
		}
		for _, a := range page {
			all = append(all, toDomainAlert(a))
		}
		if len(page) < alertPageSize {
			return all, nil
		}
	}
}

func toDomainAlert(a alertJSON) scansdomain.Alert {
	name := a.Name
	if name == "" {
		name = a.Alert
	}
	return scansdomain.Alert{
		PluginID:    a.PluginID,
		Name:        name,
		Risk:        a.Risk,
		Confidence:  a.Confidence,
		URL:         a.URL,
		Param:       a.Param,
		Attack:      a.Attack,
		Evidence:    a.Evidence,
		Method:      a.Method,
		Description: a.Description,
		Solution:    a.Solution,
		Reference:   a.Reference,
		CWEID:       atoiSafe(a.CWEID),
		WASCID:      atoiSafe(a.WASCID),
	}
}

// atoiSafe parses ZAP's string-encoded numeric IDs; "-1" and garbage
// both map to 0 (absent).
func atoiSafe(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
