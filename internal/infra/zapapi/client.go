// Package zapapi is a thin client for the OWASP ZAP daemon's JSON API.
// All scanning work happens inside the daemon; this package only
// starts jobs, polls their progress and fetches the resulting alerts.
package zapapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Options holds configuration for creating a new Client.
type Options struct {
	// Address is the base URL of the ZAP daemon (e.g. http://127.0.0.1:8080).
	Address string

	// APIKey is sent as the X-ZAP-API-Key header when non-empty.
	APIKey string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// PollInterval is the delay between status polls.
	PollInterval time.Duration

	// MaxRPS limits requests per second against the daemon (0 = unlimited).
	MaxRPS float64

	// HTTPClient overrides the default http.Client (mainly for tests).
	HTTPClient *http.Client
}

// Client talks to one ZAP daemon.
type Client struct {
	base         *url.URL
	apiKey       string
	httpClient   *http.Client
	limiter      *rate.Limiter
	pollInterval time.Duration
}

// NewClient validates the options and returns a ready Client.
func NewClient(opts Options) (*Client, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("zapapi: address is required")
	}
	base, err := url.Parse(opts.Address)
	if err != nil {
		return nil, fmt.Errorf("zapapi: invalid address: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("zapapi: invalid address scheme: %q", base.Scheme)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	poll := opts.PollInterval
	if poll == 0 {
		poll = 2 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), 1)
	}

	return &Client{
		base:         base,
		apiKey:       opts.APIKey,
		httpClient:   httpClient,
		limiter:      limiter,
		pollInterval: poll,
	}, nil
}

// call issues one GET against a /JSON/... endpoint and decodes the
// response into out. ZAP reports its own failures as a JSON object
// with code/message, which is surfaced as an error here.
func (c *Client) call(ctx context.Context, component, kind, name string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	u := *c.base
	u.Path = fmt.Sprintf("/JSON/%s/%s/%s/", component, kind, name)
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("X-ZAP-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zapapi: %s/%s: %w", component, name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("zapapi: %s/%s: read body: %w", component, name, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("zapapi: %s/%s: %s (%s)", component, name, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("zapapi: %s/%s: unexpected status %d", component, name, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("zapapi: %s/%s: decode response: %w", component, name, err)
	}
	return nil
}

// Version returns the daemon version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.call(ctx, "core", "view", "version", nil, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

// NewSession resets the daemon's session so alerts from previous scans
// do not leak into the next one.
func (c *Client) NewSession(ctx context.Context, name string) error {
	params := url.Values{}
	params.Set("name", name)
	params.Set("overwrite", "true")
	return c.call(ctx, "core", "action", "newSession", params, nil)
}

// SpiderScan starts a spider against the target and returns the spider
// scan ID. maxChildren 0 means unlimited.
func (c *Client) SpiderScan(ctx context.Context, target string, maxChildren int) (string, error) {
	params := url.Values{}
	params.Set("url", target)
	params.Set("recurse", "true")
	if maxChildren > 0 {
		params.Set("maxChildren", strconv.Itoa(maxChildren))
	}
	var out struct {
		Scan string `json:"scan"`
	}
	if err := c.call(ctx, "spider", "action", "scan", params, &out); err != nil {
		return "", err
	}
	return out.Scan, nil
}

// SpiderStatus returns spider progress (0-100).
func (c *Client) SpiderStatus(ctx context.Context, scanID string) (int, error) {
	params := url.Values{}
	params.Set("scanId", scanID)
	var out struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "spider", "view", "status", params, &out); err != nil {
		return 0, err
	}
	return strconv.Atoi(out.Status)
}

// ActiveScan starts an active scan against the target and returns the
// active scan ID.
func (c *Client) ActiveScan(ctx context.Context, target string) (string, error) {
	params := url.Values{}
	params.Set("url", target)
	params.Set("recurse", "true")
	var out struct {
		Scan string `json:"scan"`
	}
	if err := c.call(ctx, "ascan", "action", "scan", params, &out); err != nil {
		return "", err
	}
	return out.Scan, nil
}

// ActiveScanStatus returns active scan progress (0-100).
func (c *Client) ActiveScanStatus(ctx context.Context, scanID string) (int, error) {
	params := url.Values{}
	params.Set("scanId", scanID)
	var out struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "ascan", "view", "status", params, &out); err != nil {
		return 0, err
	}
	return strconv.Atoi(out.Status)
}

// PassiveRecordsToScan returns the size of the passive scanner's queue.
// Zero means all fetched responses have been analyzed.
func (c *Client) PassiveRecordsToScan(ctx context.Context) (int, error) {
	var out struct {
		Records string `json:"recordsToScan"`
	}
	if err := c.call(ctx, "pscan", "view", "recordsToScan", nil, &out); err != nil {
		return 0, err
	}
	return strconv.Atoi(out.Records)
}

// alertJSON mirrors one entry of core/view/alerts. Numeric identifiers
// come back as strings from the daemon.
type alertJSON struct {
	PluginID    string `json:"pluginId"`
	Name        string `json:"name"`
	Alert       string `json:"alert"`
	Risk        string `json:"risk"`
	Confidence  string `json:"confidence"`
	URL         string `json:"url"`
	Param       string `json:"param"`
	Attack      string `json:"attack"`
	Evidence    string `json:"evidence"`
	Method      string `json:"method"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
	Reference   string `json:"reference"`
	CWEID       string `json:"cweid"`
	WASCID      string `json:"wascid"`
}

// Alerts fetches one page of alerts for the given base URL.
func (c *Client) Alerts(ctx context.Context, baseURL string, start, count int) ([]alertJSON, error) {
	params := url.Values{}
	params.Set("baseurl", baseURL)
	params.Set("start", strconv.Itoa(start))
	params.Set("count", strconv.Itoa(count))
	var out struct {
		Alerts []alertJSON `json:"alerts"`
	}
	if err := c.call(ctx, "core", "view", "alerts", params, &out); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

// Check implements the health checker contract against the daemon.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.Version(ctx)
	return err
}
