package zapapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		Address:      srv.URL,
		APIKey:       "secret",
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"valid http", "http://127.0.0.1:8080", false},
		{"valid https", "https://zap.internal:8443", false},
		{"empty", "", true},
		{"bad scheme", "ftp://127.0.0.1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(Options{Address: tt.address})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
		})
	}
}

func TestClient_Version(t *testing.T) {
	var gotPath, gotKey string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-ZAP-API-Key")
		fmt.Fprint(w, `{"version":"2.15.0"}`)
	}))

	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v != "2.15.0" {
		t.Errorf("Version() = %q, want %q", v, "2.15.0")
	}
	if gotPath != "/JSON/core/view/version/" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("X-ZAP-API-Key = %q, want %q", gotKey, "secret")
	}
}

func TestClient_SpiderScan_Params(t *testing.T) {
	var gotQuery map[string][]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"scan":"3"}`)
	}))

	id, err := c.SpiderScan(context.Background(), "http://example.com", 10)
	if err != nil {
		t.Fatalf("SpiderScan() error: %v", err)
	}
	if id != "3" {
		t.Errorf("scan id = %q, want %q", id, "3")
	}
	if got := gotQuery["maxChildren"]; len(got) != 1 || got[0] != "10" {
		t.Errorf("maxChildren = %v, want [10]", got)
	}
	if got := gotQuery["url"]; len(got) != 1 || got[0] != "http://example.com" {
		t.Errorf("url = %v", got)
	}
}

func TestClient_SpiderScan_Unlimited(t *testing.T) {
	var gotQuery map[string][]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"scan":"0"}`)
	}))

	if _, err := c.SpiderScan(context.Background(), "http://example.com", 0); err != nil {
		t.Fatalf("SpiderScan() error: %v", err)
	}
	if _, ok := gotQuery["maxChildren"]; ok {
		t.Error("maxChildren should be omitted for unlimited spiders")
	}
}

func TestClient_NewSession(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"Result":"OK"}`)
	}))

	if err := c.NewSession(context.Background(), "batch-1"); err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	if gotPath != "/JSON/core/action/newSession/" {
		t.Errorf("path = %q", gotPath)
	}
	if got := gotQuery["name"]; len(got) != 1 || got[0] != "batch-1" {
		t.Errorf("name = %v", got)
	}
	if got := gotQuery["overwrite"]; len(got) != 1 || got[0] != "true" {
		t.Errorf("overwrite = %v", got)
	}
}

func TestClient_APIError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":"url_not_found","message":"URL Not Found in the Scan Tree"}`)
	}))

	_, err := c.SpiderScan(context.Background(), "http://unknown.example", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "URL Not Found in the Scan Tree"
	if got := err.Error(); !strings.Contains(got, want) {
		t.Errorf("error = %q, want it to mention %q", got, want)
	}
}

func TestClient_Alerts_Paging(t *testing.T) {
	var starts []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		starts = append(starts, r.URL.Query().Get("start"))
		fmt.Fprint(w, `{"alerts":[{"pluginId":"40018","alert":"SQL Injection","risk":"High","confidence":"Medium","url":"http://example.com/?id=1","cweid":"89","wascid":"19"}]}`)
	}))

	alerts, err := c.Alerts(context.Background(), "http://example.com", 0, 500)
	if err != nil {
		t.Fatalf("Alerts() error: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	if starts[0] != "0" {
		t.Errorf("start = %q, want %q", starts[0], "0")
	}
}

func TestAtoiSafe(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"89", 89},
		{"-1", 0},
		{"", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		if got := atoiSafe(tt.in); got != tt.want {
			t.Errorf("atoiSafe(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
