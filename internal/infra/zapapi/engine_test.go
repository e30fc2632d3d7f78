package zapapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/zapscan/internal/domain/scanerrors"
	scansdomain "github.com/bryanwahyu/zapscan/internal/domain/scans"
)

// fakeDaemon emulates the small slice of the ZAP JSON API the engine
// drives. Progress endpoints report done after two polls.
type fakeDaemon struct {
	mu           sync.Mutex
	spiderPolls  int
	ascanPolls   int
	ascanStarted bool
	alerts       string
	failAscan    bool
}

func (f *fakeDaemon) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/JSON/core/view/version/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version":"2.15.0"}`)
	})
	mux.HandleFunc("/JSON/spider/action/scan/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"scan":"1"}`)
	})
	mux.HandleFunc("/JSON/spider/view/status/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.spiderPolls++
		done := f.spiderPolls >= 2
		f.mu.Unlock()
		if done {
			fmt.Fprint(w, `{"status":"100"}`)
		} else {
			fmt.Fprint(w, `{"status":"40"}`)
		}
	})
	mux.HandleFunc("/JSON/ascan/action/scan/", func(w http.ResponseWriter, r *http.Request) {
		if f.failAscan {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"code":"internal_error","message":"active scanner is down"}`)
			return
		}
		f.mu.Lock()
		f.ascanStarted = true
		f.mu.Unlock()
		fmt.Fprint(w, `{"scan":"2"}`)
	})
	mux.HandleFunc("/JSON/ascan/view/status/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.ascanPolls++
		done := f.ascanPolls >= 2
		f.mu.Unlock()
		if done {
			fmt.Fprint(w, `{"status":"100"}`)
		} else {
			fmt.Fprint(w, `{"status":"55"}`)
		}
	})
	mux.HandleFunc("/JSON/pscan/view/recordsToScan/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"recordsToScan":"0"}`)
	})
	mux.HandleFunc("/JSON/core/view/alerts/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") != "0" {
			fmt.Fprint(w, `{"alerts":[]}`)
			return
		}
		fmt.Fprint(w, f.alerts)
	})
	return mux
}

func engineForDaemon(t *testing.T, f *fakeDaemon) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{Address: srv.URL, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

const sampleAlerts = `{"alerts":[
	{"pluginId":"40018","alert":"SQL Injection","risk":"High","confidence":"Medium","url":"http://t/?id=1","param":"id","cweid":"89","wascid":"19"},
	{"pluginId":"10020","alert":"X-Frame-Options Header Not Set","risk":"Medium","confidence":"Medium","url":"http://t/","cweid":"1021","wascid":"15"},
	{"pluginId":"10096","alert":"Timestamp Disclosure","risk":"Informational","confidence":"Low","url":"http://t/","cweid":"-1","wascid":"-1"}
]}`

func TestRun_Quick_SkipsActiveScan(t *testing.T) {
	f := &fakeDaemon{alerts: sampleAlerts}
	c := engineForDaemon(t, f)

	res, err := c.Run(context.Background(), scansdomain.RunRequest{
		TargetURL: "http://t",
		Type:      scansdomain.TypeQuick,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if f.ascanStarted {
		t.Error("quick scan must not start an active scan")
	}
	if res.ZapVersion != "2.15.0" {
		t.Errorf("ZapVersion = %q", res.ZapVersion)
	}
	if len(res.Alerts) != 3 {
		t.Fatalf("alerts = %d, want 3", len(res.Alerts))
	}
	if res.Counts.High != 1 || res.Counts.Medium != 1 || res.Counts.Informational != 1 {
		t.Errorf("counts = %+v", res.Counts)
	}
	if res.Counts.Total != 3 {
		t.Errorf("total = %d, want 3", res.Counts.Total)
	}
}

func TestRun_Standard_RunsActiveScan(t *testing.T) {
	f := &fakeDaemon{alerts: sampleAlerts}
	c := engineForDaemon(t, f)

	_, err := c.Run(context.Background(), scansdomain.RunRequest{
		TargetURL: "http://t",
		Type:      scansdomain.TypeStandard,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !f.ascanStarted {
		t.Error("standard scan must start an active scan")
	}
}

func TestRun_ActiveScanFailure_CarriesPhase(t *testing.T) {
	f := &fakeDaemon{alerts: sampleAlerts, failAscan: true}
	c := engineForDaemon(t, f)

	_, err := c.Run(context.Background(), scansdomain.RunRequest{
		TargetURL: "http://t",
		Type:      scansdomain.TypeDeep,
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var ee *scansdomain.EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("error is %T, want *EngineError", err)
	}
	if ee.Phase != scanerrors.PhaseActive {
		t.Errorf("phase = %q, want %q", ee.Phase, scanerrors.PhaseActive)
	}
}

func TestRun_AlertNameFallback(t *testing.T) {
	f := &fakeDaemon{alerts: `{"alerts":[{"pluginId":"1","alert":"Only Alert Field","risk":"Low","confidence":"Low","url":"http://t/"}]}`}
	c := engineForDaemon(t, f)

	res, err := c.Run(context.Background(), scansdomain.RunRequest{
		TargetURL: "http://t",
		Type:      scansdomain.TypeQuick,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Alerts[0].Name != "Only Alert Field" {
		t.Errorf("Name = %q", res.Alerts[0].Name)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	// Progress never reaches 100, so the run only ends via ctx.
	f := &fakeDaemon{alerts: sampleAlerts}
	f.spiderPolls = -1 << 30
	c := engineForDaemon(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Run(ctx, scansdomain.RunRequest{
		TargetURL: "http://t",
		Type:      scansdomain.TypeQuick,
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}
