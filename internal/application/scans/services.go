package scans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/zapscan/internal/domain/scanerrors"
	scansdomain "github.com/bryanwahyu/zapscan/internal/domain/scans"
	vulnsdomain "github.com/bryanwahyu/zapscan/internal/domain/vulns"
	"github.com/bryanwahyu/zapscan/internal/report"
)

// Service implements use-cases untuk Scan
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo      scansdomain.Repository
	Vulns     vulnsdomain.Repository
	Errors    domain.Repository
	Engine    scansdomain.Engine
	Artifacts scansdomain.ArtifactStore
	Clock     Clock
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

//
// ==== USE CASES ====
//

// Command untuk trigger scan
type StartScanCommand struct {
	TenantID  string
	TargetURL string
	Type      string
	Source    string
	Metadata  any
}

type StartScanResult struct {
	ID         string                 `json:"id"`
	Status     string                 `json:"status"`
	Counts     scansdomain.RiskCounts `json:"counts"`
	ReportURL  string                 `json:"report_url"`
	DurationMS int64                  `json:"duration_ms"`
}

// StartScanUntilDone → jalanin scan dengan context.Background()
// cocok dipanggil dari goroutine di router supaya gak kena context canceled
func (s *Service) StartScanUntilDone(cmd StartScanCommand) (StartScanResult, error) {
	return s.StartScan(context.Background(), cmd)
}

// StartScan drives one whole scan: create the running row, run the ZAP
// engine, persist alerts, roll up counts, render + upload the HTML
// report, and close the row as complete or failed.
func (s *Service) StartScan(ctx context.Context, cmd StartScanCommand) (StartScanResult, error) {
	now := s.Clock.Now()
	id := uuid.New().String()

	// Accept "Quick"/"QUICK" from callers; the stored type is canonical
	scanType := scansdomain.ScanType(strings.ToLower(cmd.Type))
	if !scansdomain.ValidType(scanType) {
		return StartScanResult{}, fmt.Errorf("unsupported scan type: %q", cmd.Type)
	}

	// Create an initial scan row so we always have an ID to reference
	initial := &scansdomain.Scan{
		ID:        scansdomain.ScanID(id),
		TenantID:  cmd.TenantID,
		TargetURL: cmd.TargetURL,
		Type:      scanType,
		Status:    scansdomain.StatusRunning,
		StartedAt: now,
		Source:    cmd.Source,
		Metadata:  cmd.Metadata,
	}
	if err := s.Repo.Save(ctx, initial); err != nil {
		return StartScanResult{ID: id, Status: string(scansdomain.StatusFailed)}, err
	}

	res, err := s.Engine.Run(ctx, scansdomain.RunRequest{
		TargetURL: cmd.TargetURL,
		Type:      scanType,
	})
	if err != nil {
		phase := domain.PhaseSpider
		var ee *scansdomain.EngineError
		if errors.As(err, &ee) {
			phase = ee.Phase
		}
		return s.fail(cmd.TenantID, id, phase, err)
	}

	// persist alerts as vulnerability rows, one per alert
	rows := make([]*vulnsdomain.Vulnerability, 0, len(res.Alerts))
	for _, a := range res.Alerts {
		rows = append(rows, alertToVuln(id, a, now))
	}
	if err := s.Vulns.BulkInsert(ctx, rows); err != nil {
		return s.fail(cmd.TenantID, id, domain.PhasePersist, err)
	}

	finished := s.Clock.Now()
	counts := res.Counts
	if counts.Total == 0 && len(res.Alerts) > 0 {
		counts = scansdomain.CountAlerts(res.Alerts)
	}

	reportURL, err := s.publishReport(ctx, cmd.TenantID, id, initial, res, counts, finished)
	if err != nil {
		// report failure is recorded but does not fail the scan itself;
		// the findings are already persisted
		s.recordError(cmd.TenantID, id, domain.PhaseReport, err)
	}

	durationMS := finished.Sub(now).Milliseconds()
	if err := s.Repo.UpdateResult(ctx, cmd.TenantID, scansdomain.ScanID(id),
		scansdomain.StatusComplete, finished, counts, reportURL, durationMS); err != nil {
		return StartScanResult{ID: id, Status: string(scansdomain.StatusComplete)}, err
	}

	return StartScanResult{
		ID:         id,
		Status:     string(scansdomain.StatusComplete),
		Counts:     counts,
		ReportURL:  reportURL,
		DurationMS: durationMS,
	}, nil
}

// RetryScan re-runs the target of an existing scan record, typically a
// failed one. The rerun gets its own scan row and ID; the old row and
// its findings are left untouched.
func (s *Service) RetryScan(ctx context.Context, tenant string, id scansdomain.ScanID) (StartScanResult, error) {
	existing, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return StartScanResult{}, err
	}
	if existing == nil {
		return StartScanResult{}, fmt.Errorf("scan not found: %s", id)
	}

	return s.StartScan(ctx, StartScanCommand{
		TenantID:  tenant,
		TargetURL: existing.TargetURL,
		Type:      string(existing.Type),
		Source:    existing.Source,
		Metadata:  existing.Metadata,
	})
}

// Latest ambil N scan terakhir
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*scansdomain.Scan, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// Get ambil 1 scan by id
func (s *Service) Get(ctx context.Context, tenant string, id scansdomain.ScanID) (*scansdomain.Scan, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Paginate lists scans page by page with optional filters
// (status, type, target).
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (scansdomain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, tenant, page, pageSize, filters)
}

// Delete removes a scan; the schema cascades the delete to its
// vulnerability rows.
func (s *Service) Delete(ctx context.Context, tenant string, id scansdomain.ScanID) error {
	return s.Repo.Delete(ctx, tenant, id)
}

// Vulnerabilities lists the persisted findings of one scan, optionally
// filtered by risk level.
func (s *Service) Vulnerabilities(ctx context.Context, tenant string, id scansdomain.ScanID, risk string, limit int) ([]*vulnsdomain.Vulnerability, error) {
	scan, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return s.Vulns.ListByScan(ctx, string(scan.ID), risk, limit)
}

// ScanErrors lists recorded failures for one scan.
func (s *Service) ScanErrors(ctx context.Context, tenant string, id scansdomain.ScanID, limit int) ([]*domain.ScanError, error) {
	return s.Errors.ListByScan(ctx, tenant, string(id), limit)
}

// Summary rekap hasil scan N hari terakhir
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (scansdomain.Summary, error) {
	return s.Repo.Summary(ctx, tenant, sinceDays)
}

// Report renders a stored scan in the requested format.
func (s *Service) Report(ctx context.Context, tenant string, id scansdomain.ScanID, format string) (*report.Data, report.Reporter, error) {
	scan, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.Vulns.ListByScan(ctx, string(scan.ID), "", 0)
	if err != nil {
		return nil, nil, err
	}
	rep, err := report.New(format)
	if err != nil {
		return nil, nil, err
	}
	return report.Build(scan, rows), rep, nil
}

// publishReport renders the HTML report to a temp file and uploads it
// to the artifact store. Returns the public URL.
func (s *Service) publishReport(ctx context.Context, tenant, id string, scan *scansdomain.Scan, res scansdomain.RunResult, counts scansdomain.RiskCounts, finished time.Time) (string, error) {
	if s.Artifacts == nil {
		return "", nil
	}

	snapshot := *scan
	snapshot.Status = scansdomain.StatusComplete
	snapshot.Counts = counts
	snapshot.FinishedAt = &finished
	snapshot.ZapVersion = res.ZapVersion

	rows := make([]*vulnsdomain.Vulnerability, 0, len(res.Alerts))
	for _, a := range res.Alerts {
		rows = append(rows, alertToVuln(id, a, finished))
	}

	rep, err := report.New("html")
	if err != nil {
		return "", err
	}

	local := filepath.Join(os.TempDir(), fmt.Sprintf("zapscan-%s.html", id))
	f, err := os.Create(local)
	if err != nil {
		return "", err
	}
	if err := rep.Generate(ctx, report.Build(&snapshot, rows), f); err != nil {
		f.Close()
		os.Remove(local)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(local)
		return "", err
	}

	key := fmt.Sprintf("%s/reports/%s.html", tenant, id)
	return s.Artifacts.UploadAndCleanup(ctx, local, key)
}

// fail marks the scan row failed and records the error entry.
func (s *Service) fail(tenant, id, phase string, cause error) (StartScanResult, error) {
	ctx := context.Background()
	_ = s.Repo.UpdateStatus(ctx, tenant, scansdomain.ScanID(id), scansdomain.StatusFailed)
	s.recordError(tenant, id, phase, cause)
	return StartScanResult{ID: id, Status: string(scansdomain.StatusFailed)}, cause
}

func (s *Service) recordError(tenant, id, phase string, cause error) {
	if s.Errors == nil {
		return
	}
	details, _ := json.Marshal(map[string]string{"error": cause.Error()})
	_ = s.Errors.Save(context.Background(), &domain.ScanError{
		TenantID:    tenant,
		ScanID:      id,
		Phase:       phase,
		Message:     cause.Error(),
		DetailsJSON: string(details),
		CreatedAt:   s.Clock.Now(),
	})
}

func alertToVuln(scanID string, a scansdomain.Alert, at time.Time) *vulnsdomain.Vulnerability {
	return &vulnsdomain.Vulnerability{
		ScanID:      scanID,
		PluginID:    a.PluginID,
		Name:        a.Name,
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
		CWEID:       a.CWEID,
		WASCID:      a.WASCID,
		CreatedAt:   at,
	}
}
