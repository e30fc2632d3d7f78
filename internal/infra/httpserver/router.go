package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appai "github.com/bryanwahyu/zapscan/internal/application/ai"
	appscans "github.com/bryanwahyu/zapscan/internal/application/scans"
	domai "github.com/bryanwahyu/zapscan/internal/domain/ai"
	domain "github.com/bryanwahyu/zapscan/internal/domain/scans"
	"github.com/bryanwahyu/zapscan/internal/middleware"
)

type Router struct {
	scansSvc *appscans.Service
	aiSvc    *appai.Service
}

var errBadRequest = errors.New("bad request")

func NewRouter(scansSvc *appscans.Service, aiSvc *appai.Service) http.Handler {
	r := &Router{scansSvc: scansSvc, aiSvc: aiSvc}
	mux := chi.NewRouter()

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)
		rt.Post("/scans", r.wrap(r.handleStartScan))
		rt.Get("/scans", r.wrap(r.handleListScans))
		rt.Get("/scans/latest", r.wrap(r.handleLatest))
		rt.Get("/scans/{id}", r.wrap(r.handleGet))
		rt.Delete("/scans/{id}", r.wrap(r.handleDelete))
		rt.Post("/scans/{id}/retry", r.wrap(r.handleRetry))
		rt.Get("/scans/{id}/vulnerabilities", r.wrap(r.handleVulnerabilities))
		rt.Get("/scans/{id}/report", r.wrap(r.handleReport))
		rt.Get("/scans/{id}/errors", r.wrap(r.handleScanErrors))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Post("/ai/analyze", r.wrap(r.handleAIAnalyze))
		rt.Get("/ai/analyze", r.wrap(r.handleAIAnalyzeList))
		rt.Get("/ai/analyze/{id}", r.wrap(r.handleAIAnalyzeLatest))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, errBadRequest) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/{tenant}/scans
// Body: {"target_url": "...", "scan_type": "quick|standard|deep"}
func (r *Router) handleStartScan(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	var body struct {
		TargetURL string `json:"target_url"`
		ScanType  string `json:"scan_type"`
		Source    string `json:"source"`
		Metadata  any    `json:"metadata"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if body.ScanType == "" {
		body.ScanType = string(domain.TypeQuick)
	}
	if err := middleware.ValidateScanType(body.ScanType); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := middleware.ValidateTargetURL(body.TargetURL); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if body.Source == "" {
		body.Source = "api"
	}

	cmd := appscans.StartScanCommand{
		TenantID:  tenant,
		TargetURL: body.TargetURL,
		Type:      body.ScanType,
		Source:    middleware.SanitizeString(body.Source),
		Metadata:  body.Metadata,
	}

	// 🚀 Jalankan di background, biar jalan sampai selesai
	go func() {
		middleware.IncrementScans()
		middleware.IncrementScansRunning()
		defer middleware.DecrementScansRunning()

		result, err := r.scansSvc.StartScanUntilDone(cmd)
		if err != nil {
			fmt.Printf("background scan error for tenant=%s target=%s: %v\n",
				tenant, cmd.TargetURL, err)
			middleware.IncrementScansFailed()
			return
		}
		middleware.IncrementScansCompleted()
		middleware.AddAlertsFound(result.Counts.Total)
		fmt.Printf("scan finished: tenant=%s target=%s high=%d medium=%d low=%d report=%s\n",
			tenant, cmd.TargetURL, result.Counts.High, result.Counts.Medium, result.Counts.Low, result.ReportURL)
	}()

	// 🔙 langsung balikin respons ke client
	resp := map[string]any{
		"status":    "queued",
		"tenant":    tenant,
		"target":    cmd.TargetURL,
		"scan_type": cmd.Type,
		"message":   "scan started in background",
		"queuedAt":  time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(resp)
}

// GET /v1/{tenant}/scans?page=&page_size=&status=&type=&target=
func (r *Router) handleListScans(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	filters := map[string]interface{}{}
	if v := q.Get("status"); v != "" {
		filters["status"] = middleware.SanitizeString(v)
	}
	if v := q.Get("type"); v != "" {
		if err := middleware.ValidateScanType(v); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		filters["type"] = v
	}
	if v := q.Get("target"); v != "" {
		filters["target"] = middleware.SanitizeString(v)
	}

	result, err := r.scansSvc.Paginate(req.Context(), tenant, page, size, filters)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /v1/{tenant}/scans/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.scansSvc.Latest(req.Context(), tenant, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/scans/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	scan, err := r.scansSvc.Get(req.Context(), tenant, domain.ScanID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(scan)
}

// DELETE /v1/{tenant}/scans/{id}
// Findings rows cascade with the scan.
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	if err := r.scansSvc.Delete(req.Context(), tenant, domain.ScanID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{tenant}/scans/{id}/retry
// Reruns the target of an existing scan in the background under a new ID.
func (r *Router) handleRetry(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	// pastikan record-nya ada sebelum balikin 202
	if _, err := r.scansSvc.Get(req.Context(), tenant, domain.ScanID(id)); err != nil {
		return err
	}

	go func() {
		if _, err := r.scansSvc.RetryScan(context.Background(), tenant, domain.ScanID(id)); err != nil {
			fmt.Printf("background retry error for tenant=%s scan=%s: %v\n", tenant, id, err)
		}
	}()

	resp := map[string]any{
		"status":   "queued",
		"tenant":   tenant,
		"scan_id":  id,
		"message":  "retry started in background",
		"queuedAt": time.Now(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(resp)
}

// GET /v1/{tenant}/scans/{id}/vulnerabilities?risk=&limit=
func (r *Router) handleVulnerabilities(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	risk := req.URL.Query().Get("risk")
	if risk != "" {
		if err := middleware.ValidateRisk(risk); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.scansSvc.Vulnerabilities(req.Context(), tenant, domain.ScanID(id), risk, limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/scans/{id}/report?format=html|json|csv|xlsx
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	format := req.URL.Query().Get("format")
	if format == "" {
		format = "html"
	}

	data, rep, err := r.scansSvc.Report(req.Context(), tenant, domain.ScanID(id), format)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	w.Header().Set("Content-Type", rep.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=zapscan-%s.%s", id, rep.Format()))
	return rep.Generate(req.Context(), data, w)
}

// GET /v1/{tenant}/scans/{id}/errors?limit=
func (r *Router) handleScanErrors(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.scansSvc.ScanErrors(req.Context(), tenant, domain.ScanID(id), limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	summary, err := r.scansSvc.Summary(req.Context(), tenant, days)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}

// POST /v1/{tenant}/ai/analyze
// Body: {"scan_id": "<id>"}
// The server fetches the scan's findings and runs AI analysis over their digest.
func (r *Router) handleAIAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		ScanID string `json:"scan_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := middleware.ValidateScanID(body.ScanID); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	scan, err := r.scansSvc.Get(req.Context(), tenant, domain.ScanID(body.ScanID))
	if err != nil {
		return err
	}
	findings, err := r.scansSvc.Vulnerabilities(req.Context(), tenant, scan.ID, "", 0)
	if err != nil {
		return err
	}

	a, err := r.aiSvc.AnalyzeAndStore(req.Context(), tenant, string(scan.ID), scan.TargetURL, findings)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(a)
}

// GET /v1/{tenant}/ai/analyze?page=&page_size=
func (r *Router) handleAIAnalyzeList(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.aiSvc.ListAnalyses(req.Context(), tenant, page, size)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/ai/analyze/{id} — most recent analysis of one scan
func (r *Router) handleAIAnalyzeLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	a, err := r.aiSvc.LatestForScan(req.Context(), tenant, id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(a)
}
