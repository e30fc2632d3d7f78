package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func authedRouter(keys map[string]string) http.Handler {
	mux := chi.NewRouter()
	mux.Use(APIKeyAuth(keys))
	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(RequireValidTenant)
		rt.Get("/scans", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	})
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return mux
}

func TestAPIKeyAuth_MissingHeader(t *testing.T) {
	h := authedRouter(map[string]string{"acme": "k-123"})

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/scans", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	h := authedRouter(map[string]string{"acme": "k-123"})

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/scans", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	h := authedRouter(map[string]string{"acme": "k-123"})

	for _, header := range []string{"Bearer k-123", "k-123"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/acme/scans", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("header %q: status = %d, want 200", header, rec.Code)
		}
	}
}

func TestAPIKeyAuth_SkipsHealth(t *testing.T) {
	h := authedRouter(map[string]string{"acme": "k-123"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireValidTenant_CrossTenant(t *testing.T) {
	h := authedRouter(map[string]string{"acme": "k-123", "globex": "k-456"})

	// acme's key must not read globex's scans
	req := httptest.NewRequest(http.MethodGet, "/v1/globex/scans", nil)
	req.Header.Set("Authorization", "Bearer k-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireValidTenant_BadFormat(t *testing.T) {
	h := authedRouter(map[string]string{"acme": "k-123"})

	req := httptest.NewRequest(http.MethodGet, "/v1/bad!tenant/scans", nil)
	req.Header.Set("Authorization", "Bearer k-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
