package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/zapscan/internal/domain/analyst"
)

type AnalystRepository struct {
	db *sql.DB
}

func NewAnalystRepository(db *sql.DB) *AnalystRepository {
	return &AnalystRepository{db: db}
}

var _ domain.Repository = (*AnalystRepository)(nil)

// Save inserts an analysis record
func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
  (id, tenant_id, scan_id, target_url, result_json, created_at)
VALUES (?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  tenant_id=excluded.tenant_id, scan_id=excluded.scan_id,
  target_url=excluded.target_url, result_json=excluded.result_json;
`
	tenant := stringOrDash(a.TenantID)
	result := a.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, a.ID, tenant, a.ScanID, a.TargetURL, result,
		created.UTC().Format(time.RFC3339Nano))
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalystRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, scan_id, target_url, result_json, created_at
FROM analyses
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// LatestByScan returns the newest analysis of one scan, or nil.
func (r *AnalystRepository) LatestByScan(ctx context.Context, tenant string, scanID string) (*domain.Analysis, error) {
	const q = `
SELECT id, tenant_id, scan_id, target_url, result_json, created_at
FROM analyses
WHERE tenant_id=? AND scan_id=?
ORDER BY created_at DESC
LIMIT 1;`
	rows, err := r.db.QueryContext(ctx, q, tenant, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := collectAnalyses(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, sql.ErrNoRows
	}
	return out[0], nil
}

func collectAnalyses(rows *sql.Rows) ([]*domain.Analysis, error) {
	var out []*domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		var created string
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ScanID, &a.TargetURL, &a.Result, &created); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			a.CreatedAt = t
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
