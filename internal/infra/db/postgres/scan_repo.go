package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/bryanwahyu/zapscan/internal/domain/scans"
)

type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

var _ domain.Repository = (*ScanRepository)(nil)

const scanColumns = `id, tenant_id, target_url, scan_type, status, started_at, finished_at,
       high_risk, medium_risk, low_risk, info_risk, total_alerts,
       report_url, duration_ms, zap_version, source, metadata`

// Save insert/update Scan record
func (r *ScanRepository) Save(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO scans
(id, tenant_id, target_url, scan_type, status, started_at, finished_at,
 high_risk, medium_risk, low_risk, info_risk, total_alerts,
 report_url, duration_ms, zap_version, source, metadata)
VALUES ($1,$2,$3,$4,$5,$6,$7,
        $8,$9,$10,$11,$12,
        $13,$14,$15,$16,$17)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 finished_at = EXCLUDED.finished_at,
 high_risk = EXCLUDED.high_risk,
 medium_risk = EXCLUDED.medium_risk,
 low_risk = EXCLUDED.low_risk,
 info_risk = EXCLUDED.info_risk,
 total_alerts = EXCLUDED.total_alerts,
 report_url = EXCLUDED.report_url,
 duration_ms = EXCLUDED.duration_ms,
 zap_version = EXCLUDED.zap_version;`

	tenant := stringOrDash(s.TenantID)
	started := s.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	var finished any
	if s.FinishedAt != nil {
		finished = *s.FinishedAt
	}

	_, err := r.db.ExecContext(ctx, q,
		s.ID, tenant, s.TargetURL, s.Type, s.Status, started, finished,
		s.Counts.High, s.Counts.Medium, s.Counts.Low, s.Counts.Informational, s.Counts.Total,
		s.ReportURL, s.DurationMS, s.ZapVersion, s.Source, encodeMetadata(s.Metadata),
	)
	return err
}

// Get by ID + Tenant
func (r *ScanRepository) Get(ctx context.Context, tenant string, id domain.ScanID) (*domain.Scan, error) {
	q := `SELECT ` + scanColumns + ` FROM scans WHERE tenant_id=$1 AND id=$2 LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, tenant, id)
	var s domain.Scan
	var finished sql.NullTime
	var meta sql.NullString
	var hi, med, lo, info, tot int
	if err := row.Scan(
		&s.ID, &s.TenantID, &s.TargetURL, &s.Type, &s.Status, &s.StartedAt, &finished,
		&hi, &med, &lo, &info, &tot,
		&s.ReportURL, &s.DurationMS, &s.ZapVersion, &s.Source, &meta,
	); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		s.FinishedAt = &t
	}
	s.Metadata = decodeMetadata(meta.String)
	s.Counts = domain.RiskCounts{High: hi, Medium: med, Low: lo, Informational: info, Total: tot}
	return &s, nil
}

// Latest scans per tenant
func (r *ScanRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + scanColumns + ` FROM scans WHERE tenant_id=$1 ORDER BY started_at DESC LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScans(rows)
}

// Delete removes the scan row; the FK cascades to vulnerabilities.
func (r *ScanRepository) Delete(ctx context.Context, tenant string, id domain.ScanID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scans WHERE tenant_id=$1 AND id=$2;`, tenant, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Summary counts scan results since N days
func (r *ScanRepository) Summary(ctx context.Context, tenant string, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)
	const q = `
SELECT COUNT(*)                     AS total_scans,
       COALESCE(SUM(high_risk),0)   AS high,
       COALESCE(SUM(medium_risk),0) AS medium,
       COALESCE(SUM(low_risk),0)    AS low,
       COALESCE(SUM(info_risk),0)   AS informational
FROM scans
WHERE tenant_id=$1 AND started_at >= $2;`
	var sum domain.Summary
	if err := r.db.QueryRowContext(ctx, q, tenant, cut).Scan(
		&sum.TotalScans, &sum.High, &sum.Medium, &sum.Low, &sum.Informational,
	); err != nil {
		return domain.Summary{}, err
	}
	return sum, nil
}

// Paginate with offset + limit (classic pagination)
func (r *ScanRepository) Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := `SELECT ` + scanColumns + ` FROM scans WHERE tenant_id=$1`
	where, args := filterClauses(filters, tenant)
	query += where

	query += fmt.Sprintf("\n ORDER BY started_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	scans, err := collectScans(rows)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("scanning rows: %w", err)
	}

	total, err := r.Count(ctx, tenant, filters)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       scans,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// UpdateStatus hanya update kolom status
func (r *ScanRepository) UpdateStatus(ctx context.Context, tenant string, id domain.ScanID, status domain.Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scans SET status = $1 WHERE tenant_id = $2 AND id = $3;`,
		status, tenant, id)
	return err
}

// UpdateResult closes out a scan row with its final outcome.
func (r *ScanRepository) UpdateResult(ctx context.Context, tenant string, id domain.ScanID, status domain.Status, finishedAt time.Time, counts domain.RiskCounts, reportURL string, durationMS int64) error {
	const q = `
UPDATE scans
SET status       = $1,
    finished_at  = $2,
    high_risk    = $3,
    medium_risk  = $4,
    low_risk     = $5,
    info_risk    = $6,
    total_alerts = $7,
    report_url   = $8,
    duration_ms  = $9
WHERE tenant_id = $10 AND id = $11;`
	_, err := r.db.ExecContext(ctx, q,
		status, finishedAt,
		counts.High, counts.Medium, counts.Low, counts.Informational, counts.Total,
		reportURL, durationMS,
		tenant, id,
	)
	return err
}

// Count returns the total number of records matching the given filters
func (r *ScanRepository) Count(ctx context.Context, tenant string, filters map[string]interface{}) (int64, error) {
	query := "SELECT COUNT(*) FROM scans WHERE tenant_id = $1"
	where, args := filterClauses(filters, tenant)
	query += where

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// filterClauses builds the shared WHERE tail for Paginate and Count,
// numbering placeholders after the tenant argument.
func filterClauses(filters map[string]interface{}, tenant string) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{tenant}
	if filters != nil {
		for key, value := range filters {
			switch key {
			case "status":
				sb.WriteString(fmt.Sprintf(" AND status = $%d", len(args)+1))
				args = append(args, value)
			case "type":
				sb.WriteString(fmt.Sprintf(" AND scan_type = $%d", len(args)+1))
				args = append(args, value)
			case "target":
				sb.WriteString(fmt.Sprintf(" AND target_url LIKE $%d", len(args)+1))
				term := escapeLikePattern(value.(string))
				args = append(args, "%"+term+"%")
			}
		}
	}
	return sb.String(), args
}

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func collectScans(rows *sql.Rows) ([]*domain.Scan, error) {
	var out []*domain.Scan
	for rows.Next() {
		var s domain.Scan
		var finished sql.NullTime
		var meta sql.NullString
		var hi, med, lo, info, tot int
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.TargetURL, &s.Type, &s.Status, &s.StartedAt, &finished,
			&hi, &med, &lo, &info, &tot,
			&s.ReportURL, &s.DurationMS, &s.ZapVersion, &s.Source, &meta,
		); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			s.FinishedAt = &t
		}
		s.Metadata = decodeMetadata(meta.String)
		s.Counts = domain.RiskCounts{High: hi, Medium: med, Low: lo, Informational: info, Total: tot}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// encodeMetadata stores caller metadata as a JSON string ("" when absent).
func encodeMetadata(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeMetadata(raw string) any {
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return v
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
