package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	domain "github.com/bryanwahyu/zapscan/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

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
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
 status       = excluded.status,
 finished_at  = excluded.finished_at,
 high_risk    = excluded.high_risk,
 medium_risk  = excluded.medium_risk,
 low_risk     = excluded.low_risk,
 info_risk    = excluded.info_risk,
 total_alerts = excluded.total_alerts,
 report_url   = excluded.report_url,
 duration_ms  = excluded.duration_ms,
 zap_version  = excluded.zap_version;
`
	tenant := stringOrDash(s.TenantID)
	started := s.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	var finished any
	if s.FinishedAt != nil {
		finished = s.FinishedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := r.db.ExecContext(ctx, q,
		s.ID, tenant, s.TargetURL, s.Type, s.Status,
		started.UTC().Format(time.RFC3339Nano), finished,
		s.Counts.High, s.Counts.Medium, s.Counts.Low, s.Counts.Informational, s.Counts.Total,
		s.ReportURL, s.DurationMS, s.ZapVersion, s.Source, encodeMetadata(s.Metadata),
	)
	return err
}

// Get by ID + Tenant
func (r *ScanRepository) Get(ctx context.Context, tenant string, id domain.ScanID) (*domain.Scan, error) {
	q := `SELECT ` + scanColumns + ` FROM scans WHERE tenant_id=? AND id=? LIMIT 1;`
	return scanRow(r.db.QueryRowContext(ctx, q, tenant, id))
}

// Latest scans per tenant
func (r *ScanRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + scanColumns + ` FROM scans WHERE tenant_id=? ORDER BY started_at DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScans(rows)
}

// Delete removes the scan row; vulnerabilities cascade via FK.
func (r *ScanRepository) Delete(ctx context.Context, tenant string, id domain.ScanID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scans WHERE tenant_id=? AND id=?;`, tenant, id)
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
	cut := time.Now().AddDate(0, 0, -sinceDays).UTC().Format(time.RFC3339Nano)

	const q = `
SELECT COUNT(*)                    AS total_scans,
       COALESCE(SUM(high_risk),0)   AS high,
       COALESCE(SUM(medium_risk),0) AS medium,
       COALESCE(SUM(low_risk),0)    AS low,
       COALESCE(SUM(info_risk),0)   AS informational
FROM scans
WHERE tenant_id=? AND started_at >= ?;
`
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

	query := `SELECT ` + scanColumns + ` FROM scans WHERE tenant_id=?`
	where, args := filterClauses(filters, tenant)
	query += where

	query += "\n ORDER BY started_at DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	scans, err := collectScans(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
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
		`UPDATE scans SET status = ? WHERE tenant_id = ? AND id = ?;`,
		status, tenant, id)
	return err
}

// UpdateResult closes out a scan row with its final outcome.
func (r *ScanRepository) UpdateResult(ctx context.Context, tenant string, id domain.ScanID, status domain.Status, finishedAt time.Time, counts domain.RiskCounts, reportURL string, durationMS int64) error {
	const q = `
UPDATE scans
SET status       = ?,
    finished_at  = ?,
    high_risk    = ?,
    medium_risk  = ?,
    low_risk     = ?,
    info_risk    = ?,
    total_alerts = ?,
    report_url   = ?,
    duration_ms  = ?
WHERE tenant_id = ? AND id = ?;`
	_, err := r.db.ExecContext(ctx, q,
		status, finishedAt.UTC().Format(time.RFC3339Nano),
		counts.High, counts.Medium, counts.Low, counts.Informational, counts.Total,
		reportURL, durationMS,
		tenant, id,
	)
	return err
}

// Count returns the total number of records matching the given filters
func (r *ScanRepository) Count(ctx context.Context, tenant string, filters map[string]interface{}) (int64, error) {
	query := "SELECT COUNT(*) FROM scans WHERE tenant_id = ?"
	where, args := filterClauses(filters, tenant)
	query += where

	var count int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// filterClauses builds the shared WHERE tail for Paginate and Count.
func filterClauses(filters map[string]interface{}, tenant string) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{tenant}
	if filters != nil {
		for key, value := range filters {
			switch key {
			case "status":
				sb.WriteString(" AND status = ?")
				args = append(args, value)
			case "type":
				sb.WriteString(" AND scan_type = ?")
				args = append(args, value)
			case "target":
				// LIKE special characters are escaped to keep the
				// pattern literal
				sb.WriteString(" AND target_url LIKE ? ESCAPE '\\'")
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

func scanRow(row *sql.Row) (*domain.Scan, error) {
	var s domain.Scan
	var started, meta string
	var finished sql.NullString
	var hi, med, lo, info, tot int
	if err := row.Scan(
		&s.ID, &s.TenantID, &s.TargetURL, &s.Type, &s.Status, &started, &finished,
		&hi, &med, &lo, &info, &tot,
		&s.ReportURL, &s.DurationMS, &s.ZapVersion, &s.Source, &meta,
	); err != nil {
		return nil, err
	}
	fillTimes(&s, started, finished)
	s.Metadata = decodeMetadata(meta)
	s.Counts = domain.RiskCounts{High: hi, Medium: med, Low: lo, Informational: info, Total: tot}
	return &s, nil
}

func collectScans(rows *sql.Rows) ([]*domain.Scan, error) {
	var out []*domain.Scan
	for rows.Next() {
		var s domain.Scan
		var started, meta string
		var finished sql.NullString
		var hi, med, lo, info, tot int
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.TargetURL, &s.Type, &s.Status, &started, &finished,
			&hi, &med, &lo, &info, &tot,
			&s.ReportURL, &s.DurationMS, &s.ZapVersion, &s.Source, &meta,
		); err != nil {
			return nil, err
		}
		fillTimes(&s, started, finished)
		s.Metadata = decodeMetadata(meta)
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

func fillTimes(s *domain.Scan, started string, finished sql.NullString) {
	if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
		s.StartedAt = t
	}
	if finished.Valid {
		if t, err := time.Parse(time.RFC3339Nano, finished.String); err == nil {
			s.FinishedAt = &t
		}
	}
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
