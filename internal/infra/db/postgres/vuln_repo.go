package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

type VulnRepository struct{ db *sql.DB }

func NewVulnRepository(db *sql.DB) *VulnRepository { return &VulnRepository{db: db} }

var _ domain.Repository = (*VulnRepository)(nil)

// BulkInsert writes all findings of one scan in a single transaction.
func (r *VulnRepository) BulkInsert(ctx context.Context, items []*domain.Vulnerability) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
INSERT INTO vulnerabilities
(scan_id, plugin_id, name, risk, confidence, url, param, attack, evidence, method,
 description, solution, reference, cwe_id, wasc_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16);`

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range items {
		created := v.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			v.ScanID, v.PluginID, v.Name, v.Risk, v.Confidence, v.URL,
			v.Param, v.Attack, v.Evidence, v.Method,
			v.Description, v.Solution, v.Reference, v.CWEID, v.WASCID, created,
		); err != nil {
			return fmt.Errorf("insert vulnerability %q: %w", v.Name, err)
		}
	}
	return tx.Commit()
}

// ListByScan returns the findings of one scan ordered by risk weight.
func (r *VulnRepository) ListByScan(ctx context.Context, scanID string, risk string, limit int) ([]*domain.Vulnerability, error) {
	q := `
SELECT id, scan_id, plugin_id, name, risk, confidence, url, param, attack, evidence, method,
       description, solution, reference, cwe_id, wasc_id, created_at
FROM vulnerabilities
WHERE scan_id = $1`
	args := []interface{}{scanID}
	if risk != "" {
		q += fmt.Sprintf(" AND risk = $%d", len(args)+1)
		args = append(args, risk)
	}
	q += `
ORDER BY CASE risk
	WHEN 'High' THEN 0
	WHEN 'Medium' THEN 1
	WHEN 'Low' THEN 2
	ELSE 3 END, id`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Vulnerability
	for rows.Next() {
		var v domain.Vulnerability
		if err := rows.Scan(
			&v.ID, &v.ScanID, &v.PluginID, &v.Name, &v.Risk, &v.Confidence, &v.URL,
			&v.Param, &v.Attack, &v.Evidence, &v.Method,
			&v.Description, &v.Solution, &v.Reference, &v.CWEID, &v.WASCID, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// CountByScan returns the number of findings stored for one scan.
func (r *VulnRepository) CountByScan(ctx context.Context, scanID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vulnerabilities WHERE scan_id = $1;`, scanID).Scan(&n)
	return n, err
}
