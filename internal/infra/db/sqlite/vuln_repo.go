package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

type VulnRepository struct {
	db *sql.DB
}

func NewVulnRepository(db *sql.DB) *VulnRepository {
	return &VulnRepository{db: db}
}

var _ domain.Repository = (*VulnRepository)(nil)

// BulkInsert writes all findings of one scan in a single transaction.
// Rows are immutable afterwards.
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
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`
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
			v.Description, v.Solution, v.Reference, v.CWEID, v.WASCID,
			created.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert vulnerability %q: %w", v.Name, err)
		}
	}
	return tx.Commit()
}

// ListByScan returns the findings of one scan ordered by risk weight,
// then insertion order.
func (r *VulnRepository) ListByScan(ctx context.Context, scanID string, risk string, limit int) ([]*domain.Vulnerability, error) {
	q := `
SELECT id, scan_id, plugin_id, name, risk, confidence, url, param, attack, evidence, method,
       description, solution, reference, cwe_id, wasc_id, created_at
FROM vulnerabilities
WHERE scan_id = ?`
	args := []interface{}{scanID}
	if risk != "" {
		q += " AND risk = ?"
		args = append(args, risk)
	}
	q += `
ORDER BY CASE risk
	WHEN 'High' THEN 0
	WHEN 'Medium' THEN 1
	WHEN 'Low' THEN 2
	ELSE 3 END, id`
	if limit > 0 {
		q += " LIMIT ?"
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
		var created string
		if err := rows.Scan(
			&v.ID, &v.ScanID, &v.PluginID, &v.Name, &v.Risk, &v.Confidence, &v.URL,
			&v.Param, &v.Attack, &v.Evidence, &v.Method,
			&v.Description, &v.Solution, &v.Reference, &v.CWEID, &v.WASCID, &created,
		); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			v.CreatedAt = t
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// CountByScan returns the number of findings stored for one scan.
func (r *VulnRepository) CountByScan(ctx context.Context, scanID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vulnerabilities WHERE scan_id = ?;`, scanID).Scan(&n)
	return n, err
}
