// Package sqlite is the default persistence backend, using
// modernc.org/sqlite (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// schema bootstraps the two core tables plus the audit tables. The
// vulnerabilities FK cascades so deleting a scan removes its findings.
const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL DEFAULT '-',
	target_url   TEXT NOT NULL,
	scan_type    TEXT NOT NULL,
	status       TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	high_risk    INTEGER NOT NULL DEFAULT 0,
	medium_risk  INTEGER NOT NULL DEFAULT 0,
	low_risk     INTEGER NOT NULL DEFAULT 0,
	info_risk    INTEGER NOT NULL DEFAULT 0,
	total_alerts INTEGER NOT NULL DEFAULT 0,
	report_url   TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	zap_version  TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	metadata     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_scans_tenant_started ON scans(tenant_id, started_at);

CREATE TABLE IF NOT EXISTS vulnerabilities (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id     TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	plugin_id   TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL,
	risk        TEXT NOT NULL,
	confidence  TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	param       TEXT NOT NULL DEFAULT '',
	attack      TEXT NOT NULL DEFAULT '',
	evidence    TEXT NOT NULL DEFAULT '',
	method      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	solution    TEXT NOT NULL DEFAULT '',
	reference   TEXT NOT NULL DEFAULT '',
	cwe_id      INTEGER NOT NULL DEFAULT 0,
	wasc_id     INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vulnerabilities_scan_id ON vulnerabilities(scan_id);
CREATE INDEX IF NOT EXISTS idx_vulnerabilities_risk ON vulnerabilities(risk);

CREATE TABLE IF NOT EXISTS scan_errors (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id    TEXT NOT NULL DEFAULT '-',
	scan_id      TEXT NOT NULL DEFAULT '-',
	phase        TEXT NOT NULL DEFAULT '-',
	message      TEXT NOT NULL DEFAULT '-',
	details_json TEXT NOT NULL DEFAULT '{}',
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_errors_scan ON scan_errors(tenant_id, scan_id);

CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL DEFAULT '-',
	scan_id     TEXT NOT NULL DEFAULT '',
	target_url  TEXT NOT NULL DEFAULT '',
	result_json TEXT NOT NULL DEFAULT '{}',
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_tenant_created ON analyses(tenant_id, created_at);
`

// Connect opens (or creates) the database file, enables FK enforcement
// and bootstraps the schema. Use ":memory:" for tests.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// Single connection: SQLite allows one writer, and the foreign_keys
	// pragma below is per-connection.
	db.SetMaxOpenConns(1)

	// SQLite ships with FK checks off; the cascade on vulnerabilities
	// depends on them.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return db, nil
}
