package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

func TestVulnRepository_BulkInsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVulnRepository(db)

	created := time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO vulnerabilities")
	prep.ExpectExec().
		WithArgs(
			"scan-1", "40018", "SQL Injection", "High", "Medium", "http://t/?id=1",
			"id", "1 AND 1=1", "error in your SQL syntax", "GET",
			"SQL injection may be possible.", "Use parameterized queries.", "", 89, 19, created,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(
			"scan-1", "", "Missing Header", "Low", "", "http://t/",
			"", "", "", "", "", "", "", 0, 0, created,
		).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.BulkInsert(context.Background(), []*domain.Vulnerability{
		{
			ScanID: "scan-1", PluginID: "40018", Name: "SQL Injection",
			Risk: "High", Confidence: "Medium", URL: "http://t/?id=1",
			Param: "id", Attack: "1 AND 1=1", Evidence: "error in your SQL syntax",
			Method:      "GET",
			Description: "SQL injection may be possible.",
			Solution:    "Use parameterized queries.",
			CWEID:       89, WASCID: 19, CreatedAt: created,
		},
		{ScanID: "scan-1", Name: "Missing Header", Risk: "Low", URL: "http://t/", CreatedAt: created},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVulnRepository_BulkInsert_Empty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVulnRepository(db)

	// no expectations: empty input must not touch the database
	err := repo.BulkInsert(context.Background(), nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVulnRepository_ListByScan_RiskFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVulnRepository(db)

	created := time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC)
	cols := []string{
		"id", "scan_id", "plugin_id", "name", "risk", "confidence", "url",
		"param", "attack", "evidence", "method",
		"description", "solution", "reference", "cwe_id", "wasc_id", "created_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM vulnerabilities WHERE scan_id = \\? AND risk = \\?").
		WithArgs("scan-1", "High").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			int64(1), "scan-1", "40018", "SQL Injection", "High", "Medium", "http://t/?id=1",
			"id", "", "", "GET", "", "", "", 89, 19, created,
		))

	got, err := repo.ListByScan(context.Background(), "scan-1", "High", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SQL Injection", got[0].Name)
	assert.Equal(t, 89, got[0].CWEID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
