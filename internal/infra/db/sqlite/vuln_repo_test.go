package sqlite

import (
	"context"
	"testing"
	"time"

	domain "github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

func seedScanWithFindings(t *testing.T) (*VulnRepository, string) {
	t.Helper()
	db := testDB(t)
	scans := NewScanRepository(db)
	vulns := NewVulnRepository(db)
	ctx := context.Background()

	if err := scans.Save(ctx, sampleScan("scan-1", "acme")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rows := []*domain.Vulnerability{
		{ScanID: "scan-1", Name: "Timestamp Disclosure", Risk: "Informational", Confidence: "Low", URL: "http://t/"},
		{ScanID: "scan-1", Name: "Cookie Without Secure Flag", Risk: "Low", Confidence: "Medium", URL: "http://t/login"},
		{ScanID: "scan-1", Name: "SQL Injection", Risk: "High", Confidence: "Medium", URL: "http://t/?id=1", Param: "id", CWEID: 89},
		{ScanID: "scan-1", Name: "X-Frame-Options Header Not Set", Risk: "Medium", Confidence: "Medium", URL: "http://t/"},
	}
	if err := vulns.BulkInsert(ctx, rows); err != nil {
		t.Fatalf("BulkInsert() error: %v", err)
	}
	return vulns, "scan-1"
}

func TestVulnRepository_ListByScan_RiskOrder(t *testing.T) {
	vulns, scanID := seedScanWithFindings(t)

	got, err := vulns.ListByScan(context.Background(), scanID, "", 0)
	if err != nil {
		t.Fatalf("ListByScan() error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}

	wantOrder := []string{"High", "Medium", "Low", "Informational"}
	for i, w := range wantOrder {
		if got[i].Risk != w {
			t.Errorf("row %d risk = %q, want %q", i, got[i].Risk, w)
		}
	}
	if got[0].CWEID != 89 || got[0].Param != "id" {
		t.Errorf("row 0 = %+v", got[0])
	}
}

func TestVulnRepository_ListByScan_RiskFilter(t *testing.T) {
	vulns, scanID := seedScanWithFindings(t)

	got, err := vulns.ListByScan(context.Background(), scanID, "High", 0)
	if err != nil {
		t.Fatalf("ListByScan() error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "SQL Injection" {
		t.Errorf("got = %+v", got)
	}
}

func TestVulnRepository_ListByScan_Limit(t *testing.T) {
	vulns, scanID := seedScanWithFindings(t)

	got, err := vulns.ListByScan(context.Background(), scanID, "", 2)
	if err != nil {
		t.Fatalf("ListByScan() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestVulnRepository_BulkInsert_Empty(t *testing.T) {
	db := testDB(t)
	vulns := NewVulnRepository(db)
	if err := vulns.BulkInsert(context.Background(), nil); err != nil {
		t.Errorf("BulkInsert(nil) error: %v", err)
	}
}

func TestVulnRepository_BulkInsert_SetsCreatedAt(t *testing.T) {
	db := testDB(t)
	scans := NewScanRepository(db)
	vulns := NewVulnRepository(db)
	ctx := context.Background()

	if err := scans.Save(ctx, sampleScan("scan-1", "acme")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	before := time.Now().Add(-time.Second)
	if err := vulns.BulkInsert(ctx, []*domain.Vulnerability{
		{ScanID: "scan-1", Name: "SQL Injection", Risk: "High"},
	}); err != nil {
		t.Fatalf("BulkInsert() error: %v", err)
	}

	got, err := vulns.ListByScan(ctx, "scan-1", "", 0)
	if err != nil {
		t.Fatalf("ListByScan() error: %v", err)
	}
	if got[0].CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want recent", got[0].CreatedAt)
	}
}
