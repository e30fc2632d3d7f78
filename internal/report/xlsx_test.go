package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXReporter_Format(t *testing.T) {
	r := &XLSXReporter{}
	if got := r.Format(); got != "xlsx" {
		t.Errorf("Format() = %q, want %q", got, "xlsx")
	}
}

func TestXLSXReporter_Generate(t *testing.T) {
	r := &XLSXReporter{}
	data := newTestData()

	var buf bytes.Buffer
	if err := r.Generate(context.Background(), data, &buf); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a valid workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" || sheets[1] != "Findings" {
		t.Fatalf("sheets = %v, want [Summary Findings]", sheets)
	}

	rows, err := f.GetRows("Findings")
	if err != nil {
		t.Fatalf("GetRows error: %v", err)
	}
	// header + one row per finding
	if len(rows) != 1+len(data.Vulnerabilities) {
		t.Fatalf("finding rows = %d, want %d", len(rows), 1+len(data.Vulnerabilities))
	}
	if rows[1][0] != "SQL Injection" {
		t.Errorf("first finding = %q", rows[1][0])
	}

	target, err := f.GetCellValue("Summary", "B2")
	if err != nil {
		t.Fatalf("GetCellValue error: %v", err)
	}
	if target != data.TargetURL {
		t.Errorf("Summary!B2 = %q, want %q", target, data.TargetURL)
	}
}
