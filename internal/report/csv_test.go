package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
)

func TestCSVReporter_Format(t *testing.T) {
	r := &CSVReporter{}
	if got := r.Format(); got != "csv" {
		t.Errorf("Format() = %q, want %q", got, "csv")
	}
	if got := r.ContentType(); got != "text/csv" {
		t.Errorf("ContentType() = %q, want %q", got, "text/csv")
	}
}

func TestCSVReporter_Generate(t *testing.T) {
	r := &CSVReporter{}
	data := newTestData()

	var buf bytes.Buffer
	if err := r.Generate(context.Background(), data, &buf); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	cr := csv.NewReader(&buf)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	// 9 summary rows + column header + one row per finding; the blank
	// spacer line is not a record, csv.Reader drops it.
	want := 10 + len(data.Vulnerabilities)
	if len(rows) != want {
		t.Fatalf("rows = %d, want %d", len(rows), want)
	}

	if rows[0][0] != "Scan ID" || rows[0][1] != data.ScanID {
		t.Errorf("header row = %v", rows[0])
	}

	// Every risk bucket that feeds Total gets a summary row
	if rows[8][0] != "Informational" || rows[8][1] != "1" {
		t.Errorf("informational row = %v", rows[8])
	}

	first := rows[10]
	if first[0] != "SQL Injection" || first[1] != "High" {
		t.Errorf("first finding row = %v", first)
	}
	if first[5] != "89" {
		t.Errorf("CWE column = %q, want %q", first[5], "89")
	}
}

func TestCSVReporter_Generate_EmptyCWE(t *testing.T) {
	r := &CSVReporter{}
	data := newTestData()

	var buf bytes.Buffer
	if err := r.Generate(context.Background(), data, &buf); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	// Findings without IDs keep the column empty instead of "0"
	if strings.Contains(buf.String(), "X-Frame-Options Header Not Set,Medium,Medium,http://testphp.vulnweb.com/,,0,") {
		t.Error("zero CWE should render as empty column")
	}
}
