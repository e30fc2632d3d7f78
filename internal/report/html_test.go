package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

func TestHTMLReporter_Format(t *testing.T) {
	r := &HTMLReporter{}
	if got := r.Format(); got != "html" {
		t.Errorf("Format() = %q, want %q", got, "html")
	}
}

func TestHTMLReporter_Generate(t *testing.T) {
	r := &HTMLReporter{}
	data := newTestData()

	var buf bytes.Buffer
	if err := r.Generate(context.Background(), data, &buf); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		data.TargetURL,
		data.ScanID,
		"SQL Injection",
		"CWE-89",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestHTMLReporter_Generate_EscapesFindings(t *testing.T) {
	r := &HTMLReporter{}
	data := newTestData()
	data.Vulnerabilities = append(data.Vulnerabilities, &vulns.Vulnerability{
		Name:     "Cross Site Scripting",
		Risk:     "High",
		URL:      "http://testphp.vulnweb.com/search.php",
		Evidence: `<script>alert(1)</script>`,
	})

	var buf bytes.Buffer
	if err := r.Generate(context.Background(), data, &buf); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Error("alert evidence was not HTML-escaped")
	}
}

func TestRiskClass(t *testing.T) {
	tests := []struct {
		risk string
		want string
	}{
		{"High", "high"},
		{"Medium", "medium"},
		{"Low", "low"},
		{"Informational", "info"},
		{"", "info"},
	}
	fn := htmlFuncs["riskClass"].(func(string) string)
	for _, tt := range tests {
		if got := fn(tt.risk); got != tt.want {
			t.Errorf("riskClass(%q) = %q, want %q", tt.risk, got, tt.want)
		}
	}
}
