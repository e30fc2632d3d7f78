package report

import (
	"testing"
	"time"

	"github.com/bryanwahyu/zapscan/internal/domain/scans"
	"github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

// newTestData builds a small but representative report input shared by
// the per-format tests.
func newTestData() *Data {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	finished := started.Add(95 * time.Second)

	return &Data{
		ScanID:     "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed",
		TargetURL:  "http://testphp.vulnweb.com",
		ScanType:   "standard",
		Status:     "complete",
		StartedAt:  started,
		FinishedAt: &finished,
		Counts: scans.RiskCounts{
			High:          1,
			Medium:        1,
			Low:           1,
			Informational: 1,
			Total:         4,
		},
		ZapVersion:  "2.15.0",
		GeneratedAt: finished,
		Vulnerabilities: []*vulns.Vulnerability{
			{
				ScanID:      "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed",
				PluginID:    "40018",
				Name:        "SQL Injection",
				Risk:        "High",
				Confidence:  "Medium",
				URL:         "http://testphp.vulnweb.com/listproducts.php?cat=1",
				Param:       "cat",
				Attack:      "1 AND 1=1",
				Evidence:    "You have an error in your SQL syntax",
				Method:      "GET",
				Description: "SQL injection may be possible.",
				Solution:    "Use parameterized queries.",
				Reference:   "https://owasp.org/www-community/attacks/SQL_Injection",
				CWEID:       89,
				WASCID:      19,
			},
			{
				Name:       "X-Frame-Options Header Not Set",
				Risk:       "Medium",
				Confidence: "Medium",
				URL:        "http://testphp.vulnweb.com/",
			},
			{
				Name:       "Cookie Without Secure Flag",
				Risk:       "Low",
				Confidence: "Medium",
				URL:        "http://testphp.vulnweb.com/login.php",
				Param:      "login",
			},
			{
				Name:       "Information Disclosure - Suspicious Comments",
				Risk:       "Informational",
				Confidence: "Low",
				URL:        "http://testphp.vulnweb.com/index.php",
			},
		},
	}
}

func TestNew_KnownFormats(t *testing.T) {
	for _, format := range Formats() {
		r, err := New(format)
		if err != nil {
			t.Errorf("New(%q) error: %v", format, err)
			continue
		}
		if r.Format() != format {
			t.Errorf("New(%q).Format() = %q", format, r.Format())
		}
		if r.ContentType() == "" {
			t.Errorf("New(%q).ContentType() is empty", format)
		}
	}
}

func TestNew_CaseInsensitive(t *testing.T) {
	r, err := New("HTML")
	if err != nil {
		t.Fatalf("New(HTML) error: %v", err)
	}
	if r.Format() != "html" {
		t.Errorf("Format() = %q, want %q", r.Format(), "html")
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New("pdf"); err == nil {
		t.Error("New(pdf) should return an error")
	}
}
