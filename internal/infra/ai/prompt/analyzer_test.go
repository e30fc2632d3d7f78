package prompt

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) Suggestion {
	t.Helper()
	var out Suggestion
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, raw)
	}
	return out
}

const sampleDigest = `target: http://testphp.vulnweb.com
findings: 5
- [High/Medium] SQL Injection at http://testphp.vulnweb.com/listproducts.php?cat=1 (param cat) CWE-89
- [High/Medium] SQL Injection at http://testphp.vulnweb.com/artists.php?artist=1 (param artist) CWE-89
- [Medium/Medium] X-Frame-Options Header Not Set at http://testphp.vulnweb.com/
- [Low/Medium] Cookie Without Secure Flag at http://testphp.vulnweb.com/login.php
- [Informational/Low] Timestamp Disclosure at http://testphp.vulnweb.com/
`

func TestAnalyzeDigest_GroupsAndCounts(t *testing.T) {
	out := decode(t, AnalyzeDigest("http://testphp.vulnweb.com", sampleDigest))

	if out.TargetURL != "http://testphp.vulnweb.com" {
		t.Errorf("target_url = %q", out.TargetURL)
	}

	// Two SQL Injection lines collapse into one finding.
	if len(out.Findings) != 4 {
		t.Fatalf("findings = %d, want 4", len(out.Findings))
	}
	if out.Findings[0].Title != "SQL Injection" || out.Findings[0].Severity != "high" {
		t.Errorf("first finding = %+v", out.Findings[0])
	}
	if out.Findings[0].Summary == "" || out.Findings[0].Recommendation == "" {
		t.Error("grouped finding must carry a summary and recommendation")
	}

	// Informational rows are listed but never counted.
	if out.Counts.High != 1 || out.Counts.Medium != 1 || out.Counts.Low != 1 || out.Counts.Total != 3 {
		t.Errorf("counts = %+v", out.Counts)
	}
}

func TestAnalyzeDigest_PrioritizeOrder(t *testing.T) {
	out := decode(t, AnalyzeDigest("http://t", sampleDigest))

	want := []string{"SQL Injection", "X-Frame-Options Header Not Set", "Cookie Without Secure Flag"}
	if len(out.Prioritize) != len(want) {
		t.Fatalf("prioritize = %v", out.Prioritize)
	}
	for i := range want {
		if out.Prioritize[i] != want[i] {
			t.Errorf("prioritize[%d] = %q, want %q", i, out.Prioritize[i], want[i])
		}
	}
}

func TestAnalyzeDigest_HighAdvice(t *testing.T) {
	out := decode(t, AnalyzeDigest("http://t", sampleDigest))
	if out.Advice == "" {
		t.Fatal("advice must not be empty")
	}
	if got := out.Advice; got[:9] != "Immediate" {
		t.Errorf("advice with high findings should call for immediate action, got %q", got)
	}
}

func TestAnalyzeDigest_EmptyDigest(t *testing.T) {
	out := decode(t, AnalyzeDigest("http://t", "target: http://t\nfindings: 0\n"))

	if len(out.Findings) == 0 {
		t.Fatal("an empty digest still produces baseline findings")
	}
	for _, f := range out.Findings {
		if f.Severity != "info" {
			t.Errorf("baseline finding severity = %q", f.Severity)
		}
	}
	if out.Counts.Total != 0 {
		t.Errorf("total = %d, want 0", out.Counts.Total)
	}
	if len(out.Prioritize) != 0 {
		t.Errorf("prioritize = %v, want empty", out.Prioritize)
	}
}

func TestAnalyzeDigest_SitewideSummary(t *testing.T) {
	digest := `target: http://t
- [Medium/Medium] X-Frame-Options Header Not Set at http://t/
- [Medium/Medium] X-Frame-Options Header Not Set at http://t/login
- [Medium/Medium] X-Frame-Options Header Not Set at http://t/admin
`
	out := decode(t, AnalyzeDigest("http://t", digest))
	if len(out.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(out.Findings))
	}
	if out.Findings[0].Summary != "Reported at multiple URLs; likely a sitewide issue rather than a single endpoint." {
		t.Errorf("summary = %q", out.Findings[0].Summary)
	}
}
