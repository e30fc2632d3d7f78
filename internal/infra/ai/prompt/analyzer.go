package prompt

import (
	"encoding/json"
	"regexp"
	"strings"
)

// AnalyzeDigest summarizes a findings digest locally and returns a JSON string
// matching the required schema. Used when no AI provider is configured; it
// never prints, it only returns the JSON string.
func AnalyzeDigest(targetURL string, digest string) string {
	type Finding struct {
		Title          string `json:"title"`
		Severity       string `json:"severity"`
		Summary        string `json:"summary"`
		Recommendation string `json:"recommendation"`
	}

	type Counts struct {
		High   int `json:"high"`
		Medium int `json:"medium"`
		Low    int `json:"low"`
		Total  int `json:"total"`
	}

	type Output struct {
		TargetURL  string    `json:"target_url"`
		Counts     Counts    `json:"counts"`
		Findings   []Finding `json:"findings"`
		Prioritize []string  `json:"prioritize"`
		Advice     string    `json:"advice"`
	}

	out := Output{TargetURL: targetURL}
	findings := make([]Finding, 0, 16)

	// Add a finding and increment counts appropriately (info not counted)
	addFinding := func(sev, title, summary, rec string) {
		sev = strings.ToLower(sev)
		findings = append(findings, Finding{
			Title:          title,
			Severity:       sev,
			Summary:        summary,
			Recommendation: rec,
		})
		switch sev {
		case "high":
			out.Counts.High++
		case "medium":
			out.Counts.Medium++
		case "low":
			out.Counts.Low++
		}
	}

	// Digest lines look like "- [Risk/Confidence] Alert name at URL ...". Group by
	// alert name so repeated hits of the same plugin collapse into one finding.
	lineRe := regexp.MustCompile(`^- \[([A-Za-z]+)(?:/[A-Za-z]+)?\] ([^\n]+?)(?: at \S+.*)?$`)
	type group struct {
		risk  string
		count int
	}
	groups := map[string]*group{}
	order := make([]string, 0, 16)

	for _, line := range strings.Split(digest, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[2])
		if g, ok := groups[name]; ok {
			g.count++
			continue
		}
		groups[name] = &group{risk: m[1], count: 1}
		order = append(order, name)
	}

	recommendations := map[string]string{
		"high":          "Remediate before the next release; verify the fix by re-running a standard scan.",
		"medium":        "Schedule remediation and add regression coverage for the affected endpoints.",
		"low":           "Track in the backlog; fix alongside related work on the affected pages.",
		"informational": "No action required; review to confirm the behavior is intentional.",
	}

	for _, name := range order {
		g := groups[name]
		sev := strings.ToLower(g.risk)
		if sev == "informational" {
			sev = "info"
		}
		summary := "Reported once by the scanner."
		if g.count > 1 {
			summary = "Reported at multiple URLs; likely a sitewide issue rather than a single endpoint."
		}
		rec := recommendations[strings.ToLower(g.risk)]
		if rec == "" {
			rec = recommendations["low"]
		}
		addFinding(sev, name, summary, rec)
	}

	// If the digest was empty or unparseable, add conservative baseline findings
	if len(findings) == 0 {
		addFinding("info", "No findings to analyze", "The scan produced no alerts, or the digest was empty.", "Re-run a deeper scan type if coverage was limited.")
		addFinding("info", "Keep scanning regularly", "A clean result is a point-in-time observation.", "Schedule recurring scans so regressions surface quickly.")
	}

	// Cap findings to a reasonable number to keep output compact
	if len(findings) > 20 {
		findings = findings[:20]
	}

	out.Findings = findings
	// Ensure counts.total equals the sum of counted severities (info not counted)
	out.Counts.Total = out.Counts.High + out.Counts.Medium + out.Counts.Low

	// Highest-severity titles go first in the remediation order
	for _, sev := range []string{"high", "medium", "low"} {
		for _, f := range findings {
			if f.Severity == sev {
				out.Prioritize = append(out.Prioritize, f.Title)
			}
		}
	}

	// Compose advice
	if out.Counts.High > 0 {
		out.Advice = "Immediate action required: high risk findings are exploitable conditions. Fix them first, then re-scan to confirm, and review the medium findings in the same pass."
	} else if out.Counts.Medium > 0 {
		out.Advice = "Address the medium risk findings and tighten security headers and input handling. Re-scan after deploying fixes."
	} else {
		out.Advice = "Maintain good hygiene: keep dependencies current, keep security headers enforced, and scan on a regular schedule."
	}

	// Marshal to JSON and return as string. If marshal fails, return a minimal fallback.
	b, err := json.Marshal(out)
	if err != nil {
		fb := Output{
			TargetURL: targetURL,
			Advice:    "Analysis error; re-run the analysis once the findings are available.",
		}
		data, _ := json.Marshal(fb)
		return string(data)
	}
	return string(b)
}
