package prompt

import (
	"fmt"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior application security analyst reviewing findings from a DAST scan of a web application. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use lowercase severity values: high, medium, low, info.
- counts.total must equal counts.high + counts.medium + counts.low.
- findings is an array of objects grouping related alerts; include at least a title, severity, and summary. Keep items concise.
- prioritize is an ordered list of the finding titles to remediate first.
- Base the analysis only on the findings digest supplied; do not invent vulnerabilities that are not in the digest.

Schema (example with empty values):
{
  "target_url": "<string>",
  "counts": {"high": 0, "medium": 0, "low": 0, "total": 0},
  "findings": [
	{
	  "title": "<string>",
	  "severity": "<high|medium|low|info>",
	  "summary": "<string>",
	  "recommendation": "<string>"
	}
  ],
  "prioritize": ["<string>"],
  "advice": "<string>"
}`
}

// GetUserPrompt builds a user message around a findings digest. The digest
// already names the target on its first line.
func GetUserPrompt(digest string) string {
	return fmt.Sprintf("Findings digest (one line per alert):\n%s\n\nRespond with the JSON per schema.", digest)
}

// Suggestion matches the schema used by the system prompt.
type Suggestion struct {
	TargetURL string `json:"target_url"`
	Counts    struct {
		High   int `json:"high"`
		Medium int `json:"medium"`
		Low    int `json:"low"`
		Total  int `json:"total"`
	} `json:"counts"`
	Findings []struct {
		Title          string `json:"title"`
		Severity       string `json:"severity"`
		Summary        string `json:"summary"`
		Recommendation string `json:"recommendation"`
	} `json:"findings"`
	Prioritize []string `json:"prioritize"`
	Advice     string   `json:"advice"`
}
