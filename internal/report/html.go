package report

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/report.html
var reportTemplate string

// HTMLReporter renders the styled standalone HTML report.
type HTMLReporter struct{}

// Format returns "html".
func (r *HTMLReporter) Format() string { return "html" }

func (r *HTMLReporter) ContentType() string { return "text/html; charset=utf-8" }

var htmlFuncs = template.FuncMap{
	"riskClass": func(risk string) string {
		switch strings.ToLower(risk) {
		case "high", "medium", "low":
			return strings.ToLower(risk)
		default:
			return "info"
		}
	},
	"refLines": func(ref string) []string {
		var out []string
		for _, line := range strings.Split(ref, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, line)
			}
		}
		return out
	},
}

// Generate writes the HTML report to w.
func (r *HTMLReporter) Generate(ctx context.Context, data *Data, w io.Writer) error {
	tmpl, err := template.New("report").Funcs(htmlFuncs).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
