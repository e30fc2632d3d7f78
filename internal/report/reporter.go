// Package report renders persisted scan results in several formats.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Reporter generates output in a specific format.
type Reporter interface {
	// Format returns the format name (e.g., "html", "json").
	Format() string

	// ContentType returns the MIME type for HTTP downloads.
	ContentType() string

	// Generate writes the formatted scan report to w.
	Generate(ctx context.Context, data *Data, w io.Writer) error
}

// New creates a reporter by format name ("html", "json", "csv" or
// "xlsx"). The format name is case-insensitive.
func New(format string) (Reporter, error) {
	switch strings.ToLower(format) {
	case "html":
		return &HTMLReporter{}, nil
	case "json":
		return &JSONReporter{}, nil
	case "csv":
		return &CSVReporter{}, nil
	case "xlsx":
		return &XLSXReporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %q", format)
	}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"html", "json", "csv", "xlsx"}
}
