package report

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
)

// CSVReporter outputs one row per finding, preceded by a scan header
// block, matching the layout security teams import into spreadsheets.
type CSVReporter struct{}

// Format returns "csv".
func (r *CSVReporter) Format() string { return "csv" }

func (r *CSVReporter) ContentType() string { return "text/csv" }

func (r *CSVReporter) Generate(ctx context.Context, data *Data, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := [][]string{
		{"Scan ID", data.ScanID},
		{"Target", data.TargetURL},
		{"Type", data.ScanType},
		{"Status", data.Status},
		{"Total Alerts", strconv.Itoa(data.Counts.Total)},
		{"High", strconv.Itoa(data.Counts.High)},
		{"Medium", strconv.Itoa(data.Counts.Medium)},
		{"Low", strconv.Itoa(data.Counts.Low)},
		{"Informational", strconv.Itoa(data.Counts.Informational)},
		{},
		{"Name", "Risk", "Confidence", "URL", "Param", "CWE", "WASC", "Description", "Solution", "Reference"},
	}
	for _, row := range header {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, v := range data.Vulnerabilities {
		row := []string{
			v.Name, v.Risk, v.Confidence, v.URL, v.Param,
			idOrEmpty(v.CWEID), idOrEmpty(v.WASCID),
			v.Description, v.Solution, v.Reference,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func idOrEmpty(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
