package report

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXReporter writes a two-sheet workbook: a summary sheet and one
// row per finding.
type XLSXReporter struct{}

// Format returns "xlsx".
func (r *XLSXReporter) Format() string { return "xlsx" }

func (r *XLSXReporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *XLSXReporter) Generate(ctx context.Context, data *Data, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	const findings = "Findings"

	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}
	if _, err := f.NewSheet(findings); err != nil {
		return err
	}

	summaryRows := [][]interface{}{
		{"Scan ID", data.ScanID},
		{"Target", data.TargetURL},
		{"Type", data.ScanType},
		{"Status", data.Status},
		{"Started", data.StartedAt.Format("2006-01-02 15:04:05")},
		{"Total Alerts", data.Counts.Total},
		{"High", data.Counts.High},
		{"Medium", data.Counts.Medium},
		{"Low", data.Counts.Low},
		{"Informational", data.Counts.Informational},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return err
		}
	}

	header := []interface{}{"Name", "Risk", "Confidence", "URL", "Param", "CWE", "WASC", "Description", "Solution"}
	if err := f.SetSheetRow(findings, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(findings, 1, 1, bold); err != nil {
		return err
	}

	for i, v := range data.Vulnerabilities {
		row := []interface{}{
			v.Name, v.Risk, v.Confidence, v.URL, v.Param,
			v.CWEID, v.WASCID, v.Description, v.Solution,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(findings, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
