package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/zapscan/internal/application"
	appscans "github.com/bryanwahyu/zapscan/internal/application/scans"
	scansdomain "github.com/bryanwahyu/zapscan/internal/domain/scans"
	"github.com/bryanwahyu/zapscan/internal/infra/db/sqlite"
	"github.com/bryanwahyu/zapscan/internal/middleware"
	"github.com/bryanwahyu/zapscan/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <scan-id>",
	Short: "Render a stored scan as a report",
	Long: `Report re-renders a finished scan from the database. Formats: html,
json, csv, xlsx, or "all" to write every format at once.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("format", "F", "html", `Report format (html, json, csv, xlsx or "all")`)
	reportCmd.Flags().StringP("output", "o", "", "Output file, or directory when --format=all (default: stdout / current dir)")
}

func runReport(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	tenant, _ := cmd.Flags().GetString("tenant")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	id := args[0]
	if err := middleware.ValidateScanID(id); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	db, err := sqlite.Connect(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database %q: %w", dbPath, err)
	}
	defer db.Close()

	svc := &appscans.Service{
		Repo:  sqlite.NewScanRepository(db),
		Vulns: sqlite.NewVulnRepository(db),
		Clock: application.SystemClock{},
	}

	if format == "all" {
		dir := outputPath
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for _, f := range report.Formats() {
			path := filepath.Join(dir, fmt.Sprintf("report_%s.%s", id, f))
			if err := renderToFile(ctx, svc, tenant, id, f, path); err != nil {
				return err
			}
			fmt.Printf("[*] Wrote %s\n", path)
		}
		return nil
	}

	if outputPath != "" {
		if err := renderToFile(ctx, svc, tenant, id, format, outputPath); err != nil {
			return err
		}
		fmt.Printf("[*] Wrote %s\n", outputPath)
		return nil
	}

	data, rep, err := svc.Report(ctx, tenant, scansdomain.ScanID(id), format)
	if err != nil {
		return err
	}
	return rep.Generate(ctx, data, os.Stdout)
}

func renderToFile(ctx context.Context, svc *appscans.Service, tenant, id, format, path string) error {
	data, rep, err := svc.Report(ctx, tenant, scansdomain.ScanID(id), format)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return rep.Generate(ctx, data, f)
}
