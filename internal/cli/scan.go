package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/zapscan/internal/application"
	appscans "github.com/bryanwahyu/zapscan/internal/application/scans"
	scansdomain "github.com/bryanwahyu/zapscan/internal/domain/scans"
	"github.com/bryanwahyu/zapscan/internal/infra/db/sqlite"
	"github.com/bryanwahyu/zapscan/internal/infra/zapapi"
	"github.com/bryanwahyu/zapscan/internal/infra/zapd"
	"github.com/bryanwahyu/zapscan/internal/middleware"
)

var scanCmd = &cobra.Command{
	Use:   "scan [targets...]",
	Short: "Scan one or more target URLs",
	Long: `Scan runs each target through the ZAP daemon sequentially: spider,
active scan (for standard and deep types), alert collection, and
persistence. A summary is printed per target and a batch result file
is written when more than one target is scanned.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("file", "f", "", "File with one target URL per line")
	scanCmd.Flags().StringP("type", "t", "quick", "Scan type (quick, standard, deep)")
	scanCmd.Flags().String("reports-dir", "", "Directory to write per-scan HTML reports into")
	scanCmd.Flags().StringP("output", "o", "batch_results.json", "Batch result file (written when scanning 2+ targets)")
	scanCmd.Flags().Bool("docker", false, "Launch a dockerized ZAP daemon for the run")
	scanCmd.Flags().Duration("timeout", 30*time.Second, "ZAP API request timeout")
}

type batchEntry struct {
	URL    string `json:"url"`
	ScanID string `json:"scan_id,omitempty"`
	Status string `json:"status"`
}

func runScan(cmd *cobra.Command, args []string) error {
	// ------------------------------------------------------------------ //
	// 1. Read flags and collect targets
	// ------------------------------------------------------------------ //
	dbPath, _ := cmd.Flags().GetString("db")
	zapAddr, _ := cmd.Flags().GetString("zap")
	apiKey, _ := cmd.Flags().GetString("api-key")
	tenant, _ := cmd.Flags().GetString("tenant")
	targetsFile, _ := cmd.Flags().GetString("file")
	scanType, _ := cmd.Flags().GetString("type")
	reportsDir, _ := cmd.Flags().GetString("reports-dir")
	outputPath, _ := cmd.Flags().GetString("output")
	useDocker, _ := cmd.Flags().GetBool("docker")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	targets := append([]string{}, args...)
	if targetsFile != "" {
		fromFile, err := readTargets(targetsFile)
		if err != nil {
			return err
		}
		targets = append(targets, fromFile...)
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets given (pass URLs as arguments or use --file)")
	}

	if err := middleware.ValidateScanType(scanType); err != nil {
		return err
	}
	for _, t := range targets {
		if err := middleware.ValidateTargetURL(t); err != nil {
			return fmt.Errorf("invalid target %q: %w", t, err)
		}
	}

	// ------------------------------------------------------------------ //
	// 2. Context (CTRL+C cancels the batch gracefully)
	// ------------------------------------------------------------------ //
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// ------------------------------------------------------------------ //
	// 3. Optionally launch a dockerized daemon
	// ------------------------------------------------------------------ //
	if useDocker {
		daemon, err := zapd.Start(ctx, zapd.Options{APIKey: apiKey})
		if err != nil {
			return fmt.Errorf("failed to start zap daemon: %w", err)
		}
		defer daemon.Stop(context.Background())
		zapAddr = daemon.Address()

		probe, err := zapapi.NewClient(zapapi.Options{Address: zapAddr, APIKey: apiKey, Timeout: timeout})
		if err != nil {
			return err
		}
		fmt.Println("[*] Waiting for ZAP daemon to come up...")
		if err := daemon.WaitReady(ctx, probe.Check); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------------ //
	// 4. Storage and engine
	// ------------------------------------------------------------------ //
	db, err := sqlite.Connect(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database %q: %w", dbPath, err)
	}
	defer db.Close()

	zap, err := zapapi.NewClient(zapapi.Options{
		Address: zapAddr,
		APIKey:  apiKey,
		Timeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create zap client: %w", err)
	}

	svc := &appscans.Service{
		Repo:   sqlite.NewScanRepository(db),
		Vulns:  sqlite.NewVulnRepository(db),
		Errors: sqlite.NewScanErrorRepository(db),
		Engine: zap,
		Clock:  application.SystemClock{},
	}

	// ------------------------------------------------------------------ //
	// 5. Run the batch sequentially
	// ------------------------------------------------------------------ //
	results := make([]batchEntry, 0, len(targets))
	for i, target := range targets {
		fmt.Printf("\n%s\n", strings.Repeat("=", 60))
		fmt.Printf("Scanning: %s\n", target)
		fmt.Println(strings.Repeat("=", 60))

		// Fresh daemon session per target so alerts don't pile up
		// across a long batch.
		if i > 0 {
			if err := zap.NewSession(ctx, fmt.Sprintf("zapscan-%d", i)); err != nil {
				fmt.Fprintf(os.Stderr, "[!] Failed to reset ZAP session: %v\n", err)
			}
		}

		res, err := svc.StartScan(ctx, appscans.StartScanCommand{
			TenantID:  tenant,
			TargetURL: target,
			Type:      scanType,
			Source:    "cli",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] Scan failed: %v\n", err)
			results = append(results, batchEntry{URL: target, ScanID: res.ID, Status: "failed"})
			if ctx.Err() != nil {
				break
			}
			continue
		}

		printSummary(target, res)
		results = append(results, batchEntry{URL: target, ScanID: res.ID, Status: "completed"})

		if reportsDir != "" {
			if err := writeHTMLReport(ctx, svc, tenant, res.ID, reportsDir); err != nil {
				fmt.Fprintf(os.Stderr, "[!] Failed to write report for %s: %v\n", res.ID, err)
			}
		}
	}

	// ------------------------------------------------------------------ //
	// 6. Batch result file
	// ------------------------------------------------------------------ //
	if len(targets) > 1 && outputPath != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write batch results: %w", err)
		}
		fmt.Printf("\nBatch scan completed: %d targets, results in %s\n", len(results), outputPath)
	}

	return ctx.Err()
}

func printSummary(target string, res appscans.StartScanResult) {
	fmt.Printf("\nScan %s finished in %.1fs\n", res.ID, float64(res.DurationMS)/1000)
	fmt.Printf("  Target:        %s\n", target)
	fmt.Printf("  High:          %d\n", res.Counts.High)
	fmt.Printf("  Medium:        %d\n", res.Counts.Medium)
	fmt.Printf("  Low:           %d\n", res.Counts.Low)
	fmt.Printf("  Informational: %d\n", res.Counts.Informational)
	fmt.Printf("  Total alerts:  %d\n", res.Counts.Total)
}

func writeHTMLReport(ctx context.Context, svc *appscans.Service, tenant, id, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, rep, err := svc.Report(ctx, tenant, scansdomain.ScanID(id), "html")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("report_%s.%s", id, rep.Format()))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := rep.Generate(ctx, data, f); err != nil {
		return err
	}
	fmt.Printf("  Report:        %s\n", path)
	return nil
}

func readTargets(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open targets file %q: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
