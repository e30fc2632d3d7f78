package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "zapscan",
	Short: "Web application security scanning via the OWASP ZAP API",
	Long: `zapscan - web application security scanning via the OWASP ZAP API

Drives a running ZAP daemon through its JSON API: spidering, active
scanning, alert collection, and report generation. Results are stored
in a local SQLite database so finished scans can be re-rendered into
HTML, JSON, CSV, or XLSX reports at any time.

WARNING: Scan only targets you have explicit permission to test.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Shared storage and daemon flags
	rootCmd.PersistentFlags().String("db", "scan_results.db", "SQLite database file")
	rootCmd.PersistentFlags().String("zap", "http://127.0.0.1:8080", "ZAP daemon address")
	rootCmd.PersistentFlags().String("api-key", "", "ZAP API key")
	rootCmd.PersistentFlags().String("tenant", "default", "Tenant the scans are stored under")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zapscan %s (commit: %s, built: %s)\n", version, commit, date)
	},
}
