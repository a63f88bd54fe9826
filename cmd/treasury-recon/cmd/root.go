// Package cmd provides CLI commands for treasury-recon.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/logging"
)

var (
	cfgFile  string
	debug    bool
	dataRoot string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "treasury-recon",
	Short: "Track and reconcile Treasury payments against settlement files",
	Long: `treasury-recon records outgoing payments in the Treasury file and
reconciles them against per-company Bank Statement and CNP files.

It supports:
- Submitting payments with old-payment verification
- Reconciling Under Process payments to Paid or CNP
- Logging and resolving exceptions
- Recording every pass in a SQLite history

Example:
  treasury-recon submit --ref INV-001 --amount 1250.00 --date 2026-10-01 --company SALAM --beneficiary "Acme Ltd"
  treasury-recon reconcile
  treasury-recon status INV-001
  treasury-recon stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Environment first so LOG_LEVEL and APP_ENV from .env apply
		cfg, err := loadConfig()
		level, appEnv := "info", "development"
		if err == nil {
			level, appEnv = cfg.LogLevel, cfg.AppEnv
		}
		logging.Init(os.Stderr, level, appEnv, debug)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "data-root", "", "data directory (overrides RECON_DATA_ROOT)")

	// Add subcommands
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(exceptionsCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
