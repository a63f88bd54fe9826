package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display reconciliation statistics",
	Long: `Display statistics about past reconciliation passes.

Shows:
- Total number of passes
- Number of aborted passes
- Total status updates and row errors
- Last run timestamp

Example:
  treasury-recon stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	a, err := newApp(true)
	exitOnError(err, "failed to initialize")
	defer a.Close()

	if a.history == nil {
		exitOnError(errors.New("history is disabled"), "failed to get statistics")
	}

	stats, err := a.history.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Reconciliation Statistics ===")
	fmt.Printf("Database:       %s\n", a.conn.Path())
	fmt.Printf("Total runs:     %d\n", stats.TotalRuns)
	fmt.Printf("Aborted runs:   %d\n", stats.FailedRuns)
	fmt.Printf("Status updates: %d\n", stats.TotalUpdates)
	fmt.Printf("Row errors:     %d\n", stats.TotalErrors)

	if stats.LastRun.Valid {
		fmt.Printf("Last run:       %s\n", stats.LastRun.String)
	} else {
		fmt.Printf("Last run:       (never)\n")
	}

	if lastID, err := a.history.GetMetadata("last_run_id"); err == nil && lastID != "" {
		fmt.Printf("Last run ID:    %s\n", lastID)
	}

	fmt.Println()

	slog.Info("Statistics displayed successfully")
}
