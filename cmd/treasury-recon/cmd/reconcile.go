package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/reconcile"
)

// reconcileCmd represents the reconcile command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile Treasury payments against settlement files",
	Long: `Run one reconciliation pass over the Treasury file.

This command:
1. Loads every Treasury payment that is not Paid
2. Searches the Bank Statement and CNP files in age-dependent order
3. Marks matched payments Paid or CNP
4. Rewrites the Treasury file atomically
5. Records the pass in the audit log and SQLite history

Example:
  treasury-recon reconcile`,
	Run: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) {
	a, err := newApp(true)
	exitOnError(err, "failed to initialize")
	defer a.Close()

	report, runErr := a.service.ReconcileAll()
	if report != nil {
		printReport(report)
		if a.history != nil {
			if err := a.history.SetMetadata("last_run_id", report.RunID); err != nil {
				slog.Warn("Failed to record last run", "error", err)
			}
		}
	}
	exitOnError(runErr, "reconciliation failed")
}

func printReport(report *reconcile.Report) {
	fmt.Println("\n=== Reconciliation Report ===")
	fmt.Printf("Run:       %s\n", report.RunID)
	fmt.Printf("Updated:   %d\n", report.Updated)
	fmt.Printf("Errors:    %d\n", report.Errors)
	fmt.Printf("No match:  %d\n", report.Count(reconcile.OutcomeNoMatch))
	fmt.Printf("Skipped:   %d\n", report.Count(reconcile.OutcomeSkipped))

	if len(report.Details) > 0 {
		fmt.Println("\nDetails:")
		for _, d := range report.Details {
			fmt.Printf("  %s\n", d)
		}
	}
	fmt.Println()
}
