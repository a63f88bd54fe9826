package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusLookup bool

// statusCmd represents the status command.
var statusCmd = &cobra.Command{
	Use:   "status <reference>",
	Short: "Show the status of a payment",
	Long: `Show the latest Treasury row for a payment reference and any open
exceptions logged against it, followed by the status changes recorded
by past reconciliation passes. With --lookup, also report where the payment
currently stands in the settlement files (read-only).

Example:
  treasury-recon status INV-001
  treasury-recon status INV-001 --lookup`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusLookup, "lookup", false, "Also look the payment up in the settlement files")
}

func runStatus(cmd *cobra.Command, args []string) {
	a, err := newApp(false)
	exitOnError(err, "failed to initialize")
	defer a.Close()

	view, err := a.service.CheckStatus(args[0])
	exitOnError(err, "failed to check status")

	r := view.Record
	fmt.Printf("Reference:   %s\n", r.Reference)
	fmt.Printf("Amount:      %s\n", r.Amount)
	fmt.Printf("Date:        %s\n", r.Date)
	fmt.Printf("Company:     %s\n", r.Company)
	fmt.Printf("Beneficiary: %s\n", r.Beneficiary)
	fmt.Printf("Status:      %s\n", r.Status)
	fmt.Printf("Updated:     %s\n", r.Timestamp)

	if len(view.OpenExceptions) > 0 {
		fmt.Println("\nOpen exceptions:")
		for _, e := range view.OpenExceptions {
			fmt.Printf("  [%s] %s: %s\n", e.Timestamp, e.Type, e.Description)
		}
	}

	if a.historyExists() {
		exitOnError(a.openHistory(), "failed to open history")
		changes, err := a.history.GetChanges(r.Reference)
		exitOnError(err, "failed to read status history")
		if len(changes) > 0 {
			fmt.Println("\nStatus history:")
			for _, c := range changes {
				fmt.Printf("  [%s] %s -> %s (found in %s-%s)\n", c.ChangedAt, c.OldStatus, c.NewStatus, c.FoundIn, c.Company)
			}
		}
	}

	if statusLookup {
		result, ok, err := a.service.Lookup(args[0])
		exitOnError(err, "failed to look up payment")

		fmt.Println()
		if !ok {
			fmt.Println("Settlement:  not found")
			return
		}
		fmt.Printf("Settlement:  %s in %s-%s\n", result.Status, result.FoundIn, result.Company)
	}
}
