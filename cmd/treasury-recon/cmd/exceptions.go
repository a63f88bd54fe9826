package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exceptionRef string
	resolution   string
)

// exceptionsCmd groups the exception log commands.
var exceptionsCmd = &cobra.Command{
	Use:   "exceptions",
	Short: "List and resolve logged exceptions",
}

var exceptionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open exceptions",
	Long: `List open exceptions, optionally for one reference.

Example:
  treasury-recon exceptions list
  treasury-recon exceptions list --ref INV-001`,
	Run: runExceptionsList,
}

var exceptionsResolveCmd = &cobra.Command{
	Use:   "resolve <reference>",
	Short: "Resolve the open exceptions of a reference",
	Long: `Mark every open exception for a reference as resolved.

Example:
  treasury-recon exceptions resolve INV-001 --resolution "Confirmed with bank"`,
	Args: cobra.ExactArgs(1),
	Run:  runExceptionsResolve,
}

func init() {
	exceptionsListCmd.Flags().StringVar(&exceptionRef, "ref", "", "Only show exceptions for this reference")
	exceptionsResolveCmd.Flags().StringVar(&resolution, "resolution", "", "Resolution note (required)")
	exceptionsResolveCmd.MarkFlagRequired("resolution")

	exceptionsCmd.AddCommand(exceptionsListCmd)
	exceptionsCmd.AddCommand(exceptionsResolveCmd)
}

func runExceptionsList(cmd *cobra.Command, args []string) {
	a, err := newApp(false)
	exitOnError(err, "failed to initialize")
	defer a.Close()

	open, err := a.service.OpenExceptions(exceptionRef)
	exitOnError(err, "failed to read exception log")

	if len(open) == 0 {
		fmt.Println("No open exceptions")
		return
	}
	for _, e := range open {
		fmt.Printf("%s  %-12s %-28s %s\n", e.Timestamp, e.Reference, e.Type, e.Description)
	}
}

func runExceptionsResolve(cmd *cobra.Command, args []string) {
	a, err := newApp(false)
	exitOnError(err, "failed to initialize")
	defer a.Close()

	ok, err := a.service.ResolveException(args[0], resolution)
	exitOnError(err, "failed to resolve exception")

	if !ok {
		fmt.Printf("No open exceptions for %s\n", args[0])
		return
	}
	fmt.Printf("Exceptions for %s resolved\n", args[0])
}
