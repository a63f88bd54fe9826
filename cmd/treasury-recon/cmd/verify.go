package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCompany string

// verifyCmd represents the verify command.
var verifyCmd = &cobra.Command{
	Use:   "verify <reference>",
	Short: "Check a reference against a company's settlement files",
	Long: `Check whether a reference appears in the CNP and Bank Statement files
of a company. Missing references are logged as an exception.

Example:
  treasury-recon verify INV-001 --company SALAM`,
	Args: cobra.ExactArgs(1),
	Run:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyCompany, "company", "", "Company: SALAM or MVNO (required)")
	verifyCmd.MarkFlagRequired("company")
}

func runVerify(cmd *cobra.Command, args []string) {
	a, err := newApp(false)
	exitOnError(err, "failed to initialize")
	defer a.Close()

	v, err := a.service.VerifyOldPayment(args[0], verifyCompany)
	exitOnError(err, "failed to verify payment")

	fmt.Printf("CNP verified:            %t\n", v.CNPVerified)
	fmt.Printf("Bank Statement verified: %t\n", v.BSVerified)
	for _, w := range v.Warnings {
		fmt.Printf("  - %s\n", w)
	}
	if v.RequiresApproval {
		fmt.Println("Approval required")
	}
}
