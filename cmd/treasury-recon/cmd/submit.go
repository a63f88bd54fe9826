package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/treasury"
)

var (
	submitRef         string
	submitAmount      string
	submitDate        string
	submitCompany     string
	submitBeneficiary string
	submitOverride    bool
	approvalReason    string
	approvalApprover  string
	approvalSignature string
)

// submitCmd represents the submit command.
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a payment to the Treasury file",
	Long: `Validate a payment and append it to the Treasury file as Under Process.

Payments dated before the current month must appear in both the CNP and
Bank Statement files of their company. When they do not, the submission is
rejected unless an approval (--explanation, --approver, --signature) is given
or --override is set. Overrides are logged as exceptions.

Example:
  treasury-recon submit --ref INV-001 --amount 1250.00 --date 2026-10-01 --company SALAM --beneficiary "Acme Ltd"
  treasury-recon submit --ref INV-002 --amount 90.00 --date 2026-08-14 --company MVNO --beneficiary "Beta" \
    --explanation "Late invoice" --approver "J. Doe" --signature JD`,
	Run: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitRef, "ref", "", "Payment reference (required)")
	submitCmd.Flags().StringVar(&submitAmount, "amount", "", "Amount (required)")
	submitCmd.Flags().StringVar(&submitDate, "date", "", "Payment date (YYYY-MM-DD) (required)")
	submitCmd.Flags().StringVar(&submitCompany, "company", "", "Company: SALAM or MVNO (required)")
	submitCmd.Flags().StringVar(&submitBeneficiary, "beneficiary", "", "Beneficiary name (required)")
	submitCmd.Flags().BoolVar(&submitOverride, "override", false, "Submit an old payment without settlement verification")
	submitCmd.Flags().StringVar(&approvalReason, "explanation", "", "Approval explanation for an unverified old payment")
	submitCmd.Flags().StringVar(&approvalApprover, "approver", "", "Approver name")
	submitCmd.Flags().StringVar(&approvalSignature, "signature", "", "Approver signature")

	submitCmd.MarkFlagRequired("ref")
	submitCmd.MarkFlagRequired("amount")
	submitCmd.MarkFlagRequired("date")
	submitCmd.MarkFlagRequired("company")
	submitCmd.MarkFlagRequired("beneficiary")
}

func runSubmit(cmd *cobra.Command, args []string) {
	a, err := newApp(false)
	exitOnError(err, "failed to initialize")
	defer a.Close()

	req := treasury.PaymentRequest{
		Reference:   submitRef,
		Amount:      submitAmount,
		Date:        submitDate,
		Company:     submitCompany,
		Beneficiary: submitBeneficiary,
		Override:    submitOverride,
	}
	if approvalReason != "" || approvalApprover != "" || approvalSignature != "" {
		req.Approval = &treasury.Approval{
			Explanation: approvalReason,
			Approver:    approvalApprover,
			Signature:   approvalSignature,
		}
	}

	ack, err := a.service.SubmitPayment(req)
	var approvalErr *treasury.ApprovalError
	if errors.As(err, &approvalErr) {
		fmt.Println("Old payment verification failed:")
		for _, w := range approvalErr.Verification.Warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println("Provide --explanation, --approver and --signature, or --override.")
	}
	exitOnError(err, "failed to submit payment")

	fmt.Printf("Payment %s saved to Treasury (%s)\n", ack.Record.Reference, ack.Record.Status)
	if ack.Old {
		fmt.Println("Old payment: verified against settlement files or approved")
	}
	slog.Info("Payment submitted", "reference", ack.Record.Reference)
}
