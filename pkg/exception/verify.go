package exception

import (
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

// Verification warnings.
const (
	WarnMissingCNP = "Payment not found in CNP file"
	WarnMissingBS  = "Payment not found in Bank Statement"
)

// Verification is the outcome of VerifyOldPayment.
type Verification struct {
	CNPVerified      bool
	BSVerified       bool
	Warnings         []string
	RequiresApproval bool
}

// VerifyOldPayment checks that reference is present in both the CNP and the
// Bank Statement store of company. Amounts are not compared.
// A missing store entry adds a warning and requires approval, in which case an
// Old_Payment_Verification exception is logged.
//
// A store that cannot be read ends the verification: a Verification_Store_Error
// exception is logged and the error, wrapping ledger.ErrStoreIO, is returned.
func (r *Recorder) VerifyOldPayment(reference string, company ledger.Company) (Verification, error) {
	reference = strings.TrimSpace(reference)
	var v Verification

	var err error
	v.CNPVerified, err = r.present(ledger.KindCNP, company, reference)
	if err != nil {
		return Verification{}, r.storeFailure(reference, err)
	}
	v.BSVerified, err = r.present(ledger.KindBankStatement, company, reference)
	if err != nil {
		return Verification{}, r.storeFailure(reference, err)
	}

	if !v.CNPVerified {
		v.Warnings = append(v.Warnings, WarnMissingCNP)
		v.RequiresApproval = true
	}
	if !v.BSVerified {
		v.Warnings = append(v.Warnings, WarnMissingBS)
		v.RequiresApproval = true
	}

	if v.RequiresApproval {
		r.Report(reference, TypeOldPaymentVerification, strings.Join(v.Warnings, "; "))
	}

	return v, nil
}

func (r *Recorder) storeFailure(reference string, err error) error {
	r.Report(reference, TypeVerificationStore, err.Error())
	r.logger.Error("Settlement store unreadable during verification", "reference", reference, "error", err)
	return fmt.Errorf("%w: %w", ledger.ErrStoreIO, err)
}

func (r *Recorder) present(kind ledger.Kind, company ledger.Company, reference string) (bool, error) {
	rows, err := r.settlements.SettlementRows(kind, company)
	if err != nil {
		return false, fmt.Errorf("failed to read %s store: %w", kind, err)
	}
	for _, row := range rows {
		if row.Get("reference") == reference {
			return true, nil
		}
	}
	return false, nil
}
