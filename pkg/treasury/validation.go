package treasury

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/aging"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/matcher"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrApprovalRequired = errors.New("old payment requires approval")
	ErrNotFound         = errors.New("payment not found")
)

var maxAmount = decimal.RequireFromString("999999999.99")

// ValidationError lists every problem found in a PaymentRequest.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payment request: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// Validate checks a payment request. now is used to reject future dates.
func Validate(req PaymentRequest, now time.Time) error {
	var problems []string

	if strings.TrimSpace(req.Company) == "" {
		problems = append(problems, "Company selection required")
	} else if _, ok := ledger.ParseCompany(req.Company); !ok {
		problems = append(problems, fmt.Sprintf("Unknown company %q", req.Company))
	}

	if strings.TrimSpace(req.Beneficiary) == "" {
		problems = append(problems, "Beneficiary name required")
	}

	if !validReference(req.Reference) {
		problems = append(problems, "Invalid reference format")
	}

	if amount, err := matcher.ParseAmount(req.Amount); err != nil {
		problems = append(problems, "Invalid amount format")
	} else if !amount.IsPositive() {
		problems = append(problems, "Amount must be greater than 0")
	} else if amount.GreaterThan(maxAmount) {
		problems = append(problems, "Amount exceeds maximum limit")
	}

	if date, err := aging.ParseDate(req.Date); err != nil {
		problems = append(problems, "Invalid date format (YYYY-MM-DD)")
	} else if date.After(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)) {
		problems = append(problems, "Future date not allowed")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// validReference allows letters, digits, hyphens and underscores.
func validReference(reference string) bool {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return false
	}
	for _, c := range reference {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
