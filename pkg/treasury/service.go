// Package treasury is the store access surface offered to the input and
// display layers: submitting payments, checking their status, running
// reconciliation and listing open exceptions.
package treasury

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/aging"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/audit"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/exception"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/reconcile"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/router"
)

// PaymentRequest is a validated-by-Validate payment submission.
type PaymentRequest struct {
	Reference   string
	Amount      string
	Date        string
	Company     string
	Beneficiary string
	// Override submits an old payment without settlement verification.
	// The bypass is logged as an exception.
	Override bool
	// Approval clears an old payment whose verification failed.
	Approval *Approval
}

// Approval is the sign-off required for an old payment missing from a
// settlement store.
type Approval struct {
	Explanation string
	Approver    string
	Signature   string
}

func (a *Approval) complete() bool {
	return a != nil &&
		strings.TrimSpace(a.Explanation) != "" &&
		strings.TrimSpace(a.Approver) != "" &&
		strings.TrimSpace(a.Signature) != ""
}

// ApprovalError is returned when an old payment needs an Approval.
type ApprovalError struct {
	Verification exception.Verification
}

func (e *ApprovalError) Error() string {
	return fmt.Sprintf("old payment requires approval: %s", strings.Join(e.Verification.Warnings, "; "))
}

func (e *ApprovalError) Unwrap() error {
	return ErrApprovalRequired
}

// Ack acknowledges a saved payment.
type Ack struct {
	Record       ledger.PaymentRecord
	Old          bool
	Verification *exception.Verification
}

// StatusView is the current state of a payment.
type StatusView struct {
	Record         ledger.PaymentRecord
	OpenExceptions []ledger.ExceptionRecord
}

// Service implements the store access contract.
type Service struct {
	treasury   ledger.Repository
	exceptions *exception.Recorder
	trail      *audit.Trail
	engine     *reconcile.Engine
	oldPolicy  aging.Policy
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Service. oldPolicy decides when a submitted payment
// needs old-payment verification; nil means aging.CalendarBoundary.
func NewService(
	treasury ledger.Repository,
	exceptions *exception.Recorder,
	trail *audit.Trail,
	engine *reconcile.Engine,
	oldPolicy aging.Policy,
	logger *slog.Logger,
) *Service {
	if oldPolicy == nil {
		oldPolicy = aging.CalendarBoundary{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		treasury:   treasury,
		exceptions: exceptions,
		trail:      trail,
		engine:     engine,
		oldPolicy:  oldPolicy,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SubmitPayment validates req and appends it to Treasury as Under Process.
//
// An old payment that is not overridden must be present in both the CNP and
// Bank Statement stores of its company, or carry a complete Approval;
// otherwise an *ApprovalError is returned and nothing is saved. A settlement
// store that cannot be read fails the submission with an error wrapping
// ledger.ErrStoreIO.
func (s *Service) SubmitPayment(req PaymentRequest) (*Ack, error) {
	now := s.now()
	if err := Validate(req, now); err != nil {
		return nil, err
	}

	company, _ := ledger.ParseCompany(req.Company)
	reference := strings.TrimSpace(req.Reference)
	date, _ := aging.ParseDate(req.Date)

	ack := &Ack{Old: s.oldPolicy.IsOld(date, now)}

	if ack.Old {
		if req.Override {
			s.exceptions.Report(reference, exception.TypeOldPaymentOverride,
				"Old payment submitted without settlement verification")
		} else {
			v, err := s.exceptions.VerifyOldPayment(reference, company)
			if err != nil {
				return nil, fmt.Errorf("failed to verify old payment %s: %w", reference, err)
			}
			ack.Verification = &v
			if v.RequiresApproval {
				if !req.Approval.complete() {
					return nil, &ApprovalError{Verification: v}
				}
				s.trail.Record(audit.Entry{
					Action:    audit.ActionOldPaymentApproved,
					Reference: reference,
					Details: fmt.Sprintf("Approved by %s (%s): %s",
						strings.TrimSpace(req.Approval.Approver),
						strings.TrimSpace(req.Approval.Signature),
						strings.TrimSpace(req.Approval.Explanation)),
				})
			}
		}
	}

	record := ledger.PaymentRecord{
		Reference:   reference,
		Amount:      strings.TrimSpace(req.Amount),
		Date:        strings.TrimSpace(req.Date),
		Status:      ledger.StatusUnderProcess,
		Timestamp:   now.Format(ledger.TimestampLayout),
		Company:     string(company),
		Beneficiary: strings.TrimSpace(req.Beneficiary),
	}

	if err := s.treasury.Append(record.ToRow()); err != nil {
		s.exceptions.Report(reference, exception.TypeSaveError, err.Error())
		return nil, fmt.Errorf("failed to save payment to Treasury: %w", err)
	}

	s.trail.Record(audit.Entry{
		Action:    audit.ActionPaymentSaved,
		Reference: reference,
		Details:   fmt.Sprintf("Payment saved to Treasury: %s - %s", reference, record.Beneficiary),
		Status:    audit.StatusSuccess,
	})
	s.logger.Info("Payment saved", "reference", reference, "company", company, "old", ack.Old)

	ack.Record = record
	return ack, nil
}

// CheckStatus returns the latest Treasury row for reference and its open exceptions.
func (s *Service) CheckStatus(reference string) (*StatusView, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference required", ErrInvalidRequest)
	}

	found, err := s.latest(reference)
	if err != nil {
		return nil, err
	}

	open, err := s.exceptions.Open(reference)
	if err != nil {
		s.exceptions.Report(reference, exception.TypeStatusCheckError, err.Error())
		return nil, err
	}

	s.trail.Record(audit.Entry{
		Action:    audit.ActionStatusCheck,
		Reference: reference,
		Details:   fmt.Sprintf("Status: %s", found.Status),
	})

	return &StatusView{Record: *found, OpenExceptions: open}, nil
}

// Lookup reports where the latest Treasury row for reference currently stands
// in the settlement stores. Nothing is written.
func (s *Service) Lookup(reference string) (router.Result, bool, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return router.Result{}, false, fmt.Errorf("%w: reference required", ErrInvalidRequest)
	}
	if s.engine == nil {
		return router.Result{}, false, errors.New("reconciliation engine not configured")
	}

	found, err := s.latest(reference)
	if err != nil {
		return router.Result{}, false, err
	}

	result, ok, err := s.engine.Lookup(*found)
	if err != nil {
		s.exceptions.Report(reference, exception.TypeStatusCheckError, err.Error())
		return router.Result{}, false, fmt.Errorf("failed to look up %s: %w", reference, err)
	}
	return result, ok, nil
}

// latest returns the last Treasury row with reference.
func (s *Service) latest(reference string) (*ledger.PaymentRecord, error) {
	table, err := s.treasury.Read()
	if err != nil {
		s.exceptions.Report(reference, exception.TypeStatusCheckError, err.Error())
		return nil, fmt.Errorf("failed to read Treasury: %w", err)
	}

	var found *ledger.PaymentRecord
	for _, row := range table.Rows {
		if row.Get("reference") == reference {
			record := ledger.PaymentFromRow(row)
			found = &record
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	return found, nil
}

// ReconcileAll runs one reconciliation pass.
func (s *Service) ReconcileAll() (*reconcile.Report, error) {
	if s.engine == nil {
		return nil, errors.New("reconciliation engine not configured")
	}
	return s.engine.ReconcileAll()
}

// OpenExceptions returns open exceptions, all of them when reference is empty.
func (s *Service) OpenExceptions(reference string) ([]ledger.ExceptionRecord, error) {
	return s.exceptions.Open(reference)
}

// ResolveException resolves every open exception for reference.
func (s *Service) ResolveException(reference, resolution string) (bool, error) {
	return s.exceptions.Resolve(reference, resolution)
}

// VerifyOldPayment checks a reference against a company's settlement stores.
func (s *Service) VerifyOldPayment(reference, company string) (exception.Verification, error) {
	c, ok := ledger.ParseCompany(company)
	if !ok {
		return exception.Verification{}, fmt.Errorf("%w: unknown company %q", ErrInvalidRequest, company)
	}
	return s.exceptions.VerifyOldPayment(reference, c)
}
