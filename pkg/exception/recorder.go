// Package exception records exceptional conditions, resolves them, and
// verifies old payments against the settlement stores.
package exception

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/audit"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

// Exception types raised by this module.
const (
	TypeUnknown                = "Unknown"
	TypeOldPaymentVerification = "Old_Payment_Verification"
	TypeOldPaymentOverride     = "Old_Payment_Override"
	TypeReconciliationRow      = "Reconciliation_Row_Error"
	TypeReconciliationStore    = "Reconciliation_Store_Error"
	TypeVerificationStore      = "Verification_Store_Error"
	TypeSaveError              = "Save_Error"
	TypeStatusCheckError       = "Status_Check_Error"
)

// Input is the caller-supplied part of an exception. Nil fields are normalized:
// Reference to "N/A", Type to "Unknown", Description to "".
type Input struct {
	Reference   *string
	Type        *string
	Description *string
}

// Settlements provides the rows of a settlement store.
type Settlements interface {
	SettlementRows(kind ledger.Kind, company ledger.Company) ([]ledger.Row, error)
}

// Recorder manages the exception log.
type Recorder struct {
	store       ledger.Repository
	trail       *audit.Trail
	settlements Settlements
	logger      *slog.Logger
	now         func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(store ledger.Repository, trail *audit.Trail, settlements Settlements, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:       store,
		trail:       trail,
		settlements: settlements,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the timestamp source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Log appends an Open exception and a correlated Exception_Logged audit record.
// It always returns a well-formed record; write failures are only logged.
func (r *Recorder) Log(in Input) ledger.ExceptionRecord {
	record := ledger.ExceptionRecord{
		Timestamp:   r.now().Format(ledger.TimestampLayout),
		Reference:   valueOr(in.Reference, "N/A"),
		Type:        valueOr(in.Type, TypeUnknown),
		Description: valueOr(in.Description, ""),
		Status:      ledger.ExceptionOpen,
	}

	if err := r.store.Append(record.ToRow()); err != nil {
		r.logger.Error("Failed to write exception log",
			"reference", record.Reference,
			"type", record.Type,
			"error", err,
		)
	}

	r.trail.Record(audit.Entry{
		Action:    audit.ActionExceptionLogged,
		Reference: record.Reference,
		Details:   fmt.Sprintf("Exception: %s - %s", record.Type, record.Description),
	})

	return record
}

// Report is shorthand for Log with every field set.
func (r *Recorder) Report(reference, excType, description string) ledger.ExceptionRecord {
	return r.Log(Input{
		Reference:   &reference,
		Type:        &excType,
		Description: &description,
	})
}

// Resolve marks every Open exception for reference as Resolved.
// Returns false without writing anything when there is no Open exception.
// A store failure is recorded in the audit trail with status Failed.
func (r *Recorder) Resolve(reference, resolution string) (bool, error) {
	reference = strings.TrimSpace(reference)

	table, err := r.store.Read()
	if err != nil {
		return false, r.resolveFailure(reference, fmt.Errorf("failed to read exception log: %w", err))
	}

	resolved := 0
	for _, row := range table.Rows {
		if row.Get("reference") == reference && row.Get("status") == ledger.ExceptionOpen {
			row["status"] = ledger.ExceptionResolved
			row["resolution"] = resolution
			resolved++
		}
	}
	if resolved == 0 {
		return false, nil
	}

	header := ledger.ExceptionSchema.MergeHeader(table.Header)
	if err := r.store.Rewrite(header, table.Rows); err != nil {
		return false, r.resolveFailure(reference, fmt.Errorf("failed to rewrite exception log: %w", err))
	}

	r.trail.Record(audit.Entry{
		Action:    audit.ActionExceptionResolved,
		Reference: reference,
		Details:   fmt.Sprintf("Resolution: %s", resolution),
	})
	r.logger.Info("Exceptions resolved", "reference", reference, "count", resolved)

	return true, nil
}

func (r *Recorder) resolveFailure(reference string, err error) error {
	r.trail.Record(audit.Entry{
		Action:    audit.ActionExceptionResolved,
		Reference: reference,
		Details:   err.Error(),
		Status:    audit.StatusFailed,
	})
	r.logger.Error("Failed to resolve exceptions", "reference", reference, "error", err)
	return fmt.Errorf("%w: %w", ledger.ErrStoreIO, err)
}

// Open returns Open exceptions, filtered by reference when it is non-empty.
func (r *Recorder) Open(reference string) ([]ledger.ExceptionRecord, error) {
	reference = strings.TrimSpace(reference)

	table, err := r.store.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read exception log: %w", err)
	}

	var open []ledger.ExceptionRecord
	for _, row := range table.Rows {
		record := ledger.ExceptionFromRow(row)
		if record.Status != ledger.ExceptionOpen {
			continue
		}
		if reference != "" && record.Reference != reference {
			continue
		}
		open = append(open, record)
	}
	return open, nil
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	if v := strings.TrimSpace(*p); v != "" {
		return v
	}
	return fallback
}
