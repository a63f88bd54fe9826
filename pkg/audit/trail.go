// Package audit provides the append-only audit trail.
package audit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

// Action names one kind of state-changing event.
type Action string

const (
	ActionPaymentSaved       Action = "Payment_Saved"
	ActionStatusChanged      Action = "Status_Changed"
	ActionExceptionLogged    Action = "Exception_Logged"
	ActionExceptionResolved  Action = "Exception_Resolved"
	ActionOldPaymentApproved Action = "Old_Payment_Approved"
	ActionStatusCheck        Action = "Status_Check"
	ActionReconciliationRun  Action = "Reconciliation_Run"
)

// Audit status values.
const (
	StatusCompleted = "Completed"
	StatusSuccess   = "Success"
	StatusFailed    = "Failed"
)

// Entry is the caller-supplied part of an audit record.
type Entry struct {
	Action    Action
	Reference string
	Details   string
	Status    string
}

// Trail appends audit records to the audit log store.
type Trail struct {
	store  ledger.Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewTrail creates a Trail writing to store.
func NewTrail(store ledger.Repository, logger *slog.Logger) *Trail {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trail{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the timestamp source.
func (t *Trail) WithClock(now func() time.Time) *Trail {
	t.now = now
	return t
}

// Record appends one audit record and returns it.
// Missing fields default to reference "N/A", details "No details provided"
// and status "Completed".
func (t *Trail) Record(entry Entry) (ledger.AuditRecord, error) {
	record := ledger.AuditRecord{
		Timestamp: t.now().Format(ledger.TimestampLayout),
		Action:    string(entry.Action),
		Reference: entry.Reference,
		Details:   entry.Details,
		Status:    entry.Status,
	}
	if record.Action == "" {
		record.Action = string(ActionExceptionLogged)
	}
	if record.Reference == "" {
		record.Reference = "N/A"
	}
	if record.Details == "" {
		record.Details = "No details provided"
	}
	if record.Status == "" {
		record.Status = StatusCompleted
	}

	if err := t.store.Append(record.ToRow()); err != nil {
		t.logger.Error("Failed to write audit record",
			"action", record.Action,
			"reference", record.Reference,
			"error", err,
		)
		return record, fmt.Errorf("failed to write audit record: %w", err)
	}

	t.logger.Debug("Audit record written", "action", record.Action, "reference", record.Reference)
	return record, nil
}

// Records returns every audit record, oldest first.
func (t *Trail) Records() ([]ledger.AuditRecord, error) {
	table, err := t.store.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	records := make([]ledger.AuditRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, ledger.AuditFromRow(row))
	}
	return records, nil
}
