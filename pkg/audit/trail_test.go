package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

func fixedClock() time.Time {
	return time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)
}

func TestRecordDefaults(t *testing.T) {
	store := ledger.NewStore(filepath.Join(t.TempDir(), "AUDIT_LOG.csv"), ledger.AuditSchema)
	trail := NewTrail(store, nil).WithClock(fixedClock)

	record, err := trail.Record(Entry{Action: ActionStatusCheck})
	require.NoError(t, err)
	assert.Equal(t, ledger.AuditRecord{
		Timestamp: "2026-10-18 09:30:00",
		Action:    "Status_Check",
		Reference: "N/A",
		Details:   "No details provided",
		Status:    StatusCompleted,
	}, record)
}

func TestRecordsAppendInOrder(t *testing.T) {
	store := ledger.NewStore(filepath.Join(t.TempDir(), "exceptions", "AUDIT_LOG.csv"), ledger.AuditSchema)
	trail := NewTrail(store, nil).WithClock(fixedClock)

	_, err := trail.Record(Entry{Action: ActionPaymentSaved, Reference: "INV-1", Details: "saved", Status: StatusSuccess})
	require.NoError(t, err)
	_, err = trail.Record(Entry{Action: ActionStatusChanged, Reference: "INV-1", Details: "Under Process -> Paid"})
	require.NoError(t, err)

	records, err := trail.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Payment_Saved", records[0].Action)
	assert.Equal(t, StatusSuccess, records[0].Status)
	assert.Equal(t, "Under Process -> Paid", records[1].Details)
}

func TestRecordWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes every append fail.
	path := filepath.Join(dir, "AUDIT_LOG.csv")
	require.NoError(t, ledger.NewStore(filepath.Join(path, "x.csv"), ledger.AuditSchema).Append(ledger.Row{}))

	trail := NewTrail(ledger.NewStore(path, ledger.AuditSchema), nil).WithClock(fixedClock)
	record, err := trail.Record(Entry{Action: ActionReconciliationRun})
	require.Error(t, err)
	assert.Equal(t, "Reconciliation_Run", record.Action)
}
