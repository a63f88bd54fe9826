package exception

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/audit"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

type settlementKey struct {
	kind    ledger.Kind
	company ledger.Company
}

type fakeSettlements map[settlementKey][]ledger.Row

func (f fakeSettlements) SettlementRows(kind ledger.Kind, company ledger.Company) ([]ledger.Row, error) {
	return f[settlementKey{kind, company}], nil
}

func clock() time.Time {
	return time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
}

func newRecorder(t *testing.T, settlements Settlements) (*Recorder, *audit.Trail) {
	t.Helper()
	dir := t.TempDir()
	trail := audit.NewTrail(ledger.NewStore(filepath.Join(dir, "AUDIT_LOG.csv"), ledger.AuditSchema), nil).WithClock(clock)
	store := ledger.NewStore(filepath.Join(dir, "EXCEPTION_LOG.csv"), ledger.ExceptionSchema)
	return NewRecorder(store, trail, settlements, nil).WithClock(clock), trail
}

func ptr(s string) *string { return &s }

func TestLogNormalizesInput(t *testing.T) {
	r, trail := newRecorder(t, fakeSettlements{})

	tests := []struct {
		name     string
		input    Input
		expected ledger.ExceptionRecord
	}{
		{
			name:  "all missing",
			input: Input{},
			expected: ledger.ExceptionRecord{
				Timestamp: "2026-10-18 12:00:00", Reference: "N/A", Type: TypeUnknown, Status: ledger.ExceptionOpen,
			},
		},
		{
			name:  "blank reference",
			input: Input{Reference: ptr("  "), Type: ptr(TypeSaveError), Description: ptr("disk full")},
			expected: ledger.ExceptionRecord{
				Timestamp: "2026-10-18 12:00:00", Reference: "N/A", Type: TypeSaveError, Description: "disk full", Status: ledger.ExceptionOpen,
			},
		},
		{
			name:  "complete",
			input: Input{Reference: ptr("INV-1"), Type: ptr(TypeOldPaymentOverride), Description: ptr("bypass")},
			expected: ledger.ExceptionRecord{
				Timestamp: "2026-10-18 12:00:00", Reference: "INV-1", Type: TypeOldPaymentOverride, Description: "bypass", Status: ledger.ExceptionOpen,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Log(tt.input))
		})
	}

	open, err := r.Open("")
	require.NoError(t, err)
	assert.Len(t, open, 3)

	records, err := trail.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, string(audit.ActionExceptionLogged), records[2].Action)
	assert.Equal(t, "Exception: Old_Payment_Override - bypass", records[2].Details)
}

func TestResolve(t *testing.T) {
	r, trail := newRecorder(t, fakeSettlements{})

	r.Report("INV-1", TypeSaveError, "first")
	r.Report("INV-2", TypeSaveError, "other")
	r.Report("INV-1", TypeStatusCheckError, "second")

	ok, err := r.Resolve("INV-1", "Fixed manually")
	require.NoError(t, err)
	assert.True(t, ok)

	open, err := r.Open("")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "INV-2", open[0].Reference)

	ok, err = r.Resolve("INV-1", "again")
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to resolve")

	ok, err = r.Resolve("INV-404", "none")
	require.NoError(t, err)
	assert.False(t, ok)

	records, err := trail.Records()
	require.NoError(t, err)
	last := records[len(records)-1]
	assert.Equal(t, string(audit.ActionExceptionResolved), last.Action)
	assert.Equal(t, "Resolution: Fixed manually", last.Details)
}

func TestResolveKeepsResolutionText(t *testing.T) {
	r, _ := newRecorder(t, fakeSettlements{})
	r.Report("INV-3", TypeSaveError, "x")

	_, err := r.Resolve(" INV-3 ", "Paid by cheque, see ticket")
	require.NoError(t, err)

	table, err := r.store.Read()
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	record := ledger.ExceptionFromRow(table.Rows[0])
	assert.Equal(t, ledger.ExceptionResolved, record.Status)
	assert.Equal(t, "Paid by cheque, see ticket", record.Resolution)
}

func TestVerifyOldPayment(t *testing.T) {
	settlements := fakeSettlements{
		{ledger.KindCNP, ledger.CompanySALAM}:           {{"reference": "INV-BOTH"}, {"reference": "INV-CNP"}},
		{ledger.KindBankStatement, ledger.CompanySALAM}: {{"reference": "INV-BOTH", "status": "Pending"}},
		{ledger.KindBankStatement, ledger.CompanyMVNO}:  {{"reference": "INV-CNP"}},
	}

	tests := []struct {
		name     string
		ref      string
		company  ledger.Company
		expected Verification
	}{
		{"present in both", "INV-BOTH", ledger.CompanySALAM, Verification{CNPVerified: true, BSVerified: true}},
		{"missing from BS", "INV-CNP", ledger.CompanySALAM, Verification{CNPVerified: true, Warnings: []string{WarnMissingBS}, RequiresApproval: true}},
		{"other company only", "INV-CNP", ledger.CompanyMVNO, Verification{BSVerified: true, Warnings: []string{WarnMissingCNP}, RequiresApproval: true}},
		{"missing from both", "INV-NONE", ledger.CompanySALAM, Verification{Warnings: []string{WarnMissingCNP, WarnMissingBS}, RequiresApproval: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRecorder(t, settlements)
			result, err := r.VerifyOldPayment(tt.ref, tt.company)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)

			open, err := r.Open(tt.ref)
			require.NoError(t, err)
			if tt.expected.RequiresApproval {
				require.Len(t, open, 1)
				assert.Equal(t, TypeOldPaymentVerification, open[0].Type)
			} else {
				assert.Empty(t, open)
			}
		})
	}
}

func TestVerifyMissingFromBothDescription(t *testing.T) {
	r, _ := newRecorder(t, fakeSettlements{})
	_, err := r.VerifyOldPayment("INV-X", ledger.CompanyMVNO)
	require.NoError(t, err)

	open, err := r.Open("INV-X")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Payment not found in CNP file; Payment not found in Bank Statement", open[0].Description)
}

type failingSettlements struct{}

func (failingSettlements) SettlementRows(ledger.Kind, ledger.Company) ([]ledger.Row, error) {
	return nil, errors.New("permission denied")
}

func TestVerifyOldPaymentStoreFailure(t *testing.T) {
	r, _ := newRecorder(t, failingSettlements{})

	v, err := r.VerifyOldPayment("INV-E", ledger.CompanySALAM)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrStoreIO)
	assert.Equal(t, Verification{}, v)

	open, err := r.Open("INV-E")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, TypeVerificationStore, open[0].Type)
	assert.Contains(t, open[0].Description, "permission denied")
}

// readOnlyLog reads from the wrapped store and refuses rewrites.
type readOnlyLog struct {
	ledger.Repository
}

func (readOnlyLog) Rewrite([]string, []ledger.Row) error {
	return errors.New("read-only file system")
}

func TestResolveRewriteFailureIsAudited(t *testing.T) {
	dir := t.TempDir()
	trail := audit.NewTrail(ledger.NewStore(filepath.Join(dir, "AUDIT_LOG.csv"), ledger.AuditSchema), nil).WithClock(clock)
	store := ledger.NewStore(filepath.Join(dir, "EXCEPTION_LOG.csv"), ledger.ExceptionSchema)
	r := NewRecorder(readOnlyLog{store}, trail, fakeSettlements{}, nil).WithClock(clock)

	r.Report("INV-4", TypeSaveError, "disk full")

	ok, err := r.Resolve("INV-4", "Retried")
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ledger.ErrStoreIO)

	records, err := trail.Records()
	require.NoError(t, err)
	last := records[len(records)-1]
	assert.Equal(t, string(audit.ActionExceptionResolved), last.Action)
	assert.Equal(t, "INV-4", last.Reference)
	assert.Equal(t, audit.StatusFailed, last.Status)
	assert.Contains(t, last.Details, "read-only file system")

	open, err := r.Open("INV-4")
	require.NoError(t, err)
	assert.Len(t, open, 1, "exception stays open")
}
