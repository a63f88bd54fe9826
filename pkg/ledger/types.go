// Package ledger provides the flat-file record stores (Treasury, Bank Statement,
// CNP, exception log and audit log) and their typed rows.
package ledger

import "strings"

// Date and timestamp layouts used in every store.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Status is the payment status column value.
// Values outside the constants below are legacy free text and are preserved.
type Status string

const (
	StatusUnderProcess Status = "Under Process"
	StatusPaid         Status = "Paid"
	StatusCNP          Status = "CNP"
)

// Company identifies the entity owning a Bank Statement or CNP store.
type Company string

const (
	CompanySALAM Company = "SALAM"
	CompanyMVNO  Company = "MVNO"
)

// Companies is the default search order when a payment has no company.
var Companies = []Company{CompanySALAM, CompanyMVNO}

// ParseCompany normalizes a company name. ok is false for unknown values.
func ParseCompany(s string) (Company, bool) {
	switch Company(strings.ToUpper(strings.TrimSpace(s))) {
	case CompanySALAM:
		return CompanySALAM, true
	case CompanyMVNO:
		return CompanyMVNO, true
	}
	return "", false
}

// Kind names a settlement ledger.
type Kind string

const (
	KindBankStatement Kind = "BS"
	KindCNP           Kind = "CNP"
)

// Exception lifecycle values.
const (
	ExceptionOpen     = "Open"
	ExceptionResolved = "Resolved"
)

// PaymentRecord is one Treasury, Bank Statement or CNP row.
// Amount and Date keep their raw text so malformed values survive a rewrite.
type PaymentRecord struct {
	Reference   string
	Amount      string
	Date        string
	Status      Status
	Timestamp   string
	Company     string
	Beneficiary string
}

// ExceptionRecord is one exception log row.
type ExceptionRecord struct {
	Timestamp   string
	Reference   string
	Type        string
	Description string
	Status      string
	Resolution  string
}

// AuditRecord is one audit log row. Audit rows are never rewritten.
type AuditRecord struct {
	Timestamp string
	Action    string
	Reference string
	Details   string
	Status    string
}
