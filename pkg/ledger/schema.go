package ledger

import "strings"

// Schema is the fixed column order of a store.
type Schema []string

var (
	SettlementSchema = Schema{"reference", "amount", "date", "status", "timestamp"}
	TreasurySchema   = Schema{"reference", "amount", "date", "status", "timestamp", "company", "beneficiary"}
	ExceptionSchema  = Schema{"timestamp", "reference", "type", "description", "status", "resolution"}
	AuditSchema      = Schema{"timestamp", "action", "reference", "details", "status"}
)

// Row is a single store line keyed by column name.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Table is the full content of a store: its header as found on disk and its rows.
type Table struct {
	Header []string
	Rows   []Row
}

// ToRow converts a PaymentRecord to a Treasury row.
func (p PaymentRecord) ToRow() Row {
	return Row{
		"reference":   p.Reference,
		"amount":      p.Amount,
		"date":        p.Date,
		"status":      string(p.Status),
		"timestamp":   p.Timestamp,
		"company":     p.Company,
		"beneficiary": p.Beneficiary,
	}
}

// PaymentFromRow reads a PaymentRecord from a Treasury or settlement row.
func PaymentFromRow(r Row) PaymentRecord {
	return PaymentRecord{
		Reference:   r.Get("reference"),
		Amount:      r.Get("amount"),
		Date:        r.Get("date"),
		Status:      Status(r.Get("status")),
		Timestamp:   r.Get("timestamp"),
		Company:     r.Get("company"),
		Beneficiary: r.Get("beneficiary"),
	}
}

// ToRow converts an ExceptionRecord to an exception log row.
func (e ExceptionRecord) ToRow() Row {
	return Row{
		"timestamp":   e.Timestamp,
		"reference":   e.Reference,
		"type":        e.Type,
		"description": e.Description,
		"status":      e.Status,
		"resolution":  e.Resolution,
	}
}

// ExceptionFromRow reads an ExceptionRecord from an exception log row.
func ExceptionFromRow(r Row) ExceptionRecord {
	return ExceptionRecord{
		Timestamp:   r.Get("timestamp"),
		Reference:   r.Get("reference"),
		Type:        r.Get("type"),
		Description: r.Get("description"),
		Status:      r.Get("status"),
		Resolution:  r.Get("resolution"),
	}
}

// ToRow converts an AuditRecord to an audit log row.
func (a AuditRecord) ToRow() Row {
	return Row{
		"timestamp": a.Timestamp,
		"action":    a.Action,
		"reference": a.Reference,
		"details":   a.Details,
		"status":    a.Status,
	}
}

// AuditFromRow reads an AuditRecord from an audit log row.
func AuditFromRow(r Row) AuditRecord {
	return AuditRecord{
		Timestamp: r.Get("timestamp"),
		Action:    r.Get("action"),
		Reference: r.Get("reference"),
		Details:   r.Get("details"),
		Status:    r.Get("status"),
	}
}

// MergeHeader returns header followed by any schema columns it lacks,
// keeping the on-disk order for the columns it already has.
func (s Schema) MergeHeader(header []string) []string {
	out := append([]string(nil), header...)
	seen := make(map[string]bool, len(header))
	for _, column := range header {
		seen[column] = true
	}
	for _, column := range s {
		if !seen[column] {
			out = append(out, column)
		}
	}
	return out
}
