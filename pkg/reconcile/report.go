package reconcile

import (
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

// OutcomeKind classifies what a pass did with one Treasury row.
type OutcomeKind int

const (
	// OutcomeSkipped: the row was already Paid.
	OutcomeSkipped OutcomeKind = iota
	// OutcomeNoMatch: no settlement store held the payment.
	OutcomeNoMatch
	// OutcomeMatched: a status change is pending for the row.
	OutcomeMatched
	// OutcomeUnchanged: matched, but the resolved status equals the current one.
	OutcomeUnchanged
	// OutcomeFailed: the row could not be evaluated and was left untouched.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeMatched:
		return "matched"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Update is a status change found during a pass.
type Update struct {
	Reference string
	Amount    string
	OldStatus ledger.Status
	NewStatus ledger.Status
	Company   ledger.Company
	FoundIn   ledger.Kind
}

// Detail is the report line for an applied update.
func (u Update) Detail() string {
	return fmt.Sprintf("%s: %s -> %s", u.Reference, u.OldStatus, u.NewStatus)
}

// RowOutcome is the per-row result of a pass.
type RowOutcome struct {
	Reference string
	Kind      OutcomeKind
	Update    *Update
	Err       error
}

// Report is the structured result of a reconciliation pass.
type Report struct {
	RunID      string
	Updated    int
	Errors     int
	Details    []string
	Outcomes   []RowOutcome
	Applied    []Update
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Report) addError(detail string) {
	r.Errors++
	r.Details = append(r.Details, detail)
}

// Count returns how many rows ended with kind.
func (r *Report) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}
