// Package reconcile runs reconciliation passes over the Treasury store.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/aging"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/audit"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/checksum"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/db"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/exception"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/matcher"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/router"
)

// ErrStoreIO marks a store failure that aborted the pass.
var ErrStoreIO = ledger.ErrStoreIO

type exceptionLogger interface {
	Report(reference, excType, description string) ledger.ExceptionRecord
}

type auditor interface {
	Record(entry audit.Entry) (ledger.AuditRecord, error)
}

// RunRecorder persists a summary of each pass.
type RunRecorder interface {
	RecordRun(run db.RunRecord) error
}

// Options configures an Engine.
type Options struct {
	Matcher   *matcher.Matcher
	Companies []ledger.Company
	// Policy classifies rows for routing. Defaults to aging.CalendarBoundary.
	Policy aging.Policy
	// LookupPolicy classifies single-payment lookups. Defaults to a 30-day aging.DayThreshold.
	LookupPolicy aging.Policy
	Recorder     RunRecorder
	Logger       *slog.Logger
	Now          func() time.Time
}

// Engine reconciles pending Treasury rows against the settlement stores.
// The Treasury store is the only store it writes.
type Engine struct {
	treasury    ledger.Repository
	settlements router.Source
	exceptions  exceptionLogger
	trail       auditor
	matcher     *matcher.Matcher
	companies   []ledger.Company
	policy      aging.Policy
	lookup      aging.Policy
	recorder    RunRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(treasury ledger.Repository, settlements router.Source, exceptions exceptionLogger, trail auditor, opts Options) *Engine {
	e := &Engine{
		treasury:    treasury,
		settlements: settlements,
		exceptions:  exceptions,
		trail:       trail,
		matcher:     opts.Matcher,
		companies:   opts.Companies,
		policy:      opts.Policy,
		lookup:      opts.LookupPolicy,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if e.matcher == nil {
		e.matcher = matcher.Default()
	}
	if len(e.companies) == 0 {
		e.companies = ledger.Companies
	}
	if e.policy == nil {
		e.policy = aging.CalendarBoundary{}
	}
	if e.lookup == nil {
		e.lookup = aging.DayThreshold{Days: aging.DefaultThresholdDays}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// ReconcileAll runs one pass over every Treasury row that is not Paid.
//
// Row-level failures are counted in the report and the pass continues.
// Failing to read or rewrite the Treasury store, or to read a settlement
// store, ends the pass: the partial report is returned with an error
// wrapping ErrStoreIO and the Treasury file is left as it was.
func (e *Engine) ReconcileAll() (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: e.now(),
	}
	logger := e.logger.With("run_id", report.RunID)
	logger.Info("Starting reconciliation", "treasury", e.treasury.Path())

	err := e.run(report, logger)

	report.FinishedAt = e.now()
	e.finish(report, err, logger)
	return report, err
}

func (e *Engine) run(report *Report, logger *slog.Logger) error {
	if !e.treasury.Exists() {
		report.Details = append(report.Details, "Treasury file not found")
		logger.Info("Treasury file not found, nothing to reconcile")
		return nil
	}

	before, err := checksum.GetFileChecksum(e.treasury.Path())
	if err != nil {
		logger.Warn("Failed to fingerprint Treasury", "error", err)
	}

	table, err := e.treasury.Read()
	if err != nil {
		return e.fatal(report, "Error reading Treasury", err)
	}
	if len(table.Rows) == 0 {
		report.Details = append(report.Details, "No payments found in Treasury")
		logger.Info("No payments found in Treasury")
		return nil
	}
	logger.Info("Loaded Treasury", "rows", len(table.Rows))

	source := newCachedSource(e.settlements)
	rt := router.New(source, e.matcher, e.companies)
	now := e.now()

	var pending []Update
	for _, row := range table.Rows {
		outcome, err := e.evaluate(rt, row, now)
		if err != nil {
			report.Outcomes = append(report.Outcomes, outcome)
			return e.fatal(report, "Error reading settlement stores", err)
		}
		report.Outcomes = append(report.Outcomes, outcome)

		switch outcome.Kind {
		case OutcomeFailed:
			detail := fmt.Sprintf("Error checking %s: %v", displayRef(outcome.Reference), outcome.Err)
			report.addError(detail)
			e.exceptions.Report(outcome.Reference, exception.TypeReconciliationRow, outcome.Err.Error())
			logger.Warn("Skipping Treasury row", "reference", outcome.Reference, "error", outcome.Err)
		case OutcomeMatched:
			pending = append(pending, *outcome.Update)
			logger.Debug("Match found",
				"reference", outcome.Reference,
				"found_in", outcome.Update.FoundIn,
				"company", outcome.Update.Company,
				"new_status", outcome.Update.NewStatus,
			)
		}
	}

	if len(pending) == 0 {
		logger.Info("No payments needed updating")
		return nil
	}

	return e.apply(report, pending, before, logger)
}

// Lookup finds where one payment stands in the settlement stores without
// writing anything. Age is classified with the lookup policy, so a payment
// can route differently here than during a pass near a month boundary.
func (e *Engine) Lookup(payment ledger.PaymentRecord) (router.Result, bool, error) {
	amount, err := matcher.ParseAmount(payment.Amount)
	if err != nil {
		return router.Result{}, false, fmt.Errorf("invalid amount %q", payment.Amount)
	}
	date, err := aging.ParseDate(payment.Date)
	if err != nil {
		return router.Result{}, false, err
	}

	var company ledger.Company
	if payment.Company != "" {
		c, ok := ledger.ParseCompany(payment.Company)
		if !ok {
			return router.Result{}, false, fmt.Errorf("unknown company %q", payment.Company)
		}
		company = c
	}

	rt := router.New(e.settlements, e.matcher, e.companies)
	target := matcher.Target{Reference: payment.Reference, Amount: amount}
	return rt.Route(target, e.lookup.IsOld(date, e.now()), company)
}

// evaluate decides the outcome for one Treasury row without mutating it.
// The returned error is reserved for settlement store failures.
func (e *Engine) evaluate(rt *router.Router, row ledger.Row, now time.Time) (RowOutcome, error) {
	payment := ledger.PaymentFromRow(row)
	outcome := RowOutcome{Reference: payment.Reference}

	if payment.Status == ledger.StatusPaid {
		outcome.Kind = OutcomeSkipped
		return outcome, nil
	}

	if strings.TrimSpace(payment.Reference) == "" {
		outcome.Kind = OutcomeFailed
		outcome.Err = errors.New("missing reference")
		return outcome, nil
	}

	amount, err := matcher.ParseAmount(payment.Amount)
	if err != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = fmt.Errorf("invalid amount %q", payment.Amount)
		return outcome, nil
	}

	date, err := aging.ParseDate(payment.Date)
	if err != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = err
		return outcome, nil
	}

	var company ledger.Company
	if payment.Company != "" {
		c, ok := ledger.ParseCompany(payment.Company)
		if !ok {
			outcome.Kind = OutcomeFailed
			outcome.Err = fmt.Errorf("unknown company %q", payment.Company)
			return outcome, nil
		}
		company = c
	}

	target := matcher.Target{Reference: payment.Reference, Amount: amount}
	result, found, err := rt.Route(target, e.policy.IsOld(date, now), company)
	if err != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = err
		return outcome, err
	}
	if !found {
		outcome.Kind = OutcomeNoMatch
		return outcome, nil
	}
	if result.Status == payment.Status {
		outcome.Kind = OutcomeUnchanged
		return outcome, nil
	}

	outcome.Kind = OutcomeMatched
	outcome.Update = &Update{
		Reference: payment.Reference,
		Amount:    payment.Amount,
		OldStatus: payment.Status,
		NewStatus: result.Status,
		Company:   result.Company,
		FoundIn:   result.FoundIn,
	}
	return outcome, nil
}

// apply re-reads the Treasury store, applies pending updates to the rows still
// present and rewrites the store atomically.
func (e *Engine) apply(report *Report, pending []Update, before string, logger *slog.Logger) error {
	if after, err := checksum.GetFileChecksum(e.treasury.Path()); err == nil && before != "" && after != before {
		logger.Warn("Treasury changed since it was loaded, applying updates to current content",
			"before", before,
			"after", after,
		)
	}

	table, err := e.treasury.Read()
	if err != nil {
		return e.fatal(report, "Error updating statuses", err)
	}

	timestamp := e.now().Format(ledger.TimestampLayout)
	var applied []Update
	seen := make(map[string]bool, len(pending))
	for _, update := range pending {
		// Identical rows yield identical updates; the first one covers them all.
		key := update.key()
		if seen[key] {
			continue
		}
		seen[key] = true

		if applyUpdate(table.Rows, update, timestamp) {
			applied = append(applied, update)
		} else {
			logger.Warn("No unpaid Treasury row left for update", "reference", update.Reference)
		}
	}
	if len(applied) == 0 {
		return nil
	}

	header := ledger.TreasurySchema.MergeHeader(table.Header)
	if err := e.treasury.Rewrite(header, table.Rows); err != nil {
		return e.fatal(report, "Error updating statuses", err)
	}

	report.Applied = applied
	report.Updated = len(applied)
	for _, update := range applied {
		report.Details = append(report.Details, update.Detail())
		e.trail.Record(audit.Entry{
			Action:    audit.ActionStatusChanged,
			Reference: update.Reference,
			Details: fmt.Sprintf("Status: %s -> %s (found in %s-%s)",
				update.OldStatus, update.NewStatus, update.FoundIn, update.Company),
			Status: audit.StatusSuccess,
		})
		logger.Info("Updated payment status",
			"reference", update.Reference,
			"old_status", update.OldStatus,
			"new_status", update.NewStatus,
			"company", update.Company,
		)
	}

	return nil
}

// applyUpdate sets the new status on every row with the update's reference
// and amount that is not already Paid. A blank company is backfilled; a
// populated one is never overwritten. Returns whether any row changed.
func applyUpdate(rows []ledger.Row, update Update, timestamp string) bool {
	amount, err := matcher.ParseAmount(update.Amount)
	if err != nil {
		return false
	}

	changed := false
	for _, row := range rows {
		if row.Get("reference") != update.Reference {
			continue
		}
		rowAmount, err := matcher.ParseAmount(row.Get("amount"))
		if err != nil || !rowAmount.Equal(amount) {
			continue
		}
		if ledger.Status(row.Get("status")) == ledger.StatusPaid {
			continue
		}

		row["status"] = string(update.NewStatus)
		if row.Get("company") == "" {
			row["company"] = string(update.Company)
		}
		row["timestamp"] = timestamp
		changed = true
	}
	return changed
}

// fatal records a pass-ending store failure and returns it wrapped in ErrStoreIO.
func (e *Engine) fatal(report *Report, prefix string, err error) error {
	report.addError(fmt.Sprintf("%s: %v", prefix, err))
	e.exceptions.Report("N/A", exception.TypeReconciliationStore, fmt.Sprintf("%s: %v", prefix, err))
	return fmt.Errorf("%w: %s: %w", ErrStoreIO, strings.ToLower(prefix), err)
}

// finish writes the run summary to the audit trail and the history recorder.
func (e *Engine) finish(report *Report, runErr error, logger *slog.Logger) {
	status := audit.StatusCompleted
	if runErr != nil {
		status = audit.StatusFailed
	}
	e.trail.Record(audit.Entry{
		Action:  audit.ActionReconciliationRun,
		Details: fmt.Sprintf("Run %s: updated=%d errors=%d", report.RunID, report.Updated, report.Errors),
		Status:  status,
	})

	if e.recorder != nil {
		run := db.RunRecord{
			RunID:      report.RunID,
			StartedAt:  report.StartedAt.Format(ledger.TimestampLayout),
			FinishedAt: report.FinishedAt.Format(ledger.TimestampLayout),
			Updated:    report.Updated,
			Errors:     report.Errors,
		}
		if runErr != nil {
			run.FatalError = runErr.Error()
		}
		for _, update := range report.Applied {
			run.Changes = append(run.Changes, db.StatusChange{
				Reference: update.Reference,
				OldStatus: string(update.OldStatus),
				NewStatus: string(update.NewStatus),
				Company:   string(update.Company),
				FoundIn:   string(update.FoundIn),
			})
		}
		if err := e.recorder.RecordRun(run); err != nil {
			logger.Error("Failed to record reconciliation history", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("Reconciliation aborted", "updated", report.Updated, "errors", report.Errors, "error", runErr)
		return
	}
	logger.Info("Reconciliation completed", "updated", report.Updated, "errors", report.Errors)
}

func (u Update) key() string {
	amount := u.Amount
	if d, err := matcher.ParseAmount(u.Amount); err == nil {
		amount = d.String()
	}
	return strings.Join([]string{u.Reference, amount, string(u.NewStatus)}, "\x00")
}

func displayRef(reference string) string {
	if reference == "" {
		return "N/A"
	}
	return reference
}
