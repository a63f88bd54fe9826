// Package router decides which settlement stores to query for a payment, in
// what order, and which status a match yields.
package router

import (
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/matcher"
)

// Source provides the rows of a settlement store.
type Source interface {
	SettlementRows(kind ledger.Kind, company ledger.Company) ([]ledger.Row, error)
}

// Result describes where a payment was found and the status it resolves to.
type Result struct {
	Status  ledger.Status
	FoundIn ledger.Kind
	Company ledger.Company
}

// Router routes payments through the CNP and Bank Statement stores.
type Router struct {
	source    Source
	matcher   *matcher.Matcher
	companies []ledger.Company
}

// New creates a Router. companies is the search order used when a payment
// has no company; nil means ledger.Companies.
func New(source Source, m *matcher.Matcher, companies []ledger.Company) *Router {
	if len(companies) == 0 {
		companies = ledger.Companies
	}
	return &Router{
		source:    source,
		matcher:   m,
		companies: companies,
	}
}

// Route looks target up for company, or every configured company in order
// when company is empty, and returns the first match.
//
// Old payments check CNP first (presence yields CNP) then Bank Statement
// (a "completed" row yields Paid). Current payments use the reverse order.
// ok is false when nothing matched; err is only set for store read failures.
func (r *Router) Route(target matcher.Target, old bool, company ledger.Company) (Result, bool, error) {
	companies := r.companies
	if company != "" {
		companies = []ledger.Company{company}
	}

	order := []ledger.Kind{ledger.KindBankStatement, ledger.KindCNP}
	if old {
		order = []ledger.Kind{ledger.KindCNP, ledger.KindBankStatement}
	}

	for _, comp := range companies {
		for _, kind := range order {
			found, err := r.check(kind, comp, target)
			if err != nil {
				return Result{}, false, err
			}
			if found {
				return Result{
					Status:  statusFor(kind),
					FoundIn: kind,
					Company: comp,
				}, true, nil
			}
		}
	}

	return Result{}, false, nil
}

// check reports whether kind's store for company holds a qualifying match.
func (r *Router) check(kind ledger.Kind, company ledger.Company, target matcher.Target) (bool, error) {
	rows, err := r.source.SettlementRows(kind, company)
	if err != nil {
		return false, fmt.Errorf("failed to read %s store for %s: %w", kind, company, err)
	}

	for _, row := range rows {
		if !r.matcher.Matches(row, target) {
			continue
		}
		// First matching row decides, as in a top-to-bottom scan of the file.
		if kind == ledger.KindCNP {
			return true, nil
		}
		return strings.EqualFold(row.Get("status"), "completed"), nil
	}

	return false, nil
}

func statusFor(kind ledger.Kind) ledger.Status {
	if kind == ledger.KindCNP {
		return ledger.StatusCNP
	}
	return ledger.StatusPaid
}
