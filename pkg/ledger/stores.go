package ledger

import "fmt"

// Locator resolves store file paths.
type Locator interface {
	GetTreasuryPath() string
	GetSettlementPath(kind Kind, company Company) (string, error)
	GetExceptionLogPath() string
	GetAuditLogPath() string
}

// Stores opens the store for each ledger kind from a Locator.
type Stores struct {
	locator Locator
}

// NewStores creates a Stores backed by locator.
func NewStores(locator Locator) *Stores {
	return &Stores{locator: locator}
}

// Treasury returns the global Treasury store.
func (s *Stores) Treasury() *Store {
	return NewStore(s.locator.GetTreasuryPath(), TreasurySchema)
}

// Settlement returns the Bank Statement or CNP store of a company.
func (s *Stores) Settlement(kind Kind, company Company) (*Store, error) {
	path, err := s.locator.GetSettlementPath(kind, company)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s store: %w", kind, err)
	}
	return NewStore(path, SettlementSchema), nil
}

// Exceptions returns the exception log store.
func (s *Stores) Exceptions() *Store {
	return NewStore(s.locator.GetExceptionLogPath(), ExceptionSchema)
}

// Audit returns the audit log store.
func (s *Stores) Audit() *Store {
	return NewStore(s.locator.GetAuditLogPath(), AuditSchema)
}

// SettlementRows reads every row of a settlement store.
// A missing store reads as empty.
func (s *Stores) SettlementRows(kind Kind, company Company) ([]Row, error) {
	store, err := s.Settlement(kind, company)
	if err != nil {
		return nil, err
	}
	table, err := store.Read()
	if err != nil {
		return nil, err
	}
	return table.Rows, nil
}
