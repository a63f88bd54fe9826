package reconcile

import (
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/router"
)

type sourceKey struct {
	kind    ledger.Kind
	company ledger.Company
}

// cachedSource reads each settlement store at most once per pass.
// Settlement stores are read-only to the engine, so a pass sees one snapshot.
type cachedSource struct {
	source router.Source
	rows   map[sourceKey][]ledger.Row
}

func newCachedSource(source router.Source) *cachedSource {
	return &cachedSource{
		source: source,
		rows:   make(map[sourceKey][]ledger.Row),
	}
}

func (c *cachedSource) SettlementRows(kind ledger.Kind, company ledger.Company) ([]ledger.Row, error) {
	key := sourceKey{kind: kind, company: company}
	if rows, ok := c.rows[key]; ok {
		return rows, nil
	}

	rows, err := c.source.SettlementRows(kind, company)
	if err != nil {
		return nil, err
	}
	c.rows[key] = rows
	return rows, nil
}
