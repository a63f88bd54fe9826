// Package pathutil provides centralized path management for the ledger stores.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

// PathResolver manages paths for the Treasury, settlement, exception and audit stores.
type PathResolver struct {
	dataRoot     string
	databasePath string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataRoot is the root directory for all stores (e.g., ~/payments/data)
	DataRoot string
	// DatabasePath is the path to the SQLite database file for reconciliation history
	DatabasePath string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataRoot}/.history/reconcile.db
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DataRoot, ".history", "reconcile.db")
	}

	return &PathResolver{
		dataRoot:     config.DataRoot,
		databasePath: dbPath,
	}
}

// GetDataRoot returns the data root directory.
func (p *PathResolver) GetDataRoot() string {
	return p.dataRoot
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetTreasuryPath returns the Treasury store path.
// Example: data/treasury/TREASURY_CURRENT.csv
func (p *PathResolver) GetTreasuryPath() string {
	return filepath.Join(p.dataRoot, "treasury", "TREASURY_CURRENT.csv")
}

// GetSettlementPath returns the Bank Statement or CNP store path for a company.
// Example: data/bank_statements/SALAM/BS_SALAM_CURRENT.csv
func (p *PathResolver) GetSettlementPath(kind ledger.Kind, company ledger.Company) (string, error) {
	if _, ok := ledger.ParseCompany(string(company)); !ok {
		return "", fmt.Errorf("invalid company: %q", company)
	}

	var dir string
	switch kind {
	case ledger.KindBankStatement:
		dir = "bank_statements"
	case ledger.KindCNP:
		dir = "cnp"
	default:
		return "", fmt.Errorf("invalid settlement kind: %q", kind)
	}

	name := strings.ToUpper(string(company))
	filename := fmt.Sprintf("%s_%s_CURRENT.csv", kind, name)
	return filepath.Join(p.dataRoot, dir, name, filename), nil
}

// GetExceptionLogPath returns the exception log path.
func (p *PathResolver) GetExceptionLogPath() string {
	return filepath.Join(p.dataRoot, "exceptions", "EXCEPTION_LOG.csv")
}

// GetAuditLogPath returns the audit log path.
func (p *PathResolver) GetAuditLogPath() string {
	return filepath.Join(p.dataRoot, "exceptions", "AUDIT_LOG.csv")
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return p.EnsureDir(dir)
}

// EnsureStoreDirs creates the directories of the stores this module writes:
// Treasury, the exception log and the audit log. Settlement store
// directories are owned by their producers and are left alone.
func (p *PathResolver) EnsureStoreDirs() error {
	if err := p.EnsureDir(p.GetDataRoot()); err != nil {
		return err
	}
	for _, path := range []string{p.GetTreasuryPath(), p.GetExceptionLogPath(), p.GetAuditLogPath()} {
		if err := p.EnsureParentDir(path); err != nil {
			return err
		}
	}
	return nil
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
