package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

func TestGetSettlementPath(t *testing.T) {
	p := New(Config{DataRoot: "data"})

	tests := []struct {
		name     string
		kind     ledger.Kind
		company  ledger.Company
		expected string
		wantErr  bool
	}{
		{"bank statement", ledger.KindBankStatement, ledger.CompanySALAM, filepath.Join("data", "bank_statements", "SALAM", "BS_SALAM_CURRENT.csv"), false},
		{"cnp", ledger.KindCNP, ledger.CompanyMVNO, filepath.Join("data", "cnp", "MVNO", "CNP_MVNO_CURRENT.csv"), false},
		{"unknown company", ledger.KindCNP, "ACME", "", true},
		{"unknown kind", "XX", ledger.CompanySALAM, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.GetSettlementPath(tt.kind, tt.company)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetSettlementPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("GetSettlementPath() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestFixedPaths(t *testing.T) {
	p := New(Config{DataRoot: "/srv/data"})

	tests := []struct {
		name     string
		result   string
		expected string
	}{
		{"treasury", p.GetTreasuryPath(), "/srv/data/treasury/TREASURY_CURRENT.csv"},
		{"exceptions", p.GetExceptionLogPath(), "/srv/data/exceptions/EXCEPTION_LOG.csv"},
		{"audit", p.GetAuditLogPath(), "/srv/data/exceptions/AUDIT_LOG.csv"},
		{"default database", p.GetDatabasePath(), "/srv/data/.history/reconcile.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result != tt.expected {
				t.Errorf("got %q, expected %q", tt.result, tt.expected)
			}
		})
	}
}

func TestDatabasePathOverride(t *testing.T) {
	p := New(Config{DataRoot: "data", DatabasePath: "/tmp/history.db"})
	if got := p.GetDatabasePath(); got != "/tmp/history.db" {
		t.Errorf("GetDatabasePath() = %q", got)
	}
}

func TestEnsureStoreDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	p := New(Config{DataRoot: root})

	if err := p.EnsureStoreDirs(); err != nil {
		t.Fatalf("EnsureStoreDirs() error = %v", err)
	}

	for _, dir := range []string{"treasury", "exceptions"} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s, stat error = %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "bank_statements")); !os.IsNotExist(err) {
		t.Errorf("settlement directories must not be created, stat error = %v", err)
	}

	if p.FileExists(p.GetTreasuryPath()) {
		t.Error("FileExists() = true before any payment was written")
	}
	if err := os.WriteFile(p.GetTreasuryPath(), []byte("reference\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !p.FileExists(p.GetTreasuryPath()) {
		t.Error("FileExists() = false for an existing file")
	}
}

func TestEnsureParentDirFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	p := New(Config{DataRoot: dir})
	if err := p.EnsureParentDir(filepath.Join(blocker, "sub", "x.db")); err == nil {
		t.Error("EnsureParentDir() expected an error when a file is in the way")
	}
}
