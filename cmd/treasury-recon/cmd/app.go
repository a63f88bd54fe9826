package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/audit"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/config"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/db"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/exception"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/pathutil"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/reconcile"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/treasury"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg      *config.Config
	paths    *pathutil.PathResolver
	service  *treasury.Service
	history  *db.History
	conn     *db.Connection
	recorder *exception.Recorder
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigFile())
	if err != nil {
		return nil, err
	}
	if dataRoot != "" {
		cfg.DataRoot = dataRoot
	}
	return cfg, nil
}

// newApp wires configuration, stores and services. withHistory opens the
// SQLite history database.
func newApp(withHistory bool) (*app, error) {
	slog.Debug("Loading configuration")

	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate("dataRoot"); err != nil {
		return nil, err
	}

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	m, err := policy.Matcher()
	if err != nil {
		return nil, err
	}
	routing, err := policy.Routing()
	if err != nil {
		return nil, err
	}
	submit, err := policy.Submit()
	if err != nil {
		return nil, err
	}
	lookup, err := policy.Lookup()
	if err != nil {
		return nil, err
	}
	companies, err := policy.CompanyOrder()
	if err != nil {
		return nil, err
	}

	paths := pathutil.New(pathutil.Config{
		DataRoot:     cfg.DataRoot,
		DatabasePath: cfg.DBPath,
	})
	slog.Debug("Using data root", "path", paths.GetDataRoot())
	if err := paths.EnsureStoreDirs(); err != nil {
		return nil, err
	}
	stores := ledger.NewStores(paths)
	logger := slog.Default()

	a := &app{cfg: cfg, paths: paths}

	opts := reconcile.Options{
		Matcher:      m,
		Companies:    companies,
		Policy:       routing,
		LookupPolicy: lookup,
		Logger:       logger,
	}
	if withHistory && !cfg.NoHistory {
		if err := a.openHistory(); err != nil {
			return nil, err
		}
		opts.Recorder = a.history
	}

	trail := audit.NewTrail(stores.Audit(), logger)
	a.recorder = exception.NewRecorder(stores.Exceptions(), trail, stores, logger)
	engine := reconcile.NewEngine(stores.Treasury(), stores, a.recorder, trail, opts)
	a.service = treasury.NewService(stores.Treasury(), a.recorder, trail, engine, submit, logger)

	return a, nil
}

// openHistory opens the SQLite history database, creating its directory.
func (a *app) openHistory() error {
	dbPath := a.paths.GetDatabasePath()
	if err := a.paths.EnsureParentDir(dbPath); err != nil {
		return err
	}
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.conn = conn
	a.history = db.NewHistory(conn)
	return nil
}

// historyExists reports whether a history database has been written.
func (a *app) historyExists() bool {
	return !a.cfg.NoHistory && a.paths.FileExists(a.paths.GetDatabasePath())
}

func (a *app) Close() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
}
