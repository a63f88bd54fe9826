// Package db provides SQLite storage for reconciliation run history.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Reconciliation runs
-- One row per reconciliation pass
CREATE TABLE IF NOT EXISTS reconcile_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,       -- uuid of the pass
    started_at TEXT NOT NULL,          -- YYYY-MM-DD HH:MM:SS
    finished_at TEXT NOT NULL,
    updated INTEGER NOT NULL,          -- status updates applied
    errors INTEGER NOT NULL,           -- recovered and fatal errors
    fatal_error TEXT                   -- set when the pass aborted
);

CREATE INDEX IF NOT EXISTS idx_reconcile_runs_started
    ON reconcile_runs(started_at);

-- Status changes
-- Every Treasury status rewrite applied by a pass
CREATE TABLE IF NOT EXISTS status_changes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    reference TEXT NOT NULL,
    old_status TEXT NOT NULL,
    new_status TEXT NOT NULL,
    company TEXT NOT NULL,
    found_in TEXT NOT NULL,            -- 'BS' or 'CNP'
    changed_at TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES reconcile_runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_status_changes_reference
    ON status_changes(reference);

-- Key-value metadata
CREATE TABLE IF NOT EXISTS history_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
