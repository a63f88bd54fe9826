package db

import (
	"database/sql"
	"fmt"
)

// RunRecord is one reconciliation pass.
type RunRecord struct {
	RunID      string
	StartedAt  string
	FinishedAt string
	Updated    int
	Errors     int
	FatalError string
	Changes    []StatusChange
}

// StatusChange is one Treasury status rewrite applied by a pass.
type StatusChange struct {
	Reference string
	OldStatus string
	NewStatus string
	Company   string
	FoundIn   string
	ChangedAt string
}

// History manages reconciliation history operations.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// RecordRun stores a pass and its status changes in one transaction.
func (h *History) RecordRun(run RunRecord) error {
	return h.conn.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO reconcile_runs (run_id, started_at, finished_at, updated, errors, fatal_error)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			run.RunID,
			run.StartedAt,
			run.FinishedAt,
			run.Updated,
			run.Errors,
			sql.NullString{String: run.FatalError, Valid: run.FatalError != ""},
		)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}

		for _, change := range run.Changes {
			_, err := tx.Exec(`
				INSERT INTO status_changes (run_id, reference, old_status, new_status, company, found_in)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
				run.RunID,
				change.Reference,
				change.OldStatus,
				change.NewStatus,
				change.Company,
				change.FoundIn,
			)
			if err != nil {
				return fmt.Errorf("failed to record status change for %s: %w", change.Reference, err)
			}
		}
		return nil
	})
}

// GetChanges retrieves the status changes applied to a reference, oldest first.
func (h *History) GetChanges(reference string) ([]StatusChange, error) {
	query := `
		SELECT reference, old_status, new_status, company, found_in, changed_at
		FROM status_changes
		WHERE reference = ?
		ORDER BY id ASC
	`

	rows, err := h.conn.Query(query, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get status changes: %w", err)
	}
	defer rows.Close()

	var changes []StatusChange
	for rows.Next() {
		var change StatusChange
		if err := rows.Scan(
			&change.Reference,
			&change.OldStatus,
			&change.NewStatus,
			&change.Company,
			&change.FoundIn,
			&change.ChangedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		changes = append(changes, change)
	}

	return changes, rows.Err()
}

// Stats represents reconciliation statistics.
type Stats struct {
	TotalRuns    int
	FailedRuns   int
	TotalUpdates int
	TotalErrors  int
	LastRun      sql.NullString
}

// GetStats retrieves reconciliation statistics.
func (h *History) GetStats() (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(updated), 0), COALESCE(SUM(errors), 0)
		FROM reconcile_runs
	`).Scan(&stats.TotalRuns, &stats.TotalUpdates, &stats.TotalErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to get run totals: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM reconcile_runs WHERE fatal_error IS NOT NULL`).Scan(&stats.FailedRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed run count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT MAX(finished_at) FROM reconcile_runs`).Scan(&stats.LastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (h *History) GetMetadata(key string) (string, error) {
	query := `SELECT value FROM history_metadata WHERE key = ?`

	var value string
	err := h.conn.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *History) SetMetadata(key, value string) error {
	query := `
		INSERT INTO history_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := h.conn.Exec(query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
