package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies the schema. Statements are idempotent and run on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS recent_issues (
		position INTEGER PRIMARY KEY CHECK(position >= 0),
		issue_id INTEGER NOT NULL UNIQUE CHECK(issue_id > 0),
		subject TEXT NOT NULL DEFAULT '',
		project_name TEXT NOT NULL DEFAULT '',
		status_id INTEGER NOT NULL DEFAULT 0,
		status_name TEXT NOT NULL DEFAULT '',
		opened_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS time_entry_journal (
		id TEXT PRIMARY KEY,
		remote_id INTEGER NOT NULL DEFAULT 0,
		issue_id INTEGER NOT NULL,
		issue_subject TEXT NOT NULL DEFAULT '',
		activity_id INTEGER NOT NULL,
		activity_name TEXT NOT NULL DEFAULT '',
		seconds INTEGER NOT NULL CHECK(seconds >= 0),
		comment TEXT NOT NULL DEFAULT '',
		spent_on TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_journal_saved_at ON time_entry_journal(saved_at)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_issue ON time_entry_journal(issue_id)`,
}
