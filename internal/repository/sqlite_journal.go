package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/redtimer/internal/db"
	"github.com/alexanderramin/redtimer/internal/domain"
)

// SQLiteJournalRepo implements JournalRepo using a SQLite database.
type SQLiteJournalRepo struct {
	db db.DBTX
}

// NewSQLiteJournalRepo creates a new SQLiteJournalRepo.
func NewSQLiteJournalRepo(conn db.DBTX) *SQLiteJournalRepo {
	return &SQLiteJournalRepo{db: conn}
}

// Append stores e, assigning an id and SavedAt when unset.
func (r *SQLiteJournalRepo) Append(ctx context.Context, e *domain.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	spentOn := e.SpentOn
	if spentOn.IsZero() {
		spentOn = e.SavedAt
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO time_entry_journal
		(id, remote_id, issue_id, issue_subject, activity_id, activity_name, seconds, comment, spent_on, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RemoteID, e.IssueID, e.IssueSubject, e.ActivityID, e.ActivityName,
		e.Seconds, e.Comment, spentOn.Format(dateLayout), formatTimestamp(e.SavedAt))
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *SQLiteJournalRepo) ListRecent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, remote_id, issue_id, issue_subject, activity_id,
		activity_name, seconds, comment, spent_on, saved_at
		FROM time_entry_journal ORDER BY saved_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing journal: %w", err)
	}
	defer rows.Close()

	var out []domain.JournalEntry
	for rows.Next() {
		var (
			e                domain.JournalEntry
			spentOn, savedAt string
		)
		if err := rows.Scan(&e.ID, &e.RemoteID, &e.IssueID, &e.IssueSubject, &e.ActivityID,
			&e.ActivityName, &e.Seconds, &e.Comment, &spentOn, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.SpentOn = parseDate(spentOn)
		e.SavedAt = parseTimestamp(savedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SecondsSince sums the seconds saved at or after since.
func (r *SQLiteJournalRepo) SecondsSince(ctx context.Context, since time.Time) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seconds), 0) FROM time_entry_journal WHERE saved_at >= ?`,
		formatTimestamp(since)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing journal: %w", err)
	}
	return total, nil
}
