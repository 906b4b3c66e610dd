package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/redtimer/internal/db"
	"github.com/alexanderramin/redtimer/internal/domain"
)

// SQLiteRecentIssueRepo implements RecentIssueRepo. Only the fields shown
// in the recent list are kept; a reopened issue is fetched again.
type SQLiteRecentIssueRepo struct {
	db  *sql.DB
	uow db.UnitOfWork
}

// NewSQLiteRecentIssueRepo creates a new SQLiteRecentIssueRepo.
func NewSQLiteRecentIssueRepo(database *sql.DB) *SQLiteRecentIssueRepo {
	return &SQLiteRecentIssueRepo{db: database, uow: db.NewSQLiteUnitOfWork(database)}
}

func (r *SQLiteRecentIssueRepo) List(ctx context.Context) ([]domain.Issue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT issue_id, subject, project_name, status_id, status_name, opened_at
		FROM recent_issues ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing recent issues: %w", err)
	}
	defer rows.Close()

	var out []domain.Issue
	for rows.Next() {
		var (
			is       domain.Issue
			openedAt string
		)
		if err := rows.Scan(&is.ID, &is.Subject, &is.Project.Name, &is.Status.ID, &is.Status.Name, &openedAt); err != nil {
			return nil, fmt.Errorf("scanning recent issue: %w", err)
		}
		is.UpdatedOn = parseTimestamp(openedAt)
		out = append(out, is)
	}
	return out, rows.Err()
}

// Replace swaps the stored list for issues in one transaction.
func (r *SQLiteRecentIssueRepo) Replace(ctx context.Context, issues []domain.Issue) error {
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recent_issues`); err != nil {
			return fmt.Errorf("clearing recent issues: %w", err)
		}
		now := nowUTC()
		for i, is := range issues {
			_, err := tx.ExecContext(ctx, `INSERT INTO recent_issues
				(position, issue_id, subject, project_name, status_id, status_name, opened_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				i, is.ID, is.Subject, is.Project.Name, is.Status.ID, is.Status.Name, now)
			if err != nil {
				return fmt.Errorf("inserting recent issue #%d: %w", is.ID, err)
			}
		}
		return nil
	})
}
