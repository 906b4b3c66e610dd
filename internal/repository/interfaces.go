package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/redtimer/internal/domain"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

// Setting keys.
const (
	KeyLastIssueID    = "last_issue_id"
	KeyLastActivityID = "last_activity_id"
)

// RecentIssueRepo stores the recent-issues list, newest first.
type RecentIssueRepo interface {
	List(ctx context.Context) ([]domain.Issue, error)
	Replace(ctx context.Context, issues []domain.Issue) error
}

// SettingsRepo is a small key/value store for session state that
// survives restarts.
type SettingsRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetInt(ctx context.Context, key string) (int, error)
	SetInt(ctx context.Context, key string, value int) error
}

// JournalRepo records time entries Redmine accepted.
type JournalRepo interface {
	Append(ctx context.Context, e *domain.JournalEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.JournalEntry, error)
	SecondsSince(ctx context.Context, since time.Time) (int, error)
}
