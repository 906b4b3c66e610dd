package tracking

import (
	"context"
	"time"

	"github.com/alexanderramin/redtimer/internal/domain"
)

// Remote is the subset of Redmine the session drives. Calls block; the
// session runs them through Loop.Go so they never block the control thread.
type Remote interface {
	Issue(ctx context.Context, id int) (*domain.Issue, error)
	Activities(ctx context.Context) ([]domain.Activity, error)
	IssueStatuses(ctx context.Context) ([]domain.IssueStatus, error)
	// LatestActivity returns nil, nil when the issue has no time entries.
	LatestActivity(ctx context.Context, issueID int) (*domain.Activity, error)
	// SaveTimeEntry creates the entry when its ID is zero, updates it otherwise.
	SaveTimeEntry(ctx context.Context, e domain.TimeEntry) (*domain.TimeEntry, error)
	UpdateIssueStatus(ctx context.Context, issueID, statusID int) error
	Reconnect(ctx context.Context) error
}

// Loop is the control thread. Session state is only touched from it.
type Loop interface {
	// Go runs work off the control thread, then runs the continuation work
	// returns (if non-nil) on the control thread.
	Go(work func() func())
	// Every calls fn on the control thread once per interval until stop is
	// called. Calls already queued when stop runs may still arrive.
	Every(interval time.Duration, fn func()) (stop func())
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "info"
	}
}

// DefaultMessageTimeout is how long a message stays visible.
const DefaultMessageTimeout = 5 * time.Second

// Controls tells the shell which actions make sense right now.
type Controls struct {
	IssueLoaded bool
	Running     bool
	Saving      bool
	ExitPending bool
}

// EntityLists is everything the shell renders in its pickers.
type EntityLists struct {
	Activities         []domain.Activity
	SelectedActivityID int
	Statuses           []domain.IssueStatus
	SelectedStatusID   int
	Recent             []domain.Issue
}

type ExitChoice int

const (
	ExitAbort ExitChoice = iota
	ExitSave
	ExitDiscard
)

func (c ExitChoice) String() string {
	switch c {
	case ExitSave:
		return "save"
	case ExitDiscard:
		return "discard"
	default:
		return "abort"
	}
}

// Shell receives the session's output. Every method is called on the
// control thread and must not block.
type Shell interface {
	Message(text string, severity Severity, timeout time.Duration)
	RefreshCounter(seconds int)
	RefreshIssue(issue domain.Issue)
	RefreshEntityLists(lists EntityLists)
	RefreshControls(c Controls)
	TimeEntrySaved(entry domain.TimeEntry)
	// PromptExitChoice asks the user how to leave while time is unsaved.
	// The answer comes back through Session.ResolveExit.
	PromptExitChoice()
	Quit()
}
