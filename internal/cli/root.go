package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/redtimer/internal/clock"
	"github.com/alexanderramin/redtimer/internal/config"
	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/redmine"
	"github.com/alexanderramin/redtimer/internal/repository"
	"github.com/alexanderramin/redtimer/internal/tracking"
)

// Redmine is everything the commands and the TUI need from the tracker.
type Redmine interface {
	tracking.Remote
	Issues(ctx context.Context, q redmine.IssueQuery) ([]domain.Issue, error)
	CreateIssue(ctx context.Context, in redmine.NewIssue) (*domain.Issue, error)
	CurrentUser(ctx context.Context) (*redmine.User, error)
	BaseURL() string
}

// App holds the collaborators shared by every command.
type App struct {
	Config     *config.Config
	ConfigPath string

	Redmine  Redmine
	Recent   repository.RecentIssueRepo
	Settings repository.SettingsRepo
	Journal  repository.JournalRepo
	Observer tracking.Observer
	Clock    clock.Clock

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool

	// RunTUI starts the interactive timer. Nil means the bubbletea program.
	RunTUI func(ctx context.Context, app *App, issueID int) error

	// PickIssue lets the user choose one of issues and returns its id, or
	// NullID when the choice was cancelled. Nil means a huh select.
	PickIssue func(issues []domain.Issue) (int, error)
}

func (a *App) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock.Now()
}

// requireRemote fails early with a config hint when Redmine is not set up.
func (a *App) requireRemote() error {
	if a.Config == nil {
		return nil
	}
	return a.Config.Validate()
}

func (a *App) startTUI(ctx context.Context, issueID int) error {
	run := a.RunTUI
	if run == nil {
		run = runTUI
	}
	return run(ctx, a, issueID)
}

// trackIssue hands issueID to the TUI, which loads it and starts timing.
func (a *App) trackIssue(ctx context.Context, issueID int) error {
	if a.IsInteractive == nil || !a.IsInteractive() {
		return errors.New("--track needs a terminal")
	}
	return a.startTUI(ctx, issueID)
}

func (a *App) pickIssue(issues []domain.Issue) (int, error) {
	if a.PickIssue != nil {
		return a.PickIssue(issues)
	}
	return runIssuePicker(issues)
}

func (a *App) sessionOptions() tracking.Options {
	if a.Config == nil {
		return tracking.Options{StartTimerAfterLoad: true, SaveCurrentFirst: true}
	}
	return tracking.Options{
		StartTimerAfterLoad: a.Config.Tracking.StartTimerAfterLoad,
		SaveCurrentFirst:    a.Config.Tracking.SaveCurrentFirst,
		RestoreLastIssue:    a.Config.Tracking.RestoreLastIssue,
		MessageTimeout:      a.Config.MessageTimeout(),
	}
}

// NewRootCmd creates the top-level "redtimer" command. Without a
// subcommand it opens the TUI on a terminal and prints help otherwise.
func NewRootCmd(app *App) *cobra.Command {
	var issueID int

	root := &cobra.Command{
		Use:           "redtimer",
		Short:         "Track time on Redmine issues",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := app.IsInteractive != nil && app.IsInteractive()
			if !interactive && issueID == 0 {
				return cmd.Help()
			}
			if err := app.requireRemote(); err != nil {
				return err
			}
			return app.startTUI(cmd.Context(), issueID)
		},
	}
	addIssueFlag(root.Flags(), &issueID, "issue to open on start")

	root.AddCommand(
		newIssueCmd(app),
		newActivitiesCmd(app),
		newStatusesCmd(app),
		newLogCmd(app),
		newRecentCmd(app),
		newHistoryCmd(app),
		newConfigCmd(app),
	)

	return root
}
