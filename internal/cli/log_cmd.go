package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/redtimer/internal/cli/formatter"
	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/repository"
)

type logInput struct {
	issueID  int
	minutes  int
	activity string
	comment  string
	date     string
}

func newLogCmd(app *App) *cobra.Command {
	var in logInput

	cmd := &cobra.Command{
		Use:   "log ID",
		Short: "Log time on an issue without running the timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRemote(); err != nil {
				return err
			}
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			in.issueID = id
			line, err := logTime(cmd.Context(), app, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}

	cmd.Flags().IntVarP(&in.minutes, "minutes", "m", 0, "time spent in minutes")
	cmd.Flags().StringVarP(&in.activity, "activity", "a", "", "activity id or name (last used when omitted)")
	cmd.Flags().StringVarP(&in.comment, "comment", "c", "", "time entry comment")
	cmd.Flags().StringVar(&in.date, "date", "", "spent on, YYYY-MM-DD (today when omitted)")
	_ = cmd.MarkFlagRequired("minutes")

	return cmd
}

// logTime saves one time entry and journals it the same way a timer save does.
func logTime(ctx context.Context, app *App, in logInput) (string, error) {
	if in.minutes <= 0 {
		return "", fmt.Errorf("--minutes must be positive")
	}
	spentOn := app.now()
	if in.date != "" {
		d, err := time.ParseInLocation("2006-01-02", in.date, time.Local)
		if err != nil {
			return "", fmt.Errorf("invalid --date %q, want YYYY-MM-DD", in.date)
		}
		spentOn = d
	}

	issue, err := app.Redmine.Issue(ctx, in.issueID)
	if err != nil {
		return "", err
	}
	activities, err := app.Redmine.Activities(ctx)
	if err != nil {
		return "", err
	}
	activity, err := pickActivity(ctx, app, activities, in.activity)
	if err != nil {
		return "", err
	}

	seconds := in.minutes * 60
	saved, err := app.Redmine.SaveTimeEntry(ctx, domain.TimeEntry{
		IssueID:    issue.ID,
		ActivityID: activity.ID,
		Seconds:    seconds,
		Comment:    in.comment,
		SpentOn:    spentOn,
	})
	if err != nil {
		return "", err
	}

	if app.Journal != nil {
		err := app.Journal.Append(ctx, &domain.JournalEntry{
			RemoteID:     saved.ID,
			IssueID:      issue.ID,
			IssueSubject: issue.Subject,
			ActivityID:   activity.ID,
			ActivityName: activity.Name,
			Seconds:      seconds,
			Comment:      in.comment,
			SpentOn:      spentOn,
			SavedAt:      app.now(),
		})
		if err != nil {
			return "", fmt.Errorf("saved to Redmine, but the local journal failed: %w", err)
		}
	}
	if app.Settings != nil {
		_ = app.Settings.SetInt(ctx, repository.KeyLastActivityID, activity.ID)
	}
	if err := rememberIssue(ctx, app, *issue); err != nil {
		return "", fmt.Errorf("saved to Redmine, but the recent list failed: %w", err)
	}

	return fmt.Sprintf("Logged %s on %s (%s)", formatter.Clock(seconds), issue.Label(), activity.Name), nil
}

// pickActivity resolves ref, falling back to the last used activity and
// then to the server default.
func pickActivity(ctx context.Context, app *App, activities []domain.Activity, ref string) (domain.Activity, error) {
	if ref != "" {
		a, ok := resolveByIDOrName(activities, ref, activityName)
		if !ok {
			return domain.Activity{}, fmt.Errorf("unknown activity %q (see `redtimer activities`)", ref)
		}
		return a, nil
	}
	if app.Settings != nil {
		id, err := app.Settings.GetInt(ctx, repository.KeyLastActivityID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return domain.Activity{}, err
		}
		for _, a := range activities {
			if a.ID == id {
				return a, nil
			}
		}
	}
	for _, a := range activities {
		if a.IsDefault {
			return a, nil
		}
	}
	return domain.Activity{}, fmt.Errorf("no activity given and Redmine has no default; pass --activity")
}
