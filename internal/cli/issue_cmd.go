package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/redtimer/internal/cli/formatter"
	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/redmine"
)

func newIssueCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Show, list, create and move issues",
	}

	cmd.AddCommand(
		newIssueShowCmd(app),
		newIssueListCmd(app),
		newIssueCreateCmd(app),
		newIssueStatusCmd(app),
	)

	return cmd
}

func newIssueShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRemote(); err != nil {
				return err
			}
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			issue, err := app.Redmine.Issue(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderIssue(*issue))
			return nil
		},
	}
}

func renderIssue(is domain.Issue) string {
	rows := [][]string{
		{"Project", is.Project.Name},
		{"Tracker", is.Tracker.Name},
		{"Status", formatter.StatusPill(domain.IssueStatus{ID: is.Status.ID, Name: is.Status.Name})},
	}
	if is.Priority.Name != "" {
		rows = append(rows, []string{"Priority", is.Priority.Name})
	}
	if is.AssignedTo.Name != "" {
		rows = append(rows, []string{"Assignee", is.AssignedTo.Name})
	}
	rows = append(rows, []string{"Done", fmt.Sprintf("%d%%", is.DoneRatio)})
	if is.SpentHours > 0 || is.EstimatedHours > 0 {
		spent := formatter.Hours(int(is.SpentHours * 3600))
		if is.EstimatedHours > 0 {
			spent += " / " + formatter.Hours(int(is.EstimatedHours*3600))
		}
		rows = append(rows, []string{"Spent", spent})
	}

	var b strings.Builder
	b.WriteString(formatter.Bold(is.Label()))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(formatter.Dim(fmt.Sprintf("%-9s", r[0])) + " " + r[1] + "\n")
	}
	if d := strings.TrimSpace(is.Description); d != "" {
		b.WriteString("\n")
		b.WriteString(d)
	}
	return formatter.RenderBox("Issue", strings.TrimRight(b.String(), "\n"))
}

func newIssueListCmd(app *App) *cobra.Command {
	var (
		f     issueListFlags
		track bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open issues assigned to me",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRemote(); err != nil {
				return err
			}
			issues, err := app.Redmine.Issues(cmd.Context(), redmine.IssueQuery{
				AssignedToMe: !f.anyone,
				ProjectID:    f.project,
				OpenOnly:     !f.all,
				Limit:        f.limit,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "No issues found.")
				return nil
			}
			if !track {
				fmt.Fprint(out, renderIssueTable(issues))
				return nil
			}

			if app.IsInteractive == nil || !app.IsInteractive() {
				return errors.New("--track needs a terminal")
			}
			id, err := app.pickIssue(issues)
			if err != nil {
				return err
			}
			if id == domain.NullID {
				fmt.Fprintln(out, "No issue selected.")
				return nil
			}
			return app.trackIssue(cmd.Context(), id)
		},
	}
	addIssueListFlags(cmd.Flags(), &f)
	cmd.Flags().BoolVarP(&track, "track", "t", false, "pick an issue and start tracking it")

	return cmd
}

func renderIssueTable(issues []domain.Issue) string {
	headers := []string{"ID", "PROJECT", "STATUS", "SUBJECT"}
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []string{
			formatter.StyleBlue.Render(fmt.Sprintf("#%d", is.ID)),
			formatter.Dim(is.Project.Name),
			is.Status.Name,
			formatter.Truncate(is.Subject, 60),
		})
	}
	return formatter.RenderTable(headers, rows)
}

func newIssueCreateCmd(app *App) *cobra.Command {
	var (
		in    redmine.NewIssue
		track bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an issue and add it to the recent list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRemote(); err != nil {
				return err
			}
			ctx := cmd.Context()
			issue, err := app.Redmine.CreateIssue(ctx, in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", issue.Label())
			if err := rememberIssue(ctx, app, *issue); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Could not update recent issues: %v\n", err)
			}
			if track {
				return app.trackIssue(ctx, issue.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.ProjectID, "project", "p", "", "project id or identifier")
	cmd.Flags().StringVarP(&in.Subject, "subject", "s", "", "issue subject")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "issue description")
	cmd.Flags().IntVar(&in.TrackerID, "tracker", 0, "tracker id (project default when omitted)")
	cmd.Flags().BoolVarP(&track, "track", "t", false, "start tracking the new issue")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

// rememberIssue puts issue at the front of the stored recent list.
func rememberIssue(ctx context.Context, app *App, issue domain.Issue) error {
	if app.Recent == nil {
		return nil
	}
	stored, err := app.Recent.List(ctx)
	if err != nil {
		return err
	}
	recent := domain.NewRecentIssues(stored)
	recent.Add(issue)
	return app.Recent.Replace(ctx, recent.Items())
}

func newIssueStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move an issue to another status (by id or name)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRemote(); err != nil {
				return err
			}
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			statuses, err := app.Redmine.IssueStatuses(ctx)
			if err != nil {
				return err
			}
			status, ok := resolveByIDOrName(statuses, args[1], statusName)
			if !ok {
				return fmt.Errorf("unknown status %q (see `redtimer statuses`)", args[1])
			}
			if err := app.Redmine.UpdateIssueStatus(ctx, id, status.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Issue #%d is now %s\n", id, status.Name)
			return nil
		},
	}
}
