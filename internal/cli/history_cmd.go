package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/redtimer/internal/cli/formatter"
)

func newRecentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recently opened issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := app.Recent.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "No recent issues.")
				return nil
			}
			headers := []string{"#", "ISSUE", "PROJECT", "STATUS"}
			rows := make([][]string, 0, len(issues))
			for i, is := range issues {
				rows = append(rows, []string{
					formatter.Dim(fmt.Sprint(i + 1)),
					formatter.Truncate(is.Label(), 60),
					formatter.Dim(is.Project.Name),
					is.Status.Name,
				})
			}
			fmt.Fprint(out, formatter.RenderTable(headers, rows))
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show time entries saved from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries, err := app.Journal.ListRecent(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No saved time yet.")
				return nil
			}

			now := app.now()
			headers := []string{"SAVED", "ISSUE", "ACTIVITY", "TIME", "COMMENT"}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					formatter.Dim(formatter.HumanTimestampFrom(e.SavedAt, now)),
					formatter.Truncate(fmt.Sprintf("#%d %s", e.IssueID, e.IssueSubject), 50),
					e.ActivityName,
					formatter.Clock(e.Seconds),
					formatter.Dim(formatter.Truncate(e.Comment, 30)),
				})
			}
			fmt.Fprint(out, formatter.RenderTableRight(headers, rows, 3))

			today, err := app.Journal.SecondsSince(ctx, startOfDay(now))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s %s (%s)\n", formatter.Dim("Today:"), formatter.Bold(formatter.Clock(today)), formatter.Hours(today))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")

	return cmd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
