package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/redtimer/internal/cli/formatter"
)

func newActivitiesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "activities",
		Short: "List time entry activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRemote(); err != nil {
				return err
			}
			activities, err := app.Redmine.Activities(cmd.Context())
			if err != nil {
				return err
			}
			if len(activities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No activities configured.")
				return nil
			}
			rows := make([][]string, 0, len(activities))
			for _, a := range activities {
				def := ""
				if a.IsDefault {
					def = formatter.StyleGreen.Render("default")
				}
				rows = append(rows, []string{fmt.Sprint(a.ID), a.Name, def})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTableRight([]string{"ID", "NAME", ""}, rows, 0))
			return nil
		},
	}
}

func newStatusesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "List issue statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRemote(); err != nil {
				return err
			}
			statuses, err := app.Redmine.IssueStatuses(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				rows = append(rows, []string{fmt.Sprint(s.ID), formatter.StatusPill(s)})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTableRight([]string{"ID", "STATUS"}, rows, 0))
			return nil
		},
	}
}
