package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/redtimer/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(
		newConfigShowCmd(app),
		newConfigInitCmd(app),
	)

	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (API key hidden)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(app.Config.Redacted())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", app.ConfigPath)
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd(app *App) *cobra.Command {
	var url, apiKey string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(app.ConfigPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", app.ConfigPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg := *app.Config
			if url != "" {
				cfg.Redmine.URL = url
			}
			if apiKey != "" {
				cfg.Redmine.APIKey = apiKey
			}
			if err := cfg.Validate(); err != nil && !errors.Is(err, config.ErrMissingURL) {
				return err
			}
			if err := cfg.Save(app.ConfigPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", app.ConfigPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Redmine base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Redmine API key")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
