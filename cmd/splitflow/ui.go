package main

import (
	"fmt"

	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/common"
	"github.com/Veraticus/splitflow/internal/config"
	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/Veraticus/splitflow/internal/tui"
	"github.com/Veraticus/splitflow/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func uiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive interface",
		Long: `Open the full-screen interface: log in, browse your groups, and manage
expenses, settlements, and members without leaving the terminal.

Logs go to a rotating file (logging.file, or splitflow.log in the data
directory) so they do not disturb the screen.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, _ := cmd.Flags().GetString("group")
			theme, _ := cmd.Flags().GetString("theme")

			settings, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			if err := common.SetupLogger(common.LogOptions{
				Level:  settings.LogLevel,
				Format: "json",
				File:   settings.TUILogFile(),
			}); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			a, err := newApp(cmd.Context(), settings, notify.Discard)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []tui.Option{
				tui.WithTheme(themes.GetTheme(theme)),
				tui.WithReportDir(settings.ReportDir),
			}
			if start != "" {
				opts = append(opts, tui.WithStartPath("/group/"+start))
			}
			if err := tui.Run(cmd.Context(), a.session, a.client, opts...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Goodbye!")) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().String("group", "", "open this group id directly")
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")

	return cmd
}
