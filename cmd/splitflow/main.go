package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/common"
	"github.com/Veraticus/splitflow/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "splitflow",
		Short: cli.MoneyIcon + " Split shared expenses with your groups",
		Long: `splitflow: a terminal client for a shared-expense server.

Sign in, keep track of groups, record who paid for what, and settle up.
Run "splitflow ui" for the interactive interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/splitflow/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("base-url", "", "expense server URL (overrides api.base_url)")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(groupsCmd())
	rootCmd.AddCommand(groupCmd())
	rootCmd.AddCommand(membersCmd())
	rootCmd.AddCommand(expensesCmd())
	rootCmd.AddCommand(settleCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(uiCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx := interrupts.HandleInterrupts(context.Background())

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error())) //nolint:forbidigo // User-facing output
		os.Exit(1)
	}
	if interrupts.WasInterrupted() {
		os.Exit(130)
	}
}

func initConfig(cmd *cobra.Command, cfgFile string) error {
	v := viper.GetViper()
	config.SetDefaults(v)

	flags := cmd.Root().PersistentFlags()
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))
	if flags.Changed("base-url") {
		_ = v.BindPFlag("api.base_url", flags.Lookup("base-url"))
	}

	// Set up config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := config.ConfigDir()
		if err != nil {
			return fmt.Errorf("failed to get config directory: %w", err)
		}
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables, e.g. SPLITFLOW_API_BASE_URL
	v.SetEnvPrefix("SPLITFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// The TUI installs its own file logger.
	if cmd.Name() == "ui" {
		return nil
	}
	if err := common.SetupLogger(common.LogOptions{
		Level:  v.GetString("logging.level"),
		Format: v.GetString("logging.format"),
		File:   config.ExpandPath(v.GetString("logging.file")),
	}); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}
