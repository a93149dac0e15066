package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/config"
	"github.com/Veraticus/splitflow/internal/format"
	"github.com/Veraticus/splitflow/internal/ledger"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <group-id>",
		Short: "Download a group's expenses as CSV",
		Long: `Download the server-generated CSV report for a group.

The file is written to --output, or to expense-report-<group-id>.csv in the
configured report directory. Use "-o -" to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			return withLedger(cmd, args[0], func(ctx context.Context, c *ledger.Controller, _ model.User) error {
				report, err := c.ExportReport(ctx)
				if err != nil {
					return err
				}

				if output == "-" {
					_, err := cmd.OutOrStdout().Write(report.Data)
					return err
				}
				if output == "" {
					settings, err := config.Load(viper.GetViper())
					if err != nil {
						return err
					}
					output = filepath.Join(settings.ReportDir, report.Filename)
				}

				if err := writeReport(output, report.Data, cmd.ErrOrStderr()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%s %s (%s)", cli.ReportIcon, output, format.Bytes(len(report.Data))))) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "destination file, or - for stdout")
	return cmd
}

// writeReport saves data to path, showing progress on progress.
func writeReport(path string, data []byte, progress io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close report file", "error", closeErr)
		}
	}()

	bar := progressbar.NewOptions64(int64(len(data)),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Saving report"),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(progress); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	if _, err := io.Copy(io.MultiWriter(f, bar), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
