package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields represents structured logging fields.
type Fields map[string]any

// LogOptions controls where and how the global logger writes.
type LogOptions struct {
	Level  string
	Format string
	// File, when set, sends output to a rotating log file instead of stderr.
	File string
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, level)
	}
}

// SetupLogger configures the global logger with appropriate settings.
func SetupLogger(opts LogOptions) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stderr
	toFile := opts.File != ""
	if toFile {
		if mkErr := os.MkdirAll(filepath.Dir(opts.File), 0o750); mkErr != nil {
			return fmt.Errorf("failed to create log directory: %w", mkErr)
		}
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
	}

	handler, err := newHandler(out, opts.Format, level, toFile)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func newHandler(out io.Writer, format string, level slog.Level, noColor bool) (slog.Handler, error) {
	switch format {
	case "", "console":
		return tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    noColor,
		}), nil
	case "json":
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}), nil
	default:
		return nil, fmt.Errorf("%w: log format %q", ErrInvalidConfig, format)
	}
}

// LogError logs an error with additional context.
func LogError(err error, msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	attrs = append(attrs, slog.String("error", err.Error()))

	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	slog.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

// LogDebug logs a debug message with fields.
func LogDebug(msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	slog.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
