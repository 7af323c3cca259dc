package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/maillog/cmd"
	"github.com/dhcgn/maillog/config"
	"github.com/dhcgn/maillog/export"
	"github.com/dhcgn/maillog/logreader"
	"github.com/dhcgn/maillog/progress"
	"github.com/dhcgn/maillog/runner"
	"github.com/dhcgn/maillog/stats"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "maillog [files...]",
		Short:        "Decode postfix maillog lines and count them per message kind",
		SilenceUsage: true,
		RunE: func(command *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(command, args)
			if err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			slog.SetDefault(logger)
			logger.Info("starting maillog", "inputs", cfg.Inputs, "workers", cfg.Workers, "keepGoing", cfg.KeepGoing, "noise", cfg.Noise)

			return run(cfg, logger)
		},
	}

	config.RegisterFlags(rootCmd)
	cmd.AddCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	r, err := runner.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("runner.New: %w", err)
	}
	var bar *progress.Bar
	if cfg.Progress {
		total, err := logreader.CountLines(cfg.Inputs)
		if err != nil {
			return fmt.Errorf("count lines: %w", err)
		}
		bar = progress.New(total, true)
	}
	stats.NewReporter(r, logger)
	progress.NewProgressReporter(r, bar, os.Stdout)

	if _, err := logreader.NewProducer(logreader.Options{Paths: cfg.Inputs}, r, logger); err != nil {
		return fmt.Errorf("logreader.NewProducer: %w", err)
	}

	if cfg.ExportPath != "" {
		if _, err := export.NewExporter(cfg.ExportPath, r, logger); err != nil {
			return fmt.Errorf("export.NewExporter: %w", err)
		}
	}

	return r.Start()
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	// Logs go to stderr, the summary table to stdout.
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("maillog-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler), cleanup, nil
}
