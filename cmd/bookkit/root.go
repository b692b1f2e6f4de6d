package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/bookkit/internal/config"
	"github.com/spf13/cobra"
)

// app carries what every subcommand shares.
type app struct {
	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "bookkit",
		Short:         "Proofreading and publishing helpers for technical books",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.log = newLogger(cmd.ErrOrStderr(), a.cfg.Debug, a.cfg.LogFormat)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&a.cfg.Debug, "debug", a.cfg.Debug, "enable debug logging")
	root.PersistentFlags().StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format: text or json")

	root.AddCommand(
		newProofreadCmd(a),
		newCardCmd(a),
		newChartCmd(a),
		newImageCmd(a),
		newServeCmd(a),
	)
	return root
}

func newLogger(w io.Writer, debug bool, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
