// Package commands defines the pplan command line.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"q.log/pplan/logging"
)

type loggerKey struct{}

type logState struct {
	log    *slog.Logger
	closer io.Closer
	closed bool
}

// logFlags holds the global logging flags.
type logFlags struct {
	level  string
	format string
	file   string
}

// config returns base with the flags the user set applied on top.
func (f *logFlags) config(cmd *cobra.Command, base logging.Config) logging.Config {
	flags := cmd.Flags()
	if flags.Changed("log-level") || base.Level == "" {
		base.Level = f.level
	}
	if flags.Changed("log-format") || base.Format == "" {
		base.Format = f.format
	}
	if flags.Changed("log-file") {
		base.File = f.file
	}
	return base
}

// setLogger builds the logger of cmd, replacing any previous one.
func setLogger(cmd *cobra.Command, cfg logging.Config) error {
	log, closer, err := logging.New(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	closeLogger(cmd)
	cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, &logState{log: log, closer: closer}))
	return nil
}

func loggerFrom(cmd *cobra.Command) *slog.Logger {
	if ctx := cmd.Context(); ctx != nil {
		if s, ok := ctx.Value(loggerKey{}).(*logState); ok {
			return s.log
		}
	}
	return slog.New(slog.DiscardHandler)
}

// closeLogger releases the log file of cmd. cobra skips the post run hooks
// when RunE fails, so commands that log defer it themselves.
func closeLogger(cmd *cobra.Command) {
	if ctx := cmd.Context(); ctx != nil {
		if s, ok := ctx.Value(loggerKey{}).(*logState); ok && !s.closed {
			_ = s.closer.Close()
			s.closed = true
		}
	}
}

// Root returns the root command for the pplan CLI.
func Root() *cobra.Command {
	flags := &logFlags{}

	cmd := &cobra.Command{
		Use:   "pplan",
		Short: "Plan disk partition layouts with a two-phase simplex solver",
		Long: `pplan proposes partition sizes for a disk by solving a linear program
that penalizes unallocated space and deviations from the recommended
partition sizes. It can also solve linear programs read from MPS files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setLogger(cmd, flags.config(cmd, logging.Config{}))
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			closeLogger(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.level, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.format, "log-format", "text", "Log format (text, json)")
	cmd.PersistentFlags().StringVar(&flags.file, "log-file", "", "Write the log to a rotated file instead of stderr")

	cmd.AddCommand(Solve())
	cmd.AddCommand(Plan(flags))
	cmd.AddCommand(Version())

	return cmd
}
