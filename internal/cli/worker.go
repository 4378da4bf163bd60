package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oxleaf/parlour/internal/host"
	"github.com/oxleaf/parlour/internal/puzzle"
	"github.com/oxleaf/parlour/internal/puzzle/blackbox"
)

// NewWorkerCommand creates the worker command. A worker serves the puzzle
// protocol over stdin/stdout and exits when its input closes; sessions
// spawn it as a subprocess, one per puzzle instance.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Serve one puzzle instance over stdin/stdout",
		Long: `Serve the puzzle wire protocol on stdin/stdout.

Not intended to be run by hand: the session facade spawns this as an
isolated subprocess. All diagnostics go to stderr; stdout carries only
protocol frames.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(rootOpts)
		},
	}
}

// DefaultRegistry returns a registry with all built-in puzzles.
func DefaultRegistry() *puzzle.Registry {
	r := puzzle.NewRegistry()
	blackbox.Register(r)
	return r
}

func runWorker(opts *RootOptions) error {
	// Stdout belongs to the protocol; logs must not touch it.
	logLevel := opts.Config.SlogLevel()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := host.New(DefaultRegistry(), logger)
	if err := h.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		return WrapExitError(ExitCommandError, "worker failed", err)
	}
	return nil
}
