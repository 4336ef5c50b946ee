// Package main provides the CLI entry point for flatbench, a benchmark of
// techniques for flattening nested match statistics into flat rows.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("flatbench failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "flatbench",
		Short: "Benchmark techniques for flattening nested match statistics",
		Long: `Flatbench generates a deterministic rugby match document with a
teamsheet of players and nested per-player statistics, then measures how long
and how much memory each flattening technique needs to turn it into one flat
row per player, across a range of teamsheet sizes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	root.PersistentFlags().String("config", "",
		"Config file (default: ./flatbench.yaml when present)")

	root.AddCommand(
		newRunCmd(logger, level),
		newMeasureCmd(logger),
		newVerifyCmd(logger),
		newListCmd(),
		newGenerateCmd(),
	)

	return root
}
