package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/weiihann/flatbench/config"
	"github.com/weiihann/flatbench/flatten"
	"github.com/weiihann/flatbench/harness"
	"github.com/weiihann/flatbench/report"
	"github.com/weiihann/flatbench/telemetry"
	"github.com/weiihann/flatbench/workload"
)

func newRunCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark every candidate of a suite across input sizes",
		Long: `Generate a match for each configured player count, measure every
candidate of the suite against its own copy of it, print a table per size and
an aggregated table, and save the aggregated results.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if cfg.Verbose {
				level.Set(slog.LevelDebug)
			}

			return runBenchmark(cmd.Context(), logger, cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.IntSlice("sizes", config.DefaultSizes,
		"Player counts to sweep, in order")
	flags.String("suite", flatten.SuiteMain,
		"Candidate suite: main, loops")
	flags.String("output", "",
		"Results file (default depends on the suite)")
	flags.String("format", report.FormatJSON,
		"Results file format: json, yaml")
	flags.String("metrics", "",
		"Also write Prometheus textfile metrics to this path")
	flags.Bool("isolate", false,
		"Measure each candidate in its own child process")
	flags.Bool("verify", false,
		"Check that all candidates agree before measuring")
	flags.Bool("trace", false,
		"Export OpenTelemetry spans to stderr")
	flags.Duration("child-timeout", 0,
		"Timeout for each isolated child (default from config)")

	return cmd
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	out io.Writer,
) error {
	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	suite, err := flatten.Lookup(cfg.Suite)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("suite", suite.Name),
		slog.Any("sizes", cfg.Sizes),
		slog.Any("candidates", suite.Names()),
		slog.Bool("isolate", cfg.Isolate),
	)

	if cfg.Trace {
		shutdown, err := telemetry.Setup(os.Stderr, runID)
		if err != nil {
			return fmt.Errorf("set up tracing: %w", err)
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to flush traces", slog.String("error", err.Error()))
			}
		}()
	}

	// Step 1: Check the candidates agree (optional).
	if cfg.Verify {
		if err := verifySuite(suite, cfg.Sizes[0]); err != nil {
			return err
		}

		logger.InfoContext(ctx, "candidates agree", slog.Int("players", cfg.Sizes[0]))
	}

	// Step 2: Wire the collector and pick a measurer.
	bus := EventBus.New()
	if err := bus.Subscribe(harness.TopicRecorded, func(r harness.Result) {
		logger.InfoContext(ctx, "result recorded",
			slog.String("function", r.Function),
			slog.Int("players", r.InputSize),
			slog.Float64("elapsed_seconds", r.ElapsedSeconds),
			slog.Float64("peak_memory_mb", r.PeakMemoryMB),
		)
	}); err != nil {
		return fmt.Errorf("subscribe to results: %w", err)
	}

	var measurer harness.Measurer = harness.InProcess{}
	if cfg.Isolate {
		measurer, err = harness.NewProcessRunner("", nil, nil, cfg.ChildTimeout, logger)
		if err != nil {
			return fmt.Errorf("create process runner: %w", err)
		}
	}

	runner := harness.NewRunner(suite, harness.NewCollector(bus), measurer, logger)

	// Step 3: One sweep per size, reported as it completes.
	tables := make([]report.Table, 0, len(cfg.Sizes))

	for _, n := range cfg.Sizes {
		results, err := runner.RunSweep(ctx, n)
		if err != nil {
			return fmt.Errorf("run sweep: %w", err)
		}

		t := report.Table(results)
		if err := report.Generate(out, t.SortByMemory(), fmt.Sprintf("%d players", n)); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}

		fmt.Fprintln(out)

		tables = append(tables, t)
	}

	// Step 4: Aggregate, print and save.
	final := report.Concat(tables...).SortBySizeThenMemory()

	if err := report.Generate(out, final, "Aggregated benchmark results by memory"); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	outputPath := cfg.OutputPath()
	if err := report.WriteFile(outputPath, final, cfg.Format); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	if cfg.Metrics != "" {
		if err := report.WriteMetrics(cfg.Metrics, final); err != nil {
			return fmt.Errorf("save metrics: %w", err)
		}
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.String("output", outputPath),
		slog.Int("rows", final.Len()),
	)

	return nil
}

func verifySuite(suite flatten.Suite, numPlayers int) error {
	match, err := workload.Generate(numPlayers)
	if err != nil {
		return fmt.Errorf("generate match: %w", err)
	}

	if err := harness.Verify(suite, match.Document()); err != nil {
		return fmt.Errorf("verify %s: %w", suite.Name, err)
	}

	return nil
}
