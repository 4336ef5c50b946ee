package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weiihann/flatbench/flatten"
	"github.com/weiihann/flatbench/harness"
	"github.com/weiihann/flatbench/workload"
)

func newMeasureCmd(logger *slog.Logger) *cobra.Command {
	var (
		suiteName  string
		candidate  string
		numPlayers int
	)

	cmd := &cobra.Command{
		Use:    "measure",
		Short:  "Measure a single candidate and print its result as JSON",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			suite, err := flatten.Lookup(suiteName)
			if err != nil {
				return err
			}

			c, err := suite.Candidate(candidate)
			if err != nil {
				return err
			}

			match, err := workload.Generate(numPlayers)
			if err != nil {
				return fmt.Errorf("generate match: %w", err)
			}

			res, err := harness.InProcess{}.MeasureTask(cmd.Context(), harness.Task{
				Suite:      suite.Name,
				Candidate:  c,
				NumPlayers: numPlayers,
				Doc:        match.Document(),
			})
			if err != nil {
				return err
			}

			logger.DebugContext(cmd.Context(), "child measured",
				slog.String("function", res.Function),
				slog.Int("players", numPlayers),
			)

			return harness.WriteResult(cmd.OutOrStdout(), res)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&suiteName, "suite", flatten.SuiteMain, "Suite the candidate belongs to")
	flags.StringVar(&candidate, "candidate", "", "Candidate to measure")
	flags.IntVar(&numPlayers, "players", 23, "Number of players in the match")
	_ = cmd.MarkFlagRequired("candidate")

	return cmd
}

func newVerifyCmd(logger *slog.Logger) *cobra.Command {
	var (
		suiteName  string
		numPlayers int
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every candidate of a suite produces the same rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			suite, err := flatten.Lookup(suiteName)
			if err != nil {
				return err
			}

			if err := verifySuite(suite, numPlayers); err != nil {
				return err
			}

			logger.InfoContext(cmd.Context(), "candidates agree",
				slog.String("suite", suite.Name),
				slog.Int("players", numPlayers),
				slog.Int("candidates", len(suite.Candidates)),
			)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&suiteName, "suite", flatten.SuiteMain, "Suite to verify")
	flags.IntVar(&numPlayers, "players", 100, "Number of players in the match")

	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List suites and their candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			for _, name := range flatten.SuiteNames() {
				suite, err := flatten.Lookup(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s: %s (results: %s)\n", suite.Name, suite.Description, suite.Output)

				for _, c := range suite.Candidates {
					marker := ""
					if c.Destructive {
						marker = " [consumes input]"
					}

					fmt.Fprintf(w, "  %-26s %s%s\n", c.Name, c.Description, marker)
				}
			}

			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		numPlayers int
		output     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the sample match document as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			match, err := workload.Generate(numPlayers)
			if err != nil {
				return fmt.Errorf("generate match: %w", err)
			}

			if output == "" {
				return match.WriteJSON(cmd.OutOrStdout())
			}

			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()

			if err := match.WriteJSON(f); err != nil {
				return err
			}

			return f.Close()
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&numPlayers, "players", 23, "Number of players in the match")
	flags.StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
