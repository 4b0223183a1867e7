package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/config"
	"github.com/jonathan/jobrec-pipeline/internal/pipeline/steps"
	"github.com/jonathan/jobrec-pipeline/internal/schemas"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
)

// outputCheck loads the dataset a step writes and validates it.
type outputCheck struct {
	schema string
	path   func(p config.Paths) string
	load   func(ctx context.Context, s *session, path string) (rows any, n int, err error)
}

func loadAs[T any](ctx context.Context, s *session, path string) (any, int, error) {
	rows, err := readRecords[T](ctx, s, path, "output")
	return rows, len(rows), err
}

var outputChecks = map[string]outputCheck{
	steps.Label:           {artifacts.LabeledPairs, func(p config.Paths) string { return p.Labels }, loadAs[types.LabeledPair]},
	steps.FilterPositives: {artifacts.LabeledPairs, func(p config.Paths) string { return p.Positives }, loadAs[types.LabeledPair]},
	steps.SampleNegatives: {artifacts.LabeledPairs, func(p config.Paths) string { return p.Negatives }, loadAs[types.LabeledPair]},
	steps.BuildDataset:    {artifacts.LabeledPairs, func(p config.Paths) string { return p.Dataset }, loadAs[types.LabeledPair]},
	steps.BuildTraining:   {artifacts.TrainingRows, func(p config.Paths) string { return p.Training }, loadAs[types.TrainingRow]},
	steps.BuildRanking:    {artifacts.RankingRecords, func(p config.Paths) string { return p.Ranking }, loadAs[types.RankingRecord]},
}

var validateOutputCmd = &cobra.Command{
	Use:   "validate-output",
	Short: "Validate a written dataset against its JSON schema",
	Long: `Reads the dataset a step wrote (JSON, JSON lines, CSV or Parquet) and validates it
against the embedded schema for that step. Valid steps: label, filter_positives,
sample_negatives, build_dataset, build_training, build_ranking.`,
	RunE: runValidateOutput,
}

func init() {
	validateOutputCmd.Flags().String("step", "", "Step whose output to validate (required)")
	validateOutputCmd.Flags().StringP("in", "i", "", "Path to the dataset (defaults to the step's configured path)")
	_ = validateOutputCmd.MarkFlagRequired("step")

	rootCmd.AddCommand(validateOutputCmd)
}

func runValidateOutput(cmd *cobra.Command, _ []string) error {
	stepName, _ := cmd.Flags().GetString("step")
	check, ok := outputChecks[stepName]
	if !ok {
		return fmt.Errorf("unknown output step %q (valid: %s)", stepName, strings.Join(outputStepNames(), ", "))
	}

	ctx := context.Background()
	s, err := newSession(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	path := s.path(cmd, "in", check.path(s.cfg.Paths))
	rows, n, err := check.load(ctx, s, path)
	if err != nil {
		return err
	}
	if err := schemas.ValidateDocument(check.schema, rows); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation passed: %d rows in %s match %s\n", n, path, check.schema)
	return nil
}

func outputStepNames() []string {
	var names []string
	for _, name := range steps.Order() {
		if _, ok := outputChecks[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
