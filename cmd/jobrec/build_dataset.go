package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/assembly"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
)

var buildDatasetCmd = &cobra.Command{
	Use:   "build-dataset",
	Short: "Assemble positives and negatives into the contrastive dataset",
	RunE:  runBuildDataset,
}

func init() {
	buildDatasetCmd.Flags().String("positives", "", "Path to positive pairs (defaults to paths.positives)")
	buildDatasetCmd.Flags().String("negatives", "", "Path to negative pairs (defaults to paths.negatives)")
	buildDatasetCmd.Flags().StringP("out", "o", "", "Path to assembled dataset (defaults to paths.dataset)")
	buildDatasetCmd.Flags().Int64("seed", 0, "Shuffle seed (defaults to assembly.seed)")
	buildDatasetCmd.Flags().Bool("shuffle", true, "Shuffle the assembled rows (defaults to assembly.shuffle)")

	rootCmd.AddCommand(buildDatasetCmd)
}

func runBuildDataset(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, map[string]string{
		"assembly.seed":    "seed",
		"assembly.shuffle": "shuffle",
	})
	if err != nil {
		return err
	}
	defer s.close()

	positives, err := readRecords[types.LabeledPair](ctx, s, s.path(cmd, "positives", s.cfg.Paths.Positives), "positives")
	if err != nil {
		return err
	}
	negatives, err := readRecords[types.LabeledPair](ctx, s, s.path(cmd, "negatives", s.cfg.Paths.Negatives), "negatives")
	if err != nil {
		return err
	}

	dataset, err := assembly.Assemble(positives, negatives, s.cfg.Assembly.Seed, s.cfg.Assembly.Shuffle)
	if err != nil {
		return fmt.Errorf("failed to assemble dataset: %w", err)
	}

	outPath := s.path(cmd, "out", s.cfg.Paths.Dataset)
	if err := writeRecords(ctx, s, outPath, "dataset", dataset); err != nil {
		return err
	}
	checkSchema(cmd, s, artifacts.LabeledPairs, dataset)

	summary := assembly.Summarize(dataset)
	if s.cfg.Verbose {
		s.printer.PrintDatasetSummary("TWO-TOWER DATASET", summary)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully assembled %d rows (%d positive, %d negative) to %s\n",
		summary.Rows, summary.Positives, summary.Negatives, outPath)
	return nil
}
