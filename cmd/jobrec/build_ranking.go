package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/assembly"
	"github.com/jonathan/jobrec-pipeline/internal/pipeline"
	"github.com/jonathan/jobrec-pipeline/internal/seeded"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
)

var buildRankingCmd = &cobra.Command{
	Use:   "build-ranking",
	Short: "Attach ranker cross features to the contrastive dataset",
	RunE:  runBuildRanking,
}

func init() {
	buildRankingCmd.Flags().String("dataset", "", "Path to assembled dataset (defaults to paths.dataset)")
	buildRankingCmd.Flags().StringP("out", "o", "", "Path to ranking rows (defaults to paths.ranking)")
	buildRankingCmd.Flags().Int64("seed", 0, "Feature seed (defaults to ranking.seed)")

	rootCmd.AddCommand(buildRankingCmd)
}

func runBuildRanking(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, map[string]string{"ranking.seed": "seed"})
	if err != nil {
		return err
	}
	defer s.close()

	dataset, err := readRecords[types.LabeledPair](ctx, s, s.path(cmd, "dataset", s.cfg.Paths.Dataset), "dataset")
	if err != nil {
		return err
	}

	records, err := assembly.BuildRankingRecords(dataset, seeded.New(s.cfg.Ranking.Seed), pipeline.RankingRanges(s.cfg))
	if err != nil {
		return fmt.Errorf("failed to build ranking rows: %w", err)
	}

	outPath := s.path(cmd, "out", s.cfg.Paths.Ranking)
	if err := writeRecords(ctx, s, outPath, "ranking rows", records); err != nil {
		return err
	}
	checkSchema(cmd, s, artifacts.RankingRecords, records)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully built %d ranking rows to %s\n", len(records), outPath)
	return nil
}
