package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/assembly"
	"github.com/jonathan/jobrec-pipeline/internal/pipeline"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
)

var buildTrainingCmd = &cobra.Command{
	Use:   "build-training",
	Short: "Hydrate the contrastive dataset with user and job embeddings",
	RunE:  runBuildTraining,
}

func init() {
	buildTrainingCmd.Flags().String("dataset", "", "Path to assembled dataset (defaults to paths.dataset)")
	buildTrainingCmd.Flags().String("user-features", "", "Path to user feature table (defaults to paths.user_features)")
	buildTrainingCmd.Flags().String("job-features", "", "Path to job feature table (defaults to paths.job_features)")
	buildTrainingCmd.Flags().StringP("out", "o", "", "Path to training rows (defaults to paths.training)")

	rootCmd.AddCommand(buildTrainingCmd)
}

func runBuildTraining(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	dataset, err := readRecords[types.LabeledPair](ctx, s, s.path(cmd, "dataset", s.cfg.Paths.Dataset), "dataset")
	if err != nil {
		return err
	}
	users, err := readRecords[types.UserFeatures](ctx, s, s.path(cmd, "user-features", s.cfg.Paths.UserFeatures), "user features")
	if err != nil {
		return err
	}
	jobs, err := readRecords[types.JobFeatures](ctx, s, s.path(cmd, "job-features", s.cfg.Paths.JobFeatures), "job features")
	if err != nil {
		return err
	}

	rows, stats, err := assembly.HydrateTrainingRows(dataset, users, jobs, pipeline.FeatureContract(s.cfg))
	if err != nil {
		return fmt.Errorf("failed to hydrate training rows: %w", err)
	}

	outPath := s.path(cmd, "out", s.cfg.Paths.Training)
	if err := writeRecords(ctx, s, outPath, "training rows", rows); err != nil {
		return err
	}
	checkSchema(cmd, s, artifacts.TrainingRows, rows)

	if s.cfg.Verbose {
		s.printer.PrintHydrationStats(stats)
	}
	if dropped := stats.MissingUser + stats.MissingJob; dropped > 0 {
		s.log.Warn("Rows dropped for missing features", "missing_user", stats.MissingUser, "missing_job", stats.MissingJob)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully hydrated %d of %d rows to %s\n", stats.Hydrated, stats.Input, outPath)
	return nil
}
