package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/labeling"
	"github.com/jonathan/jobrec-pipeline/internal/policy"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Generate (user, job) labels from cleaned interactions",
	Long: `Maps every interaction through the labeling policy, resolves conflicting
labels per (user, job) pair by event priority and writes one row per pair.
The positive rows are written separately for negative sampling.`,
	RunE: runLabel,
}

func init() {
	labelCmd.Flags().StringP("in", "i", "", "Path to cleaned interactions (defaults to paths.interactions_clean)")
	labelCmd.Flags().StringP("policy", "p", "", "Path to labeling policy YAML (defaults to labeling.policy_path)")
	labelCmd.Flags().StringP("out", "o", "", "Path to labeled pairs (defaults to paths.labels)")
	labelCmd.Flags().String("positives-out", "", "Path to positive pairs (defaults to paths.positives)")

	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, map[string]string{"labeling.policy_path": "policy"})
	if err != nil {
		return err
	}
	defer s.close()

	pol, err := policy.Load(s.cfg.Labeling.PolicyPath)
	if err != nil {
		return fmt.Errorf("failed to load labeling policy: %w", err)
	}
	if s.cfg.Verbose {
		s.printer.PrintPolicy(pol)
	}

	interactions, err := readRecords[types.Interaction](ctx, s, s.path(cmd, "in", s.cfg.Paths.InteractionsClean), "cleaned interactions")
	if err != nil {
		return err
	}

	labels, stats, err := labeling.GenerateLabelsWithStats(interactions, pol)
	if err != nil {
		return err
	}
	positives, err := labeling.FilterPositives(labels)
	if err != nil {
		return err
	}

	outPath := s.path(cmd, "out", s.cfg.Paths.Labels)
	if err := writeRecords(ctx, s, outPath, "labels", labels); err != nil {
		return err
	}
	checkSchema(cmd, s, artifacts.LabeledPairs, labels)
	if err := writeRecords(ctx, s, s.path(cmd, "positives-out", s.cfg.Paths.Positives), "positives", positives); err != nil {
		return err
	}

	if s.cfg.Verbose {
		s.printer.PrintLabelStats(stats)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully labeled %d pairs (%d positive) with policy %s to %s\n",
		len(labels), len(positives), pol.Version(), outPath)
	return nil
}
