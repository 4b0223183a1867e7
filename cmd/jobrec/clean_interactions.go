package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/cleaning"
	"github.com/jonathan/jobrec-pipeline/internal/types"
)

var cleanInteractionsCmd = &cobra.Command{
	Use:   "clean-interactions",
	Short: "Normalize event types and drop duplicate interactions",
	RunE:  runCleanInteractions,
}

func init() {
	cleanInteractionsCmd.Flags().StringP("in", "i", "", "Path to interactions dataset (defaults to paths.interactions_raw)")
	cleanInteractionsCmd.Flags().StringP("out", "o", "", "Path to cleaned interactions (defaults to paths.interactions_clean)")

	rootCmd.AddCommand(cleanInteractionsCmd)
}

func runCleanInteractions(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	interactions, err := readRecords[types.Interaction](ctx, s, s.path(cmd, "in", s.cfg.Paths.InteractionsRaw), "interactions")
	if err != nil {
		return err
	}

	cleaned, stats := cleaning.CleanInteractions(interactions)
	outPath := s.path(cmd, "out", s.cfg.Paths.InteractionsClean)
	if err := writeRecords(ctx, s, outPath, "cleaned interactions", cleaned); err != nil {
		return err
	}

	if s.cfg.Verbose {
		s.printer.PrintCleaningStats(stats)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully cleaned %d interactions to %s\n", stats.Output, outPath)
	return nil
}
