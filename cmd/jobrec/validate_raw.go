package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/types"
	"github.com/jonathan/jobrec-pipeline/internal/validation"
)

var validateRawCmd = &cobra.Command{
	Use:   "validate-raw",
	Short: "Validate the raw jobs, users and interactions datasets",
	Long:  "Checks required fields, primary keys and referential integrity of the raw datasets. Nothing is written.",
	RunE:  runValidateRaw,
}

func init() {
	validateRawCmd.Flags().String("jobs", "", "Path to raw jobs dataset (defaults to paths.jobs_raw)")
	validateRawCmd.Flags().String("users", "", "Path to raw users dataset (defaults to paths.users_raw)")
	validateRawCmd.Flags().String("interactions", "", "Path to raw interactions dataset (defaults to paths.interactions_raw)")

	rootCmd.AddCommand(validateRawCmd)
}

func runValidateRaw(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	jobs, err := readRecords[types.Job](ctx, s, s.path(cmd, "jobs", s.cfg.Paths.JobsRaw), validation.DatasetJobs)
	if err != nil {
		return err
	}
	users, err := readRecords[types.User](ctx, s, s.path(cmd, "users", s.cfg.Paths.UsersRaw), validation.DatasetUsers)
	if err != nil {
		return err
	}
	interactions, err := readRecords[types.Interaction](ctx, s, s.path(cmd, "interactions", s.cfg.Paths.InteractionsRaw), validation.DatasetInteractions)
	if err != nil {
		return err
	}

	_, report, err := validation.ValidateRaw(jobs, users, interactions)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.printer.PrintValidationReport(report)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}
