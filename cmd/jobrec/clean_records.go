package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/cleaning"
	"github.com/jonathan/jobrec-pipeline/internal/types"
)

var cleanJobsCmd = &cobra.Command{
	Use:   "clean-jobs",
	Short: "Normalize job text fields, employment types and salary ranges",
	RunE:  runCleanJobs,
}

var cleanUsersCmd = &cobra.Command{
	Use:   "clean-users",
	Short: "Normalize user skills, roles, levels and locations",
	RunE:  runCleanUsers,
}

func init() {
	cleanJobsCmd.Flags().StringP("in", "i", "", "Path to jobs dataset (defaults to paths.jobs_raw)")
	cleanJobsCmd.Flags().StringP("out", "o", "", "Path to cleaned jobs (defaults to paths.jobs_clean)")
	cleanUsersCmd.Flags().StringP("in", "i", "", "Path to users dataset (defaults to paths.users_raw)")
	cleanUsersCmd.Flags().StringP("out", "o", "", "Path to cleaned users (defaults to paths.users_clean)")

	rootCmd.AddCommand(cleanJobsCmd)
	rootCmd.AddCommand(cleanUsersCmd)
}

func runCleanJobs(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	jobs, err := readRecords[types.Job](ctx, s, s.path(cmd, "in", s.cfg.Paths.JobsRaw), "jobs")
	if err != nil {
		return err
	}

	cleaned, stats := cleaning.CleanJobs(jobs)
	outPath := s.path(cmd, "out", s.cfg.Paths.JobsClean)
	if err := writeRecords(ctx, s, outPath, "cleaned jobs", cleaned); err != nil {
		return err
	}

	if s.cfg.Verbose {
		s.printer.PrintJobCleaningStats(stats)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully cleaned %d jobs to %s\n", stats.Input, outPath)
	return nil
}

func runCleanUsers(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	users, err := readRecords[types.User](ctx, s, s.path(cmd, "in", s.cfg.Paths.UsersRaw), "users")
	if err != nil {
		return err
	}

	cleaned, stats := cleaning.CleanUsers(users)
	outPath := s.path(cmd, "out", s.cfg.Paths.UsersClean)
	if err := writeRecords(ctx, s, outPath, "cleaned users", cleaned); err != nil {
		return err
	}

	if s.cfg.Verbose {
		s.printer.PrintUserCleaningStats(stats)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully cleaned %d users to %s\n", stats.Input, outPath)
	return nil
}
