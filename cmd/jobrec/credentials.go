package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/server/middleware"
)

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key <api-key>",
	Short: "Print the bcrypt hash of an API key for server.api_key_hash",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashKey,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed API token using server.jwt_secret",
	Long: `Issue an HS256 token accepted by 'jobrec serve' on run and delete endpoints.
The secret is read from server.jwt_secret (or JOBREC_SERVER_JWT_SECRET).`,
	RunE: runToken,
}

func init() {
	hashKeyCmd.Flags().Int("cost", 12, "bcrypt cost (10-14)")

	tokenCmd.Flags().String("subject", "", "Caller name recorded in server logs (required)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(hashKeyCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runHashKey(cmd *cobra.Command, args []string) error {
	cost, _ := cmd.Flags().GetInt("cost")
	if cost < 10 || cost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", cost)
	}
	hash, err := middleware.HashKey(args[0], cost)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	s, err := newSession(context.Background(), cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	if s.cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret (or JOBREC_SERVER_JWT_SECRET) is required")
	}
	subject, _ := cmd.Flags().GetString("subject")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	token, err := middleware.IssueToken([]byte(s.cfg.Server.JWTSecret), subject, ttl, time.Now())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
