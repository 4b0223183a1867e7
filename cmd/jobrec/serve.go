package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that triggers pipeline runs and exposes the recorded run history.

POST /run and POST /run/stream execute the pipeline with the loaded configuration. The /runs and
/artifacts endpoints require DATABASE_URL (or --db-url). When server.api_key is set, runs and
deletes require it as a Bearer token or X-API-Key header.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to listen on (defaults to server.port)")
	serveCmd.Flags().String("api-key", "", "API key required on run and delete endpoints (defaults to server.api_key)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := newSession(context.Background(), cmd, map[string]string{
		"server.port":    "port",
		"server.api_key": "api-key",
	})
	if err != nil {
		return err
	}
	defer s.close()

	if s.cfg.DatabaseURL == "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Warning: DATABASE_URL not set; runs will not be recorded and /runs endpoints are disabled")
	}

	srv, err := server.New(server.Config{Pipeline: s.cfg, Logger: s.log})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving pipeline API on :%d\n", s.cfg.Server.Port)
	return srv.Start()
}
