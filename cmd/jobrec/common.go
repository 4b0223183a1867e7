package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/config"
	"github.com/jonathan/jobrec-pipeline/internal/dataio"
	"github.com/jonathan/jobrec-pipeline/internal/logger"
	"github.com/jonathan/jobrec-pipeline/internal/observability"
	"github.com/jonathan/jobrec-pipeline/internal/schemas"
)

// session bundles what every command needs after config is loaded.
type session struct {
	cfg     *config.Config
	log     *logger.Logger
	store   dataio.Store
	printer *observability.Printer
	closers []func() error
}

func (s *session) close() {
	for _, c := range s.closers {
		_ = c()
	}
	s.log.Sync()
}

// loadCommandConfig merges defaults, the --config file, environment
// overrides and changed flags. bindings maps config keys to flag names on
// cmd.
func loadCommandConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v := config.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
		}
	}

	flags := map[string]string{
		"data_root":    "data-root",
		"database_url": "db-url",
		"verbose":      "verbose",
	}
	for key, name := range bindings {
		flags[key] = name
	}
	for key, name := range flags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.InheritedFlags().Lookup(name)
		}
		if f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	return config.FromViper(v)
}

// newSession loads config and opens the logger and dataset store.
func newSession(ctx context.Context, cmd *cobra.Command, bindings map[string]string) (*session, error) {
	cfg, err := loadCommandConfig(cmd, bindings)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	s := &session{cfg: cfg, log: log, printer: observability.NewPrinter(cmd.OutOrStdout())}
	var remote dataio.Store
	if cfg.UsesGCS() {
		gcs, err := dataio.NewGCSStore(ctx, cfg.GCS.CredentialsFile)
		if err != nil {
			log.Sync()
			return nil, err
		}
		s.closers = append(s.closers, gcs.Close)
		remote = gcs
	}
	s.store = dataio.NewMux(remote)
	return s, nil
}

// path returns the value of flag when it was set explicitly, otherwise the
// configured path resolved against the data root.
func (s *session) path(cmd *cobra.Command, flag, configured string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	return s.cfg.Resolve(configured)
}

func readRecords[T any](ctx context.Context, s *session, path, what string) ([]T, error) {
	rows, err := dataio.ReadRecords[T](ctx, s.store, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", what, err)
	}
	s.log.Debug("Loaded dataset", "dataset", what, "path", path, "rows", len(rows))
	return rows, nil
}

func writeRecords[T any](ctx context.Context, s *session, path, what string, rows []T) error {
	if err := dataio.WriteRecords(ctx, s.store, path, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", what, err)
	}
	s.log.Info("Wrote dataset", "dataset", what, "path", path, "rows", len(rows))
	return nil
}

// checkSchema validates rows against an artifact schema. A violation is a
// warning; the output has already been written.
func checkSchema(cmd *cobra.Command, s *session, schema string, rows any) {
	if err := schemas.ValidateDocument(schema, rows); err != nil {
		s.log.Warn("Output failed schema validation", "schema", schema, "error", err)
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: output does not match %s: %v\n", schema, err)
	}
}
