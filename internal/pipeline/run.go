// Package pipeline provides the high-level orchestration for the supervision
// pipeline: raw validation through assembled training datasets.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobrec-pipeline/internal/assembly"
	"github.com/jonathan/jobrec-pipeline/internal/cleaning"
	"github.com/jonathan/jobrec-pipeline/internal/config"
	"github.com/jonathan/jobrec-pipeline/internal/dataio"
	"github.com/jonathan/jobrec-pipeline/internal/db"
	"github.com/jonathan/jobrec-pipeline/internal/labeling"
	"github.com/jonathan/jobrec-pipeline/internal/logger"
	"github.com/jonathan/jobrec-pipeline/internal/observability"
	"github.com/jonathan/jobrec-pipeline/internal/pipeline/steps"
	"github.com/jonathan/jobrec-pipeline/internal/policy"
	"github.com/jonathan/jobrec-pipeline/internal/sampling"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	"github.com/jonathan/jobrec-pipeline/internal/validation"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Config *config.Config
	// Policy overrides Config.Labeling.PolicyPath when set.
	Policy *policy.Policy
	// Store overrides the default local/GCS store.
	Store dataio.Store
	// RunStore overrides the connection made from Config.DatabaseURL.
	RunStore   RunStore
	Logger     *logger.Logger
	Out        io.Writer
	Verbose    bool
	OnProgress ProgressCallback
}

// Output is a dataset written by a run.
type Output struct {
	Step string `json:"step"`
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// Result summarizes a successful run.
type Result struct {
	RunID         uuid.UUID                `json:"run_id"`
	PolicyVersion string                   `json:"policy_version"`
	Validation    *validation.Report       `json:"validation"`
	Cleaning      cleaning.Stats           `json:"cleaning"`
	JobCleaning   cleaning.JobStats        `json:"job_cleaning"`
	UserCleaning  cleaning.UserStats       `json:"user_cleaning"`
	Labels        *labeling.Stats          `json:"labels"`
	Sampling      []sampling.UserSample    `json:"sampling"`
	Dataset       assembly.Summary         `json:"dataset"`
	Hydration     *assembly.HydrationStats `json:"hydration,omitempty"`
	RankingRows   int                      `json:"ranking_rows"`
	Steps         []StepStatus             `json:"steps"`
	Outputs       []Output                 `json:"outputs"`
}

// StepError reports the stage a run failed in.
type StepError struct {
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// skipStep marks a stage that has nothing to do in this run.
type skipStep struct {
	reason string
}

func (s *skipStep) Error() string {
	return s.reason
}

// runState carries datasets between stages.
type runState struct {
	cfg     *config.Config
	policy  *policy.Policy
	printer *observability.Printer
	verbose bool

	jobs            []types.Job
	users           []types.User
	rawInteractions []types.Interaction
	userFeatures    []types.UserFeatures
	jobFeatures     []types.JobFeatures
	featuresMissing bool

	interactions []types.Interaction
	labels       []types.LabeledPair
	positives    []types.LabeledPair
	negatives    []types.LabeledPair
	dataset      []types.LabeledPair
	training     []types.TrainingRow
	ranking      []types.RankingRecord

	result *Result
}

type stageFunc func(s *runState) (string, error)

var stages = map[string]stageFunc{
	steps.ValidateRaw:     runValidateRaw,
	steps.Clean:           runClean,
	steps.Label:           runLabel,
	steps.FilterPositives: runFilterPositives,
	steps.SampleNegatives: runSampleNegatives,
	steps.BuildDataset:    runBuildDataset,
	steps.BuildTraining:   runBuildTraining,
	steps.BuildRanking:    runBuildRanking,
}

var stageTitles = map[string]string{
	steps.ValidateRaw:     "Validating raw datasets",
	steps.Clean:           "Cleaning interactions",
	steps.Label:           "Generating labels",
	steps.FilterPositives: "Filtering positive labels",
	steps.SampleNegatives: "Sampling negatives",
	steps.BuildDataset:    "Assembling contrastive dataset",
	steps.BuildTraining:   "Hydrating training rows",
	steps.BuildRanking:    "Building ranking dataset",
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, runID uuid.UUID, step, category, message string, content any) {
	if opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{Step: step, Category: category, Message: message, Content: content}
	if runID != uuid.Nil {
		event.RunID = runID.String()
	}
	opts.OnProgress(event)
}

// RunPipeline loads the raw datasets, runs every stage in dependency order
// and writes the outputs. Nothing is written unless every stage succeeds.
func RunPipeline(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("pipeline config is required")
	}
	cfg := opts.Config
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	pol := opts.Policy
	if pol == nil {
		var err error
		pol, err = policy.Load(cfg.Labeling.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load labeling policy: %w", err)
		}
	}

	store := opts.Store
	if store == nil {
		var remote dataio.Store
		if cfg.UsesGCS() {
			gcs, err := dataio.NewGCSStore(ctx, cfg.GCS.CredentialsFile)
			if err != nil {
				return nil, err
			}
			defer func() { _ = gcs.Close() }()
			remote = gcs
		}
		store = dataio.NewMux(remote)
	}

	runStore := opts.RunStore
	if runStore == nil && cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(out, "Warning: Failed to connect to database: %v\n", err)
			fmt.Fprintf(out, "Continuing without database persistence...\n")
		} else {
			defer database.Close()
			if err := database.Migrate(ctx); err != nil {
				log.Warn("Failed to apply database schema", "error", err)
			}
			runStore = database
		}
	}

	var runID uuid.UUID
	if runStore != nil {
		var err error
		runID, err = runStore.CreateRun(ctx, pol.Version(), runParameters(cfg))
		if err != nil {
			log.Warn("Failed to create database run", "error", err)
			runID = uuid.Nil
		} else if opts.Verbose {
			fmt.Fprintf(out, "[VERBOSE] Created database run: %s\n", runID)
		}
	}
	log = log.With("policy_version", pol.Version())
	if runID != uuid.Nil {
		log = log.With("run_id", runID.String())
	}
	log.Info("Pipeline run started", "data_root", cfg.DataRoot)

	state := &runState{
		cfg:     cfg,
		policy:  pol,
		printer: observability.NewPrinter(out),
		verbose: opts.Verbose,
		result:  &Result{RunID: runID, PolicyVersion: pol.Version()},
	}
	if opts.Verbose {
		state.printer.PrintPolicy(pol)
	}

	track := newTracker(ctx, runStore, runID, log)
	finishRun := func(status string) {
		if runStore == nil || runID == uuid.Nil {
			return
		}
		if err := runStore.CompleteRun(ctx, runID, status); err != nil {
			log.Warn("Failed to complete database run", "status", status, "error", err)
		}
	}

	fmt.Fprintf(out, "Loading input datasets...\n")
	if err := loadInputs(ctx, store, state); err != nil {
		track.fail(ctx, steps.ValidateRaw, err)
		finishRun(db.RunStatusFailed)
		log.Error("Failed to load inputs", "error", err)
		return nil, err
	}

	order := steps.Order()
	for i, name := range order {
		def := steps.StepRegistry[name]
		if err := steps.ValidateDependencies(track.completed(), name); err != nil {
			var skipped bool
			for _, dep := range def.Dependencies {
				skipped = skipped || track.status[dep].Status == db.StepStatusSkipped
			}
			if skipped {
				track.skip(ctx, name, err.Error())
				continue
			}
			track.fail(ctx, name, err)
			finishRun(db.RunStatusFailed)
			return nil, &StepError{Step: name, Cause: err}
		}

		fmt.Fprintf(out, "Step %d/%d: %s...\n", i+1, len(order), stageTitles[name])
		track.start(ctx, name)

		message, err := stages[name](state)
		if err != nil {
			var skip *skipStep
			if errors.As(err, &skip) {
				fmt.Fprintf(out, "Skipping %s: %s\n", name, skip.reason)
				log.Warn("Step skipped", "step", name, "reason", skip.reason)
				track.skip(ctx, name, skip.reason)
				emitProgress(&opts, runID, name, def.Category, "Skipped: "+skip.reason, nil)
				continue
			}
			track.fail(ctx, name, err)
			finishRun(db.RunStatusFailed)
			log.Error("Step failed", "step", name, "error", err)
			return nil, &StepError{Step: name, Cause: err}
		}

		track.finish(ctx, name)
		log.Debug("Step completed", "step", name, "summary", message)
		emitProgress(&opts, runID, name, def.Category, message, nil)
	}

	checkSchemas(state, log)

	fmt.Fprintf(out, "Writing outputs...\n")
	outputs, err := writeOutputs(ctx, store, state)
	if err != nil {
		finishRun(db.RunStatusFailed)
		log.Error("Failed to write outputs", "error", err)
		return nil, err
	}
	state.result.Outputs = outputs
	state.result.Steps = track.snapshot()

	if runStore != nil && runID != uuid.Nil {
		for _, o := range outputs {
			def := steps.StepRegistry[o.Step]
			if _, err := runStore.SaveArtifact(ctx, runID, &db.ArtifactInput{
				Step:     o.Step,
				Category: def.Category,
				Location: o.Path,
				RowCount: o.Rows,
				Content:  artifactSummary(state.result, o.Step),
			}); err != nil {
				log.Warn("Failed to save artifact", "step", o.Step, "error", err)
			}
		}
	}
	finishRun(db.RunStatusCompleted)

	log.Info("Pipeline run completed", "outputs", len(outputs), "rows", state.result.Dataset.Rows)
	return state.result, nil
}

// loadInputs reads the raw datasets and feature tables concurrently. Missing
// feature tables are tolerated; the training stage is then skipped.
func loadInputs(ctx context.Context, store dataio.Store, s *runState) error {
	cfg := s.cfg
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := dataio.ReadRecords[types.Job](gCtx, store, cfg.Resolve(cfg.Paths.JobsRaw))
		if err != nil {
			return fmt.Errorf("failed to load jobs: %w", err)
		}
		s.jobs = rows
		return nil
	})
	g.Go(func() error {
		rows, err := dataio.ReadRecords[types.User](gCtx, store, cfg.Resolve(cfg.Paths.UsersRaw))
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		s.users = rows
		return nil
	})
	g.Go(func() error {
		rows, err := dataio.ReadRecords[types.Interaction](gCtx, store, cfg.Resolve(cfg.Paths.InteractionsRaw))
		if err != nil {
			return fmt.Errorf("failed to load interactions: %w", err)
		}
		s.rawInteractions = rows
		return nil
	})

	var userMissing, jobMissing bool
	g.Go(func() error {
		rows, err := dataio.ReadRecords[types.UserFeatures](gCtx, store, cfg.Resolve(cfg.Paths.UserFeatures))
		if dataio.IsNotExist(err) {
			userMissing = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load user features: %w", err)
		}
		s.userFeatures = rows
		return nil
	})
	g.Go(func() error {
		rows, err := dataio.ReadRecords[types.JobFeatures](gCtx, store, cfg.Resolve(cfg.Paths.JobFeatures))
		if dataio.IsNotExist(err) {
			jobMissing = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load job features: %w", err)
		}
		s.jobFeatures = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.featuresMissing = userMissing || jobMissing
	return nil
}

func runParameters(cfg *config.Config) map[string]any {
	return map[string]any{
		"data_root":         cfg.DataRoot,
		"sampling_ratio":    cfg.Sampling.Ratio,
		"sampling_seed":     cfg.Sampling.Seed,
		"sampling_strategy": cfg.Sampling.Strategy,
		"assembly_seed":     cfg.Assembly.Seed,
		"assembly_shuffle":  cfg.Assembly.Shuffle,
		"ranking_seed":      cfg.Ranking.Seed,
	}
}
