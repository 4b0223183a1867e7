package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/jobrec-pipeline/internal/pipeline"
	"github.com/jonathan/jobrec-pipeline/internal/policy"
	"github.com/jonathan/jobrec-pipeline/internal/server/middleware"
)

// RunRequest overrides the server configuration for a single run. Every
// field is optional; an empty body runs with the configured defaults.
type RunRequest struct {
	// Policy is an inline YAML or JSON labeling policy document.
	Policy   string `json:"policy,omitempty"`
	Ratio    *int   `json:"ratio,omitempty"`
	Seed     *int64 `json:"seed,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Shuffle  *bool  `json:"shuffle,omitempty"`
}

// RunErrorResponse describes a failed run.
type RunErrorResponse struct {
	Error string `json:"error"`
	Step  string `json:"step,omitempty"`
}

// decodeRunRequest reads an optional RunRequest body.
func decodeRunRequest(r *http.Request) (RunRequest, error) {
	var req RunRequest
	if r.Body == nil {
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return req, nil
}

// runOptions applies req to a copy of the server configuration.
func (s *Server) runOptions(req RunRequest) (pipeline.RunOptions, error) {
	cfg := *s.pipelineCfg
	if req.Ratio != nil {
		cfg.Sampling.Ratio = *req.Ratio
	}
	if req.Seed != nil {
		cfg.Sampling.Seed = *req.Seed
	}
	if req.Strategy != "" {
		cfg.Sampling.Strategy = req.Strategy
	}
	if req.Shuffle != nil {
		cfg.Assembly.Shuffle = *req.Shuffle
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.RunOptions{}, &ErrValidation{Field: "parameters", Message: err.Error()}
	}

	opts := pipeline.RunOptions{
		Config: &cfg,
		Logger: s.log,
		Out:    io.Discard,
	}
	if s.db != nil {
		opts.RunStore = s.db
	}
	if req.Policy != "" {
		pol, err := policy.Parse([]byte(req.Policy))
		if err != nil {
			return pipeline.RunOptions{}, err
		}
		opts.Policy = pol
	}
	return opts, nil
}

// runError writes a failed run with the step it failed in.
func (s *Server) runError(w http.ResponseWriter, err error) {
	resp := RunErrorResponse{Error: err.Error()}
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		resp.Step = stepErr.Step
	}
	s.jsonResponse(w, HTTPStatus(err), resp)
}

// handleRun executes the pipeline synchronously and returns its result.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		s.runError(w, err)
		return
	}
	opts, err := s.runOptions(req)
	if err != nil {
		s.runError(w, err)
		return
	}

	if !s.runMu.TryLock() {
		s.runError(w, &ErrRunInProgress{})
		return
	}
	defer s.runMu.Unlock()

	s.log.Info("Pipeline run requested", "caller", middleware.Caller(r))
	result, err := s.run(r.Context(), opts)
	if err != nil {
		s.log.Warn("Pipeline run failed", "error", err)
		s.runError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleRunStream executes the pipeline and streams progress as SSE.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		s.runError(w, err)
		return
	}
	opts, err := s.runOptions(req)
	if err != nil {
		s.runError(w, err)
		return
	}

	if !s.runMu.TryLock() {
		s.runError(w, &ErrRunInProgress{})
		return
	}
	defer s.runMu.Unlock()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			s.log.Debug("Failed to write progress event", "error", err)
		}
	}

	s.log.Info("Streaming pipeline run requested", "caller", middleware.Caller(r))
	result, err := s.run(r.Context(), opts)
	if err != nil {
		s.log.Warn("Pipeline run failed", "error", err)
		sse.WriteError(err.Error())
		return
	}
	if err := sse.WriteEvent("result", result); err != nil {
		s.log.Debug("Failed to write result event", "error", err)
	}
	runID := ""
	if result.RunID != uuid.Nil {
		runID = result.RunID.String()
	}
	sse.WriteComplete(runID, "completed")
}
