package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/jobrec-pipeline/internal/db"
	"github.com/jonathan/jobrec-pipeline/internal/pipeline/steps"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// StepDefinitionResponse describes one registered pipeline step.
type StepDefinitionResponse struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Dependencies []string `json:"dependencies"`
}

// RunDetailResponse is a run together with its step records.
type RunDetailResponse struct {
	Run   *db.Run      `json:"run"`
	Steps []db.RunStep `json:"steps"`
}

// RunStepsListResponse represents the list of all steps for a run
type RunStepsListResponse struct {
	RunID string       `json:"run_id"`
	Steps []db.RunStep `json:"steps"`
}

// ArtifactsListResponse is a list of artifact records.
type ArtifactsListResponse struct {
	Artifacts []db.Artifact `json:"artifacts"`
	Count     int           `json:"count"`
}

// handleListSteps returns the step registry in execution order.
func (s *Server) handleListSteps(w http.ResponseWriter, _ *http.Request) {
	order := steps.Order()
	resp := make([]StepDefinitionResponse, 0, len(order))
	for _, name := range order {
		def := steps.StepRegistry[name]
		deps := def.Dependencies
		if deps == nil {
			deps = []string{}
		}
		resp = append(resp, StepDefinitionResponse{Name: def.Name, Category: def.Category, Dependencies: deps})
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// parseRunID reads the {id} path value, writing a 400 when it is malformed.
func (s *Server) parseRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return uuid.Nil, false
	}
	return runID, true
}

// loadRun fetches a run, writing 404 or 500 when it cannot be returned.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request, runID uuid.UUID) (*db.Run, bool) {
	run, err := s.db.GetRun(r.Context(), runID)
	if err != nil {
		s.log.Error("Failed to get run", "run_id", runID.String(), "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get run")
		return nil, false
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return nil, false
	}
	return run, true
}

// handleListRuns returns the most recent runs.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := s.db.ListRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("Failed to list runs", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

// handleStatus returns a run and its step records.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}
	run, ok := s.loadRun(w, r, runID)
	if !ok {
		return
	}

	runSteps, err := s.db.ListRunSteps(r.Context(), runID, nil, nil)
	if err != nil {
		s.log.Error("Failed to list run steps", "run_id", runID.String(), "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list run steps")
		return
	}
	if runSteps == nil {
		runSteps = []db.RunStep{}
	}
	s.jsonResponse(w, http.StatusOK, RunDetailResponse{Run: run, Steps: runSteps})
}

// handleDeleteRun removes a run with its steps and artifacts.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}
	if _, ok := s.loadRun(w, r, runID); !ok {
		return
	}

	if err := s.db.DeleteRun(r.Context(), runID); err != nil {
		s.log.Error("Failed to delete run", "run_id", runID.String(), "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListRunSteps lists step records, optionally filtered by ?status= and ?category=.
func (s *Server) handleListRunSteps(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}
	if _, ok := s.loadRun(w, r, runID); !ok {
		return
	}

	var status, category *string
	if v := r.URL.Query().Get("status"); v != "" {
		status = &v
	}
	if v := r.URL.Query().Get("category"); v != "" {
		category = &v
	}

	runSteps, err := s.db.ListRunSteps(r.Context(), runID, status, category)
	if err != nil {
		s.log.Error("Failed to list run steps", "run_id", runID.String(), "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list run steps")
		return
	}
	if runSteps == nil {
		runSteps = []db.RunStep{}
	}
	s.jsonResponse(w, http.StatusOK, RunStepsListResponse{RunID: runID.String(), Steps: runSteps})
}

// handleGetStepStatus returns one step record.
func (s *Server) handleGetStepStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}
	stepName := r.PathValue("step_name")
	if _, known := steps.StepRegistry[stepName]; !known {
		s.errorResponse(w, http.StatusBadRequest, "Unknown step: "+stepName)
		return
	}

	step, err := s.db.GetRunStep(r.Context(), runID, stepName)
	if err != nil {
		s.log.Error("Failed to get run step", "run_id", runID.String(), "step", stepName, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get step")
		return
	}
	if step == nil {
		s.errorResponse(w, http.StatusNotFound, "Step not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, step)
}

// handleRunArtifacts lists every artifact recorded for a run.
func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}
	if _, ok := s.loadRun(w, r, runID); !ok {
		return
	}
	s.listArtifacts(w, r, db.ArtifactFilters{RunID: runID})
}

// handleArtifact returns the artifact one step of a run produced.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}
	stepName := r.PathValue("step_name")

	artifact, err := s.db.GetArtifact(r.Context(), runID, stepName)
	if err != nil {
		s.log.Error("Failed to get artifact", "run_id", runID.String(), "step", stepName, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get artifact")
		return
	}
	if artifact == nil {
		s.errorResponse(w, http.StatusNotFound, "Artifact not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, artifact)
}

// handleListArtifacts lists artifacts filtered by ?run_id=, ?step= and ?category=.
func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	q := r.URL.Query()
	filters := db.ArtifactFilters{Step: q.Get("step"), Category: q.Get("category")}
	if raw := q.Get("run_id"); raw != "" {
		runID, err := uuid.Parse(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid run_id")
			return
		}
		filters.RunID = runID
	}
	s.listArtifacts(w, r, filters)
}

func (s *Server) listArtifacts(w http.ResponseWriter, r *http.Request, filters db.ArtifactFilters) {
	artifacts, err := s.db.ListArtifacts(r.Context(), filters)
	if err != nil {
		s.log.Error("Failed to list artifacts", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list artifacts")
		return
	}
	if artifacts == nil {
		artifacts = []db.Artifact{}
	}
	s.jsonResponse(w, http.StatusOK, ArtifactsListResponse{Artifacts: artifacts, Count: len(artifacts)})
}
