// Package server provides the HTTP API for triggering pipeline runs and
// inspecting recorded runs, steps and artifacts.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobrec-pipeline/internal/config"
	"github.com/jonathan/jobrec-pipeline/internal/db"
	"github.com/jonathan/jobrec-pipeline/internal/logger"
	"github.com/jonathan/jobrec-pipeline/internal/pipeline"
	"github.com/jonathan/jobrec-pipeline/internal/server/middleware"
	"github.com/jonathan/jobrec-pipeline/internal/server/ratelimit"
)

// Store is the run history the API reads and the pipeline writes. *db.DB
// implements it.
type Store interface {
	pipeline.RunStore
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
	GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*db.RunStep, error)
	ListRunSteps(ctx context.Context, runID uuid.UUID, status, category *string) ([]db.RunStep, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) (*db.Artifact, error)
	ListArtifacts(ctx context.Context, filters db.ArtifactFilters) ([]db.Artifact, error)
}

// runFunc executes one pipeline run.
type runFunc func(ctx context.Context, opts pipeline.RunOptions) (*pipeline.Result, error)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          Store
	closeDB     func()
	pipelineCfg *config.Config
	log         *logger.Logger
	rateLimiter *ratelimit.Limiter
	auth        func(http.Handler) http.Handler
	run         runFunc

	// runMu serializes runs; they share output paths.
	runMu sync.Mutex
}

// Config holds server configuration
type Config struct {
	Pipeline *config.Config
	Logger   *logger.Logger
	// Store overrides the connection made from Pipeline.DatabaseURL.
	Store Store
}

// New creates a new server instance. Without a database the run history
// endpoints answer 503 and runs are not recorded.
func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline config is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	s := &Server{
		db:          cfg.Store,
		closeDB:     func() {},
		pipelineCfg: cfg.Pipeline,
		log:         log,
		run:         pipeline.RunPipeline,
	}

	if s.db == nil && cfg.Pipeline.DatabaseURL != "" {
		database, err := db.Connect(context.Background(), cfg.Pipeline.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(context.Background()); err != nil {
			database.Close()
			return nil, err
		}
		s.db = database
		s.closeDB = database.Close
	}

	srv := cfg.Pipeline.Server
	s.rateLimiter = ratelimit.NewLimiter(rateLimitConfig(srv.RateLimit))
	if validators := keyValidators(srv); len(validators) > 0 {
		s.auth = middleware.APIKeyAuth(validators)
	} else {
		s.auth = func(next http.Handler) http.Handler { return next }
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", srv.Port),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute, // Long timeout for pipeline runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /steps", s.handleListSteps)

	mux.Handle("POST /run", s.auth(http.HandlerFunc(s.handleRun)))
	mux.Handle("POST /run/stream", s.auth(http.HandlerFunc(s.handleRunStream)))

	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleStatus)
	mux.Handle("DELETE /runs/{id}", s.auth(http.HandlerFunc(s.handleDeleteRun)))
	mux.HandleFunc("GET /runs/{id}/steps", s.handleListRunSteps)
	mux.HandleFunc("GET /runs/{id}/steps/{step_name}", s.handleGetStepStatus)
	mux.HandleFunc("GET /runs/{id}/artifacts", s.handleRunArtifacts)
	mux.HandleFunc("GET /runs/{id}/artifacts/{step_name}", s.handleArtifact)

	mux.HandleFunc("GET /artifacts", s.handleListArtifacts)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// keyValidators returns the credentials accepted on run and delete
// endpoints. An empty result leaves them open.
func keyValidators(c config.ServerConfig) middleware.AnyOf {
	var out middleware.AnyOf
	if c.APIKey != "" {
		out = append(out, middleware.StaticKeys{c.APIKey: "api-key"})
	}
	if c.APIKeyHash != "" {
		out = append(out, middleware.HashedKey{Hash: c.APIKeyHash, Caller: "api-key-hash"})
	}
	if c.JWTSecret != "" {
		out = append(out, middleware.JWTKeys{Secret: []byte(c.JWTSecret)})
	}
	return out
}

func rateLimitConfig(c config.RateLimitConfig) *ratelimit.Config {
	rc := ratelimit.DefaultConfig()
	rc.Enabled = c.Enabled
	rc.DefaultLimit = c.DefaultLimit
	if c.DefaultWindow > 0 {
		rc.DefaultWindow = c.DefaultWindow
	}
	runWindow := c.RunWindow
	if runWindow <= 0 {
		runWindow = time.Hour
	}
	rc.EndpointConfigs = ratelimit.DefaultEndpointConfigs(c.RunLimit, runWindow)
	rc.Whitelist = ratelimit.WhitelistFrom(c.Whitelist)
	return rc
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.shutdownResources()
		return fmt.Errorf("server error: %w", err)
	}
	s.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.shutdownResources()
	s.log.Info("Server stopped")
	return nil
}

func (s *Server) shutdownResources() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.closeDB()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the logging wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]string{"status": "ok", "database": "disabled"}
	if s.db != nil {
		status["database"] = "enabled"
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("Error encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// requireDB answers 503 when no database is configured.
func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run history requires a database (set DATABASE_URL)")
		return false
	}
	return true
}

// extractClientID uses the IP from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.log.Warn("Rate limit exceeded", "limit", info.Limit, "reset_at", info.ResetTime.Format(time.RFC3339))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
