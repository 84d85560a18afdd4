// Package api exposes the HTTP interface for the scraping service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"leadharvest/internal/harvest"
	"leadharvest/internal/registry"
)

// TaskRunner executes one task's combination batch to completion.
type TaskRunner interface {
	Run(ctx context.Context, taskID string, combos []harvest.Combination)
}

// Server wires HTTP handlers to the registry and the task runner.
type Server struct {
	router   chi.Router
	registry *registry.Registry
	runner   TaskRunner
	logger   *zap.Logger

	// baseCtx is the parent of every background task so a request's
	// cancellation never aborts a running scrape.
	baseCtx context.Context
}

// NewServer constructs a Server with middleware and routes. baseCtx governs
// the lifetime of background tasks; pass the process context.
func NewServer(baseCtx context.Context, reg *registry.Registry, runner TaskRunner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		registry: reg,
		runner:   runner,
		logger:   logger,
		baseCtx:  baseCtx,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/scrapJobs", s.submitScrapeJob)
	r.Get("/scrapStatus/{task_id}", s.getScrapeStatus)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The registry is in-memory, so readiness equals liveness. External
	// dependencies are checked per task, not here, because a down actor
	// should fail tasks rather than take the service out of rotation.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// stringList accepts either a JSON string or an array of strings, so
// {"country": "US"} and {"country": ["US", "CA"]} both parse.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = stringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("expected a string or an array of strings")
	}
	*s = many
	return nil
}

type scrapeJobRequest struct {
	Country stringList `json:"country"`
	Job     stringList `json:"job"`
}

func (s *Server) submitScrapeJob(w http.ResponseWriter, r *http.Request) {
	var req scrapeJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if len(req.Country) == 0 || len(req.Job) == 0 {
		writeError(w, http.StatusBadRequest, "country and job are required")
		return
	}
	combos := harvest.ExpandCombinations(req.Country, req.Job)
	if len(combos) == 0 {
		writeError(w, http.StatusBadRequest, "no valid country/job combination in request")
		return
	}

	taskID, err := s.registry.Create(len(combos))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	go s.runner.Run(s.baseCtx, taskID, combos)

	s.logger.Info("scraping task accepted",
		zap.String("task_id", taskID),
		zap.Int("combinations", len(combos)),
	)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Scraping task started",
		"task_id": taskID,
	})
}

func (s *Server) getScrapeStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	task, ok := s.registry.Get(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
