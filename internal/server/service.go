// Package server exposes the extraction pipeline over HTTP: upload a PDF,
// read back the normalized table and its statistics, download CSV/XLSX
// exports of past runs.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jmarceau/echeancier/internal/common"
	"github.com/jmarceau/echeancier/internal/pipeline"
	"github.com/jmarceau/echeancier/internal/repository"
)

type Server struct {
	processor      *pipeline.Processor
	runs           *repository.RunStore
	logger         *slog.Logger
	maxUploadBytes int64
}

func New(processor *pipeline.Processor, runs *repository.RunStore, maxUploadMB int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &Server{
		processor:      processor,
		runs:           runs,
		logger:         logger,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// Routes wires the handlers behind the request-logging middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/schedules", s.handleAnalyze)
	mux.HandleFunc("GET /v1/schedules", s.handleListRuns)
	mux.HandleFunc("GET /v1/schedules/{id}", s.handleGetRun)
	mux.HandleFunc("GET /v1/schedules/{id}/export", s.handleExport)
	return s.withRequestLog(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New().String()
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(common.WithRequestID(r.Context(), reqID)))

		s.logger.Info("http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("http.write_error", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
