// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the tool's operations as a JSON HTTP API:
// requirement upload, test case generation, compliance checks, exports,
// and integration pushes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/internal/compliance"
	"github.com/pdiddy/healthcare-testgen/internal/export"
	"github.com/pdiddy/healthcare-testgen/internal/fileproc"
	"github.com/pdiddy/healthcare-testgen/internal/generator"
	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

const shutdownTimeout = 10 * time.Second

// Deps are the components the API serves.
type Deps struct {
	Store     *store.Store
	Files     *fileproc.Processor
	Generator *generator.Generator
	Checker   *compliance.Checker
	Exporter  *export.Exporter
	Config    types.Config
	Logger    *zap.Logger
}

// Server routes API requests to the underlying components.
type Server struct {
	store     *store.Store
	files     *fileproc.Processor
	generator *generator.Generator
	checker   *compliance.Checker
	exporter  *export.Exporter
	cfg       types.Config
	logger    *zap.Logger
	mux       *http.ServeMux
}

// New builds a Server and registers its routes.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		store:     deps.Store,
		files:     deps.Files,
		generator: deps.Generator,
		checker:   deps.Checker,
		exporter:  deps.Exporter,
		cfg:       deps.Config,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("POST /api/requirements/upload", s.handleUpload)
	s.mux.HandleFunc("GET /api/requirements", s.handleRequirements)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/testcases", s.handleTestCases)
	s.mux.HandleFunc("GET /api/testcases/{id}", s.handleGetTestCase)
	s.mux.HandleFunc("DELETE /api/testcases/{id}", s.handleDeleteTestCase)
	s.mux.HandleFunc("POST /api/compliance/check", s.handleComplianceCheck)
	s.mux.HandleFunc("GET /api/compliance/standards", s.handleStandards)
	s.mux.HandleFunc("POST /api/export", s.handleExport)
	s.mux.HandleFunc("GET /api/exports", s.handleExports)
	s.mux.HandleFunc("POST /api/integrations/{tool}/push", s.handlePush)
	s.mux.HandleFunc("GET /api/integrations/logs", s.handleIntegrationLogs)
	s.mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /api/projects", s.handleProjects)
}

// Handler returns the API handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.withLogging(s.mux)
}

// ListenAndServe serves the API on addr until ctx is cancelled, then
// drains connections for up to 10 seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	// The resolved address matters when addr asked for port 0.
	s.logger.Info("server listening", zap.String("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already written; encode failures here mean a
	// dropped connection.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
