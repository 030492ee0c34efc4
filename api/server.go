// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/commandcore/ingestion"
	"github.com/poiesic/commandcore/jobs"
	"github.com/poiesic/commandcore/retrieval"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 120 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger    *slog.Logger        // Optional: defaults to slog.Default()
	Ingestion *ingestion.Pipeline // Required
	Retrieval *retrieval.Pipeline // Required
	Tracker   *jobs.Tracker       // Required
	UploadDir string              // Optional: accepted uploads are kept under UploadDir/<job_id>/
}

// Server is the JSON API HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Ingestion == nil {
		return nil, errors.New("ingestion pipeline is required")
	}
	if cfg.Retrieval == nil {
		return nil, errors.New("retrieval pipeline is required")
	}
	if cfg.Tracker == nil {
		return nil, errors.New("job tracker is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dh := &documentsHandler{
		pipeline:  cfg.Ingestion,
		tracker:   cfg.Tracker,
		uploadDir: cfg.UploadDir,
		logger:    logger,
	}
	qh := &queryHandler{
		pipeline: cfg.Retrieval,
		logger:   logger,
	}

	mux := http.NewServeMux()

	// Documents
	mux.HandleFunc("POST /v1/documents/upload", dh.upload)
	mux.HandleFunc("GET /v1/documents/status/{job_id}", dh.status)

	// Query
	mux.HandleFunc("POST /v1/query", qh.query)

	// System discovery
	mux.HandleFunc("GET /v1/system/supported-file-types", supportedFileTypes)
	mux.HandleFunc("GET /v1/system/domains", domains)

	// Health probe stays outside the middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)

	// Middleware stack (outermost first): Recovery → Logging → Routes
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)
	topMux.Handle("/", handler)

	return &Server{mux: topMux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves HTTP on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
