// Package server provides the HTTP submission surface: a JSON import
// endpoint, a health check, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/macrohub/macrosync"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
	"github.com/macrohub/macrosync/pkg/logging"
)

// Config holds server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves the submission API over HTTP.
type Server struct {
	ms     macrosync.Macrosync
	config Config
	logger *zerolog.Logger
	http   *http.Server
}

// New creates a server around a Macrosync client.
func New(ms macrosync.Macrosync, cfg Config, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Server{ms: ms, config: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/import", s.handleImport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// ListenAndServe blocks serving requests until the context is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("HTTP server listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// importRequest is the JSON shape of a submission.
type importRequest struct {
	Actor string                 `json:"actor"`
	Rows  []indicators.RawRecord `json:"rows"`
}

// errorResponse is the JSON shape of a failed submission.
type errorResponse struct {
	Error     string   `json:"error"`
	RowErrors []string `json:"row_errors,omitempty"`
}

// handleImport accepts a batch of rows and reconciles it synchronously.
// Validation failures get a 400 with the capped row error list; store
// failures get a 500 with the store message.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithRequestID(r.Context(), uuid.NewString())
	log := logging.Ctx(ctx)

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if req.Actor == "" {
		req.Actor = "api"
	}

	result, err := s.ms.Import(ctx, req.Rows, req.Actor)
	if err != nil {
		log.Warn().Err(err).Int("rows", len(req.Rows)).Msg("Import failed")
		if errors.IsValidation(err) {
			resp := errorResponse{Error: "validation failed"}
			for _, re := range result.RowErrors {
				resp.RowErrors = append(resp.RowErrors, re.Error())
			}
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
