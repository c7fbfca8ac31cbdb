// Package server exposes the kit orchestrator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"news-video-kit/config"
	"news-video-kit/kit"

	"github.com/gorilla/mux"
)

const (
	serviceName     = "news-video-kit"
	requestIDHeader = "X-Request-Id"
)

type Server struct {
	cfg     *config.Config
	handler *Handler
	log     *slog.Logger
}

func New(cfg *config.Config, orch *kit.Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		handler: NewHandler(orch, cfg.Server.RequestTimeout, logger),
		log:     logger,
	}
}

// Handler returns the full HTTP handler. CORS wraps the router so that
// preflight requests never reach route matching.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.healthCheck).Methods("GET")
	r.HandleFunc("/health", s.healthCheck).Methods("GET")
	s.handler.RegisterRoutes(r)

	return withRequestID(enableCORS(r, s.cfg.Server.AllowedHeaders))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.Server.RequestTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("News video kit server starting", "addr", srv.Addr)
		s.log.Info("Endpoints", "generate", "POST /generate-video-kit", "export", "POST /export-video-kit", "health", "GET /health")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server", "timeout", s.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Server stopped")
	return nil
}

func enableCORS(next http.Handler, allowedHeaders []string) http.Handler {
	headers := strings.Join(allowedHeaders, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", headers)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRequestID tags the response and the run with a request ID, reusing the
// caller's when it sends a sane one
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = kit.NewRunID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(kit.WithRunID(r.Context(), id)))
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(s.log, w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

// writeJSON sends v as the response. The status line is already out when
// encoding fails, so the failure is only logged.
func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("Writing JSON response failed", "status", status, "error", err)
	}
}

func writeError(log *slog.Logger, w http.ResponseWriter, status int, message string) {
	writeJSON(log, w, status, map[string]string{"error": message})
}
