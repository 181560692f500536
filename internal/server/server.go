// Package server exposes the HTTP endpoints: health, the Telegram webhook
// and an on-demand batch trigger for external cron.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/pipeline"
	"github.com/abhisek/quizstreak/internal/telegram"
)

// maxUpdateBytes bounds a webhook request body.
const maxUpdateBytes = 1 << 20

// ActionHandler handles an inbound chat action.
type ActionHandler func(ctx context.Context, action delivery.InboundAction)

// BatchRunner runs one batch.
type BatchRunner interface {
	Run(ctx context.Context) (pipeline.Report, error)
}

// Config configures the HTTP server.
type Config struct {
	Addr string

	// WebhookSecret is the last path segment of the webhook URL. Empty
	// disables the webhook route.
	WebhookSecret string

	// CronSecret must match the X-Cron-Secret header. Empty disables the
	// cron route.
	CronSecret string

	ShutdownTimeout time.Duration
}

// Server serves the HTTP endpoints.
type Server struct {
	cfg     Config
	actions ActionHandler
	runner  BatchRunner
	logger  *log.Logger
}

// New creates a Server. actions or runner may be nil to leave the
// corresponding route disabled.
func New(cfg Config, actions ActionHandler, runner BatchRunner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 20 * time.Second
	}
	return &Server{cfg: cfg, actions: actions, runner: runner, logger: logger}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.actions != nil && s.cfg.WebhookSecret != "" {
		mux.HandleFunc("POST /webhook/{secret}", s.handleWebhook)
	}
	if s.runner != nil && s.cfg.CronSecret != "" {
		mux.HandleFunc("POST /cron/run", s.handleCron)
	}
	return mux
}

// handleWebhook always answers 200 to an authenticated request so that
// Telegram does not redeliver the update on a logical failure.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !secretEqual(r.PathValue("secret"), s.cfg.WebhookSecret) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	defer w.WriteHeader(http.StatusOK)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	if err != nil {
		s.logger.Printf("server: read webhook body: %v", err)
		return
	}
	u, err := telegram.DecodeUpdate(body)
	if err != nil {
		s.logger.Printf("server: %v", err)
		return
	}
	action, ok := telegram.ActionFromUpdate(u)
	if !ok {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Printf("server: recovered from panic handling %s: %v", action.ID, rec)
		}
	}()
	s.actions(r.Context(), action)
}

func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	if !secretEqual(r.Header.Get("X-Cron-Secret"), s.cfg.CronSecret) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	rep, err := s.runner.Run(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		s.logger.Printf("server: cron run: %v", err)
		http.Error(w, "batch failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, rep.String())
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("server: listening on %s", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Printf("server: shutdown complete")
	return nil
}

func secretEqual(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
