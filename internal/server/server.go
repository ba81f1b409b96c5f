// Package server exposes the synthesis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/go-relp-tts/internal/config"
	"github.com/example/go-relp-tts/internal/metrics"
	"github.com/example/go-relp-tts/internal/tts"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

type Server struct {
	cfg             config.Config
	tts             *tts.Service
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, svc *tts.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Server{
		cfg:             cfg,
		tts:             svc,
		logger:          logger,
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Handler() http.Handler {
	opts := []Option{
		WithWorkers(s.cfg.Server.Workers),
		WithMaxBodyBytes(s.cfg.Server.MaxBodyBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second),
		WithLogger(s.logger),
	}

	if s.cfg.Observability.Metrics {
		opts = append(opts, WithMetrics(metrics.Handler(metrics.NewRegistry())))
	}

	return NewHandler(s.tts, s.tts.Catalogue(), opts...)
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	if s.tts == nil {
		return errors.New("server: no synthesis service")
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", s.cfg.Server.ListenAddr, "workers", s.cfg.Server.Workers)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http listen: %w", err)
	}
}

// CheckHealth checks /health on addr.
func CheckHealth(ctx context.Context, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}

	return nil
}
