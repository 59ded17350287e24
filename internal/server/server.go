package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ar/cwgen/internal/audio"
	"github.com/ar/cwgen/internal/config"
	"github.com/ar/cwgen/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// Server exposes rendering over HTTP and websocket
type Server struct {
	cfg    *config.Config
	router chi.Router
	logger zerolog.Logger

	// streams is cancelled on shutdown; hijacked websocket
	// connections are not tracked by http.Server
	streams     context.Context
	stopStreams context.CancelFunc
}

// New builds the router for cfg
func New(cfg *config.Config) *Server {
	streams, stop := context.WithCancel(context.Background())
	s := &Server{
		cfg:         cfg,
		logger:      observability.WithComponent("server"),
		streams:     streams,
		stopStreams: stop,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(correlation)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", correlationHeader},
		ExposedHeaders:   []string{correlationHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", observability.HealthCheckHandler())
	r.Get("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"synthesizer": s.selfTest,
	}))

	if s.cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/encode", s.handleEncode)
		r.Post("/render", s.handleRender)
		r.Get("/stream", s.handleStream)
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured port until ctx is done, then shuts down
// gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", s.cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: renders and streams of long texts outlast any fixed bound
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return s.streams },
	}
	srv.RegisterOnShutdown(s.stopStreams)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("port", s.cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/v1/stream", s.cfg.Port)).
			Bool("metrics_enabled", s.cfg.MetricsEnabled).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info().Msg("Server exited gracefully")
	return nil
}

// Close stops in-flight streams
func (s *Server) Close() {
	s.stopStreams()
}

// selfTest renders a single dot to prove the synthesis path works
func (s *Server) selfTest(ctx context.Context) error {
	timing, err := s.cfg.Timing()
	if err != nil {
		return err
	}
	rc, err := s.cfg.RenderConfig(s.cfg.FileSampleRate)
	if err != nil {
		return err
	}

	buf, err := audio.Render(ctx, "E", timing, rc)
	if err != nil {
		return err
	}
	if buf.Len() == 0 || buf.Peak() == 0 {
		return errors.New("self-test render produced no signal")
	}
	return nil
}
