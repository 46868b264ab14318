// CLAUDE:SUMMARY HTTP upload-and-analyze service: chi router, multipart intake, bounded analyzer concurrency.
// Package server exposes the plan intake service over HTTP: a multipart
// upload endpoint that stores the file, routes a copy into the source
// tree, and runs the matching analyzer, plus a health probe.
//
// Analyzer subprocesses are the expensive part, so they run behind a
// small semaphore; uploads beyond the window queue on the channel rather
// than forking an unbounded number of interpreters.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/electrovision/planforge/analyze"
	"github.com/electrovision/planforge/idgen"
	"github.com/electrovision/planforge/observability"
	"github.com/electrovision/planforge/router"
)

// Analyzer runs one file through its external analyzer script.
// *analyze.Dispatcher is the production implementation.
type Analyzer interface {
	File(ctx context.Context, path string) (*analyze.Result, *analyze.Error)
}

// Config configures the intake service.
type Config struct {
	// Listen is the HTTP listen address (default: ":5000").
	Listen string

	// UploadDir stores raw uploads before routing (default: "uploads").
	UploadDir string

	// MaxUploadBytes bounds one upload body (default: 50 MiB).
	MaxUploadBytes int64

	// MaxConcurrent bounds simultaneous analyzer subprocesses (default: 4).
	MaxConcurrent int

	// Logger for request and intake messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":5000"
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 50 << 20
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Server is the plan intake HTTP service.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	router   *router.Router
	analyzer Analyzer
	recorder *observability.Recorder // optional
	newID    idgen.Generator
	sem      chan struct{}
}

// Option customises a Server beyond its required collaborators.
type Option func(*Server)

// WithRecorder enables run-history recording for each upload analysis.
func WithRecorder(rec *observability.Recorder) Option {
	return func(s *Server) { s.recorder = rec }
}

// WithIDGenerator overrides stored-name generation.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Server) { s.newID = gen }
}

// New assembles the intake service from its collaborators.
func New(cfg Config, rt *router.Router, an Analyzer, opts ...Option) *Server {
	cfg.defaults()
	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		router:   rt,
		analyzer: an,
		newID:    idgen.Prefixed("up_", idgen.Default),
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the chi router for the service.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	return r
}

// ListenAndServe runs the service until ctx is cancelled, then drains
// in-flight requests for up to 10 seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Analyzer subprocesses can legitimately take most of their 30s
		// budget, so the write timeout stays generous.
		WriteTimeout: 2 * time.Minute,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("intake service listening", "addr", s.cfg.Listen)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// logRequests logs one line per completed request via slog.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
