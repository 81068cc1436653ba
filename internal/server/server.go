// Package server exposes the component palette over HTTP. It serves the
// grouped palette, component metadata and previews, library selection and
// a WebSocket stream of palette changes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conneroisu/palette/internal/config"
	"github.com/conneroisu/palette/internal/facade"
	"github.com/conneroisu/palette/internal/logging"
	"github.com/conneroisu/palette/internal/registry"
	"github.com/conneroisu/palette/internal/types"
)

// Facade is the library selection surface the server drives.
type Facade interface {
	Enabled() []string
	SetEnabled(ctx context.Context, ids []string) ([]types.Diagnostic, error)
	ReloadAll(ctx context.Context) []types.Diagnostic
	Retry(ctx context.Context, libraryID string) ([]types.Diagnostic, error)
	Diagnostics() []types.Diagnostic
	States() []types.RuntimeState
	Loading() bool
	Options() []facade.LibraryOption
	Watch() <-chan facade.Event
	UnWatch(ch <-chan facade.Event)
}

// Server serves the palette.
type Server struct {
	config   config.ServerConfig
	registry *registry.Registry
	facade   Facade
	logger   logging.Logger
	gatherer prometheus.Gatherer
	limiter  *RateLimiter
	hub      *Hub

	serverMutex sync.Mutex
	httpServer  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRateLimit limits preview rendering per client.
func WithRateLimit(cfg *RateLimitConfig) Option {
	return func(s *Server) {
		s.limiter = NewRateLimiter(cfg, s.logger)
	}
}

// New creates a server over reg and f.
func New(cfg config.ServerConfig, reg *registry.Registry, f Facade, opts ...Option) *Server {
	s := &Server{
		config:   cfg,
		registry: reg,
		facade:   f,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("server")
	if s.limiter == nil {
		s.limiter = NewRateLimiter(nil, s.logger)
	}
	s.hub = NewHub(s.logger)
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/palette", s.handlePalette)
		r.Get("/diagnostics", s.handleDiagnostics)

		r.Route("/components/{runtimeType}", func(r chi.Router) {
			r.Get("/", s.handleComponent)
			r.With(RateLimitMiddleware(s.limiter)).Post("/render", s.handleRender)
		})

		r.Route("/libraries", func(r chi.Router) {
			r.Get("/", s.handleLibraries)
			r.Get("/states", s.handleStates)
			r.Put("/enabled", s.handleSetEnabled)
			r.Post("/reload", s.handleReload)
			r.Post("/{id}/retry", s.handleRetry)
		})
	})

	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.hub.Run(hubCtx)

	facadeEvents := s.facade.Watch()
	defer s.facade.UnWatch(facadeEvents)
	registryEvents := s.registry.Watch()
	defer s.registry.UnWatch(registryEvents)
	go s.forwardEvents(hubCtx, facadeEvents, registryEvents)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Serving palette", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMutex.Lock()
	server := s.httpServer
	s.serverMutex.Unlock()

	s.limiter.Stop()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// forwardEvents relays facade and registry events to WebSocket clients.
func (s *Server) forwardEvents(ctx context.Context, facadeEvents <-chan facade.Event, registryEvents <-chan registry.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-facadeEvents:
			if !ok {
				return
			}
			s.hub.Broadcast(UpdateMessage{
				Type:      string(event.Type),
				LibraryID: event.LibraryID,
				Timestamp: event.Timestamp,
			})
		case event, ok := <-registryEvents:
			if !ok {
				return
			}
			s.hub.Broadcast(UpdateMessage{
				Type:        event.Type.String(),
				LibraryID:   event.LibraryID,
				RuntimeType: event.RuntimeType,
				GroupID:     event.GroupID,
				Timestamp:   event.Timestamp,
			})
		}
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
