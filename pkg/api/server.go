package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/config"
	"github.com/shelfd/shelfd/pkg/logging"
	"github.com/shelfd/shelfd/pkg/metrics"
	"github.com/shelfd/shelfd/pkg/ratelimit"
	"github.com/shelfd/shelfd/pkg/record"
	"github.com/shelfd/shelfd/pkg/sse"
)

// Server is the shelfd HTTP server. Create with NewServer.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	version string

	todos *record.Store[Todo]
	users *auth.UserStore
	// authn is nil when no signing secret is configured; protected
	// endpoints are then open (dev mode).
	authn *auth.Authenticator

	limiter *ratelimit.Limiter
	hub     *sse.Hub
	enc     *sse.Encoder

	registry      *metrics.Registry
	httpRequests  *metrics.Counter
	httpResponses *metrics.Counter
	recordEvents  *metrics.Counter

	httpServer *http.Server
	listener   net.Listener

	startTime    time.Time
	ready        atomic.Bool
	requestCount atomic.Uint64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger. Defaults to a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithVersion sets the version string reported by /status.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewServer creates a Server from the given configuration. A nil config
// uses the defaults.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		log:     logging.Nop(),
		version: "dev",
		todos:   record.NewStore[Todo](),
		users:   auth.NewUserStore(),
		hub:     sse.NewHub(),
		enc:     sse.NewEncoder(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Auth.Secret != "" {
		authn, err := auth.NewAuthenticator(cfg.Auth.Secret, auth.WithTTL(cfg.Auth.TokenTTLDuration()))
		if err != nil {
			return nil, err
		}
		s.authn = authn
	}
	for _, u := range cfg.Auth.Users {
		if _, err := s.users.Register(u.Email, u.Password, u.Role); err != nil {
			return nil, fmt.Errorf("bootstrap user %s: %w", u.Email, err)
		}
	}

	if len(cfg.SeedTodos) > 0 {
		seed := make([]Todo, 0, len(cfg.SeedTodos))
		now := time.Now().UTC()
		for _, t := range cfg.SeedTodos {
			seed = append(seed, Todo{
				Title:     t.Title,
				Completed: t.Completed,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		s.todos.Seed(seed)
	}

	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.NewLimiter(cfg.RateLimit.Rate, int(cfg.RateLimit.Burst))
	}

	s.initMetrics()

	// The observer fans todo mutations out to SSE subscribers and the
	// change counter.
	s.todos.SetObserver(&todoFeed{server: s})

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:    cfg.Listen,
		Handler: s.withMiddleware(mux),
		// WriteTimeout stays zero: /events and /ws hold the connection
		// open indefinitely.
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) initMetrics() {
	s.registry = metrics.NewRegistry()
	s.httpRequests = s.registry.NewCounter("shelfd_http_requests_total", "HTTP requests received.", "method")
	s.httpResponses = s.registry.NewCounter("shelfd_http_responses_total", "HTTP responses by status code.", "code")
	s.recordEvents = s.registry.NewCounter("shelfd_record_events_total", "Record store mutations.", "action")
	s.registry.NewGaugeFunc("shelfd_todos", "Current todo count.", func() float64 {
		return float64(s.todos.Len())
	})
	s.registry.NewGaugeFunc("shelfd_users", "Current user count.", func() float64 {
		return float64(s.users.Len())
	})
	s.registry.NewGaugeFunc("shelfd_sse_subscribers", "Active SSE subscribers.", func() float64 {
		return float64(s.hub.SubscriberCount())
	})
}

// Handler returns the fully wrapped HTTP handler. Used by tests to drive
// the server without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the listen address and begins serving in the background.
// The server reports ready once the listener is up.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	s.listener = ln
	s.startTime = time.Now()
	s.ready.Store(true)

	s.log.Info("server listening", "addr", ln.Addr().String(), "version", s.version)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or the configured one before
// Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Listen
}

// Shutdown flips readiness off, stops accepting connections, and drains
// in-flight requests until ctx expires. Streaming clients are
// disconnected by closing the event hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.hub.Close()
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.log.Info("shutting down", "requests_served", s.requestCount.Load())
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns seconds since Start.
func (s *Server) Uptime() int {
	if s.startTime.IsZero() {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}

// Todos exposes the todo store. Used by tests and the CLI seed path.
func (s *Server) Todos() *record.Store[Todo] {
	return s.todos
}

// Users exposes the user store.
func (s *Server) Users() *auth.UserStore {
	return s.users
}

// MetricsRegistry exposes the metrics registry.
func (s *Server) MetricsRegistry() *metrics.Registry {
	return s.registry
}
