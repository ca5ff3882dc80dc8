// Package stubserver is a local stand-in for the recipe backend. It serves
// the same routes the client calls with deterministic answers, so the
// client can be developed and tested without the real service.
package stubserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/snackhack/client/internal/infrastructure/config"
	"github.com/snackhack/client/internal/infrastructure/http/middleware"
	"github.com/snackhack/client/pkg/healthcheck"
)

// Option configures the stub server
type Option func(*Server)

// WithClock sets the time source used for token expiry
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithTokenTTL sets the lifetime of issued access and refresh tokens
func WithTokenTTL(access, refresh time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = access
		s.refreshTTL = refresh
	}
}

// WithIncompleteRecipes makes get-recipes return truncated markdown
func WithIncompleteRecipes() Option {
	return func(s *Server) { s.truncate = true }
}

// WithHashCost sets the bcrypt cost for stored passwords
func WithHashCost(cost int) Option {
	return func(s *Server) { s.hashCost = cost }
}

// WithMiddleware adds router middleware ahead of the routes
func WithMiddleware(mw func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.extra = append(s.extra, mw) }
}

// WithMetricsHandler serves h at /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// Server is the stub backend
type Server struct {
	cfg        config.StubServerConfig
	logger     *zap.Logger
	router     *chi.Mux
	server     *http.Server
	health     *healthcheck.HealthCheck
	tokens     *tokenIssuer
	state      *state
	now        func() time.Time
	accessTTL  time.Duration
	refreshTTL time.Duration
	hashCost   int
	truncate   bool
	extra      []func(http.Handler) http.Handler
	metrics    http.Handler

	mu       sync.Mutex
	failures map[string][]int
}

// New creates a new stub server
func New(cfg config.StubServerConfig, addr string, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:        cfg,
		logger:     logger.Named("stub"),
		now:        time.Now,
		accessTTL:  time.Hour,
		refreshTTL: 7 * 24 * time.Hour,
		hashCost:   bcrypt.DefaultCost,
		failures:   make(map[string][]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	secret := uuid.New()
	s.tokens = newTokenIssuer(secret[:], s.accessTTL, s.refreshTTL, s.now)
	s.state = newState(cfg.MaxFavourites, s.hashCost)

	s.health = healthcheck.New("stub", s.logger)
	s.health.Register("state", healthcheck.NewCustomChecker("state", func(context.Context) (healthcheck.Status, string, interface{}) {
		s.state.mu.Lock()
		defer s.state.mu.Unlock()
		return healthcheck.StatusHealthy, "", map[string]int{
			"users":   len(s.state.users),
			"recipes": len(s.state.recipes),
		}
	}))

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	for _, mw := range s.extra {
		r.Use(mw)
	}
	r.Use(middleware.Latency(s.cfg.Latency))
	r.Use(s.injectFailures)

	r.Get("/health", s.health.Handler())
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(middleware.Authenticate(s.tokens, KindRefresh)).Post("/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.tokens, KindAccess))
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
		})
	})

	r.Route("/api/recipes", func(r chi.Router) {
		r.Post("/detect-ingredients", s.handleDetect)
		r.Post("/validate-ingredient", s.handleValidate)
		r.Get("/autocomplete", s.handleAutocomplete)
		r.Post("/nutrition-facts", s.handleNutrition)
		r.With(middleware.OptionalAuth(s.tokens, KindAccess)).Post("/get-recipes", s.handleGetRecipes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.tokens, KindAccess))
			r.Get("/my-recipes", s.handleMyRecipes)
			r.Get("/favourite-recipes", s.handleFavourites)
			r.Post("/toggle-favourite", s.handleToggle)
			r.Delete("/saved-recipe/{id}", s.handleDeleteRecipe)
		})
	})

	return r
}

// FailNext makes the next len(statuses) requests whose last path segment is
// endpoint answer with the given statuses in order
func (s *Server) FailNext(endpoint string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = append(s.failures[endpoint], statuses...)
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := lastSegment(r.URL.Path)

		s.mu.Lock()
		queue := s.failures[endpoint]
		var status int
		if len(queue) > 0 {
			status = queue[0]
			s.failures[endpoint] = queue[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			middleware.WriteJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the stub server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting stub backend", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the stub server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down stub backend")
	return s.server.Shutdown(ctx)
}
