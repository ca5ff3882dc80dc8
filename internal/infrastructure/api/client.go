// Package api provides the HTTP client for the recipe backend
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/snackhack/client/internal/infrastructure/config"
	"github.com/snackhack/client/internal/ports/outbound"
	apperrors "github.com/snackhack/client/pkg/errors"
	"github.com/snackhack/client/pkg/healthcheck"
)

// Endpoint names used in logs and metrics
const (
	EndpointDetect       = "detect-ingredients"
	EndpointGetRecipes   = "get-recipes"
	EndpointValidate     = "validate-ingredient"
	EndpointAutocomplete = "autocomplete"
	EndpointNutrition    = "nutrition-facts"
	EndpointMyRecipes    = "my-recipes"
	EndpointFavourites   = "favourite-recipes"
	EndpointToggle       = "toggle-favourite"
	EndpointSavedRecipe  = "saved-recipe"
	EndpointLogin        = "login"
	EndpointRegister     = "register"
	EndpointRefresh      = "refresh"
	EndpointProfile      = "profile"
)

const serviceName = "recipe backend"

// Recorder receives per-request outcomes for metrics
type Recorder interface {
	RequestCompleted(endpoint string, status int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RequestCompleted(string, int, time.Duration) {}

// Option configures the client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// Client handles communication with the backend API. The zero auth
// provider sends no Authorization header; use WithAuth for a client that
// authenticates where the backend allows it.
type Client struct {
	baseURL       string
	recipesPath   string
	authPath      string
	detectTimeout time.Duration
	httpClient    *http.Client
	limiter       *rate.Limiter
	recipeBreaker *healthcheck.CircuitBreaker
	detectBreaker *healthcheck.CircuitBreaker
	validate      *validator.Validate
	auth          outbound.AuthHeaderProvider
	recorder      Recorder
	logger        *zap.Logger
}

var (
	_ outbound.LookupService      = (*Client)(nil)
	_ outbound.RecipeService      = (*Client)(nil)
	_ outbound.IngredientDetector = (*Client)(nil)
	_ outbound.AuthService        = (*Client)(nil)
	_ outbound.FavouriteService   = (*Client)(nil)
	_ outbound.NutritionService   = (*Client)(nil)
)

// NewClient creates a new API client instance
func NewClient(cfg config.APIConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	breakerCfg := healthcheck.CircuitBreakerConfig{
		FailureThreshold: cfg.CircuitMaxFailures,
		Timeout:          cfg.CircuitTimeout,
		IsFailure:        isServerFault,
		OnStateChange: func(name string, from, to healthcheck.CircuitBreakerState) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:       strings.TrimRight(base.String(), "/"),
		recipesPath:   "/" + strings.Trim(cfg.RecipesPath, "/"),
		authPath:      "/" + strings.Trim(cfg.AuthPath, "/"),
		detectTimeout: cfg.DetectTimeout,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		limiter:       rate.NewLimiter(limit, burst),
		recipeBreaker: healthcheck.NewCircuitBreaker(EndpointGetRecipes, breakerCfg),
		detectBreaker: healthcheck.NewCircuitBreaker(EndpointDetect, breakerCfg),
		validate:      validator.New(),
		recorder:      nopRecorder{},
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithAuth returns a client that sends the provider's Authorization header.
// The copy shares the transport, rate limiter and circuit breakers.
func (c *Client) WithAuth(provider outbound.AuthHeaderProvider) *Client {
	clone := *c
	clone.auth = provider
	return &clone
}

// VerifyConnection checks if the API backend is reachable
func (c *Client) VerifyConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		c.logger.Debug("Connection verification request creation failed", zap.Error(err))
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Connection verification failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode < 500
}

// HealthURL is the backend liveness endpoint
func (c *Client) HealthURL() string {
	return c.baseURL + "/health"
}

func (c *Client) recipesURL(endpoint string) string {
	return c.baseURL + c.recipesPath + "/" + endpoint
}

func (c *Client) authURL(endpoint string) string {
	return c.baseURL + c.authPath + "/" + endpoint
}

// call describes one request
type call struct {
	endpoint string
	method   string
	url      string
	body     io.Reader
	// contentType defaults to JSON when body is set
	contentType string
	// bearer overrides the auth provider with an explicit token
	bearer string
	// authenticated attaches the provider's header when one is available
	authenticated bool
}

func (c *Client) postJSON(ctx context.Context, endpoint, target string, payload, response interface{}, authenticated bool) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, call{
		endpoint:      endpoint,
		method:        http.MethodPost,
		url:           target,
		body:          bytes.NewReader(jsonBody),
		authenticated: authenticated,
	}, response)
}

func (c *Client) do(ctx context.Context, cl call, response interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewExternalServiceError(serviceName, err)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, cl.url, cl.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if cl.body != nil {
		contentType := cl.contentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	switch {
	case cl.bearer != "":
		req.Header.Set("Authorization", "Bearer "+cl.bearer)
	case cl.authenticated && c.auth != nil:
		header, err := c.auth.AuthHeader(ctx)
		if err != nil {
			// An unreadable token store means an anonymous request
			c.logger.Warn("Auth header unavailable", zap.Error(err))
		} else if header != "" {
			req.Header.Set("Authorization", header)
		}
	}

	c.logger.Debug("API request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.RequestCompleted(cl.endpoint, 0, time.Since(start))
		return apperrors.NewExternalServiceError(serviceName, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.recorder.RequestCompleted(cl.endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return apperrors.NewExternalServiceError(serviceName, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		c.logger.Error("API error response",
			zap.String("endpoint", cl.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", requestID),
			zap.ByteString("body", truncate(body, 512)),
		)
		return decodeError(resp.StatusCode, body)
	}

	if response == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, response); err != nil {
		return apperrors.NewExternalServiceError(serviceName, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

// decodeError turns an error response into an AppError
func decodeError(status int, body []byte) error {
	var payload apperrors.ErrorResponse
	_ = json.Unmarshal(body, &payload)

	if payload.MaxFavourites > 0 {
		return apperrors.NewQuotaExceededError("favourite recipes", payload.MaxFavourites).
			WithMetadata("status", status)
	}

	message := payload.Error
	if message == "" {
		message = http.StatusText(status)
	}
	code := apperrors.FromStatus(status)
	if payload.Code != "" {
		code = apperrors.ErrorCode(payload.Code)
	}
	return apperrors.NewAppError(code, message, fmt.Sprintf("status %d", status)).
		WithMetadata("status", status)
}

// isServerFault reports whether err says the backend is unhealthy. Client
// errors do not trip the circuit.
func isServerFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return true
	}
	switch appErr.Code {
	case apperrors.CodeExternalServiceError, apperrors.CodeServiceUnavailable, apperrors.CodeInternal:
		return true
	default:
		return false
	}
}

func (c *Client) guarded(cb *healthcheck.CircuitBreaker, fn func() error) error {
	err := cb.Execute(fn)
	if errors.Is(err, healthcheck.ErrCircuitOpen) {
		return apperrors.NewAppError(
			apperrors.CodeServiceUnavailable,
			"Service temporarily unavailable",
			fmt.Sprintf("%s is failing, retry later", cb.Name()),
		).WithCause(err)
	}
	return err
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
