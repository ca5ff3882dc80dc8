// Package healthcheck provides health checks for the client's dependencies
// and the circuit breaker guarding backend calls.
package healthcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Check represents a health check
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration_ms"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response represents the health check response
type Response struct {
	Status        Status        `json:"status"`
	Version       string        `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []Check       `json:"checks"`
	TotalDuration time.Duration `json:"total_duration_ms"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

// HealthCheck manages health checks
type HealthCheck struct {
	version  string
	checkers map[string]Checker
	logger   *zap.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	cache    *Response
	cacheTTL time.Duration
}

// New creates a new health check instance
func New(version string, logger *zap.Logger) *HealthCheck {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthCheck{
		version:  version,
		checkers: make(map[string]Checker),
		logger:   logger,
		timeout:  10 * time.Second,
	}
}

// Register registers a health checker
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cache = nil
}

// SetCacheTTL sets how long a response is reused. Zero disables caching.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// SetTimeout bounds the total time spent on one round of checks
func (h *HealthCheck) SetTimeout(timeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeout = timeout
}

// Handler returns the HTTP handler for health checks
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := h.Check(r.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Warn("Failed to write health response", zap.Error(err))
		}
	}
}

// Check performs all health checks concurrently. Checks are reported in
// name order.
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.cache != nil && h.cacheTTL > 0 && time.Since(h.cache.Timestamp) < h.cacheTTL {
		cached := *h.cache
		h.mu.RUnlock()
		return cached
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	timeout := h.timeout
	h.mu.RUnlock()

	start := time.Now()
	response := Response{
		Version:   h.version,
		Timestamp: start,
		Status:    StatusHealthy,
		Checks:    make([]Check, 0, len(checkers)),
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var wg sync.WaitGroup
	checksChan := make(chan Check, len(checkers))
	for name, checker := range checkers {
		wg.Add(1)
		go func(n string, c Checker) {
			defer wg.Done()
			check := c.Check(checkCtx)
			check.Name = n
			checksChan <- check
		}(name, checker)
	}
	wg.Wait()
	close(checksChan)

	for check := range checksChan {
		response.Checks = append(response.Checks, check)

		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
		if check.Status != StatusHealthy {
			h.logger.Warn("Health check not healthy",
				zap.String("check", check.Name),
				zap.String("status", string(check.Status)),
				zap.String("message", check.Message),
			)
		}
	}
	sort.Slice(response.Checks, func(i, j int) bool {
		return response.Checks[i].Name < response.Checks[j].Name
	})

	response.TotalDuration = time.Since(start)

	h.mu.Lock()
	h.cache = &response
	h.mu.Unlock()

	return response
}

// KeyValueStore is the subset of a persisted store the store checker needs
type KeyValueStore interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Clear(ctx context.Context, keys ...string) error
}

// StoreChecker writes, reads back and clears a probe key
type StoreChecker struct {
	store KeyValueStore
	key   string
}

// NewStoreChecker creates a new store checker using probeKey as scratch space
func NewStoreChecker(store KeyValueStore, probeKey string) *StoreChecker {
	return &StoreChecker{store: store, key: probeKey}
}

// Check performs the store round trip
func (s *StoreChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{Name: "store", LastChecked: start}

	err := s.roundTrip(ctx, []byte(start.Format(time.RFC3339Nano)))
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	check.Status = StatusHealthy
	return check
}

func (s *StoreChecker) roundTrip(ctx context.Context, probe []byte) error {
	if err := s.store.Save(ctx, s.key, probe); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer func() { _ = s.store.Clear(context.WithoutCancel(ctx), s.key) }()

	got, ok, err := s.store.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if !ok || string(got) != string(probe) {
		return fmt.Errorf("probe value did not round trip")
	}
	return nil
}

// RedisChecker checks Redis health
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis checker
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Check performs Redis health check
func (r *RedisChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:        "redis",
		LastChecked: start,
	}

	pong, err := r.client.Ping(ctx).Result()
	check.Duration = time.Since(start)

	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	if pong != "PONG" {
		check.Status = StatusUnhealthy
		check.Message = "Unexpected ping response"
		return check
	}

	stats := r.client.PoolStats()
	check.Metadata = map[string]interface{}{
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"timeouts":    stats.Timeouts,
	}
	check.Status = StatusHealthy
	return check
}

// ExternalServiceChecker checks external service health
type ExternalServiceChecker struct {
	name   string
	url    string
	client *http.Client
}

// NewExternalServiceChecker creates a new external service checker
func NewExternalServiceChecker(name, url string, timeout time.Duration) *ExternalServiceChecker {
	return &ExternalServiceChecker{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Check performs external service health check
func (e *ExternalServiceChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:        e.name,
		LastChecked: start,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		check.Duration = time.Since(start)
		return check
	}

	resp, err := e.client.Do(req)
	check.Duration = time.Since(start)

	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		check.Status = StatusHealthy
	case resp.StatusCode >= 500:
		check.Status = StatusUnhealthy
		check.Message = "Service returned error status"
	default:
		check.Status = StatusDegraded
		check.Message = "Service returned non-success status"
	}

	check.Metadata = map[string]interface{}{
		"status_code": resp.StatusCode,
		"url":         e.url,
	}

	return check
}

// CustomChecker allows for custom health check logic
type CustomChecker struct {
	name  string
	check func(ctx context.Context) (Status, string, interface{})
}

// NewCustomChecker creates a new custom checker
func NewCustomChecker(name string, check func(ctx context.Context) (Status, string, interface{})) *CustomChecker {
	return &CustomChecker{
		name:  name,
		check: check,
	}
}

// Check performs custom health check
func (c *CustomChecker) Check(ctx context.Context) Check {
	start := time.Now()

	status, message, metadata := c.check(ctx)

	return Check{
		Name:        c.name,
		Status:      status,
		Message:     message,
		Metadata:    metadata,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

// MarshalJSON reports the duration in milliseconds
func (c Check) MarshalJSON() ([]byte, error) {
	type Alias Check
	return json.Marshal(&struct {
		*Alias
		Duration float64 `json:"duration_ms"`
	}{
		Alias:    (*Alias)(&c),
		Duration: float64(c.Duration.Milliseconds()),
	})
}

// MarshalJSON reports the total duration in milliseconds
func (r Response) MarshalJSON() ([]byte, error) {
	type Alias Response
	return json.Marshal(&struct {
		*Alias
		TotalDuration float64 `json:"total_duration_ms"`
	}{
		Alias:         (*Alias)(&r),
		TotalDuration: float64(r.TotalDuration.Milliseconds()),
	})
}
