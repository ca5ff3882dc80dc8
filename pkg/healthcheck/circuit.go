// Package healthcheck circuit breaker implementation
// Provides circuit breaker pattern for backend calls to stop hammering a
// service that is already failing
package healthcheck

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a call is rejected without being attempted
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for circuit breaker
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int `json:"failure_threshold"`

	// SuccessThreshold is the number of successes required to close the circuit when half-open
	SuccessThreshold int `json:"success_threshold"`

	// Timeout is how long the circuit stays open before a trial call is let through
	Timeout time.Duration `json:"timeout"`

	// MaxRequests is the maximum number of concurrent trial calls when half-open
	MaxRequests int `json:"max_requests"`

	// OnStateChange is called when the state changes, outside the breaker lock
	OnStateChange func(name string, from, to CircuitBreakerState)

	// IsFailure decides whether an error counts against the circuit. By
	// default every non-nil error does.
	IsFailure func(err error) bool
}

// CircuitBreakerStats holds statistics about circuit breaker operations
type CircuitBreakerStats struct {
	TotalRequests        int64 `json:"total_requests"`
	TotalSuccesses       int64 `json:"total_successes"`
	TotalFailures        int64 `json:"total_failures"`
	TotalRejections      int64 `json:"total_rejections"`
	ConsecutiveFailures  int   `json:"consecutive_failures"`
	ConsecutiveSuccesses int   `json:"consecutive_successes"`
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	name     string
	config   CircuitBreakerConfig
	now      func() time.Time
	state    CircuitBreakerState
	stats    CircuitBreakerStats
	trials   int
	openedAt time.Time
	mu       sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	// Set default values if not provided
	defaults := DefaultCircuitBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = defaults.MaxRequests
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute runs fn with circuit breaker protection. fn runs without the
// breaker lock held, so concurrent calls proceed in parallel.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	transition, ok := cb.before()
	cb.notify(transition)
	if !ok {
		return fmt.Errorf("%s: %w", cb.name, ErrCircuitOpen)
	}

	err := fn()

	cb.notify(cb.after(err))
	return err
}

type stateChange struct {
	from, to CircuitBreakerState
}

func (cb *CircuitBreaker) before() (*stateChange, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalRequests++

	var change *stateChange
	if cb.state == StateOpen && !cb.now().Before(cb.openedAt.Add(cb.config.Timeout)) {
		change = cb.setState(StateHalfOpen)
	}

	switch cb.state {
	case StateClosed:
		return change, true
	case StateHalfOpen:
		if cb.trials < cb.config.MaxRequests {
			cb.trials++
			return change, true
		}
	}

	cb.stats.TotalRejections++
	return change, false
}

func (cb *CircuitBreaker) after(err error) *stateChange {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.trials > 0 {
		cb.trials--
	}

	if err != nil && cb.config.IsFailure(err) {
		cb.stats.TotalFailures++
		cb.stats.ConsecutiveSuccesses = 0
		cb.stats.ConsecutiveFailures++

		switch cb.state {
		case StateClosed:
			if cb.stats.ConsecutiveFailures >= cb.config.FailureThreshold {
				return cb.setState(StateOpen)
			}
		case StateHalfOpen:
			// Any failure in half-open state opens the circuit
			return cb.setState(StateOpen)
		}
		return nil
	}

	cb.stats.TotalSuccesses++
	cb.stats.ConsecutiveFailures = 0
	cb.stats.ConsecutiveSuccesses++

	if cb.state == StateHalfOpen && cb.stats.ConsecutiveSuccesses >= cb.config.SuccessThreshold {
		return cb.setState(StateClosed)
	}
	return nil
}

// setState changes the state and returns the change for notification
func (cb *CircuitBreaker) setState(newState CircuitBreakerState) *stateChange {
	if cb.state == newState {
		return nil
	}

	change := &stateChange{from: cb.state, to: newState}
	cb.state = newState

	switch newState {
	case StateOpen:
		cb.openedAt = cb.now()
		cb.trials = 0
	case StateHalfOpen:
		cb.stats.ConsecutiveSuccesses = 0
		cb.trials = 0
	case StateClosed:
		cb.stats.ConsecutiveFailures = 0
		cb.stats.ConsecutiveSuccesses = 0
	}
	return change
}

func (cb *CircuitBreaker) notify(change *stateChange) {
	if change != nil && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.name, change.from, change.to)
	}
}

// Name returns the breaker name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stats
}

// Reset resets the circuit breaker to its initial state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	change := cb.setState(StateClosed)
	cb.stats = CircuitBreakerStats{}
	cb.trials = 0
	cb.mu.Unlock()

	cb.notify(change)
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breakers
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}
