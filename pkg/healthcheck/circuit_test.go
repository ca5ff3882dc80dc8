// Package healthcheck circuit breaker tests
// Tests for circuit breaker functionality including failure scenarios and recovery
package healthcheck

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func testBreaker(t *testing.T) (*CircuitBreaker, *time.Time) {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("recipes", CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
		MaxRequests:      1,
	})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestNewCircuitBreaker_DefaultValues(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{})

	assert.Equal(t, 5, cb.config.FailureThreshold)
	assert.Equal(t, 2, cb.config.SuccessThreshold)
	assert.Equal(t, 30*time.Second, cb.config.Timeout)
	assert.Equal(t, 1, cb.config.MaxRequests)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, "test", cb.Name())
}

func TestCircuitBreaker_PassesResultThrough(t *testing.T) {
	cb, _ := testBreaker(t)

	require.NoError(t, cb.Execute(succeed))
	assert.ErrorIs(t, cb.Execute(fail), errBackend)

	stats := cb.GetStats()
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.TotalSuccesses)
	assert.Equal(t, int64(1), stats.TotalFailures)
	assert.Equal(t, 1, stats.ConsecutiveFailures)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_TripsAndRejects(t *testing.T) {
	cb, _ := testBreaker(t)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	require.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, int64(1), cb.GetStats().TotalRejections)
}

func TestCircuitBreaker_SuccessResetsFailureRun(t *testing.T) {
	cb, _ := testBreaker(t)

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	_ = cb.Execute(succeed)
	_ = cb.Execute(fail)

	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, 1, cb.GetStats().ConsecutiveFailures)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, now := testBreaker(t)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}

	*now = now.Add(10 * time.Second)

	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateHalfOpen, cb.GetState())

	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := testBreaker(t)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	*now = now.Add(10 * time.Second)

	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, StateOpen, cb.GetState())

	assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenLimitsTrials(t *testing.T) {
	cb, now := testBreaker(t)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	*now = now.Add(10 * time.Second)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitOpen)

	close(release)
	assert.NoError(t, <-done)
}

func TestCircuitBreaker_RunsCallsConcurrently(t *testing.T) {
	cb, _ := testBreaker(t)

	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Execute(func() error {
				started.Done()
				<-release
				return nil
			})
		}()
	}

	// Both calls must be inside fn at once, otherwise this blocks.
	started.Wait()
	close(release)
	wg.Wait()

	assert.Equal(t, int64(2), cb.GetStats().TotalSuccesses)
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	errClient := errors.New("bad request")
	cb := NewCircuitBreaker("detect", CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, errClient) },
	})

	assert.ErrorIs(t, cb.Execute(func() error { return errClient }), errClient)
	assert.Equal(t, StateClosed, cb.GetState())

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker("recipes", CircuitBreakerConfig{
		FailureThreshold: 1,
		OnStateChange: func(name string, from, to CircuitBreakerState) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(fail)
	cb.Reset()

	assert.Equal(t, []string{"recipes:closed->open", "recipes:open->closed"}, transitions)
	assert.Equal(t, CircuitBreakerStats{}, cb.GetStats())
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(42).String())
}
