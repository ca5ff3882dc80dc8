// Package healthcheck unit tests
package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixed(status Status, message string) *CustomChecker {
	return NewCustomChecker("fixed", func(context.Context) (Status, string, interface{}) {
		return status, message, nil
	})
}

type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	saveErr error
	garble  bool
}

func newMapStore() *mapStore { return &mapStore{data: map[string][]byte{}} }

func (m *mapStore) Save(_ context.Context, key string, value []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.garble {
		value = []byte("garbled")
	}
	m.data[key] = value
	return nil
}

func (m *mapStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Clear(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestHealthCheck_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_AggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		expected Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", nil)
			names := []string{"a", "b", "c"}
			for i, s := range tt.statuses {
				hc.Register(names[i], fixed(s, ""))
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.expected, response.Status)
			require.Len(t, response.Checks, len(tt.statuses))
			for i := range tt.statuses {
				assert.Equal(t, names[i], response.Checks[i].Name)
			}
		})
	}
}

func TestHealthCheck_RunsConcurrently(t *testing.T) {
	hc := New("1.0.0", nil)
	slow := NewCustomChecker("slow", func(context.Context) (Status, string, interface{}) {
		time.Sleep(50 * time.Millisecond)
		return StatusHealthy, "", nil
	})
	hc.Register("one", slow)
	hc.Register("two", slow)
	hc.Register("three", slow)

	start := time.Now()
	hc.Check(context.Background())

	assert.Less(t, time.Since(start), 140*time.Millisecond)
}

func TestHealthCheck_Timeout(t *testing.T) {
	hc := New("1.0.0", nil)
	hc.SetTimeout(20 * time.Millisecond)
	hc.Register("hang", NewCustomChecker("hang", func(ctx context.Context) (Status, string, interface{}) {
		<-ctx.Done()
		return StatusUnhealthy, ctx.Err().Error(), nil
	}))

	response := hc.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, response.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), response.Checks[0].Message)
}

func TestHealthCheck_Caching(t *testing.T) {
	hc := New("1.0.0", nil)
	hc.SetCacheTTL(time.Minute)
	calls := 0
	hc.Register("count", NewCustomChecker("count", func(context.Context) (Status, string, interface{}) {
		calls++
		return StatusHealthy, "", nil
	}))

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, 1, calls)

	hc.Register("other", fixed(StatusHealthy, ""))
	hc.Check(context.Background())
	assert.Equal(t, 2, calls)
}

func TestHealthCheck_Handler(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		code   int
	}{
		{"healthy", StatusHealthy, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusOK},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("2.0.0", nil)
			hc.Register("backend", fixed(tt.status, "msg"))

			w := httptest.NewRecorder()
			hc.Handler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tt.status), body["status"])
			assert.Equal(t, "2.0.0", body["version"])
		})
	}
}

func TestStoreChecker(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		store := newMapStore()
		check := NewStoreChecker(store, "app_probe").Check(context.Background())

		assert.Equal(t, StatusHealthy, check.Status)
		_, ok, _ := store.Load(context.Background(), "app_probe")
		assert.False(t, ok, "probe key must be cleared")
	})

	t.Run("save fails", func(t *testing.T) {
		store := newMapStore()
		store.saveErr = errors.New("disk full")

		check := NewStoreChecker(store, "app_probe").Check(context.Background())

		assert.Equal(t, StatusUnhealthy, check.Status)
		assert.Contains(t, check.Message, "disk full")
	})

	t.Run("value mismatch", func(t *testing.T) {
		store := newMapStore()
		store.garble = true

		check := NewStoreChecker(store, "app_probe").Check(context.Background())

		assert.Equal(t, StatusUnhealthy, check.Status)
	})
}

func TestExternalServiceChecker(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		status Status
	}{
		{"ok", http.StatusOK, StatusHealthy},
		{"not found", http.StatusNotFound, StatusDegraded},
		{"server error", http.StatusBadGateway, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer server.Close()

			check := NewExternalServiceChecker("backend", server.URL, time.Second).Check(context.Background())

			assert.Equal(t, tt.status, check.Status)
			assert.Equal(t, "backend", check.Name)
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		check := NewExternalServiceChecker("backend", "http://127.0.0.1:1", 200*time.Millisecond).Check(context.Background())
		assert.Equal(t, StatusUnhealthy, check.Status)
		assert.NotEmpty(t, check.Message)
	})
}

func TestCheck_MarshalJSON(t *testing.T) {
	check := Check{Name: "store", Status: StatusHealthy, Duration: 1500 * time.Millisecond}

	data, err := json.Marshal(check)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1500), decoded["duration_ms"])
	assert.Equal(t, "store", decoded["name"])
}
