// Package testutils provides custom assertion helpers for testing
package testutils

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/snackhack/client/internal/domain/session"
	"github.com/snackhack/client/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SessionAssertions provides session-specific assertion methods
type SessionAssertions struct {
	t *testing.T
}

// NewSessionAssertions creates a new session assertions helper
func NewSessionAssertions(t *testing.T) *SessionAssertions {
	return &SessionAssertions{t: t}
}

// Mode asserts the session mode
func (sa *SessionAssertions) Mode(state session.State, expected session.Mode, msgAndArgs ...interface{}) {
	assert.Equal(sa.t, expected.String(), state.Mode.String(), msgAndArgs...)
}

// Ingredients asserts the ingredient list, in order
func (sa *SessionAssertions) Ingredients(state session.State, expected []string, msgAndArgs ...interface{}) {
	require.NotNil(sa.t, state.Ingredients, "Ingredient set should not be nil")
	assert.Equal(sa.t, expected, state.Ingredients.Items(), msgAndArgs...)
}

// Persisted asserts that key holds the JSON encoding of expected
func (sa *SessionAssertions) Persisted(store outbound.PersistedStore, key string, expected interface{}, msgAndArgs ...interface{}) {
	raw, ok, err := store.Load(context.Background(), key)
	require.NoError(sa.t, err)
	require.True(sa.t, ok, "Key %s should be persisted", key)

	want, err := json.Marshal(expected)
	require.NoError(sa.t, err)
	assert.JSONEq(sa.t, string(want), string(raw), msgAndArgs...)
}

// NotPersisted asserts that key is absent from the store
func (sa *SessionAssertions) NotPersisted(store outbound.PersistedStore, key string, msgAndArgs ...interface{}) {
	_, ok, err := store.Load(context.Background(), key)
	require.NoError(sa.t, err)
	assert.False(sa.t, ok, msgAndArgs...)
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONRequest asserts that the request carries a JSON body and decodes it
func (ha *HTTPAssertions) JSONRequest(req *http.Request, target interface{}) {
	require.NotNil(ha.t, req, "Request should not be nil")

	contentType := req.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Request should have JSON content type, got: %s", contentType)

	require.NoError(ha.t, json.NewDecoder(req.Body).Decode(target), "Request should be valid JSON")
}

// BearerToken asserts the Authorization header of a request
func (ha *HTTPAssertions) BearerToken(req *http.Request, expected string, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, req, "Request should not be nil")
	if expected == "" {
		assert.Empty(ha.t, req.Header.Get("Authorization"), msgAndArgs...)
		return
	}
	assert.Equal(ha.t, "Bearer "+expected, req.Header.Get("Authorization"), msgAndArgs...)
}

// HasHeader asserts that a header exists
func (ha *HTTPAssertions) HasHeader(req *http.Request, headerName string, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, req, "Request should not be nil")
	assert.NotEmpty(ha.t, req.Header.Get(headerName), msgAndArgs...)
}

// TimingAssertions provides timing assertion methods
type TimingAssertions struct {
	t *testing.T
}

// NewTimingAssertions creates a new timing assertions helper
func NewTimingAssertions(t *testing.T) *TimingAssertions {
	return &TimingAssertions{t: t}
}

// AtLeast asserts that an operation took at least min
func (ta *TimingAssertions) AtLeast(elapsed, min time.Duration, msgAndArgs ...interface{}) {
	assert.GreaterOrEqual(ta.t, elapsed, min, msgAndArgs...)
}

// Within asserts that an operation finished within max
func (ta *TimingAssertions) Within(elapsed, max time.Duration, msgAndArgs ...interface{}) {
	assert.LessOrEqual(ta.t, elapsed, max, msgAndArgs...)
}
