package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/snackhack/client/internal/infrastructure/persistence/memory"
	"github.com/snackhack/client/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTokenStore(t *testing.T) (*TokenStore, *memory.Store, *testutils.MockAuthService) {
	store := memory.NewStore()
	auth := new(testutils.MockAuthService)
	t.Cleanup(func() { auth.AssertExpectations(t) })
	return NewTokenStore(store, auth, zaptest.NewLogger(t)), store, auth
}

func TestTokenStore_NoTokenNoHeader(t *testing.T) {
	tokens, _, _ := newTokenStore(t)

	header, err := tokens.AuthHeader(context.Background())

	require.NoError(t, err)
	assert.Empty(t, header)
}

func TestTokenStore_ValidTokenUsedAsIs(t *testing.T) {
	ctx := context.Background()
	tokens, _, _ := newTokenStore(t)
	access := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, tokens.Set(ctx, access, "refresh"))

	header, err := tokens.AuthHeader(ctx)

	require.NoError(t, err)
	assert.Equal(t, "Bearer "+access, header)
}

func TestTokenStore_OpaqueTokenAssumedValid(t *testing.T) {
	ctx := context.Background()
	tokens, _, _ := newTokenStore(t)
	require.NoError(t, tokens.Set(ctx, "not-a-jwt", "refresh"))

	header, err := tokens.AuthHeader(ctx)

	require.NoError(t, err)
	assert.Equal(t, "Bearer not-a-jwt", header)
}

func TestTokenStore_ExpiredTokenRefreshedOnce(t *testing.T) {
	ctx := context.Background()
	tokens, store, auth := newTokenStore(t)
	expired := signedToken(t, time.Now().Add(-time.Minute))
	fresh := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, tokens.Set(ctx, expired, "refresh-1"))
	auth.On("Refresh", mock.Anything, "refresh-1").Return(fresh, nil).Once()

	header, err := tokens.AuthHeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+fresh, header)

	// The refreshed token is persisted, so no second refresh happens
	header, err = tokens.AuthHeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+fresh, header)

	raw, ok, err := store.Load(ctx, AccessTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fresh, string(raw))
}

func TestTokenStore_FailedRefreshSignsOut(t *testing.T) {
	ctx := context.Background()
	tokens, store, auth := newTokenStore(t)
	require.NoError(t, tokens.Set(ctx, signedToken(t, time.Now().Add(-time.Minute)), "stale"))
	auth.On("Refresh", mock.Anything, "stale").Return("", errors.New("401")).Once()

	header, err := tokens.AuthHeader(ctx)

	require.NoError(t, err)
	assert.Empty(t, header)
	_, ok, _ := store.Load(ctx, RefreshTokenKey)
	assert.False(t, ok)
}

func TestTokenStore_ExpiryLeeway(t *testing.T) {
	tokens, _, _ := newTokenStore(t)

	assert.True(t, tokens.expired(signedToken(t, time.Now().Add(5*time.Second))))
	assert.False(t, tokens.expired(signedToken(t, time.Now().Add(time.Minute))))
}
