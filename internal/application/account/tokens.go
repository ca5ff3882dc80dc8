package account

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/snackhack/client/internal/ports/outbound"
	"go.uber.org/zap"
)

// Keys the tokens are persisted under
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// expiryLeeway treats tokens about to expire as already expired.
const expiryLeeway = 10 * time.Second

// TokenStore keeps the token pair in the persisted store and hands out
// Authorization headers. An access token whose exp claim has passed is
// refreshed once before use.
type TokenStore struct {
	store  outbound.PersistedStore
	auth   outbound.AuthService
	logger *zap.Logger
	now    func() time.Time
	parser *jwt.Parser

	mu sync.Mutex
}

var _ outbound.AuthHeaderProvider = (*TokenStore)(nil)

// NewTokenStore creates a token store
func NewTokenStore(store outbound.PersistedStore, auth outbound.AuthService, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStore{
		store:  store,
		auth:   auth,
		logger: logger.Named("tokens"),
		now:    time.Now,
		parser: jwt.NewParser(),
	}
}

// AuthHeader returns "Bearer <token>" or "" when nobody is signed in
func (t *TokenStore) AuthHeader(ctx context.Context) (string, error) {
	token, err := t.Access(ctx)
	if err != nil || token == "" {
		return "", err
	}
	return "Bearer " + token, nil
}

// Access returns a usable access token, refreshing an expired one. It
// returns "" when there is no token or the refresh failed.
func (t *TokenStore) Access(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	access, err := t.load(ctx, AccessTokenKey)
	if err != nil || access == "" {
		return "", err
	}
	if !t.expired(access) {
		return access, nil
	}

	refresh, err := t.load(ctx, RefreshTokenKey)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		t.logger.Debug("Access token expired and no refresh token stored")
		return "", t.store.Clear(ctx, AccessTokenKey)
	}

	fresh, err := t.auth.Refresh(ctx, refresh)
	if err != nil || fresh == "" {
		t.logger.Warn("Token refresh failed, continuing signed out", zap.Error(err))
		return "", t.store.Clear(ctx, AccessTokenKey, RefreshTokenKey)
	}
	if err := t.store.Save(ctx, AccessTokenKey, []byte(fresh)); err != nil {
		return "", err
	}
	t.logger.Debug("Access token refreshed")
	return fresh, nil
}

// Set stores a new token pair
func (t *TokenStore) Set(ctx context.Context, access, refresh string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Save(ctx, AccessTokenKey, []byte(access)); err != nil {
		return err
	}
	return t.store.Save(ctx, RefreshTokenKey, []byte(refresh))
}

// Clear forgets both tokens
func (t *TokenStore) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Clear(ctx, AccessTokenKey, RefreshTokenKey)
}

func (t *TokenStore) load(ctx context.Context, key string) (string, error) {
	raw, ok, err := t.store.Load(ctx, key)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

// expired reads the exp claim without verifying the signature; the server
// verifies. Tokens without a readable exp are assumed valid.
func (t *TokenStore) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := t.parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(t.now().Add(expiryLeeway))
}
