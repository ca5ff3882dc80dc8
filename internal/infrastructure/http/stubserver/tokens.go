package stubserver

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds carried in the "type" claim
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var errWrongKind = errors.New("token has the wrong type")

type claims struct {
	Kind string `json:"type"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies HS256 tokens
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

func newTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(now),
		),
	}
}

func (t *tokenIssuer) issue(userID int64, kind string) (string, error) {
	ttl := t.accessTTL
	if kind == KindRefresh {
		ttl = t.refreshTTL
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (t *tokenIssuer) pair(userID int64) (access, refresh string, err error) {
	if access, err = t.issue(userID, KindAccess); err != nil {
		return "", "", err
	}
	if refresh, err = t.issue(userID, KindRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify implements middleware.TokenVerifier
func (t *tokenIssuer) Verify(token, kind string) (int64, error) {
	var c claims
	if _, err := t.parser.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}); err != nil {
		return 0, err
	}
	if c.Kind != kind {
		return 0, errWrongKind
	}
	return strconv.ParseInt(c.Subject, 10, 64)
}
