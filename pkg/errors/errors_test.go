package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NewAppError(CodeNotFound, "Recipe not found", "id 42")
	assert.Equal(t, "NOT_FOUND: Recipe not found (id 42)", err.Error())

	err = NewAppError(CodeInternal, "boom", "")
	assert.Equal(t, "INTERNAL_ERROR: boom", err.Error())
}

func TestIs_SeesThroughWrapping(t *testing.T) {
	base := NewGuardError(CodeCooldownActive, "wait")
	wrapped := fmt.Errorf("requesting recipes: %w", base)

	assert.True(t, Is(wrapped, CodeCooldownActive))
	assert.False(t, Is(wrapped, CodeGuardRejected))
	assert.Equal(t, CodeCooldownActive, GetCode(wrapped))
	assert.Equal(t, CodeInternal, GetCode(fmt.Errorf("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))

	appErr := NewUnauthorizedError("")
	assert.Same(t, appErr, Wrap(appErr, "ignored"))

	wrapped := Wrap(fmt.Errorf("disk full"), "saving state")
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.EqualError(t, wrapped.Unwrap(), "disk full")
}

func TestBlocking(t *testing.T) {
	assert.False(t, NewGuardError(CodeGuardRejected, "").Blocking())
	assert.False(t, NewGuardError(CodeRequestInFlight, "").Blocking())
	assert.True(t, NewExternalServiceError("recipes", fmt.Errorf("timeout")).Blocking())
}

func TestFromStatus(t *testing.T) {
	cases := map[int]ErrorCode{
		http.StatusBadRequest:          CodeBadRequest,
		http.StatusUnauthorized:        CodeUnauthorized,
		http.StatusForbidden:           CodeForbidden,
		http.StatusNotFound:            CodeNotFound,
		http.StatusTooManyRequests:     CodeTooManyRequests,
		http.StatusServiceUnavailable:  CodeServiceUnavailable,
		http.StatusBadGateway:          CodeExternalServiceError,
		http.StatusUnprocessableEntity: CodeValidationFailed,
	}
	for status, want := range cases {
		assert.Equal(t, want, FromStatus(status), "status %d", status)
	}
}

func TestToErrorResponse_QuotaCarriesLimit(t *testing.T) {
	resp := ToErrorResponse(NewQuotaExceededError("favourite recipes", 10))
	assert.Equal(t, 10, resp.MaxFavourites)
	assert.Equal(t, string(CodeQuotaExceeded), resp.Code)
	assert.Equal(t, http.StatusForbidden, NewQuotaExceededError("x", 1).StatusCode())
}
