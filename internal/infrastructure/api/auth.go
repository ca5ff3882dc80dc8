package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/snackhack/client/internal/domain/user"
	"github.com/snackhack/client/internal/ports/outbound"
	apperrors "github.com/snackhack/client/pkg/errors"
)

type loginRequest struct {
	EmailOrUsername string `json:"email_or_username"`
	Password        string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokensResponse struct {
	Message string              `json:"message"`
	Tokens  *outbound.TokenPair `json:"tokens"`
	Error   string              `json:"error,omitempty"`
}

type refreshResponse struct {
	AccessToken string    `json:"access_token"`
	User        user.User `json:"user"`
}

type profileResponse struct {
	User user.User `json:"user"`
}

// Login authenticates a user with the API
func (c *Client) Login(ctx context.Context, emailOrUsername, password string) (*outbound.TokenPair, error) {
	var resp tokensResponse
	err := c.postJSON(ctx, EndpointLogin, c.authURL(EndpointLogin), loginRequest{
		EmailOrUsername: emailOrUsername,
		Password:        password,
	}, &resp, false)
	if err != nil {
		return nil, err
	}
	return tokensOrError(resp, "login")
}

// Register creates a new user account and returns its tokens
func (c *Client) Register(ctx context.Context, username, email, password string) (*outbound.TokenPair, error) {
	var resp tokensResponse
	err := c.postJSON(ctx, EndpointRegister, c.authURL(EndpointRegister), registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &resp, false)
	if err != nil {
		return nil, err
	}
	return tokensOrError(resp, "registration")
}

// The backend answers 201 without tokens when the account was created but
// token issuing failed.
func tokensOrError(resp tokensResponse, action string) (*outbound.TokenPair, error) {
	if resp.Tokens == nil || resp.Tokens.AccessToken == "" {
		details := resp.Error
		if details == "" {
			details = "no tokens in response"
		}
		return nil, apperrors.NewAppError(apperrors.CodeExternalServiceError, fmt.Sprintf("%s failed", action), details)
	}
	return resp.Tokens, nil
}

// Refresh exchanges a refresh token for a new access token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp refreshResponse
	err := c.do(ctx, call{
		endpoint: EndpointRefresh,
		method:   http.MethodPost,
		url:      c.authURL(EndpointRefresh),
		bearer:   refreshToken,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", apperrors.NewUnauthorizedError("refresh returned no access token")
	}
	return resp.AccessToken, nil
}

// Profile gets the current user's profile
func (c *Client) Profile(ctx context.Context, accessToken string) (*user.User, error) {
	var resp profileResponse
	err := c.do(ctx, call{
		endpoint: EndpointProfile,
		method:   http.MethodGet,
		url:      c.authURL(EndpointProfile),
		bearer:   accessToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// UpdateProfile writes profile preferences and returns the updated user
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, update user.ProfileUpdate) (*user.User, error) {
	jsonBody, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp profileResponse
	err = c.do(ctx, call{
		endpoint: EndpointProfile,
		method:   http.MethodPut,
		url:      c.authURL(EndpointProfile),
		body:     bytes.NewReader(jsonBody),
		bearer:   accessToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}
