package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/fcastdev/fcast-cli/internal/domain"
)

type LoginRequest struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterRequest struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// AuthResult is the decoded login/registration envelope: a fresh token pair
// plus the server's user record.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
}

type tokensPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Chips       int64  `json:"chips"`
	IsAdmin     bool   `json:"is_admin"`
}

type authPayload struct {
	Tokens tokensPayload `json:"tokens"`
	User   userPayload   `json:"user"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", req)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (AuthResult, error) {
	var payload authPayload
	if err := c.postJSONOnce(ctx, path, body, &payload); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return AuthResult{}, fmt.Errorf("%w: %s", domain.ErrCredentialsRejected, statusErr.Error())
		}
		return AuthResult{}, err
	}

	if payload.Tokens.AccessToken == "" || payload.Tokens.RefreshToken == "" || payload.User.ID == "" {
		return AuthResult{}, errors.New("auth response missing required fields")
	}

	return AuthResult{
		AccessToken:  payload.Tokens.AccessToken,
		RefreshToken: payload.Tokens.RefreshToken,
		User:         payload.User.toDomain(),
	}, nil
}

// Refresh exchanges the refresh token for a new access token. The refresh
// token itself is not rotated by this endpoint.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.postJSONOnce(ctx, "/auth/refresh", body, &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("refresh response missing access token")
	}
	return payload.AccessToken, nil
}

// Profile fetches the user record; the session manager uses it to validate
// a persisted access token on bootstrap.
func (c *Client) Profile(ctx context.Context, id domain.UserID) (domain.User, error) {
	var payload struct {
		User userPayload `json:"user"`
	}
	if err := c.getJSON(ctx, "/users/"+string(id), nil, &payload); err != nil {
		return domain.User{}, err
	}
	if payload.User.ID == "" {
		return domain.User{}, errors.New("profile response missing user")
	}
	return payload.User.toDomain(), nil
}

func (u userPayload) toDomain() domain.User {
	return domain.User{
		ID:          domain.UserID(u.ID),
		DisplayName: u.DisplayName,
		Chips:       u.Chips,
		IsAdmin:     u.IsAdmin,
	}
}
