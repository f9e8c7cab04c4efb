package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"light-chat/chat"
)

// ErrInvalidCredentials is the single error shown for any failed login
var ErrInvalidCredentials = errors.New("invalid email or password")

// Authenticator checks a credential pair
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (bool, error)
}

// Static compares against one configured admin account
type Static struct {
	email    string
	password string
	logger   chat.Logger
}

// NewStatic creates an authenticator for the configured admin pair; logger may be nil
func NewStatic(email, password string, logger chat.Logger) *Static {
	if logger == nil {
		logger = discard{}
	}
	return &Static{email: email, password: password, logger: logger}
}

// Configured reports whether both admin values are set
func (s *Static) Configured() bool {
	return s.email != "" && s.password != ""
}

// Authenticate returns true only for an exact match of both values.
// Without configuration every attempt fails.
func (s *Static) Authenticate(_ context.Context, email, password string) (bool, error) {
	s.logger.Info("Login attempt (email provided: %t, password provided: %t)", email != "", password != "")

	if !s.Configured() {
		s.logger.Error("Admin credentials are not configured; rejecting login")
		return false, nil
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	return emailOK && passwordOK, nil
}

// Remote asks a gateway's /api/login route
type Remote struct {
	client *resty.Client
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of /api/login
type LoginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewRemote creates a login client for the gateway at baseURL
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Remote{client: client}
}

// Authenticate posts the pair; a 401 is a plain rejection, other failures are errors
func (r *Remote) Authenticate(ctx context.Context, email, password string) (bool, error) {
	var result LoginResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		SetResult(&result).
		SetError(&result).
		Post("/api/login")
	if err != nil {
		return false, fmt.Errorf("failed to reach gateway: %w", err)
	}

	switch {
	case resp.StatusCode() == 401:
		return false, nil
	case resp.IsError():
		return false, fmt.Errorf("login failed (status %d)", resp.StatusCode())
	}
	return result.Success, nil
}

type discard struct{}

func (discard) Info(string, ...interface{})  {}
func (discard) Warn(string, ...interface{})  {}
func (discard) Error(string, ...interface{}) {}
