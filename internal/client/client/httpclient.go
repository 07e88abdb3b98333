package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
)

const apiPrefix = "/api/auth"

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Token returns the current session token, or "" when logged out.
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Signup returns the server message on success.
func (c *HTTPClient) Signup(ctx context.Context, name, email, password string) (string, error) {
	var out envelope
	err := c.do(ctx, http.MethodPost, "/signup", map[string]string{
		"name": name, "email": email, "password": password,
	}, false, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// Login stores the session token on success.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*User, error) {
	var out envelope
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"email": email, "password": password,
	}, false, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

// SendCode returns how long the new code stays valid.
func (c *HTTPClient) SendCode(ctx context.Context, email string) (time.Duration, error) {
	var out envelope
	if err := c.do(ctx, http.MethodPost, "/send-otp", map[string]string{"email": email}, false, &out); err != nil {
		return 0, err
	}
	return time.Duration(out.ExpiresIn) * time.Second, nil
}

// VerifyCode stores the session token on success.
func (c *HTTPClient) VerifyCode(ctx context.Context, email, code string) (*User, error) {
	var out envelope
	err := c.do(ctx, http.MethodPost, "/verify-otp", map[string]string{
		"email": email, "otp": code,
	}, false, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out envelope
	if err := c.do(ctx, http.MethodPost, "/forgot-password", map[string]string{"email": email}, false, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var out envelope
	err := c.do(ctx, http.MethodPost, "/reset-password", map[string]string{
		"token": token, "new_password": newPassword,
	}, false, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var out envelope
	if err := c.do(ctx, http.MethodGet, "/me", nil, true, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in any, authed bool, out *envelope) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if authed {
		token := c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !out.Success {
		return &APIError{
			Status:               resp.StatusCode,
			Message:              out.Message,
			RequiresVerification: out.RequiresOTPVerification,
			Email:                out.Email,
		}
	}
	return nil
}
