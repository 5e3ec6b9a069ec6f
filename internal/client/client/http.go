package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HTTPClient talks JSON to the API and keeps the token pair in memory.
// It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) tokens() tokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return tokenPair{AccessToken: c.accessToken, RefreshToken: c.refreshToken}
}

func (c *HTTPClient) setTokens(p tokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = p.AccessToken
	c.refreshToken = p.RefreshToken
}

func (c *HTTPClient) LoggedIn() bool {
	return c.tokens().AccessToken != ""
}

// Logout forgets the token pair.
func (c *HTTPClient) Logout() {
	c.setTokens(tokenPair{})
}

func (c *HTTPClient) Register(ctx context.Context, email, password, name string) error {
	var p tokenPair
	body := map[string]string{"email": email, "password": password, "name": name}
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &p); err != nil {
		return err
	}
	c.setTokens(p)
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	var p tokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &p); err != nil {
		return err
	}
	c.setTokens(p)
	return nil
}

// Refresh exchanges the stored refresh token for a new pair.
func (c *HTTPClient) Refresh(ctx context.Context) error {
	current := c.tokens()
	if current.RefreshToken == "" {
		return ErrNotLoggedIn
	}

	var p tokenPair
	body := map[string]string{"refreshToken": current.RefreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", body, &p); err != nil {
		return err
	}
	c.setTokens(p)
	return nil
}

// Me returns the caller's profile. A 401 triggers one refresh and retry.
func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	current := c.tokens()
	if current.AccessToken == "" {
		return nil, ErrNotLoggedIn
	}

	var u User
	err := c.do(ctx, http.MethodGet, "/users/me", current.AccessToken, nil, &u)
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, ErrUnauthorized) || current.RefreshToken == "" {
		return nil, err
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	if err := c.do(ctx, http.MethodGet, "/users/me", c.tokens().AccessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		p := &ProblemError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(resp.Body).Decode(p)
		p.Status = resp.StatusCode
		return p
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
