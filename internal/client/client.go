// Package client talks to cradle-gate on behalf of a signed-in user. It
// implements confirm.Session so the CLI can drive role selection.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cradle-gate/internal/domain"
)

const (
	sessionCookieName = "ory_kratos_session"
	claimsCookieName  = "cradle_claims"
	csrfHeader        = "X-CSRF-Token"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// APIError is a non-2xx answer from the gate.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gate returned %d", e.Status)
	}
	return fmt.Sprintf("gate returned %d: %s", e.Status, e.Message)
}

// Unwrap maps the status back to the domain error the gate reported.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrNoSession
	case http.StatusBadRequest:
		return domain.ErrInvalidRole
	case http.StatusForbidden:
		return domain.ErrCSRFMismatch
	case http.StatusNotFound:
		return domain.ErrIdentityNotFound
	case http.StatusConflict:
		return domain.ErrRoleAlreadySet
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		if strings.Contains(e.Message, "role store") {
			return domain.ErrRoleStoreUnavailable
		}
		return domain.ErrKratosUnavailable
	default:
		return nil
	}
}

// Profile is the body of GET /api/me.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	SessionRole string `json:"session_role,omitempty"`
}

// SessionToken is the body of POST /api/session/refresh.
type SessionToken struct {
	Token     string    `json:"token"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client calls the gate API with a Kratos session cookie. The claims token
// from the last refresh is kept in memory and sent back on later calls.
type Client struct {
	base    *url.URL
	session string
	http    *http.Client
	logger  *slog.Logger

	mu     sync.Mutex
	claims string
}

// New creates a client for the gate at baseURL.
func New(baseURL, sessionCookie string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gate url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid gate url %q: scheme and host required", baseURL)
	}
	if sessionCookie == "" {
		return nil, domain.ErrNoSession
	}

	c := &Client{
		base:    u,
		session: sessionCookie,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL resolves path against the gate address.
func (c *Client) URL(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

// CSRF obtains a CSRF token bound to the session.
func (c *Client) CSRF(ctx context.Context) (string, error) {
	var resp struct {
		Data struct {
			CSRFToken string `json:"csrf_token"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/csrf", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Data.CSRFToken, nil
}

// AssignRole submits the caller's role. A CSRF token is attached when the
// gate issues one; a gate without CSRF configured answers /csrf with 5xx
// and the assignment goes out without the header.
func (c *Client) AssignRole(ctx context.Context, role domain.Role) (domain.Role, error) {
	headers := http.Header{}
	token, err := c.CSRF(ctx)
	var apiErr *APIError
	switch {
	case err == nil:
		headers.Set(csrfHeader, token)
	case errors.As(err, &apiErr) && apiErr.Status >= http.StatusInternalServerError:
		c.logger.DebugContext(ctx, "gate issued no csrf token", "status", apiErr.Status)
	default:
		return "", err
	}

	var resp struct {
		Success bool   `json:"success"`
		Role    string `json:"role"`
	}
	body := map[string]string{"role": role.String()}
	if err := c.do(ctx, http.MethodPost, "/api/role", headers, body, &resp); err != nil {
		return "", err
	}
	assigned, err := domain.ParseRole(resp.Role)
	if err != nil {
		return "", fmt.Errorf("gate answered with role %q: %w", resp.Role, err)
	}
	return assigned, nil
}

// Refresh asks the gate for new session claims and keeps the token.
func (c *Client) Refresh(ctx context.Context) (SessionToken, error) {
	var tok SessionToken
	if err := c.do(ctx, http.MethodPost, "/api/session/refresh", nil, nil, &tok); err != nil {
		return SessionToken{}, err
	}
	c.mu.Lock()
	c.claims = tok.Token
	c.mu.Unlock()
	return tok, nil
}

// RefreshSession implements confirm.Session.
func (c *Client) RefreshSession(ctx context.Context) error {
	_, err := c.Refresh(ctx)
	return err
}

// Me returns the caller's profile.
func (c *Client) Me(ctx context.Context) (Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// CurrentRole returns the role carried by the session claims, which is what
// the gate decides on. Unknown values read as no role.
func (c *Client) CurrentRole(ctx context.Context) (domain.Role, error) {
	p, err := c.Me(ctx)
	if err != nil {
		return domain.RoleNone, err
	}
	role, err := domain.ParseRole(p.SessionRole)
	if err != nil {
		return domain.RoleNone, nil
	}
	return role, nil
}

func (c *Client) do(ctx context.Context, method, path string, headers http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.session})
	c.mu.Lock()
	if c.claims != "" {
		req.AddCookie(&http.Cookie{Name: claimsCookieName, Value: c.claims})
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	c.logger.DebugContext(ctx, "gate call", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
