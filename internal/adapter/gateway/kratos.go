// Package gateway adapts Ory Kratos to the session and role store ports.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cradle-gate/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

const defaultKratosTimeout = 3 * time.Second

// KratosGateway validates sessions through the Kratos frontend API.
type KratosGateway struct {
	client  *kratos.APIClient
	timeout time.Duration
	now     func() time.Time
}

// newHTTPClient returns the pooled client both Kratos adapters use.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func newAPIClient(baseURL string, hc *http.Client) *kratos.APIClient {
	cfg := kratos.NewConfiguration()
	cfg.Servers = kratos.ServerConfigurations{{URL: baseURL}}
	cfg.HTTPClient = hc
	return kratos.NewAPIClient(cfg)
}

// NewKratosGateway creates a gateway for the frontend API at baseURL.
// A non-positive timeout uses 3s.
func NewKratosGateway(baseURL string, timeout time.Duration) *KratosGateway {
	if timeout <= 0 {
		timeout = defaultKratosTimeout
	}
	return &KratosGateway{
		client:  newAPIClient(baseURL, newHTTPClient(timeout)),
		timeout: timeout,
		now:     time.Now,
	}
}

// ValidateSession calls ToSession with the full cookie header value.
func (g *KratosGateway) ValidateSession(ctx context.Context, cookie string) (*domain.Identity, error) {
	if cookie == "" {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	session, resp, err := g.client.FrontendAPI.ToSession(ctx).Cookie(cookie).Execute()
	if err != nil {
		return nil, sessionError(resp, err)
	}
	return g.identityOf(session)
}

// sessionError sorts a failed ToSession call into rejection or outage.
func sessionError(resp *http.Response, err error) error {
	if resp == nil {
		return fmt.Errorf("%w: %w", domain.ErrKratosUnavailable, err)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuthFailed
	default:
		return fmt.Errorf("%w: kratos returned status %d", domain.ErrKratosUnavailable, resp.StatusCode)
	}
}

func (g *KratosGateway) identityOf(s *kratos.Session) (*domain.Identity, error) {
	switch {
	case s.Active != nil && !*s.Active:
		return nil, domain.ErrSessionInactive
	case s.ExpiresAt != nil && s.ExpiresAt.Before(g.now()):
		return nil, domain.ErrSessionExpired
	case s.Identity == nil:
		return nil, domain.ErrMissingIdentity
	}

	id := &domain.Identity{
		UserID:    s.Identity.Id,
		Email:     traitString(s.Identity.Traits, "email"),
		SessionID: s.Id,
	}
	if s.Identity.CreatedAt != nil {
		id.CreatedAt = *s.Identity.CreatedAt
	}
	return id, nil
}

func traitString(traits any, key string) string {
	m, ok := traits.(map[string]any)
	if !ok {
		return ""
	}
	v, _ := m[key].(string)
	return v
}
