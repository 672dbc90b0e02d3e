package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/infrastructure/cache"
	"cradle-gate/internal/infrastructure/token"
	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testUserID      = "11111111-2222-3333-4444-555555555555"
	testEmail       = "trader@example.com"
	testCookie      = "session-abc"
	testDownCookie  = "kratos-down"
	testOtherUserID = "99999999-8888-7777-6666-555555555555"
	testClaimsKey   = "0123456789abcdef0123456789abcdef"
	testCSRFSecret  = "csrf-secret-for-tests"
)

type mockSessionValidator struct {
	mock.Mock
}

func (m *mockSessionValidator) ValidateSession(ctx context.Context, cookie string) (*domain.Identity, error) {
	args := m.Called(ctx, cookie)
	identity, _ := args.Get(0).(*domain.Identity)
	if identity != nil {
		copied := *identity
		identity = &copied
	}
	return identity, args.Error(1)
}

// fakeRoleStore is an in-memory role store with atomic conditional writes.
type fakeRoleStore struct {
	mu     sync.Mutex
	roles  map[string]domain.Role
	getErr error
	setErr error
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{roles: make(map[string]domain.Role)}
}

func (s *fakeRoleStore) GetRole(_ context.Context, identityID string) (domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return domain.RoleNone, s.getErr
	}
	return s.roles[identityID], nil
}

func (s *fakeRoleStore) SetRoleIfAbsent(_ context.Context, identityID string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	if s.roles[identityID].Valid() {
		return domain.ErrRoleAlreadySet
	}
	s.roles[identityID] = role
	return nil
}

func (s *fakeRoleStore) set(identityID string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[identityID] = role
}

func (s *fakeRoleStore) failGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *fakeRoleStore) role(identityID string) domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles[identityID]
}

// fixture wires real usecases around a mocked Kratos and an in-memory store.
type fixture struct {
	e          *echo.Echo
	kratos     *mockSessionValidator
	store      *fakeRoleStore
	routeCache *cache.MemoryRouteCache
	codec      *token.ClaimsCodec
	csrf       *token.CSRFSigner
	routes     *domain.RouteTable

	sessions *usecase.ValidateSession
	resolver *usecase.RoleResolver
	gate     *usecase.AuthorizeRequest
	guard    *usecase.GuardRoute
	assign   *usecase.AssignRole
	session  *usecase.GetSession
	profile  *usecase.GetProfile
	csrfUC   *usecase.GenerateCSRF

	upstreamHits int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	f := &fixture{
		e:          echo.New(),
		kratos:     new(mockSessionValidator),
		store:      newFakeRoleStore(),
		routeCache: cache.NewMemoryRouteCache(cache.DefaultRouteCacheSize, time.Minute),
		codec: token.NewClaimsCodec(token.ClaimsConfig{
			Secret:   testClaimsKey,
			Issuer:   "cradle-gate",
			Audience: "cradle-web",
			TTL:      15 * time.Minute,
		}),
		csrf:   token.NewCSRFSigner(testCSRFSecret),
		routes: domain.DefaultRouteTable(),
	}
	f.e.HTTPErrorHandler = ErrorHandler
	f.e.Validator = NewRequestValidator()

	f.kratos.On("ValidateSession", mock.Anything, usecase.SessionCookieName+"="+testCookie).
		Return(&domain.Identity{UserID: testUserID, Email: testEmail}, nil)
	f.kratos.On("ValidateSession", mock.Anything, usecase.SessionCookieName+"="+testDownCookie).
		Return(nil, domain.ErrKratosUnavailable)
	f.kratos.On("ValidateSession", mock.Anything, mock.Anything).
		Return(nil, domain.ErrAuthFailed)

	f.sessions = usecase.NewValidateSession(f.kratos, cache.NewSessionCache(time.Minute), logger)
	f.resolver = usecase.NewRoleResolver(f.store, time.Second, logger)
	f.gate = usecase.NewAuthorizeRequest(f.sessions, f.codec, f.resolver, f.routes, logger)
	f.guard = usecase.NewGuardRoute(f.resolver, logger)
	f.assign = usecase.NewAssignRole(f.store, f.routeCache, f.routes, logger)
	f.session = usecase.NewGetSession(f.sessions, f.resolver, f.codec, logger)
	f.profile = usecase.NewGetProfile(f.resolver, f.codec, logger)
	f.csrfUC = usecase.NewGenerateCSRF(f.sessions, f.csrf, logger)
	return f
}

// mountPages registers the gated pages in front of a counting upstream that
// echoes the forwarded identity headers.
func (f *fixture) mountPages() {
	RegisterPages(f.e, PageConfig{
		Gate:   f.gate,
		Guard:  f.guard,
		Routes: f.routes,
		Cache:  f.routeCache,
		Upstream: func(c echo.Context) error {
			f.upstreamHits++
			return placeholderPage(c)
		},
	})
}

// mountAPI registers the JSON API the way the server does.
func (f *fixture) mountAPI(requireCSRF bool) {
	f.e.POST("/api/role", NewRoleHandler(f.sessions, f.assign, f.csrfUC, requireCSRF).Assign)
	f.e.GET("/api/me", NewMeHandler(f.sessions, f.profile).Handle)
	sh := NewSessionHandler(f.session, true)
	f.e.GET("/session", sh.Handle)
	f.e.POST("/api/session/refresh", sh.Refresh)
	f.e.POST("/csrf", NewCSRFHandler(f.csrfUC).Handle)
}

type requestOption func(r *http.Request)

func withSession(value string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: usecase.SessionCookieName, Value: value})
	}
}

func withClaims(value string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: token.ClaimsCookieName, Value: value})
	}
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

func withJSON(body string) requestOption {
	return func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader(body))
		r.ContentLength = int64(len(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
}

func (f *fixture) do(method, path string, opts ...requestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

// claimsFor signs claims for the test identity carrying role.
func (f *fixture) claimsFor(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	tok, _, err := f.codec.IssueClaims(&domain.Identity{UserID: userID, SessionID: testCookie}, role)
	require.NoError(t, err)
	return tok
}
