package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/infrastructure/token"
	appmiddleware "cradle-gate/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestMeHandler(t *testing.T) {
	t.Run("stored role and lagging session role", func(t *testing.T) {
		f := newFixture(t)
		f.mountAPI(false)
		f.store.set(testUserID, domain.RoleRetail)

		rec := f.do(http.MethodGet, "/api/me", withSession(testCookie))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"`+testUserID+`","email":"`+testEmail+`","role":"retail"}`, rec.Body.String())
	})

	t.Run("session role from claims", func(t *testing.T) {
		f := newFixture(t)
		f.mountAPI(false)
		f.store.set(testUserID, domain.RoleRetail)

		rec := f.do(http.MethodGet, "/api/me",
			withSession(testCookie),
			withClaims(f.claimsFor(t, testUserID, domain.RoleRetail)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp meResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "retail", resp.Role)
		assert.Equal(t, "retail", resp.SessionRole)
	})

	t.Run("no role yet", func(t *testing.T) {
		f := newFixture(t)
		f.mountAPI(false)

		rec := f.do(http.MethodGet, "/api/me", withSession(testCookie))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"`+testUserID+`","email":"`+testEmail+`"}`, rec.Body.String())
	})

	t.Run("without session", func(t *testing.T) {
		f := newFixture(t)
		f.mountAPI(false)

		rec := f.do(http.MethodGet, "/api/me")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("role store down", func(t *testing.T) {
		f := newFixture(t)
		f.mountAPI(false)
		f.store.failGets(domain.ErrRoleStoreUnavailable)

		rec := f.do(http.MethodGet, "/api/me", withSession(testCookie))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestSessionHandler_Refresh(t *testing.T) {
	f := newFixture(t)
	f.mountAPI(false)
	f.store.set(testUserID, domain.RoleInstitutional)

	rec := f.do(http.MethodPost, "/api/session/refresh", withSession(testCookie))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp refreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "institutional", resp.Role)
	assert.False(t, resp.ExpiresAt.IsZero())

	cookie := findCookie(rec, token.ClaimsCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, resp.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)

	claims, err := f.codec.ReadClaims(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.Subject)
	assert.Equal(t, domain.RoleInstitutional, claims.Role)
}

func TestSessionHandler_RefreshThenMe(t *testing.T) {
	f := newFixture(t)
	f.mountAPI(false)

	rec := f.do(http.MethodPost, "/api/role", withSession(testCookie), withJSON(`{"role":"retail"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/session/refresh", withSession(testCookie))
	require.Equal(t, http.StatusOK, rec.Code)
	claims := findCookie(rec, token.ClaimsCookieName)
	require.NotNil(t, claims)

	rec = f.do(http.MethodGet, "/api/me", withSession(testCookie), withClaims(claims.Value))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "retail", resp.SessionRole)
}

func TestSessionHandler_Handle(t *testing.T) {
	f := newFixture(t)
	f.mountAPI(false)
	f.store.set(testUserID, domain.RoleRetail)

	rec := f.do(http.MethodGet, "/session", withSession(testCookie))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, testUserID, resp.User.ID)
	assert.Equal(t, testEmail, resp.User.Email)
	assert.Equal(t, "retail", resp.User.Role)
	assert.True(t, resp.Session.Active)
	assert.NotContains(t, rec.Body.String(), testCookie)
	assert.NotNil(t, findCookie(rec, token.ClaimsCookieName))
}

func TestSessionHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		opts     []requestOption
		wantCode int
	}{
		{"no cookie", nil, http.StatusUnauthorized},
		{"rejected session", []requestOption{withSession("forged")}, http.StatusUnauthorized},
		{"identity provider down", []requestOption{withSession(testDownCookie)}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mountAPI(false)

			rec := f.do(http.MethodPost, "/api/session/refresh", tt.opts...)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Nil(t, findCookie(rec, token.ClaimsCookieName))
		})
	}
}

func TestCSRFHandler(t *testing.T) {
	t.Run("token verifies for the session", func(t *testing.T) {
		f := newFixture(t)
		f.mountAPI(false)

		rec := f.do(http.MethodPost, "/csrf", withSession(testCookie))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp csrfResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NoError(t, f.csrf.Verify(testCookie, resp.Data.CSRFToken))
	})

	t.Run("without session", func(t *testing.T) {
		f := newFixture(t)
		f.mountAPI(false)

		rec := f.do(http.MethodPost, "/csrf")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejected session", func(t *testing.T) {
		f := newFixture(t)
		f.mountAPI(false)

		rec := f.do(http.MethodPost, "/csrf", withSession("forged"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	serve := func(h *HealthHandler) *httptest.ResponseRecorder {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
		require.NoError(t, h.Handle(c))
		return rec
	}

	t.Run("no checks", func(t *testing.T) {
		rec := serve(NewHealthHandler())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	})

	t.Run("all checks pass", func(t *testing.T) {
		rec := serve(NewHealthHandler(
			HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
			HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }},
		))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy","checks":{"postgres":"ok","redis":"ok"}}`, rec.Body.String())
	})

	t.Run("failing check", func(t *testing.T) {
		rec := serve(NewHealthHandler(
			HealthCheck{Name: "postgres", Check: func(context.Context) error { return errors.New("connection refused") }},
			HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }},
		))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"unhealthy","checks":{"postgres":"fail","redis":"ok"}}`, rec.Body.String())
	})
}

func TestInternalHandler_IdentityRole(t *testing.T) {
	const secret = "support-secret"

	tests := []struct {
		name     string
		setup    func(s *fakeRoleStore)
		header   string
		wantCode int
		wantBody string
	}{
		{
			name:     "stored role",
			setup:    func(s *fakeRoleStore) { s.set(testUserID, domain.RoleInstitutional) },
			header:   secret,
			wantCode: http.StatusOK,
			wantBody: `{"identity_id":"` + testUserID + `","role":"institutional"}`,
		},
		{
			name:     "no role",
			setup:    func(s *fakeRoleStore) {},
			header:   secret,
			wantCode: http.StatusOK,
			wantBody: `{"identity_id":"` + testUserID + `","role":""}`,
		},
		{
			name:     "unknown identity",
			setup:    func(s *fakeRoleStore) { s.failGets(domain.ErrIdentityNotFound) },
			header:   secret,
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"identity not found"}`,
		},
		{
			name:     "wrong secret",
			setup:    func(s *fakeRoleStore) {},
			header:   "guess",
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f.store)
			f.e.GET("/internal/identities/:id/role",
				NewInternalHandler(f.resolver).HandleIdentityRole,
				appmiddleware.InternalAuth(secret))

			rec := f.do(http.MethodGet, "/internal/identities/"+testUserID+"/role",
				withHeader(appmiddleware.InternalAuthHeader, tt.header))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
