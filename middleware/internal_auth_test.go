package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestInternalAuth(t *testing.T) {
	const secret = "support-tooling-shared-secret"

	tests := []struct {
		name     string
		secret   string
		header   string
		expected int
	}{
		{"valid secret", secret, secret, http.StatusOK},
		{"missing header", secret, "", http.StatusUnauthorized},
		{"wrong secret", secret, "nope", http.StatusForbidden},
		{"prefix of secret", secret, secret[:10], http.StatusForbidden},
		{"disabled without secret", "", "anything", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(InternalAuth(tt.secret))
			e.GET("/internal/test", func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})

			req := httptest.NewRequest(http.MethodGet, "/internal/test", nil)
			if tt.header != "" {
				req.Header.Set(InternalAuthHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}
