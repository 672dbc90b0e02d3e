package handler

import (
	"net/http"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// CSRFHandler issues the token POST /api/role expects in X-CSRF-Token.
type CSRFHandler struct {
	uc *usecase.GenerateCSRF
}

func NewCSRFHandler(uc *usecase.GenerateCSRF) *CSRFHandler {
	return &CSRFHandler{uc: uc}
}

type csrfResponse struct {
	Data struct {
		CSRFToken string `json:"csrf_token"`
	} `json:"data"`
}

// Handle handles POST /csrf. The token is an HMAC of the session cookie,
// so it stays valid for as long as the session does.
func (h *CSRFHandler) Handle(c echo.Context) error {
	cookie := sessionCookie(c)
	if cookie == "" {
		return mapDomainError(domain.ErrNoSession)
	}

	token, err := h.uc.Execute(c.Request().Context(), cookie)
	if err != nil {
		return mapDomainError(err)
	}

	var resp csrfResponse
	resp.Data.CSRFToken = token
	return c.JSON(http.StatusOK, resp)
}
