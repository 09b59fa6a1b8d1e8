package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ers-app/reimbursement-api/internal/api/metrics"
	"github.com/ers-app/reimbursement-api/internal/api/middleware"
	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	sessionTTL   time.Duration
	cookieSecure bool
}

func NewAuthHandler(authService ports.AuthService, sessionTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, sessionTTL: sessionTTL, cookieSecure: cookieSecure}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	Principal *domain.Principal `json:"principal"`
}

// Login authenticates a user and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /auth [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewError(domain.KindBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, principal, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	c.SetCookie(h.cookie(token, int(h.sessionTTL.Seconds())))
	return c.JSON(http.StatusOK, loginResponse{Token: token, Principal: principal})
}

// Logout closes the current session, if any.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid, _ := c.Get(middleware.ContextSessionID).(string); sid != "" {
		if err := h.authService.Logout(c.Request().Context(), sid); err != nil {
			return err
		}
	}

	c.SetCookie(h.cookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
