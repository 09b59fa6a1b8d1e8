package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// Context keys set by Auth.
const (
	ContextPrincipal = "principal"
	ContextSessionID = "session_id"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "ers_session"

// SessionResolver maps a session token to its principal.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Principal, string, error)
}

// Auth resolves the session token from the Authorization header or the
// session cookie and injects the principal into the context.
func Auth(sessions SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := sessionToken(c)
			if err != nil {
				return err
			}

			principal, sid, err := sessions.Resolve(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(ContextPrincipal, principal)
			c.Set(ContextSessionID, sid)

			return next(c)
		}
	}
}

// sessionToken prefers the Authorization header over the cookie.
func sessionToken(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", domain.NewError(domain.KindAuthentication, "invalid authorization header")
		}
		return parts[1], nil
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", domain.NewError(domain.KindAuthentication, "no session found, please log in")
}

// OptionalAuth behaves like Auth but lets anonymous requests through.
func OptionalAuth(sessions SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, err := sessionToken(c); err == nil {
				if principal, sid, err := sessions.Resolve(c.Request().Context(), token); err == nil {
					c.Set(ContextPrincipal, principal)
					c.Set(ContextSessionID, sid)
				}
			}
			return next(c)
		}
	}
}
