package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := c.Get(ContextPrincipal).(*domain.Principal)
			if p == nil {
				return domain.NewError(domain.KindAuthentication, "no session found, please log in")
			}
			if _, ok := allowed[p.Role]; !ok {
				return domain.NewError(domain.KindAuthorization, "role %s may not access this resource", p.Role)
			}
			return next(c)
		}
	}
}
