package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ers-app/reimbursement-api/internal/api/middleware"
	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// principalOf returns the principal injected by the Auth middleware.
func principalOf(c echo.Context) (*domain.Principal, error) {
	p, _ := c.Get(middleware.ContextPrincipal).(*domain.Principal)
	if p == nil {
		return nil, domain.NewError(domain.KindAuthentication, "no session found, please log in")
	}
	return p, nil
}

// intParam parses a numeric path parameter. Anything that is not an integer
// yields 0, which the services reject as an invalid id.
func intParam(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0
	}
	return n
}
