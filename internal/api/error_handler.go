package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/api/metrics"
	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindBadRequest:          http.StatusBadRequest,
	domain.KindNotFound:            http.StatusNotFound,
	domain.KindAuthentication:      http.StatusUnauthorized,
	domain.KindAuthorization:       http.StatusForbidden,
	domain.KindResourcePersistence: http.StatusConflict,
	domain.KindConflict:            http.StatusConflict,
	domain.KindInternal:            http.StatusInternalServerError,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"status": <code>, "error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		metrics.ErrorsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
		_ = c.JSON(code, errorResponse{Status: code, Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var de *domain.Error
	if errors.As(err, &de) {
		if code, ok := kindStatus[de.Kind]; ok {
			if code == http.StatusInternalServerError {
				log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("internal error")
			}
			return code, de.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
