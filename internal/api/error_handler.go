package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known backend errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, wire.ErrorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, backend.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, backend.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, backend.ErrUserExists):
		return http.StatusBadRequest, "user already exists"
	case errors.Is(err, backend.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, backend.ErrSlotExists):
		return http.StatusBadRequest, "slot number already exists"
	case errors.Is(err, backend.ErrSlotNotFound):
		return http.StatusNotFound, "slot not found"
	case errors.Is(err, backend.ErrSlotBooked):
		return http.StatusConflict, "slot already booked"
	case errors.Is(err, backend.ErrSlotNotBooked):
		return http.StatusBadRequest, "slot is not booked"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
