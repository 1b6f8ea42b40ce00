package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/core/domain"
)

// Context keys set by the Auth middleware.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

// ctxPrincipal extracts the caller injected by the Auth middleware. A missing
// user id means the middleware did not run; reject with 401.
func ctxPrincipal(c echo.Context) (backend.Principal, error) {
	userID, _ := c.Get(CtxUserID).(string)
	if userID == "" {
		return backend.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	username, _ := c.Get(CtxUsername).(string)
	role, _ := c.Get(CtxRole).(string)
	return backend.Principal{UserID: userID, Username: username, Role: domain.Role(role)}, nil
}
