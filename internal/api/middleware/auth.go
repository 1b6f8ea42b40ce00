package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/api/handler"
)

// TokenVerifier turns a bearer token into the caller it was issued to.
type TokenVerifier interface {
	Verify(token string) (backend.Principal, error)
}

// Auth validates the bearer token and injects the caller into context.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			p, err := verifier.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(handler.CtxUserID, p.UserID)
			c.Set(handler.CtxUsername, p.Username)
			c.Set(handler.CtxRole, string(p.Role))

			return next(c)
		}
	}
}
