package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

// AuthService is the account surface the auth handler needs.
type AuthService interface {
	Register(ctx context.Context, username, password string, role domain.Role) (*backend.User, error)
	Login(ctx context.Context, username, password string) (string, *backend.User, error)
}

type AuthHandler struct {
	authService AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account. POST /register
func (h *AuthHandler) Register(c echo.Context) error {
	var req wire.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.authService.Register(c.Request().Context(), req.Username, req.Password, domain.Role(req.Role)); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, wire.MessageResponse{Message: "user registered"})
}

// Login authenticates a user and returns a signed token and the role.
// POST /login
func (h *AuthHandler) Login(c echo.Context) error {
	var req wire.Credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wire.LoginResponse{Token: token, Role: string(user.Role)})
}
