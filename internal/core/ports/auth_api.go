package ports

import (
	"context"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// LoginResult is what the authentication endpoint returns on success.
// Role is the raw side-channel field and may be empty.
type LoginResult struct {
	Token string
	Role  string
}

// AuthAPI exchanges credentials with the remote authentication endpoints.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	Register(ctx context.Context, username, password string, role domain.Role) error
}
