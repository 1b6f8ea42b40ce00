// Package backend is the server side of the parking API: accounts, tokens and
// the slot ledger behind the HTTP handlers.
package backend

import (
	"time"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// User is a registered account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         domain.Role
	CreatedAt    time.Time
}

// Slot is a stored slot. BookerID is the account that holds the booking.
type Slot struct {
	domain.Slot
	BookerID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   string
	Username string
	Role     domain.Role
}

// IsAdmin reports whether the caller may manage slots.
func (p Principal) IsAdmin() bool { return p.Role == domain.RoleAdmin }
