package domain

import (
	"fmt"
	"strings"
)

// Role is the access class carried by a session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a raw claim or response field into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// RoleSource selects where the role of a session comes from. A deployment uses
// exactly one of them.
type RoleSource string

const (
	// RoleSourceClaim decodes the role from the token payload.
	RoleSourceClaim RoleSource = "claim"
	// RoleSourceField trusts the role field returned by the login endpoint and
	// persists it next to the token.
	RoleSourceField RoleSource = "field"
)

// ParseRoleSource validates a configured role source.
func ParseRoleSource(s string) (RoleSource, error) {
	switch RoleSource(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSourceClaim, "":
		return RoleSourceClaim, nil
	case RoleSourceField:
		return RoleSourceField, nil
	default:
		return "", fmt.Errorf("unknown role source %q", s)
	}
}

// Session is the authenticated state of the client. The zero value is the
// unauthenticated session.
type Session struct {
	token    string
	role     Role
	username string
}

// NewSession builds a session for a token. An empty token yields the
// unauthenticated session regardless of role.
func NewSession(token string, role Role, username string) Session {
	if token == "" {
		return Session{}
	}
	return Session{token: token, role: role, username: username}
}

// Token returns the bearer token, or "" when logged out.
func (s Session) Token() string { return s.token }

// Role is meaningful only while a token is present.
func (s Session) Role() Role {
	if s.token == "" {
		return ""
	}
	return s.role
}

// Username is the account name the session was established for, when known.
func (s Session) Username() string {
	if s.token == "" {
		return ""
	}
	return s.username
}

// IsLoggedIn reports whether the session carries a token.
func (s Session) IsLoggedIn() bool { return s.token != "" }

// CanManageSlots gates the admin views (create/delete). The server remains the
// authority; this only decides what the UI offers.
func (s Session) CanManageSlots() bool { return s.Role() == RoleAdmin }
