package ports

import (
	"context"
	"errors"
)

var (
	// ErrNoStoredSession is returned by Load when nothing has been persisted.
	ErrNoStoredSession = errors.New("no stored session")
	// ErrCorruptSession is returned by Load when the persisted record cannot be read back.
	ErrCorruptSession = errors.New("corrupt stored session")
)

// StoredSession is the persisted record, keyed by fixed names ("token", "role").
// Role is only written when the role source is the login response field.
// Username is informational and never used for authorization.
type StoredSession struct {
	Token    string `json:"token"`
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
}

// SessionStore is durable local storage for the session. Only the session
// service reads or writes it.
type SessionStore interface {
	Load(ctx context.Context) (StoredSession, error)
	Save(ctx context.Context, s StoredSession) error
	Clear(ctx context.Context) error
}
