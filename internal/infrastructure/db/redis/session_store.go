package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/parkspace/parking-client/internal/core/ports"
)

// DefaultKeyPrefix namespaces the session keys.
const DefaultKeyPrefix = "parkctl:session:"

// SessionStore persists the session as three string keys:
// <prefix>token, <prefix>role and <prefix>username.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore wraps client. An empty prefix selects DefaultKeyPrefix.
func NewSessionStore(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) keys() (token, role, username string) {
	return s.prefix + "token", s.prefix + "role", s.prefix + "username"
}

// Load returns ports.ErrNoStoredSession when no token key exists.
func (s *SessionStore) Load(ctx context.Context) (ports.StoredSession, error) {
	tk, rk, uk := s.keys()
	vals, err := s.client.MGet(ctx, tk, rk, uk).Result()
	if err != nil {
		return ports.StoredSession{}, fmt.Errorf("session load: %w", err)
	}

	str := func(v any) (string, bool) {
		if v == nil {
			return "", true
		}
		s, ok := v.(string)
		return s, ok
	}
	token, ok1 := str(vals[0])
	role, ok2 := str(vals[1])
	username, ok3 := str(vals[2])
	if !ok1 || !ok2 || !ok3 {
		return ports.StoredSession{}, ports.ErrCorruptSession
	}
	if token == "" {
		if role != "" || username != "" {
			return ports.StoredSession{}, ports.ErrCorruptSession
		}
		return ports.StoredSession{}, ports.ErrNoStoredSession
	}
	return ports.StoredSession{Token: token, Role: role, Username: username}, nil
}

// Save replaces all three keys atomically. Empty fields are deleted rather
// than stored.
func (s *SessionStore) Save(ctx context.Context, rec ports.StoredSession) error {
	if rec.Token == "" {
		return errors.New("session save: empty token")
	}
	tk, rk, uk := s.keys()
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, tk, rec.Token, 0)
		setOrDel(ctx, p, rk, rec.Role)
		setOrDel(ctx, p, uk, rec.Username)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Clear removes every session key. Clearing an absent session is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	tk, rk, uk := s.keys()
	if err := s.client.Del(ctx, tk, rk, uk).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func setOrDel(ctx context.Context, p redis.Pipeliner, key, val string) {
	if val == "" {
		p.Del(ctx, key)
		return
	}
	p.Set(ctx, key, val, 0)
}

var _ ports.SessionStore = (*SessionStore)(nil)
