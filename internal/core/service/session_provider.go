package service

import (
	"sync"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// SessionProvider is the read side of the current session. The transport reads
// the token from it on every request; only SessionService writes to it.
type SessionProvider struct {
	mu      sync.RWMutex
	current domain.Session
	epoch   uint64
}

func NewSessionProvider() *SessionProvider {
	return &SessionProvider{}
}

// Current returns the session as of now.
func (p *SessionProvider) Current() domain.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Token returns the bearer token, or "" when there is no session.
func (p *SessionProvider) Token() string {
	return p.Current().Token()
}

// Epoch changes every time the token changes (login, logout, discarded session).
// Work started under one epoch must not be applied under another.
func (p *SessionProvider) Epoch() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.epoch
}

func (p *SessionProvider) set(s domain.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Token() != p.current.Token() {
		p.epoch++
	}
	p.current = s
}

func (p *SessionProvider) clear() {
	p.set(domain.Session{})
}
