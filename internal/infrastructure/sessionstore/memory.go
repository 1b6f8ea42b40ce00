package sessionstore

import (
	"context"
	"sync"

	"github.com/parkspace/parking-client/internal/core/ports"
)

// Memory keeps the session for the life of the process.
type Memory struct {
	mu  sync.Mutex
	rec *ports.StoredSession
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (ports.StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return ports.StoredSession{}, ports.ErrNoStoredSession
	}
	return *m.rec, nil
}

func (m *Memory) Save(_ context.Context, rec ports.StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

var _ ports.SessionStore = (*Memory)(nil)
