package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// Flow composes the session manager and the slot reducer into the user-facing
// sequence: establish a session, then keep the slot view in step with it.
type Flow struct {
	Sessions *SessionService
	Slots    *SlotService
	log      zerolog.Logger
}

func NewFlow(sessions *SessionService, slots *SlotService, log zerolog.Logger) *Flow {
	return &Flow{Sessions: sessions, Slots: slots, log: log}
}

// Session returns the active session.
func (f *Flow) Session() domain.Session {
	return f.Sessions.Current()
}

// Start restores a persisted session and, when one exists, loads the slots.
func (f *Flow) Start(ctx context.Context) (domain.Session, Snapshot, error) {
	session, err := f.Sessions.Restore(ctx)
	if err != nil || !session.IsLoggedIn() {
		return session, Snapshot{}, err
	}
	return f.load(ctx, session)
}

// Login establishes a session and loads the slots. A failed refresh does not
// undo the login; the returned session tells the caller whether login worked.
func (f *Flow) Login(ctx context.Context, username, password string) (domain.Session, Snapshot, error) {
	session, err := f.Sessions.Login(ctx, username, password)
	if err != nil {
		return domain.Session{}, f.Slots.Snapshot(), err
	}
	return f.load(ctx, session)
}

// Register creates an account without logging in.
func (f *Flow) Register(ctx context.Context, username, password string, role domain.Role) error {
	return f.Sessions.Register(ctx, username, password, role)
}

// Logout drops the session and the cached slots.
func (f *Flow) Logout(ctx context.Context) error {
	err := f.Sessions.Logout(ctx)
	f.Slots.Reset()
	return err
}

// load refreshes for a session that was just established. A fetch left over
// from the previous session may be joined and discarded; that case is retried
// once while the session is still current.
func (f *Flow) load(ctx context.Context, session domain.Session) (domain.Session, Snapshot, error) {
	snap, err := f.Slots.Refresh(ctx)
	if errors.Is(err, errSessionChanged) && f.Sessions.Current().Token() == session.Token() {
		f.log.Debug().Msg("refresh joined a fetch from the previous session, retrying")
		snap, err = f.Slots.Refresh(ctx)
	}
	if err != nil {
		f.log.Warn().Err(err).Msg("initial slot refresh failed")
		return session, snap, fmt.Errorf("load slots: %w: %w", domain.ErrStaleView, err)
	}
	return session, snap, nil
}
