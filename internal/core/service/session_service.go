package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/core/ports"
	"github.com/parkspace/parking-client/internal/pkg/metrics"
)

type credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type registration struct {
	Username string      `validate:"required"`
	Password string      `validate:"required"`
	Role     domain.Role `validate:"required"`
}

// SessionService owns the session lifecycle. It is the only component that
// touches the SessionStore or changes the SessionProvider.
type SessionService struct {
	auth     ports.AuthAPI
	store    ports.SessionStore
	provider *SessionProvider
	source   domain.RoleSource
	log      zerolog.Logger
}

// NewSessionService returns a SessionService. The role source is fixed for the
// lifetime of the service.
func NewSessionService(
	auth ports.AuthAPI,
	store ports.SessionStore,
	provider *SessionProvider,
	source domain.RoleSource,
	log zerolog.Logger,
) *SessionService {
	if source == "" {
		source = domain.RoleSourceClaim
	}
	return &SessionService{
		auth:     auth,
		store:    store,
		provider: provider,
		source:   source,
		log:      log,
	}
}

// Current returns the active session.
func (s *SessionService) Current() domain.Session {
	return s.provider.Current()
}

// Login exchanges credentials for a token and persists it. On any failure the
// current session is left exactly as it was.
func (s *SessionService) Login(ctx context.Context, username, password string) (domain.Session, error) {
	if err := validateInput(credentials{Username: username, Password: password}); err != nil {
		return domain.Session{}, err
	}

	res, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login rejected")
		return domain.Session{}, err
	}

	rec := ports.StoredSession{Token: res.Token, Role: res.Role, Username: username}
	if s.source == domain.RoleSourceClaim {
		rec.Role = ""
	}

	session, err := s.resolve(rec)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login response unusable")
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}
	s.provider.set(session)

	s.log.Info().
		Str("username", session.Username()).
		Str("role", string(session.Role())).
		Msg("logged in")

	return session, nil
}

// Restore reloads the persisted session at startup. It fails closed: a record
// whose role cannot be established is deleted and the session is absent.
// Restoring the same record twice yields the same session.
func (s *SessionService) Restore(ctx context.Context) (domain.Session, error) {
	rec, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, ports.ErrNoStoredSession):
		s.provider.clear()
		metrics.SessionRestoreTotal.WithLabelValues("absent").Inc()
		return domain.Session{}, nil
	case errors.Is(err, ports.ErrCorruptSession):
		s.log.Warn().Err(err).Msg("stored session unreadable, discarding")
		return domain.Session{}, s.discard(ctx)
	case err != nil:
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	if rec.Token == "" {
		s.provider.clear()
		metrics.SessionRestoreTotal.WithLabelValues("absent").Inc()
		return domain.Session{}, nil
	}

	session, err := s.resolve(rec)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored session invalid, discarding")
		return domain.Session{}, s.discard(ctx)
	}

	s.provider.set(session)
	metrics.SessionRestoreTotal.WithLabelValues("restored").Inc()
	s.log.Debug().Str("role", string(session.Role())).Msg("session restored")

	return session, nil
}

// Register creates an account. It never establishes or changes a session.
func (s *SessionService) Register(ctx context.Context, username, password string, role domain.Role) error {
	if err := validateInput(registration{Username: username, Password: password, Role: role}); err != nil {
		return err
	}
	if err := s.auth.Register(ctx, username, password, role); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("registration rejected")
		return err
	}
	s.log.Info().Str("username", username).Str("role", string(role)).Msg("registered")
	return nil
}

// Logout drops the session. The in-memory session is cleared before storage so
// no request issued after Logout returns carries the old token.
func (s *SessionService) Logout(ctx context.Context) error {
	s.provider.clear()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.log.Info().Msg("logged out")
	return nil
}

// resolve establishes the role from the one configured source.
func (s *SessionService) resolve(rec ports.StoredSession) (domain.Session, error) {
	if rec.Token == "" {
		return domain.Session{}, errors.New("empty token")
	}

	switch s.source {
	case domain.RoleSourceField:
		role, err := domain.ParseRole(rec.Role)
		if err != nil {
			return domain.Session{}, err
		}
		return domain.NewSession(rec.Token, role, rec.Username), nil
	default:
		claims, err := DecodeTokenClaims(rec.Token)
		if err != nil {
			return domain.Session{}, err
		}
		username := claims.Username
		if username == "" {
			username = rec.Username
		}
		return domain.NewSession(rec.Token, claims.Role, username), nil
	}
}

func (s *SessionService) discard(ctx context.Context) error {
	s.provider.clear()
	metrics.SessionRestoreTotal.WithLabelValues("discarded").Inc()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
