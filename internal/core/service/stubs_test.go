package service

import (
	"context"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/core/ports"
)

// signToken returns an HS256 token with the given claims.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// ── auth stub ────────────────────────────────────────────────────────────────

type stubAuthAPI struct {
	loginFn    func(ctx context.Context, username, password string) (ports.LoginResult, error)
	registerFn func(ctx context.Context, username, password string, role domain.Role) error

	mu        sync.Mutex
	logins    int
	registers int
}

func (s *stubAuthAPI) Login(ctx context.Context, username, password string) (ports.LoginResult, error) {
	s.mu.Lock()
	s.logins++
	s.mu.Unlock()
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthAPI) Register(ctx context.Context, username, password string, role domain.Role) error {
	s.mu.Lock()
	s.registers++
	s.mu.Unlock()
	if s.registerFn == nil {
		return nil
	}
	return s.registerFn(ctx, username, password, role)
}

// ── store stub ───────────────────────────────────────────────────────────────

type stubStore struct {
	mu      sync.Mutex
	rec     *ports.StoredSession
	loadErr error
	saves   int
	clears  int
}

func (s *stubStore) Load(_ context.Context) (ports.StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return ports.StoredSession{}, s.loadErr
	}
	if s.rec == nil {
		return ports.StoredSession{}, ports.ErrNoStoredSession
	}
	return *s.rec, nil
}

func (s *stubStore) Save(_ context.Context, rec ports.StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.rec = &rec
	return nil
}

func (s *stubStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.rec = nil
	s.loadErr = nil
	return nil
}

func (s *stubStore) stored() *ports.StoredSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil
	}
	cp := *s.rec
	return &cp
}

// ── slot API stub ────────────────────────────────────────────────────────────

// stubSlotAPI serves ListSlots from listFn, counting calls per method.
type stubSlotAPI struct {
	listFn   func(ctx context.Context) ([]domain.Slot, error)
	createFn func(ctx context.Context, in domain.NewSlot) (domain.Slot, error)
	deleteFn func(ctx context.Context, id string) error
	bookFn   func(ctx context.Context, id string, b domain.Booking) (domain.Slot, error)
	cancelFn func(ctx context.Context, id string) (domain.Slot, error)

	mu    sync.Mutex
	calls map[string]int
}

func (s *stubSlotAPI) count(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
}

func (s *stubSlotAPI) callCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *stubSlotAPI) ListSlots(ctx context.Context) ([]domain.Slot, error) {
	s.count("list")
	return s.listFn(ctx)
}

func (s *stubSlotAPI) CreateSlot(ctx context.Context, in domain.NewSlot) (domain.Slot, error) {
	s.count("create")
	return s.createFn(ctx, in)
}

func (s *stubSlotAPI) DeleteSlot(ctx context.Context, id string) error {
	s.count("delete")
	return s.deleteFn(ctx, id)
}

func (s *stubSlotAPI) BookSlot(ctx context.Context, id string, b domain.Booking) (domain.Slot, error) {
	s.count("book")
	return s.bookFn(ctx, id, b)
}

func (s *stubSlotAPI) CancelBooking(ctx context.Context, id string) (domain.Slot, error) {
	s.count("cancel")
	return s.cancelFn(ctx, id)
}

// fixedEpoch is a SessionEpoch that tests can bump.
type fixedEpoch struct {
	mu sync.Mutex
	n  uint64
}

func (e *fixedEpoch) Epoch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n
}

func (e *fixedEpoch) bump() {
	e.mu.Lock()
	e.n++
	e.mu.Unlock()
}
