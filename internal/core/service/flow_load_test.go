package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/core/ports"
)

func TestFlowLoginRetriesFetchFromPreviousSession(t *testing.T) {
	provider := NewSessionProvider()
	provider.set(domain.NewSession(signToken(t, jwt.MapClaims{"role": "user", "username": "bob"}), domain.RoleUser, "bob"))

	annToken := signToken(t, jwt.MapClaims{"role": "admin", "username": "ann"})
	auth := &stubAuthAPI{loginFn: func(context.Context, string, string) (ports.LoginResult, error) {
		return ports.LoginResult{Token: annToken}, nil
	}}
	sessions := NewSessionService(auth, &stubStore{}, provider, domain.RoleSourceClaim, zerolog.Nop())

	backend := twoSlots()
	api := backend.stub()
	started, release := blockingList(backend, api)
	slots := NewSlotService(api, provider, time.Second, zerolog.Nop())
	flow := NewFlow(sessions, slots, zerolog.Nop())
	ctx := context.Background()

	oldRefresh := make(chan error, 1)
	go func() {
		_, err := slots.Refresh(ctx)
		oldRefresh <- err
	}()
	<-started

	type loginResult struct {
		session domain.Session
		snap    Snapshot
		err     error
	}
	loggedIn := make(chan loginResult, 1)
	go func() {
		session, snap, err := flow.Login(ctx, "ann", "pw")
		loggedIn <- loginResult{session, snap, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-oldRefresh; !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("refresh from the previous session: expected ErrAuth, got %v", err)
	}
	res := <-loggedIn
	if res.err != nil {
		t.Fatalf("Login: %v", res.err)
	}
	if res.session.Role() != domain.RoleAdmin || len(res.snap.Slots) != 2 {
		t.Fatalf("unexpected login result: role %q, %d slots", res.session.Role(), len(res.snap.Slots))
	}
	if n := api.callCount("list"); n != 2 {
		t.Fatalf("expected the discarded fetch plus one more, got %d list calls", n)
	}
}

func TestFlowLoginReportsStaleViewWhenLoadFails(t *testing.T) {
	provider := NewSessionProvider()
	token := signToken(t, jwt.MapClaims{"role": "user"})
	auth := &stubAuthAPI{loginFn: func(context.Context, string, string) (ports.LoginResult, error) {
		return ports.LoginResult{Token: token}, nil
	}}
	sessions := NewSessionService(auth, &stubStore{}, provider, domain.RoleSourceClaim, zerolog.Nop())
	api := &stubSlotAPI{listFn: func(context.Context) ([]domain.Slot, error) {
		return nil, &domain.APIError{Op: "list slots", Status: 503, Kind: domain.ErrServer}
	}}
	flow := NewFlow(sessions, NewSlotService(api, provider, time.Second, zerolog.Nop()), zerolog.Nop())

	session, _, err := flow.Login(context.Background(), "ann", "pw")
	if !session.IsLoggedIn() {
		t.Fatal("a failed refresh must not undo the login")
	}
	if !errors.Is(err, domain.ErrStaleView) || !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected ErrStaleView wrapping ErrServer, got %v", err)
	}
}
