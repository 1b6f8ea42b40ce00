package parkingapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

// stubTokens is a mutable TokenSource.
type stubTokens struct {
	mu  sync.Mutex
	tok string
}

func (s *stubTokens) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok
}

func (s *stubTokens) set(tok string) {
	s.mu.Lock()
	s.tok = tok
	s.mu.Unlock()
}

func newTestClient(t *testing.T, h http.Handler, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}, tokens, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestBearerHeaderFollowsCurrentToken(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write([]byte("[]"))
	})
	tokens := &stubTokens{}
	c := newTestClient(t, h, tokens)
	ctx := context.Background()

	for _, tok := range []string{"", "t1", "t2", ""} {
		tokens.set(tok)
		if _, err := c.ListSlots(ctx); err != nil {
			t.Fatalf("ListSlots: %v", err)
		}
	}

	want := []string{"", "Bearer t1", "Bearer t2", ""}
	if len(seen) != len(want) {
		t.Fatalf("got %d requests, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("request %d: expected Authorization %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestRequestIDIsSet(t *testing.T) {
	var id string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = r.Header.Get(HeaderRequestID)
		_, _ = w.Write([]byte("[]"))
	})
	c := newTestClient(t, h, &stubTokens{})
	if _, err := c.ListSlots(context.Background()); err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if id == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestLogin(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var creds wire.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "ann" || creds.Password != "x" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"t1","role":"admin"}`))
	})
	c := newTestClient(t, h, &stubTokens{})
	ctx := context.Background()

	res, err := c.Login(ctx, "ann", "x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "t1" || res.Role != "admin" {
		t.Fatalf("unexpected login result %+v", res)
	}

	_, err = c.Login(ctx, "ann", "wrong")
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "invalid credentials" || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected api error %#v", err)
	}
}

func TestLoginWithoutTokenIsAuthError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"role":"user"}`))
	})
	c := newTestClient(t, h, &stubTokens{})
	if _, err := c.Login(context.Background(), "ann", "x"); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		call   func(*Client) error
		want   error
	}{
		{"register duplicate", 400, `{"message":"user exists"}`, func(c *Client) error {
			return c.Register(context.Background(), "ann", "x", domain.RoleUser)
		}, domain.ErrRegistration},
		{"create duplicate", 400, `{"error":"slot exists"}`, func(c *Client) error {
			_, err := c.CreateSlot(context.Background(), domain.NewSlot{Number: 1, Type: domain.SlotTypeEV, Floor: domain.FloorGround})
			return err
		}, domain.ErrSlotCreation},
		{"create forbidden", 403, `{"error":"admin only"}`, func(c *Client) error {
			_, err := c.CreateSlot(context.Background(), domain.NewSlot{Number: 1, Type: domain.SlotTypeEV, Floor: domain.FloorGround})
			return err
		}, domain.ErrAuth},
		{"book already booked", 409, `{"error":"slot already booked"}`, func(c *Client) error {
			_, err := c.BookSlot(context.Background(), "s1", domain.Booking{VehicleNumber: "KA01", BookerName: "Ann"})
			return err
		}, domain.ErrBookingConflict},
		{"book rejected", 400, `slot already booked`, func(c *Client) error {
			_, err := c.BookSlot(context.Background(), "s1", domain.Booking{VehicleNumber: "KA01", BookerName: "Ann"})
			return err
		}, domain.ErrBookingConflict},
		{"cancel missing", 404, `{"error":"not found"}`, func(c *Client) error {
			_, err := c.CancelBooking(context.Background(), "s1")
			return err
		}, domain.ErrNotFound},
		{"cancel unbooked", 400, `{"error":"slot is not booked"}`, func(c *Client) error {
			_, err := c.CancelBooking(context.Background(), "s1")
			return err
		}, domain.ErrBookingConflict},
		{"delete missing", 404, ``, func(c *Client) error {
			return c.DeleteSlot(context.Background(), "s1")
		}, domain.ErrNotFound},
		{"list server error", 500, `<html>boom</html>`, func(c *Client) error {
			_, err := c.ListSlots(context.Background())
			return err
		}, domain.ErrServer},
		{"list expired token", 401, `{"error":"token expired"}`, func(c *Client) error {
			_, err := c.ListSlots(context.Background())
			return err
		}, domain.ErrAuth},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			c := newTestClient(t, h, &stubTokens{tok: "t1"})
			err := tc.call(c)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tc.status {
				t.Fatalf("expected APIError with status %d, got %#v", tc.status, err)
			}
			if apiErr.Message == "" {
				t.Fatal("expected a non-empty message")
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url}, &stubTokens{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.ListSlots(context.Background()); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestListSlotsDecodesBookings(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	body := []wire.Slot{
		{ID: "a", SlotNumber: 1, SlotType: "normal", Floor: "G"},
		{
			ID: "b", SlotNumber: 2, SlotType: "ev", Floor: "1", IsBooked: true,
			BookedBy:      &wire.BookedBy{ID: "u1", Username: "ann"},
			VehicleNumber: "KA01", UserName: "Ann", StartTime: &start, Amount: 40,
		},
	}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(body)
	})
	c := newTestClient(t, h, &stubTokens{})

	slots, err := c.ListSlots(context.Background())
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].Booking != nil {
		t.Fatal("available slot must carry no booking")
	}
	b := slots[1].Booking
	if b == nil {
		t.Fatal("booked slot must carry a booking")
	}
	if b.BookerName != "Ann" || b.BookedBy != "ann" || !b.StartTime.Equal(start) {
		t.Fatalf("unexpected booking %+v", b)
	}
	if b.PaymentStatus != domain.PaymentPending {
		t.Fatalf("expected pending payment, got %q", b.PaymentStatus)
	}
}

func TestBookSlotSendsBookingBody(t *testing.T) {
	var got map[string]any
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/book/s1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"_id":"s1","slotNumber":1,"slotType":"normal","floor":"G","isBooked":true,"vehicleNumber":"KA01","userName":"Ann"}`))
	})
	c := newTestClient(t, h, &stubTokens{tok: "t1"})

	slot, err := c.BookSlot(context.Background(), "s1", domain.Booking{VehicleNumber: "KA01", BookerName: "Ann", Amount: 10})
	if err != nil {
		t.Fatalf("BookSlot: %v", err)
	}
	if !slot.IsBooked || slot.Booking == nil {
		t.Fatalf("expected booked slot, got %+v", slot)
	}
	if got["vehicleNumber"] != "KA01" || got["userName"] != "Ann" || got["paymentStatus"] != "pending" {
		t.Fatalf("unexpected request body %v", got)
	}
	if _, ok := got["startTime"]; ok {
		t.Fatal("empty start time must be omitted")
	}
}

func TestNewRejectsBadScheme(t *testing.T) {
	if _, err := New(Config{BaseURL: "ftp://x"}, &stubTokens{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for non-http url")
	}
}

func TestErrorMessageTruncatesOnRuneBoundary(t *testing.T) {
	body := []byte(strings.Repeat("a", maxMessageLen-1) + "é plus more text")
	msg := errorMessage(http.StatusBadRequest, body)
	if !utf8.ValidString(msg) {
		t.Fatalf("message is not valid UTF-8: %q", msg)
	}
	if msg != strings.Repeat("a", maxMessageLen-1) {
		t.Fatalf("unexpected message %q", msg)
	}

	short := errorMessage(http.StatusBadRequest, []byte("slot already booked"))
	if short != "slot already booked" {
		t.Fatalf("short message = %q", short)
	}
}
