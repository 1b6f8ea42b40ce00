package mongo

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/core/domain"
)

// newTestRepos needs a live server; set MONGO_URI to run.
func newTestRepos(t *testing.T) (*UserRepository, *SlotRepository) {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client, db, err := Connect(ctx, Config{URI: uri, Database: "parking_test_" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	users, slots := NewUserRepository(db), NewSlotRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		t.Fatalf("user indexes: %v", err)
	}
	if err := slots.EnsureIndexes(ctx); err != nil {
		t.Fatalf("slot indexes: %v", err)
	}
	return users, slots
}

func TestUserRepository(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	u := &backend.User{Username: "ann", PasswordHash: "h", Role: domain.RoleAdmin}
	if err := users.Create(ctx, u); err != nil || u.ID == "" {
		t.Fatalf("Create: %v (id %q)", err, u.ID)
	}
	if err := users.Create(ctx, &backend.User{Username: "ann"}); !errors.Is(err, backend.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	got, err := users.FindByUsername(ctx, "ann")
	if err != nil || got.ID != u.ID || got.Role != domain.RoleAdmin {
		t.Fatalf("FindByUsername: %+v, %v", got, err)
	}
	if _, err := users.FindByUsername(ctx, "nobody"); !errors.Is(err, backend.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSlotRepository(t *testing.T) {
	_, slots := newTestRepos(t)
	ctx := context.Background()

	s := &backend.Slot{Slot: domain.Slot{Number: 1, Type: domain.SlotTypeEV, Floor: domain.FloorGround}}
	if err := slots.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := slots.Create(ctx, &backend.Slot{Slot: domain.Slot{Number: 1}}); !errors.Is(err, backend.ErrSlotExists) {
		t.Fatalf("expected ErrSlotExists, got %v", err)
	}

	booked, err := slots.Book(ctx, s.ID, domain.Booking{VehicleNumber: "KA01", BookerName: "Ann", BookedBy: "ann", PaymentStatus: domain.PaymentPending}, "u1")
	if err != nil || !booked.IsBooked || booked.BookerID != "u1" || booked.Booking.BookerName != "Ann" {
		t.Fatalf("Book: %+v, %v", booked, err)
	}
	if _, err := slots.Book(ctx, s.ID, domain.Booking{VehicleNumber: "KA02", BookerName: "Bob"}, "u2"); !errors.Is(err, backend.ErrSlotBooked) {
		t.Fatalf("expected ErrSlotBooked, got %v", err)
	}

	released, err := slots.Release(ctx, s.ID)
	if err != nil || released.IsBooked || released.Booking != nil {
		t.Fatalf("Release: %+v, %v", released, err)
	}
	if _, err := slots.Release(ctx, s.ID); !errors.Is(err, backend.ErrSlotNotBooked) {
		t.Fatalf("expected ErrSlotNotBooked, got %v", err)
	}

	list, err := slots.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %d slots, %v", len(list), err)
	}
	if err := slots.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := slots.Delete(ctx, s.ID); !errors.Is(err, backend.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
	if _, err := slots.Get(ctx, "not-an-object-id"); !errors.Is(err, backend.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}
