package backend

import (
	"context"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// Create stores user and sets its ID. Returns ErrUserExists on a duplicate username.
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// SlotRepository defines persistence operations for slots. Book and Release
// are conditional updates so two concurrent bookings cannot both succeed.
type SlotRepository interface {
	List(ctx context.Context) ([]Slot, error)
	Get(ctx context.Context, id string) (Slot, error)
	// Create stores slot and sets its ID. Returns ErrSlotExists on a duplicate number.
	Create(ctx context.Context, slot *Slot) error
	Delete(ctx context.Context, id string) error
	// Book attaches b if the slot is available; ErrSlotBooked otherwise.
	Book(ctx context.Context, id string, b domain.Booking, bookerID string) (Slot, error)
	// Release clears the booking if the slot is booked; ErrSlotNotBooked otherwise.
	Release(ctx context.Context, id string) (Slot, error)
}
