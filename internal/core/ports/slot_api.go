package ports

import (
	"context"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// SlotAPI is the remote slot and booking surface. Every call is expected to be
// authorized by the transport, never by the caller.
type SlotAPI interface {
	ListSlots(ctx context.Context) ([]domain.Slot, error)
	CreateSlot(ctx context.Context, slot domain.NewSlot) (domain.Slot, error)
	DeleteSlot(ctx context.Context, id string) error
	BookSlot(ctx context.Context, id string, booking domain.Booking) (domain.Slot, error)
	CancelBooking(ctx context.Context, id string) (domain.Slot, error)
}
