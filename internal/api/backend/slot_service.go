package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// SlotService applies the slot state machine on the server side.
type SlotService struct {
	repo SlotRepository
	now  func() time.Time
}

func NewSlotService(repo SlotRepository) *SlotService {
	return &SlotService{repo: repo, now: time.Now}
}

func (s *SlotService) List(ctx context.Context) ([]Slot, error) {
	return s.repo.List(ctx)
}

// Create adds an available slot. Admin only.
func (s *SlotService) Create(ctx context.Context, p Principal, in domain.NewSlot) (Slot, error) {
	if !p.IsAdmin() {
		return Slot{}, ErrForbidden
	}
	if in.Number <= 0 {
		return Slot{}, fmt.Errorf("%w: slot number must be positive", ErrInvalidInput)
	}
	typ, err := domain.ParseSlotType(string(in.Type))
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	floor, err := domain.ParseFloor(string(in.Floor))
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	slot := &Slot{
		Slot:      domain.Slot{Number: in.Number, Type: typ, Floor: floor},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return Slot{}, err
	}
	return *slot, nil
}

// Delete removes a slot, booked or not. Admin only.
func (s *SlotService) Delete(ctx context.Context, p Principal, id string) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// Book reserves an available slot for the caller.
func (s *SlotService) Book(ctx context.Context, p Principal, id string, b domain.Booking) (Slot, error) {
	if b.VehicleNumber == "" || b.BookerName == "" {
		return Slot{}, fmt.Errorf("%w: vehicle number and user name are required", ErrInvalidInput)
	}
	if b.Amount < 0 {
		return Slot{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if !b.StartTime.IsZero() && !b.EndTime.IsZero() && b.EndTime.Before(b.StartTime) {
		return Slot{}, fmt.Errorf("%w: end time before start time", ErrInvalidInput)
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = domain.PaymentPending
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	if !current.Status().CanTransitionTo(domain.StatusBooked) {
		return Slot{}, ErrSlotBooked
	}

	b.BookedBy = p.Username
	return s.repo.Book(ctx, id, b, p.UserID)
}

// Cancel releases a booking. Only the booker or an admin may cancel.
func (s *SlotService) Cancel(ctx context.Context, p Principal, id string) (Slot, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	if !current.Status().CanTransitionTo(domain.StatusAvailable) {
		return Slot{}, ErrSlotNotBooked
	}
	if !p.IsAdmin() && current.BookerID != p.UserID {
		return Slot{}, ErrForbidden
	}
	return s.repo.Release(ctx, id)
}
