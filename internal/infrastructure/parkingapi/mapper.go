package parkingapi

import (
	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

// toDomainSlot keeps unknown enum values as-is so a newer server does not
// break the whole listing.
func toDomainSlot(s wire.Slot) domain.Slot {
	slot := domain.Slot{
		ID:       s.ID,
		Number:   s.SlotNumber,
		Type:     domain.SlotType(s.SlotType),
		Floor:    domain.Floor(s.Floor),
		IsBooked: s.IsBooked,
	}
	if !s.IsBooked {
		return slot
	}

	status, err := domain.ParsePaymentStatus(s.PaymentStatus)
	if err != nil {
		status = domain.PaymentStatus(s.PaymentStatus)
	}
	b := &domain.Booking{
		VehicleNumber: s.VehicleNumber,
		VehicleType:   s.VehicleType,
		BookerName:    s.UserName,
		Phone:         s.Phone,
		StartTime:     wire.TimeValue(s.StartTime),
		EndTime:       wire.TimeValue(s.EndTime),
		PaymentStatus: status,
		Amount:        s.Amount,
	}
	if s.BookedBy != nil {
		b.BookedBy = s.BookedBy.Username
	}
	slot.Booking = b
	return slot
}

func toBookRequest(b domain.Booking) wire.BookRequest {
	status := b.PaymentStatus
	if status == "" {
		status = domain.PaymentPending
	}
	return wire.BookRequest{
		VehicleNumber: b.VehicleNumber,
		VehicleType:   b.VehicleType,
		UserName:      b.BookerName,
		Phone:         b.Phone,
		StartTime:     wire.TimePtr(b.StartTime),
		EndTime:       wire.TimePtr(b.EndTime),
		PaymentStatus: string(status),
		Amount:        b.Amount,
	}
}
