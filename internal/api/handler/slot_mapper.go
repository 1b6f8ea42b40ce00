package handler

import (
	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

func toWireSlot(s backend.Slot) wire.Slot {
	out := wire.Slot{
		ID:         s.ID,
		SlotNumber: s.Number,
		SlotType:   string(s.Type),
		Floor:      string(s.Floor),
		IsBooked:   s.IsBooked,
	}
	if !s.IsBooked || s.Booking == nil {
		return out
	}
	b := s.Booking
	out.BookedBy = &wire.BookedBy{ID: s.BookerID, Username: b.BookedBy}
	out.VehicleNumber = b.VehicleNumber
	out.VehicleType = b.VehicleType
	out.UserName = b.BookerName
	out.Phone = b.Phone
	out.StartTime = wire.TimePtr(b.StartTime)
	out.EndTime = wire.TimePtr(b.EndTime)
	out.PaymentStatus = string(b.PaymentStatus)
	out.Amount = b.Amount
	return out
}

func toBooking(r wire.BookRequest) domain.Booking {
	return domain.Booking{
		VehicleNumber: r.VehicleNumber,
		VehicleType:   r.VehicleType,
		BookerName:    r.UserName,
		Phone:         r.Phone,
		StartTime:     wire.TimeValue(r.StartTime),
		EndTime:       wire.TimeValue(r.EndTime),
		PaymentStatus: domain.PaymentStatus(r.PaymentStatus),
		Amount:        r.Amount,
	}
}
