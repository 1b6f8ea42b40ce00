package domain

import (
	"fmt"
	"strings"
	"time"
)

// SlotType is the kind of parking space.
type SlotType string

const (
	SlotTypeNormal   SlotType = "normal"
	SlotTypeEV       SlotType = "ev"
	SlotTypeVIP      SlotType = "vip"
	SlotTypeHandicap SlotType = "handicap"
)

// SlotTypes lists every slot type in display order.
var SlotTypes = []SlotType{SlotTypeNormal, SlotTypeEV, SlotTypeVIP, SlotTypeHandicap}

// ParseSlotType converts user or wire input into a SlotType.
func ParseSlotType(s string) (SlotType, error) {
	t := SlotType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SlotTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown slot type %q", s)
}

// Floor is the level a slot sits on.
type Floor string

const (
	FloorGround Floor = "G"
	FloorFirst  Floor = "1"
	FloorSecond Floor = "2"
)

// Floors lists every floor from the ground up.
var Floors = []Floor{FloorGround, FloorFirst, FloorSecond}

// ParseFloor converts user or wire input into a Floor.
func ParseFloor(s string) (Floor, error) {
	f := Floor(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Floors {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown floor %q", s)
}

// PaymentStatus is the settlement state of a booking.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// ParsePaymentStatus converts input into a PaymentStatus; empty means pending.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", PaymentPending:
		return PaymentPending, nil
	case PaymentPaid:
		return PaymentPaid, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", s)
	}
}

// SlotStatus is the client-observed lifecycle state of a slot.
type SlotStatus string

const (
	StatusAvailable SlotStatus = "available"
	StatusBooked    SlotStatus = "booked"
	StatusRemoved   SlotStatus = "removed"
)

// validTransitions defines the allowed slot state machine transitions.
var validTransitions = map[SlotStatus][]SlotStatus{
	StatusAvailable: {StatusBooked, StatusRemoved},
	StatusBooked:    {StatusAvailable, StatusRemoved},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s SlotStatus) CanTransitionTo(next SlotStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is the occupancy record attached to a slot while it is reserved.
type Booking struct {
	VehicleNumber string
	VehicleType   string
	BookerName    string
	Phone         string
	StartTime     time.Time
	EndTime       time.Time
	PaymentStatus PaymentStatus
	Amount        float64
	// BookedBy is the account that placed the booking.
	BookedBy string
}

// Slot is a single parking space as last reported by the server.
type Slot struct {
	ID       string
	Number   int
	Type     SlotType
	Floor    Floor
	IsBooked bool
	// Booking is non-nil exactly when IsBooked is true.
	Booking *Booking
}

// Status derives the lifecycle state of the slot.
func (s Slot) Status() SlotStatus {
	if s.IsBooked {
		return StatusBooked
	}
	return StatusAvailable
}

// NewSlot is the admin input for creating a slot.
type NewSlot struct {
	Number int      `validate:"required"`
	Type   SlotType `validate:"required"`
	Floor  Floor    `validate:"required"`
}

// BookingDraft is the pending booking input. It is cleared after a booking
// succeeds and left untouched when it fails.
type BookingDraft struct {
	VehicleNumber string `validate:"required"`
	VehicleType   string
	BookerName    string `validate:"required"`
	Phone         string
	StartTime     time.Time
	EndTime       time.Time
	PaymentStatus PaymentStatus
	Amount        float64
}

// Reset restores the draft to its defaults.
func (d *BookingDraft) Reset() {
	*d = BookingDraft{PaymentStatus: PaymentPending}
}

// Booking converts the draft into the booking the server is asked to record.
func (d BookingDraft) Booking() Booking {
	status := d.PaymentStatus
	if status == "" {
		status = PaymentPending
	}
	return Booking{
		VehicleNumber: d.VehicleNumber,
		VehicleType:   d.VehicleType,
		BookerName:    d.BookerName,
		Phone:         d.Phone,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		PaymentStatus: status,
		Amount:        d.Amount,
	}
}
