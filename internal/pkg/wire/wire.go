// Package wire is the JSON contract of the parking API. Field names follow the
// deployed backend (camelCase, Mongo-style "_id").
package wire

import (
	"net/url"
	"time"
)

const (
	PathLogin    = "/login"
	PathRegister = "/register"
	PathSlots    = "/slots"
)

// SlotPath is DELETE /slots/{id}.
func SlotPath(id string) string { return PathSlots + "/" + url.PathEscape(id) }

// BookPath is POST /book/{id}.
func BookPath(id string) string { return "/book/" + url.PathEscape(id) }

// CancelPath is POST /cancel/{id}.
func CancelPath(id string) string { return "/cancel/" + url.PathEscape(id) }

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role,omitempty"`
}

type CreateSlotRequest struct {
	SlotNumber int    `json:"slotNumber" validate:"required,gt=0"`
	SlotType   string `json:"slotType"   validate:"required,oneof=normal ev vip handicap"`
	Floor      string `json:"floor"      validate:"required,oneof=G 1 2"`
}

// BookRequest carries the booking details. UserName is the booker's name as
// typed, not the account name.
type BookRequest struct {
	VehicleNumber string     `json:"vehicleNumber"       validate:"required"`
	VehicleType   string     `json:"vehicleType"`
	UserName      string     `json:"userName"            validate:"required"`
	Phone         string     `json:"phone"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	PaymentStatus string     `json:"paymentStatus"       validate:"omitempty,oneof=pending paid"`
	Amount        float64    `json:"amount"              validate:"gte=0"`
}

type BookedBy struct {
	ID       string `json:"_id,omitempty"`
	Username string `json:"username"`
}

// Slot is a slot document. Booking fields are flat and only set while IsBooked.
type Slot struct {
	ID            string     `json:"_id"`
	SlotNumber    int        `json:"slotNumber"`
	SlotType      string     `json:"slotType"`
	Floor         string     `json:"floor"`
	IsBooked      bool       `json:"isBooked"`
	BookedBy      *BookedBy  `json:"bookedBy,omitempty"`
	VehicleNumber string     `json:"vehicleNumber,omitempty"`
	VehicleType   string     `json:"vehicleType,omitempty"`
	UserName      string     `json:"userName,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	Amount        float64    `json:"amount,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error envelope. Backends differ on the key, so both are read.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// TimePtr returns nil for the zero time so it is omitted on the wire.
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// TimeValue dereferences an optional wire time.
func TimeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
