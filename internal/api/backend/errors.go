package backend

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrSlotExists         = errors.New("slot number already exists")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrSlotBooked         = errors.New("slot already booked")
	ErrSlotNotBooked      = errors.New("slot is not booked")
)
