package reservation

import "errors"

var (
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrSessionFull is returned by Book when the conditional increment found
	// no free seat.
	ErrSessionFull    = errors.New("session is full")
	ErrAlreadyBooked  = errors.New("reservation already exists")
	ErrSessionMissing = errors.New("session not found")
)
