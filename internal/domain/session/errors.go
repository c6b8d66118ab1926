package session

import "errors"

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrCapacityBelowEnrolled = errors.New("capacity below enrolled count")
)
