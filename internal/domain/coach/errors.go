package coach

import "errors"

var (
	ErrCoachNotFound      = errors.New("coach not found")
	ErrNoSpecialty        = errors.New("a coach needs at least one specialty")
	ErrTooManySpecialties = errors.New("a coach can hold at most two specialties")
	ErrUnknownSpecialty   = errors.New("unknown specialty")
	ErrDuplicateSpecialty = errors.New("specialties must be distinct")
	ErrInvalidWindow      = errors.New("invalid availability window")
	ErrUserNotCoach       = errors.New("linked user must have the coach role")
	ErrUserAlreadyLinked  = errors.New("user is already linked to a coach")
)
