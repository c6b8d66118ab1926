package scheduling

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every *Error matches exactly one of them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrOwnership  = errors.New("ownership violation")
)

// Rule names the check that rejected a request.
type Rule string

const (
	RuleRequiredField     Rule = "required_field"
	RuleInvalidActivity   Rule = "invalid_activity"
	RuleInvalidRange      Rule = "invalid_range"
	RuleInvalidCapacity   Rule = "invalid_capacity"
	RulePastDate          Rule = "past_date"
	RuleNotFinished       Rule = "not_finished"
	RuleSpecialtyMismatch Rule = "specialty_mismatch"
	RuleUnavailable       Rule = "unavailable"
	RuleCoachConflict     Rule = "coach_conflict"
	RuleMemberConflict    Rule = "member_conflict"
	RuleSessionFull       Rule = "session_full"
	RuleAlreadyBooked     Rule = "already_booked"
	RuleSessionClosed     Rule = "session_closed"
	RuleCancelWindow      Rule = "cancel_window"
	RuleNotFound          Rule = "not_found"
	RuleOwnership         Rule = "ownership"
)

// Error is a rejected scheduling or booking request.
type Error struct {
	Kind    error
	Rule    Rule
	Message string
	// SessionID identifies the colliding session when there is one.
	SessionID string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, rule Rule, format string, args ...any) *Error {
	return &Error{Kind: kind, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func Validation(rule Rule, format string, args ...any) *Error {
	return newError(ErrValidation, rule, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, RuleNotFound, format, args...)
}

func Conflict(rule Rule, sessionID, format string, args ...any) *Error {
	e := newError(ErrConflict, rule, format, args...)
	e.SessionID = sessionID
	return e
}

func Ownership(format string, args ...any) *Error {
	return newError(ErrOwnership, RuleOwnership, format, args...)
}

// RuleOf returns the rule carried by err, or "" when err is not a *Error.
func RuleOf(err error) Rule {
	var e *Error
	if errors.As(err, &e) {
		return e.Rule
	}
	return ""
}
