// Package events carries committed planning changes to whoever listens: NATS
// subscribers and the live planning feed.
package events

import (
	"context"
	"errors"
	"time"
)

type Type string

const (
	SessionScheduled     Type = "session.scheduled"
	SessionUpdated       Type = "session.updated"
	SessionCompleted     Type = "session.completed"
	SessionDeleted       Type = "session.deleted"
	ReservationBooked    Type = "reservation.booked"
	ReservationCancelled Type = "reservation.cancelled"
	AttendanceMarked     Type = "reservation.attendance"
)

type Event struct {
	Type          Type      `json:"type"`
	SessionID     string    `json:"session_id"`
	CoachID       string    `json:"coach_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	MemberID      string    `json:"member_id,omitempty"`
	EnrolledCount int       `json:"enrolled_count"`
	Capacity      int       `json:"capacity"`
	At            time.Time `json:"at"`
}

// Publisher delivers an event after the change it describes is committed.
// A failed Publish never undoes that change.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every member and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
