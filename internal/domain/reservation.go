package domain

import (
	"time"

	"gymplanner/internal/pkg/timeslot"
)

// Reservation is a member's booking of one session. The session fields are a
// display snapshot taken at booking time; conflict checks always resolve the
// live session instead.
type Reservation struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MemberID  string    `json:"member_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_reservations_member_session"`
	SessionID string    `json:"session_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_reservations_member_session;index"`
	BookedAt  time.Time `json:"booked_at" gorm:"not null"`
	Present   *bool     `json:"present,omitempty"`

	SessionDate     timeslot.Date  `json:"session_date" gorm:"type:varchar(10)"`
	SessionStart    timeslot.Clock `json:"session_start" gorm:"type:varchar(5)"`
	SessionEnd      timeslot.Clock `json:"session_end" gorm:"type:varchar(5)"`
	SessionActivity Activity       `json:"session_activity" gorm:"type:varchar(30)"`
	SessionCoach    string         `json:"session_coach" gorm:"type:varchar(200)"`
	SessionRoom     string         `json:"session_room" gorm:"type:varchar(100)"`
}

// Snapshot copies the display fields of s onto the reservation.
func (r *Reservation) Snapshot(s *Session, coachName string) {
	r.SessionDate = s.Date
	r.SessionStart = s.Start
	r.SessionEnd = s.End
	r.SessionActivity = s.Activity
	r.SessionCoach = coachName
	r.SessionRoom = s.Room
}
