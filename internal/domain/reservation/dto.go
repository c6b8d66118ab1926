package reservation

import (
	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/timeslot"
)

type BookRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	// MemberID is only honoured for admins.
	MemberID string `json:"member_id" validate:"omitempty,uuid"`
}

type AttendanceRequest struct {
	Present *bool `json:"present" validate:"required"`
}

type ReservationResponse struct {
	ID           string         `json:"id"`
	MemberID     string         `json:"member_id"`
	SessionID    string         `json:"session_id"`
	BookedAt     string         `json:"booked_at"`
	Present      *bool          `json:"present,omitempty"`
	Activity     string         `json:"activity"`
	ActivityName string         `json:"activity_name"`
	Coach        string         `json:"coach"`
	Room         string         `json:"room"`
	Date         timeslot.Date  `json:"date"`
	Start        timeslot.Clock `json:"start_time"`
	End          timeslot.Clock `json:"end_time"`
}

func toResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:           r.ID,
		MemberID:     r.MemberID,
		SessionID:    r.SessionID,
		BookedAt:     r.BookedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Present:      r.Present,
		Activity:     string(r.SessionActivity),
		ActivityName: r.SessionActivity.DisplayName(),
		Coach:        r.SessionCoach,
		Room:         r.SessionRoom,
		Date:         r.SessionDate,
		Start:        r.SessionStart,
		End:          r.SessionEnd,
	}
}

func toResponses(list []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	return out
}
