package session

import (
	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/timeslot"
)

type ScheduleSessionRequest struct {
	Activity domain.Activity `json:"activity" validate:"required"`
	CoachID  string          `json:"coach_id"`
	Room     string          `json:"room"`
	Date     string          `json:"date" validate:"required,date"`
	Start    string          `json:"start_time" validate:"required,clock"`
	End      string          `json:"end_time" validate:"required,clock"`
	Capacity int             `json:"capacity" validate:"min=0,max=500"`
}

// toCandidate assumes the request passed validation.
func (r *ScheduleSessionRequest) toCandidate() Candidate {
	date, _ := timeslot.ParseDate(r.Date)
	start, _ := timeslot.ParseClock(r.Start)
	end, _ := timeslot.ParseClock(r.End)
	return Candidate{
		Activity: r.Activity,
		CoachID:  r.CoachID,
		Room:     r.Room,
		Date:     date,
		Start:    start,
		End:      end,
		Capacity: r.Capacity,
	}
}

type SessionResponse struct {
	ID            string          `json:"id"`
	Activity      domain.Activity `json:"activity"`
	ActivityName  string          `json:"activity_name"`
	CoachID       string          `json:"coach_id"`
	CoachName     string          `json:"coach_name,omitempty"`
	Room          string          `json:"room"`
	Date          timeslot.Date   `json:"date"`
	Start         timeslot.Clock  `json:"start_time"`
	End           timeslot.Clock  `json:"end_time"`
	Capacity      int             `json:"capacity"`
	EnrolledCount int             `json:"enrolled_count"`
	Remaining     int             `json:"remaining"`
	Full          bool            `json:"full"`
	Completed     bool            `json:"completed"`
}

func toResponse(s *domain.Session) SessionResponse {
	out := SessionResponse{
		ID:            s.ID,
		Activity:      s.Activity,
		ActivityName:  s.Activity.DisplayName(),
		CoachID:       s.CoachID,
		Room:          s.Room,
		Date:          s.Date,
		Start:         s.Start,
		End:           s.End,
		Capacity:      s.Capacity,
		EnrolledCount: s.EnrolledCount,
		Remaining:     max(s.Capacity-s.EnrolledCount, 0),
		Full:          s.EnrolledCount >= s.Capacity,
		Completed:     s.Completed,
	}
	if s.Coach != nil {
		out.CoachName = s.Coach.Name
	}
	return out
}
