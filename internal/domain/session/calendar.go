package session

import (
	"context"
	"errors"
	"fmt"

	ics "github.com/arran4/golang-ical"

	"gymplanner/internal/domain"
	"gymplanner/internal/domain/coach"
	"gymplanner/internal/domain/scheduling"
	"gymplanner/internal/pkg/timeslot"
)

const calendarProductID = "-//gymplanner//coach planning//EN"

// CoachCalendar renders the coach's sessions from today on as an iCalendar
// feed, times in UTC.
func (s *Service) CoachCalendar(ctx context.Context, coachID string) (string, error) {
	co, err := s.coaches.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, coach.ErrCoachNotFound) {
			return "", scheduling.NotFound("Coach %s does not exist.", coachID)
		}
		return "", fmt.Errorf("load coach: %w", err)
	}

	from := timeslot.Today(s.now(), s.loc)
	sessions, err := s.store.List(ctx, Filter{CoachID: coachID, From: &from})
	if err != nil {
		return "", fmt.Errorf("list coach sessions: %w", err)
	}

	return s.renderCalendar(co, sessions), nil
}

func (s *Service) renderCalendar(co *domain.Coach, sessions []domain.Session) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(co.Name)
	cal.SetXWRTimezone(s.loc.String())

	stamp := s.now().UTC()
	for i := range sessions {
		sess := &sessions[i]
		ev := cal.AddEvent(sess.ID + "@gymplanner")
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(sess.Date.At(sess.Start, s.loc))
		ev.SetEndAt(sess.Date.At(sess.End, s.loc))
		ev.SetSummary(sess.Activity.DisplayName())
		ev.SetLocation(sess.Room)
		ev.SetDescription(fmt.Sprintf("%d/%d enrolled", sess.EnrolledCount, sess.Capacity))
		ev.SetStatus(ics.ObjectStatusConfirmed)
	}
	return cal.Serialize()
}
