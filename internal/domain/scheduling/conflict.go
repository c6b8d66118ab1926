package scheduling

import (
	"fmt"

	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/timeslot"
)

// Slot is the part of a session that takes up a coach: who, which day, when.
type Slot struct {
	CoachID string
	Date    timeslot.Date
	Start   timeslot.Clock
	End     timeslot.Clock
}

// ValidateRange rejects empty or inverted time ranges.
func ValidateRange(start, end timeslot.Clock) error {
	if !start.Valid() || !end.Valid() {
		return Validation(RuleInvalidRange, "Times must be between 00:00 and 23:59.")
	}
	if start >= end {
		return Validation(RuleInvalidRange, "The start time (%s) must be before the end time (%s).", start, end)
	}
	return nil
}

// DetectCoachConflict returns a conflict for the first session, in the given
// order, that holds the same coach on the same date at an overlapping time.
// The session identified by excludeID is skipped so an edited session does not
// collide with its own prior occupancy.
func DetectCoachConflict(sessions []domain.Session, candidate Slot, excludeID string) error {
	if err := ValidateRange(candidate.Start, candidate.End); err != nil {
		return err
	}

	for i := range sessions {
		s := &sessions[i]
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if s.CoachID != candidate.CoachID || s.Date != candidate.Date {
			continue
		}
		if timeslot.Overlaps(candidate.Start, candidate.End, s.Start, s.End) {
			return Conflict(RuleCoachConflict, s.ID,
				"The coach is already assigned to %s.", Describe(s))
		}
	}
	return nil
}

// DetectReservationConflict checks whether memberID already holds a
// reservation for a session that overlaps candidateSessionID on the same day.
// An unknown candidate session yields no conflict; existence is checked by
// the caller.
func DetectReservationConflict(sessions []domain.Session, reservations []domain.Reservation, memberID, candidateSessionID string) error {
	byID := make(map[string]*domain.Session, len(sessions))
	for i := range sessions {
		byID[sessions[i].ID] = &sessions[i]
	}

	candidate, ok := byID[candidateSessionID]
	if !ok {
		return nil
	}

	for _, r := range reservations {
		if r.MemberID != memberID || r.SessionID == candidateSessionID {
			continue
		}
		existing, ok := byID[r.SessionID]
		if !ok || existing.Date != candidate.Date {
			continue
		}
		if timeslot.Overlaps(candidate.Start, candidate.End, existing.Start, existing.End) {
			return Conflict(RuleMemberConflict, existing.ID,
				"You already have a reservation on %s from %s to %s (%s).",
				existing.Date, existing.Start, existing.End, existing.Activity.DisplayName())
		}
	}
	return nil
}

// Describe renders a session for conflict messages.
func Describe(s *domain.Session) string {
	return fmt.Sprintf("a %s session on %s from %s to %s (room %s)",
		s.Activity.DisplayName(), s.Date, s.Start, s.End, s.Room)
}
