package coach

import "gymplanner/internal/domain"

type CreateCoachRequest struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Phone       string             `json:"phone" validate:"omitempty,max=30"`
	UserID      *string            `json:"user_id" validate:"omitempty,uuid"`
	Specialties []domain.Specialty `json:"specialties" validate:"required,min=1"`
}

type WindowRequest struct {
	Weekday int    `json:"weekday" validate:"min=0,max=6"`
	Start   string `json:"start_time" validate:"required,clock"`
	End     string `json:"end_time" validate:"required,clock"`
}

// ReplaceAvailabilityRequest replaces the whole weekly plan. An empty list
// leaves the coach with no declared windows.
type ReplaceAvailabilityRequest struct {
	Windows []WindowRequest `json:"windows" validate:"dive"`
}

type CoachResponse struct {
	ID          string                      `json:"id"`
	Name        string                      `json:"name"`
	Phone       string                      `json:"phone,omitempty"`
	UserID      *string                     `json:"user_id,omitempty"`
	Specialties []domain.Specialty          `json:"specialties"`
	Windows     []domain.AvailabilityWindow `json:"availability,omitempty"`
}

func toResponse(c *domain.Coach) CoachResponse {
	return CoachResponse{
		ID:          c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		UserID:      c.UserID,
		Specialties: c.SpecialtyNames(),
		Windows:     c.Availability,
	}
}
