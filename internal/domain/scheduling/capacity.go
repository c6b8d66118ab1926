package scheduling

import "gymplanner/internal/domain"

// RemainingCapacity is the number of seats still open on s.
func RemainingCapacity(s *domain.Session) int {
	return s.Capacity - s.EnrolledCount
}

func IsFull(s *domain.Session) bool {
	return s.EnrolledCount >= s.Capacity
}
