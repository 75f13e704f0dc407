package billing

import (
	"time"

	"ledenbeheer/internal/domain"
)

// ApplyCollectionFailure records a failed direct debit on the
// schedule. The third consecutive failure suspends billing, earlier
// ones open a grace window. Returns true when the schedule suspended.
func ApplyCollectionFailure(s *domain.DuesSchedule, at time.Time) bool {
	s.ConsecutiveFailures++
	if s.ConsecutiveFailures >= domain.SuspendAfterFailures {
		s.Status = domain.DuesSuspended
		s.GraceUntil = nil
		return true
	}
	until := at.AddDate(0, 0, domain.FailureGraceDays)
	s.GraceUntil = &until
	s.Status = domain.DuesGrace
	return false
}

// ApplyCollectionSuccess clears failure tracking after a successful
// collection and reactivates a schedule that sat in grace.
func ApplyCollectionSuccess(s *domain.DuesSchedule) {
	s.ConsecutiveFailures = 0
	s.GraceUntil = nil
	if s.Status == domain.DuesGrace || s.Status == domain.DuesSuspended {
		s.Status = domain.DuesActive
	}
}
