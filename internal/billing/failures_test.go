package billing

import (
	"testing"
	"time"

	"ledenbeheer/internal/domain"
)

func TestApplyCollectionFailureGraceThenSuspend(t *testing.T) {
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := domain.DuesSchedule{Status: domain.DuesActive}

	if suspended := ApplyCollectionFailure(&s, at); suspended {
		t.Fatal("first failure should not suspend")
	}
	if s.Status != domain.DuesGrace || s.GraceUntil == nil {
		t.Fatalf("after first failure: %+v", s)
	}
	if want := at.AddDate(0, 0, domain.FailureGraceDays); !s.GraceUntil.Equal(want) {
		t.Fatalf("grace until = %v, want %v", s.GraceUntil, want)
	}

	ApplyCollectionFailure(&s, at)
	if suspended := ApplyCollectionFailure(&s, at); !suspended {
		t.Fatal("third failure should suspend")
	}
	if s.Status != domain.DuesSuspended || s.GraceUntil != nil {
		t.Fatalf("after third failure: %+v", s)
	}
}

func TestApplyCollectionSuccessResets(t *testing.T) {
	until := time.Now()
	s := domain.DuesSchedule{Status: domain.DuesGrace, ConsecutiveFailures: 2, GraceUntil: &until}

	ApplyCollectionSuccess(&s)
	if s.Status != domain.DuesActive || s.ConsecutiveFailures != 0 || s.GraceUntil != nil {
		t.Fatalf("after success: %+v", s)
	}
}
