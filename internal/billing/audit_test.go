package billing

import (
	"testing"
	"time"

	"ledenbeheer/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func coverInvoice(number string, from, to time.Time) domain.Invoice {
	return domain.Invoice{Number: number, Status: domain.InvoicePaid, CoverageStart: from, CoverageEnd: to}
}

func TestAuditCoverageContiguous(t *testing.T) {
	s := domain.DuesSchedule{BillingFrequency: domain.FrequencyMonthly}
	invs := []domain.Invoice{
		coverInvoice("INV-2026-0001", day(2026, 1, 1), day(2026, 1, 31)),
		coverInvoice("INV-2026-0002", day(2026, 2, 1), day(2026, 2, 28)),
		coverInvoice("INV-2026-0003", day(2026, 3, 1), day(2026, 3, 31)),
	}
	if issues := AuditCoverage(s, invs); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestAuditCoverageFindsGap(t *testing.T) {
	s := domain.DuesSchedule{BillingFrequency: domain.FrequencyMonthly}
	invs := []domain.Invoice{
		coverInvoice("INV-2026-0001", day(2026, 1, 1), day(2026, 1, 31)),
		coverInvoice("INV-2026-0003", day(2026, 3, 1), day(2026, 3, 31)),
	}
	issues := AuditCoverage(s, invs)
	if len(issues) != 1 || issues[0].Kind != IssueGap {
		t.Fatalf("issues = %v", issues)
	}
	if !issues[0].From.Equal(day(2026, 2, 1)) || !issues[0].To.Equal(day(2026, 2, 28)) {
		t.Fatalf("gap window = %v..%v", issues[0].From, issues[0].To)
	}
}

func TestAuditCoverageFindsOverlap(t *testing.T) {
	s := domain.DuesSchedule{BillingFrequency: domain.FrequencyMonthly}
	invs := []domain.Invoice{
		coverInvoice("INV-2026-0001", day(2026, 1, 1), day(2026, 1, 31)),
		coverInvoice("INV-2026-0002", day(2026, 1, 15), day(2026, 2, 14)),
	}
	issues := AuditCoverage(s, invs)
	if len(issues) != 1 || issues[0].Kind != IssueOverlap {
		t.Fatalf("issues = %v", issues)
	}
}

func TestAuditCoverageFlagsOddLength(t *testing.T) {
	s := domain.DuesSchedule{BillingFrequency: domain.FrequencyMonthly}
	invs := []domain.Invoice{
		coverInvoice("INV-2026-0001", day(2026, 1, 1), day(2026, 2, 14)), // 45 days
	}
	issues := AuditCoverage(s, invs)
	if len(issues) != 1 || issues[0].Kind != IssueLength {
		t.Fatalf("issues = %v", issues)
	}
}

func TestAuditCoverageToleratesCalendarMonths(t *testing.T) {
	s := domain.DuesSchedule{BillingFrequency: domain.FrequencyMonthly}
	// 31, 28 and 30 day months all sit inside 30±3.
	invs := []domain.Invoice{
		coverInvoice("a", day(2026, 1, 1), day(2026, 1, 31)),
		coverInvoice("b", day(2026, 2, 1), day(2026, 2, 28)),
		coverInvoice("c", day(2026, 4, 1), day(2026, 4, 30)),
	}
	issues := AuditCoverage(s, invs)
	for _, is := range issues {
		if is.Kind == IssueLength {
			t.Fatalf("calendar month flagged: %v", is)
		}
	}
}

func TestAuditCoverageIgnoresCancelled(t *testing.T) {
	s := domain.DuesSchedule{BillingFrequency: domain.FrequencyMonthly}
	cancelled := coverInvoice("INV-2026-0002", day(2026, 2, 1), day(2026, 2, 28))
	cancelled.Status = domain.InvoiceCancelled
	invs := []domain.Invoice{
		coverInvoice("INV-2026-0001", day(2026, 1, 1), day(2026, 1, 31)),
		cancelled,
		coverInvoice("INV-2026-0003", day(2026, 2, 1), day(2026, 2, 28)),
	}
	if issues := AuditCoverage(s, invs); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}
