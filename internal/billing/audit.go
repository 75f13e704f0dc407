package billing

import (
	"fmt"
	"sort"
	"time"

	"ledenbeheer/internal/domain"
)

// Coverage issue kinds.
const (
	IssueGap     = "gap"
	IssueOverlap = "overlap"
	IssueLength  = "length"
)

// CoverageIssue flags a hole, overlap or odd-sized period in a
// schedule's invoice history.
type CoverageIssue struct {
	Kind    string
	Invoice string
	From    time.Time
	To      time.Time
	Detail  string
}

func (i CoverageIssue) String() string {
	return fmt.Sprintf("%s %s (%s..%s): %s", i.Kind, i.Invoice, i.From.Format("2006-01-02"), i.To.Format("2006-01-02"), i.Detail)
}

// periodSpec is the expected coverage length per frequency with its
// calendar slack.
type periodSpec struct {
	expected  int
	tolerance int
}

var periodSpecs = map[domain.BillingFrequency]periodSpec{
	domain.FrequencyDaily:     {expected: 1, tolerance: 0},
	domain.FrequencyWeekly:    {expected: 7, tolerance: 1},
	domain.FrequencyMonthly:   {expected: 30, tolerance: 3},
	domain.FrequencyQuarterly: {expected: 90, tolerance: 7},
	domain.FrequencyAnnual:    {expected: 365, tolerance: 2},
}

// AuditCoverage inspects a schedule's invoices for continuity.
// Cancelled invoices are ignored. Invoices are expected to tile the
// timeline: each next period starts the day after the previous one
// ends.
func AuditCoverage(s domain.DuesSchedule, invoices []domain.Invoice) []CoverageIssue {
	spec, ok := periodSpecs[s.BillingFrequency]
	if !ok {
		spec = periodSpecs[domain.FrequencyMonthly]
	}

	kept := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status == domain.InvoiceCancelled || inv.CoverageStart.IsZero() {
			continue
		}
		kept = append(kept, inv)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].CoverageStart.Before(kept[j].CoverageStart) })

	var issues []CoverageIssue
	for idx, inv := range kept {
		length := daysInclusive(inv.CoverageStart, inv.CoverageEnd)
		if diff := length - spec.expected; diff > spec.tolerance || diff < -spec.tolerance {
			issues = append(issues, CoverageIssue{
				Kind:    IssueLength,
				Invoice: inv.Number,
				From:    inv.CoverageStart,
				To:      inv.CoverageEnd,
				Detail:  fmt.Sprintf("covers %d days, expected %d±%d", length, spec.expected, spec.tolerance),
			})
		}
		if idx == 0 {
			continue
		}
		prev := kept[idx-1]
		gap := daysBetween(prev.CoverageEnd, inv.CoverageStart) - 1
		switch {
		case gap > 0:
			issues = append(issues, CoverageIssue{
				Kind:    IssueGap,
				Invoice: inv.Number,
				From:    prev.CoverageEnd.AddDate(0, 0, 1),
				To:      inv.CoverageStart.AddDate(0, 0, -1),
				Detail:  fmt.Sprintf("%d uncovered days after %s", gap, prev.Number),
			})
		case gap < 0:
			issues = append(issues, CoverageIssue{
				Kind:    IssueOverlap,
				Invoice: inv.Number,
				From:    inv.CoverageStart,
				To:      prev.CoverageEnd,
				Detail:  fmt.Sprintf("overlaps %s by %d days", prev.Number, -gap),
			})
		}
	}
	return issues
}

// MissedCurrentWindow reports whether a direct debit schedule that
// should auto-generate has no invoice covering today. CoverageEnd
// lags behind when the invoice run skipped or failed the schedule.
func MissedCurrentWindow(s domain.DuesSchedule, now time.Time) bool {
	if s.Status != domain.DuesActive || !s.AutoGenerate {
		return false
	}
	if s.PaymentMethod != domain.PaymentMethodDirectDebit || s.CoverageEnd.IsZero() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.CoverageEnd.Before(today)
}

func daysInclusive(from, to time.Time) int {
	return daysBetween(from, to) + 1
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
