package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTermEnd(t *testing.T) {
	start := day("2026-03-01")
	cases := []struct {
		name string
		mt   MembershipType
		over bool
		want time.Time
	}{
		{"annual", MembershipType{BillingPeriod: BillingAnnual, EnforceMinimumTerm: true}, false, day("2027-03-01")},
		{"monthly stretched to a year", MembershipType{BillingPeriod: BillingMonthly, EnforceMinimumTerm: true}, false, day("2027-03-01")},
		{"monthly overridden", MembershipType{BillingPeriod: BillingMonthly, EnforceMinimumTerm: true}, true, day("2026-04-01")},
		{"quarterly without minimum", MembershipType{BillingPeriod: BillingQuarterly}, false, day("2026-06-01")},
		{"daily overridden", MembershipType{BillingPeriod: BillingDaily, EnforceMinimumTerm: true}, true, day("2026-03-02")},
		{"custom 18 months", MembershipType{BillingPeriod: BillingCustom, CustomPeriodMonths: 18, EnforceMinimumTerm: true}, false, day("2027-09-01")},
		{"custom 3 months stretched", MembershipType{BillingPeriod: BillingCustom, CustomPeriodMonths: 3, EnforceMinimumTerm: true}, false, day("2027-03-01")},
		{"lifetime ignores minimum term", MembershipType{BillingPeriod: BillingLifetime, EnforceMinimumTerm: true}, false, day("2076-03-01")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TermEnd(tc.mt, start, tc.over)
			if !got.Equal(tc.want) {
				t.Fatalf("TermEnd = %s, want %s", got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	now := day("2026-08-15")
	grace := day("2026-09-01")
	cancelled := day("2026-08-01")

	cases := []struct {
		name string
		m    Membership
		want MembershipStatus
	}{
		{"running", Membership{RenewalDate: day("2027-01-01")}, MembershipActive},
		{"past cancellation date", Membership{RenewalDate: day("2027-01-01"), CancellationDate: &cancelled}, MembershipCancelled},
		{"cancellation wins over expiry", Membership{RenewalDate: day("2026-01-01"), CancellationDate: &cancelled}, MembershipCancelled},
		{"lapsed", Membership{RenewalDate: day("2026-08-01")}, MembershipExpired},
		{"lapsed but in grace", Membership{RenewalDate: day("2026-08-01"), GraceUntil: &grace}, MembershipActive},
		{"unpaid beyond grace", Membership{RenewalDate: day("2027-01-01"), UnpaidAmount: decimal.RequireFromString("25.00")}, MembershipInactive},
		{"unpaid inside grace", Membership{RenewalDate: day("2027-01-01"), UnpaidAmount: decimal.RequireFromString("25.00"), GraceUntil: &grace}, MembershipActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.m.DeriveStatus(now); got != tc.want {
				t.Fatalf("DeriveStatus = %s, want %s", got, tc.want)
			}
		})
	}
}
