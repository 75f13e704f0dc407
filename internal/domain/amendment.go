package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AmendmentType enumerates what a contribution amendment changes.
type AmendmentType string

const (
	AmendmentFeeChange      AmendmentType = "Fee Change"
	AmendmentIntervalChange AmendmentType = "Interval Change"
)

// AmendmentStatus enumerates amendment workflow states.
type AmendmentStatus string

const (
	AmendmentDraft    AmendmentStatus = "Draft"
	AmendmentPending  AmendmentStatus = "Pending Approval"
	AmendmentApproved AmendmentStatus = "Approved"
	AmendmentRejected AmendmentStatus = "Rejected"
	AmendmentApplied  AmendmentStatus = "Applied"
	AmendmentCancel   AmendmentStatus = "Cancelled"
)

// Open reports whether the amendment still blocks a new one for the
// same schedule.
func (s AmendmentStatus) Open() bool {
	switch s {
	case AmendmentDraft, AmendmentPending, AmendmentApproved:
		return true
	}
	return false
}

// AutoApproveMaxAmount caps self-service fee increases that skip
// manual review.
var AutoApproveMaxAmount = decimal.NewFromInt(1000)

// AutoApproveMaxChangePct caps the relative change that still
// auto-approves.
var AutoApproveMaxChangePct = decimal.NewFromInt(5)

// ContributionAmendment is a requested change to a dues schedule.
type ContributionAmendment struct {
	ID            string
	Schedule      string
	Member        string
	MemberName    string
	Type          AmendmentType
	Status        AmendmentStatus
	CurrentAmount decimal.Decimal
	NewAmount     decimal.Decimal
	CurrentFreq   BillingFrequency
	NewFreq       BillingFrequency
	Reason        string
	RequestedBy   string
	SelfService   bool
	EffectiveDate time.Time
	ApprovedBy    string
	ApprovedAt    *time.Time
	AppliedAt     *time.Time
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AutoApprovable reports whether the amendment can skip manual
// approval: a self-service fee increase within the absolute cap, or
// any fee change within the relative cap.
func (a ContributionAmendment) AutoApprovable() bool {
	if a.Type != AmendmentFeeChange {
		return false
	}
	if a.SelfService && a.NewAmount.GreaterThan(a.CurrentAmount) && a.NewAmount.LessThanOrEqual(AutoApproveMaxAmount) {
		return true
	}
	if a.CurrentAmount.IsZero() {
		return false
	}
	return a.changePct().LessThanOrEqual(AutoApproveMaxChangePct)
}

// PendingReasons lists why the amendment needs manual review. Empty
// when the amendment auto-approves.
func (a ContributionAmendment) PendingReasons() []string {
	if a.AutoApprovable() {
		return nil
	}
	if a.Type == AmendmentIntervalChange {
		return []string{"interval changes need review"}
	}
	var reasons []string
	if !a.SelfService {
		reasons = append(reasons, "third-party request")
	}
	if a.NewAmount.LessThan(a.CurrentAmount) {
		reasons = append(reasons, "fee decrease")
	}
	if a.SelfService && a.NewAmount.GreaterThan(AutoApproveMaxAmount) {
		reasons = append(reasons, "over the self-service cap")
	}
	if !a.CurrentAmount.IsZero() && a.changePct().GreaterThan(AutoApproveMaxChangePct) {
		reasons = append(reasons, fmt.Sprintf("change of %s%% exceeds %s%%", a.changePct().StringFixed(1), AutoApproveMaxChangePct.String()))
	}
	if len(reasons) == 0 {
		reasons = []string{"manual review required"}
	}
	return reasons
}

func (a ContributionAmendment) changePct() decimal.Decimal {
	if a.CurrentAmount.IsZero() {
		return decimal.Zero
	}
	return a.NewAmount.Sub(a.CurrentAmount).Abs().Div(a.CurrentAmount).Mul(decimal.NewFromInt(100))
}
