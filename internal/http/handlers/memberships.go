package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

type membershipDTO struct {
	ID                 string `json:"id"`
	Member             string `json:"member"`
	MembershipType     string `json:"membership_type"`
	StartDate          string `json:"start_date"`
	RenewalDate        string `json:"renewal_date"`
	Status             string `json:"status"`
	AutoRenew          bool   `json:"auto_renew"`
	GraceUntil         string `json:"grace_until,omitempty"`
	GraceReason        string `json:"grace_reason,omitempty"`
	CancellationDate   string `json:"cancellation_date,omitempty"`
	CancellationType   string `json:"cancellation_type,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	UnpaidAmount       string `json:"unpaid_amount,omitempty"`
}

func membershipToDTO(ms *domain.Membership) membershipDTO {
	dto := membershipDTO{
		ID:                 ms.ID,
		Member:             ms.Member,
		MembershipType:     ms.MembershipType,
		StartDate:          ms.StartDate.Format("2006-01-02"),
		RenewalDate:        ms.RenewalDate.Format("2006-01-02"),
		Status:             string(ms.Status),
		AutoRenew:          ms.AutoRenew,
		GraceUntil:         dateOrEmpty(ms.GraceUntil),
		GraceReason:        ms.GraceReason,
		CancellationDate:   dateOrEmpty(ms.CancellationDate),
		CancellationType:   string(ms.CancellationType),
		CancellationReason: ms.CancellationReason,
	}
	if !ms.UnpaidAmount.IsZero() {
		dto.UnpaidAmount = ms.UnpaidAmount.StringFixed(2)
	}
	return dto
}

type membershipCreateRequest struct {
	MemberID          string `json:"member_id"`
	MembershipType    string `json:"membership_type"`
	StartDate         string `json:"start_date"`
	MinimumOverridden bool   `json:"minimum_overridden"`
}

// MembershipCreate starts a membership term for an existing member.
func (a *App) MembershipCreate(w http.ResponseWriter, r *http.Request) {
	var req membershipCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	start := time.Now()
	if req.StartDate != "" {
		var err error
		start, err = parseDate(req.StartDate)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "start_date must be YYYY-MM-DD")
			return
		}
	}
	ms, err := a.Lifecycle.StartMembership(r.Context(), req.MemberID, req.MembershipType, start, req.MinimumOverridden)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, membershipToDTO(ms))
}

type membershipCancelRequest struct {
	Type   string `json:"type"` // Immediate or EndOfPeriod
	Reason string `json:"reason"`
}

// MembershipCancel records a cancellation, immediate or at period end.
func (a *App) MembershipCancel(w http.ResponseWriter, r *http.Request) {
	var req membershipCancelRequest
	if !a.decode(w, r, &req) {
		return
	}
	ms, err := a.Lifecycle.CancelMembership(r.Context(), chi.URLParam(r, "id"), domain.CancellationType(req.Type), req.Reason, time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, membershipToDTO(ms))
}

// MembershipListByMember returns all membership terms of one member.
func (a *App) MembershipListByMember(w http.ResponseWriter, r *http.Request) {
	list, err := a.Memberships.ListByMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]membershipDTO, 0, len(list))
	for i := range list {
		items = append(items, membershipToDTO(&list[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type membershipTypeDTO struct {
	ID                 string `json:"id,omitempty"`
	Name               string `json:"name"`
	BillingPeriod      string `json:"billing_period"`
	CustomPeriodMonths int    `json:"custom_period_months,omitempty"`
	MinimumAmount      string `json:"minimum_amount"`
	SuggestedAmount    string `json:"suggested_amount"`
	EnforceMinimumTerm bool   `json:"enforce_minimum_term"`
	Active             bool   `json:"active"`
}

// MembershipTypeList returns the configured membership types.
func (a *App) MembershipTypeList(w http.ResponseWriter, r *http.Request) {
	types, err := a.Memberships.ListTypes(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]membershipTypeDTO, 0, len(types))
	for _, t := range types {
		items = append(items, membershipTypeDTO{
			ID:                 t.ID,
			Name:               t.Name,
			BillingPeriod:      string(t.BillingPeriod),
			CustomPeriodMonths: t.CustomPeriodMonths,
			MinimumAmount:      t.MinimumAmount.StringFixed(2),
			SuggestedAmount:    t.SuggestedAmount.StringFixed(2),
			EnforceMinimumTerm: t.EnforceMinimumTerm,
			Active:             t.Active,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// MembershipTypeSave creates or updates a membership type by name.
func (a *App) MembershipTypeSave(w http.ResponseWriter, r *http.Request) {
	var req membershipTypeDTO
	if !a.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	minAmount, err := decimal.NewFromString(req.MinimumAmount)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "minimum_amount must be a decimal number")
		return
	}
	suggested, err := decimal.NewFromString(req.SuggestedAmount)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "suggested_amount must be a decimal number")
		return
	}
	if minAmount.IsNegative() || suggested.IsNegative() {
		a.error(w, http.StatusBadRequest, "bad_request", "amounts must not be negative")
		return
	}
	if suggested.LessThan(minAmount) {
		a.error(w, http.StatusBadRequest, "bad_request", "suggested_amount must not be below minimum_amount")
		return
	}
	period := domain.BillingPeriod(req.BillingPeriod)
	switch period {
	case domain.BillingDaily, domain.BillingMonthly, domain.BillingQuarterly,
		domain.BillingBiannual, domain.BillingAnnual, domain.BillingLifetime:
	case domain.BillingCustom:
		if req.CustomPeriodMonths <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "custom_period_months must be positive for a custom period")
			return
		}
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown billing_period")
		return
	}
	t := &domain.MembershipType{
		ID:                 req.ID,
		Name:               req.Name,
		BillingPeriod:      period,
		CustomPeriodMonths: req.CustomPeriodMonths,
		MinimumAmount:      minAmount,
		SuggestedAmount:    suggested,
		EnforceMinimumTerm: req.EnforceMinimumTerm,
		Active:             req.Active,
	}
	if err := a.Memberships.SaveType(r.Context(), t); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, membershipTypeDTO{
		ID:                 t.ID,
		Name:               t.Name,
		BillingPeriod:      string(t.BillingPeriod),
		CustomPeriodMonths: t.CustomPeriodMonths,
		MinimumAmount:      t.MinimumAmount.StringFixed(2),
		SuggestedAmount:    t.SuggestedAmount.StringFixed(2),
		EnforceMinimumTerm: t.EnforceMinimumTerm,
		Active:             t.Active,
	})
}
