package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/domain"
)

type amendmentDTO struct {
	ID            string `json:"id"`
	Schedule      string `json:"schedule"`
	Member        string `json:"member"`
	MemberName    string `json:"member_name,omitempty"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	CurrentAmount string `json:"current_amount"`
	NewAmount     string `json:"new_amount,omitempty"`
	CurrentFreq   string `json:"current_frequency,omitempty"`
	NewFreq       string `json:"new_frequency,omitempty"`
	Reason        string `json:"reason,omitempty"`
	RequestedBy   string `json:"requested_by"`
	SelfService   bool   `json:"self_service"`
	EffectiveDate string `json:"effective_date"`
	ApprovedBy    string `json:"approved_by,omitempty"`
	ApprovedAt    string `json:"approved_at,omitempty"`
	AppliedAt     string `json:"applied_at,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func amendmentToDTO(am *domain.ContributionAmendment) amendmentDTO {
	dto := amendmentDTO{
		ID:            am.ID,
		Schedule:      am.Schedule,
		Member:        am.Member,
		MemberName:    am.MemberName,
		Type:          string(am.Type),
		Status:        string(am.Status),
		CurrentAmount: am.CurrentAmount.StringFixed(2),
		CurrentFreq:   string(am.CurrentFreq),
		NewFreq:       string(am.NewFreq),
		Reason:        am.Reason,
		RequestedBy:   am.RequestedBy,
		SelfService:   am.SelfService,
		ApprovedBy:    am.ApprovedBy,
		ApprovedAt:    timeOrEmpty(am.ApprovedAt),
		AppliedAt:     timeOrEmpty(am.AppliedAt),
		Notes:         am.Notes,
	}
	if !am.NewAmount.IsZero() {
		dto.NewAmount = am.NewAmount.StringFixed(2)
	}
	if !am.EffectiveDate.IsZero() {
		dto.EffectiveDate = am.EffectiveDate.Format("2006-01-02")
	}
	return dto
}

type amendmentCreateRequest struct {
	ScheduleID    string `json:"schedule_id"`
	Type          string `json:"type"` // Fee Change or Interval Change
	NewAmount     string `json:"new_amount"`
	NewFrequency  string `json:"new_frequency"`
	Reason        string `json:"reason"`
	EffectiveDate string `json:"effective_date"`
}

func (a *App) buildAmendmentRequest(w http.ResponseWriter, req amendmentCreateRequest, requestedBy string, selfService bool) (billing.AmendmentRequest, bool) {
	atype := domain.AmendmentType(req.Type)
	if atype != domain.AmendmentFeeChange && atype != domain.AmendmentIntervalChange {
		a.error(w, http.StatusBadRequest, "bad_request", "type must be Fee Change or Interval Change")
		return billing.AmendmentRequest{}, false
	}
	out := billing.AmendmentRequest{
		ScheduleID:  req.ScheduleID,
		Type:        atype,
		Reason:      req.Reason,
		RequestedBy: requestedBy,
		SelfService: selfService,
	}
	if atype == domain.AmendmentFeeChange {
		amount, err := decimal.NewFromString(req.NewAmount)
		if err != nil || !amount.IsPositive() {
			a.error(w, http.StatusBadRequest, "bad_request", "new_amount must be a positive decimal number")
			return billing.AmendmentRequest{}, false
		}
		out.NewAmount = amount
	} else {
		freq := domain.BillingFrequency(req.NewFrequency)
		switch freq {
		case domain.FrequencyDaily, domain.FrequencyMonthly, domain.FrequencyQuarterly, domain.FrequencyAnnual:
		default:
			a.error(w, http.StatusBadRequest, "bad_request", "unknown new_frequency")
			return billing.AmendmentRequest{}, false
		}
		out.NewFreq = freq
	}
	if req.EffectiveDate != "" {
		date, err := parseDate(req.EffectiveDate)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "effective_date must be YYYY-MM-DD")
			return billing.AmendmentRequest{}, false
		}
		out.EffectiveDate = date
	}
	return out, true
}

// AmendmentCreate files a dues change on behalf of a member.
func (a *App) AmendmentCreate(w http.ResponseWriter, r *http.Request) {
	var req amendmentCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	built, ok := a.buildAmendmentRequest(w, req, a.actorName(r), false)
	if !ok {
		return
	}
	am, err := a.Amending.Request(r.Context(), built)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, amendmentToDTO(am))
}

// AmendmentSelfService lets a signed-in member adjust their own
// contribution. The schedule must belong to the caller.
func (a *App) AmendmentSelfService(w http.ResponseWriter, r *http.Request) {
	_, _, memberID := a.currentAccount(r)
	if memberID == "" {
		a.error(w, http.StatusForbidden, "forbidden", "account is not linked to a member")
		return
	}
	var req amendmentCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	s, err := a.Schedules.GetActiveByMember(r.Context(), memberID)
	if err != nil {
		a.fail(w, err)
		return
	}
	req.ScheduleID = s.ID
	built, ok := a.buildAmendmentRequest(w, req, a.actorName(r), true)
	if !ok {
		return
	}
	am, err := a.Amending.Request(r.Context(), built)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, amendmentToDTO(am))
}

// AmendmentList returns amendments by status or schedule.
func (a *App) AmendmentList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		amendments []domain.ContributionAmendment
		err        error
	)
	if scheduleID := q.Get("schedule"); scheduleID != "" {
		amendments, err = a.Amendments.ListBySchedule(r.Context(), scheduleID)
	} else {
		status := domain.AmendmentStatus(q.Get("status"))
		if status == "" {
			status = domain.AmendmentPending
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		amendments, err = a.Amendments.ListByStatus(r.Context(), status, limit)
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]amendmentDTO, 0, len(amendments))
	for i := range amendments {
		items = append(items, amendmentToDTO(&amendments[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// AmendmentGet returns one amendment.
func (a *App) AmendmentGet(w http.ResponseWriter, r *http.Request) {
	am, err := a.Amendments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, amendmentToDTO(am))
}

// AmendmentApprove accepts a pending amendment.
func (a *App) AmendmentApprove(w http.ResponseWriter, r *http.Request) {
	am, err := a.Amending.Approve(r.Context(), chi.URLParam(r, "id"), a.actorName(r))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, amendmentToDTO(am))
}

type amendmentRejectRequest struct {
	Note string `json:"note"`
}

// AmendmentReject declines a pending amendment.
func (a *App) AmendmentReject(w http.ResponseWriter, r *http.Request) {
	var req amendmentRejectRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	am, err := a.Amending.Reject(r.Context(), chi.URLParam(r, "id"), a.actorName(r), req.Note)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, amendmentToDTO(am))
}

// AmendmentCancel withdraws an open amendment with a reason.
func (a *App) AmendmentCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	am, err := a.Amending.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, amendmentToDTO(am))
}

// AmendmentApply pushes an approved amendment into its schedule ahead
// of the scheduled sweep.
func (a *App) AmendmentApply(w http.ResponseWriter, r *http.Request) {
	am, err := a.Amendments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	s, err := a.Amending.Apply(r.Context(), am, time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	if s == nil {
		a.error(w, http.StatusConflict, "conflict", "amendment is not effective yet")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"amendment": amendmentToDTO(am),
		"schedule":  duesScheduleToDTO(s),
	})
}
