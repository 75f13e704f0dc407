package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

type expenseDTO struct {
	ID           string `json:"id"`
	Volunteer    string `json:"volunteer"`
	OrgType      string `json:"org_type"`
	OrgRef       string `json:"org_ref"`
	Category     string `json:"category,omitempty"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
	ExpenseDate  string `json:"expense_date"`
	Status       string `json:"status"`
	ApprovedBy   string `json:"approved_by,omitempty"`
	ApprovedAt   string `json:"approved_at,omitempty"`
	RejectReason string `json:"reject_reason,omitempty"`
}

func expenseToDTO(e *domain.Expense) expenseDTO {
	return expenseDTO{
		ID:           e.ID,
		Volunteer:    e.Volunteer,
		OrgType:      string(e.OrgType),
		OrgRef:       e.OrgRef,
		Category:     e.Category,
		Description:  e.Description,
		Amount:       e.Amount.StringFixed(2),
		ExpenseDate:  e.ExpenseDate.Format("2006-01-02"),
		Status:       string(e.Status),
		ApprovedBy:   e.ApprovedBy,
		ApprovedAt:   timeOrEmpty(e.ApprovedAt),
		RejectReason: e.RejectReason,
	}
}

type expenseSubmitRequest struct {
	VolunteerID string `json:"volunteer_id"`
	OrgType     string `json:"org_type"` // Chapter or Team
	OrgRef      string `json:"org_ref"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	ExpenseDate string `json:"expense_date"`
}

// belongsToOrg reports whether the volunteer holds an active seat in
// the claimed chapter board or team.
func (a *App) belongsToOrg(r *http.Request, volunteerID string, orgType domain.ExpenseOrganization, orgRef string) (bool, error) {
	assignments, err := a.Volunteers.ListAssignments(r.Context(), volunteerID, true)
	if err != nil {
		return false, err
	}
	for _, as := range assignments {
		if as.Reference != orgRef {
			continue
		}
		switch {
		case orgType == domain.ExpenseOrgChapter && as.Source == domain.AssignmentBoard:
			return true, nil
		case orgType == domain.ExpenseOrgTeam && as.Source == domain.AssignmentTeam:
			return true, nil
		}
	}
	return false, nil
}

// ExpenseSubmit files a reimbursement claim against a chapter or team
// the volunteer actually serves in.
func (a *App) ExpenseSubmit(w http.ResponseWriter, r *http.Request) {
	var req expenseSubmitRequest
	if !a.decode(w, r, &req) {
		return
	}
	orgType := domain.ExpenseOrganization(req.OrgType)
	if orgType != domain.ExpenseOrgChapter && orgType != domain.ExpenseOrgTeam {
		a.error(w, http.StatusBadRequest, "bad_request", "org_type must be Chapter or Team")
		return
	}
	if req.OrgRef == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "org_ref is required")
		return
	}
	if req.Description == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "description is required")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be a positive decimal number")
		return
	}
	date, err := parseDate(req.ExpenseDate)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "expense_date must be YYYY-MM-DD")
		return
	}
	now := time.Now()
	if date.After(now) {
		a.error(w, http.StatusBadRequest, "bad_request", "expense_date must not be in the future")
		return
	}
	vol, err := a.Volunteers.GetByID(r.Context(), req.VolunteerID)
	if err != nil {
		a.fail(w, err)
		return
	}
	ok, err := a.belongsToOrg(r, vol.ID, orgType, req.OrgRef)
	if err != nil {
		a.fail(w, err)
		return
	}
	if !ok {
		a.error(w, http.StatusForbidden, "forbidden", "volunteer has no active assignment in that organization")
		return
	}
	e := &domain.Expense{
		Volunteer:   vol.ID,
		OrgType:     orgType,
		OrgRef:      req.OrgRef,
		Category:    req.Category,
		Description: req.Description,
		Amount:      amount,
		ExpenseDate: date,
		Status:      domain.ExpenseSubmitted,
	}
	if err := a.Expenses.Create(r.Context(), e); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, expenseToDTO(e))
}

// ExpenseList returns claims by status, or by volunteer when given.
func (a *App) ExpenseList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	var (
		expenses []domain.Expense
		err      error
	)
	if volunteerID := q.Get("volunteer"); volunteerID != "" {
		expenses, err = a.Expenses.ListByVolunteer(r.Context(), volunteerID, limit)
	} else {
		status := domain.ExpenseStatus(q.Get("status"))
		if status == "" {
			status = domain.ExpenseSubmitted
		}
		expenses, err = a.Expenses.ListByStatus(r.Context(), status, limit)
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]expenseDTO, 0, len(expenses))
	for i := range expenses {
		items = append(items, expenseToDTO(&expenses[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ExpenseGet returns one claim.
func (a *App) ExpenseGet(w http.ResponseWriter, r *http.Request) {
	e, err := a.Expenses.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, expenseToDTO(e))
}

// ExpenseApprove accepts a submitted claim.
func (a *App) ExpenseApprove(w http.ResponseWriter, r *http.Request) {
	e, err := a.Expenses.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if e.Status != domain.ExpenseSubmitted {
		a.error(w, http.StatusConflict, "conflict", "expense is "+string(e.Status))
		return
	}
	now := time.Now()
	e.Status = domain.ExpenseApproved
	e.ApprovedBy = a.actorName(r)
	e.ApprovedAt = &now
	if err := a.Expenses.Update(r.Context(), e); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, expenseToDTO(e))
}

type expenseRejectRequest struct {
	Reason string `json:"reason"`
}

// ExpenseReject declines a claim with a reason. Approved claims can
// still be unwound here as long as nothing was paid out; the approval
// fields stay on the record as audit trail.
func (a *App) ExpenseReject(w http.ResponseWriter, r *http.Request) {
	var req expenseRejectRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Reason == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reason is required")
		return
	}
	e, err := a.Expenses.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if e.Status != domain.ExpenseSubmitted && e.Status != domain.ExpenseApproved {
		a.error(w, http.StatusConflict, "conflict", "expense is "+string(e.Status))
		return
	}
	e.Status = domain.ExpenseRejected
	e.RejectReason = req.Reason
	if err := a.Expenses.Update(r.Context(), e); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, expenseToDTO(e))
}

// ExpenseMarkReimbursed records the payout of an approved claim.
func (a *App) ExpenseMarkReimbursed(w http.ResponseWriter, r *http.Request) {
	e, err := a.Expenses.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if e.Status != domain.ExpenseApproved {
		a.error(w, http.StatusConflict, "conflict", "expense is "+string(e.Status))
		return
	}
	e.Status = domain.ExpenseReimbursed
	if err := a.Expenses.Update(r.Context(), e); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, expenseToDTO(e))
}
