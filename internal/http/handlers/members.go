package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/middleware"
)

type applicationRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	BirthDate      string `json:"birth_date"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Street         string `json:"street"`
	MembershipType string `json:"membership_type"`
	PaymentMethod  string `json:"payment_method"`
	IBAN           string `json:"iban"`
	BIC            string `json:"bic"`
	AccountHolder  string `json:"account_holder"`
	CustomAmount   string `json:"custom_amount"`
}

type applicationDTO struct {
	ID             string `json:"id"`
	Reference      string `json:"reference"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	MembershipType string `json:"membership_type"`
	PaymentMethod  string `json:"payment_method"`
	Chapter        string `json:"chapter,omitempty"`
	Status         string `json:"status"`
	RejectReason   string `json:"reject_reason,omitempty"`
	MemberID       string `json:"member_id,omitempty"`
	SubmittedAt    string `json:"submitted_at"`
}

func applicationToDTO(app *domain.Application) applicationDTO {
	return applicationDTO{
		ID:             app.ID,
		Reference:      app.DisplayID(),
		FirstName:      app.FirstName,
		LastName:       app.LastName,
		Email:          app.Email,
		MembershipType: app.MembershipType,
		PaymentMethod:  string(app.PaymentMethod),
		Chapter:        app.Chapter,
		Status:         string(app.Status),
		RejectReason:   app.RejectReason,
		MemberID:       app.MemberID,
		SubmittedAt:    app.SubmittedAt.Format(time.RFC3339),
	}
}

// ApplicationSubmit takes a public portal application. The submitting
// connection's country is tagged onto the record when resolvable.
func (a *App) ApplicationSubmit(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if !a.decode(w, r, &req) {
		return
	}
	birth, err := parseDate(req.BirthDate)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "birth_date must be YYYY-MM-DD")
		return
	}
	amount := decimal.Zero
	if req.CustomAmount != "" {
		amount, err = decimal.NewFromString(req.CustomAmount)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "custom_amount must be a decimal number")
			return
		}
	}
	app := &domain.Application{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		BirthDate:      birth,
		PostalCode:     req.PostalCode,
		City:           req.City,
		Street:         req.Street,
		CountryCode:    middleware.CountryFromContext(r.Context()),
		MembershipType: req.MembershipType,
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
		IBAN:           req.IBAN,
		BIC:            req.BIC,
		AccountHolder:  req.AccountHolder,
		CustomAmount:   amount,
	}
	if err := a.Lifecycle.Apply(r.Context(), app, time.Now()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, applicationToDTO(app))
}

// ApplicationList returns applications awaiting review by default.
func (a *App) ApplicationList(w http.ResponseWriter, r *http.Request) {
	status := domain.ApplicationStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.ApplicationPending
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	apps, err := a.Applications.ListByStatus(r.Context(), status, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]applicationDTO, 0, len(apps))
	for i := range apps {
		items = append(items, applicationToDTO(&apps[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type reviewRequest struct {
	Chapter string `json:"chapter"`
	Reason  string `json:"reason"`
}

// ApplicationApprove activates the applicant as a member.
func (a *App) ApplicationApprove(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	m, err := a.Lifecycle.Approve(r.Context(), chi.URLParam(r, "id"), a.actorName(r), req.Chapter, time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, memberToDTO(m))
}

// ApplicationReject closes an application with a reason.
func (a *App) ApplicationReject(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	if err := a.Lifecycle.Reject(r.Context(), chi.URLParam(r, "id"), a.actorName(r), req.Reason, time.Now()); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type memberDTO struct {
	ID            string `json:"id"`
	MemberNumber  int    `json:"member_number,omitempty"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	BirthDate     string `json:"birth_date"`
	PostalCode    string `json:"postal_code,omitempty"`
	City          string `json:"city,omitempty"`
	Street        string `json:"street,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	IBAN          string `json:"iban,omitempty"`
	BIC           string `json:"bic,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`
	Chapter       string `json:"chapter,omitempty"`
	FeeOverride   string `json:"fee_override,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func memberToDTO(m *domain.Member) memberDTO {
	dto := memberDTO{
		ID:            m.ID,
		MemberNumber:  m.MemberNumber,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Email:         m.Email,
		BirthDate:     m.BirthDate.Format("2006-01-02"),
		PostalCode:    m.PostalCode,
		City:          m.City,
		Street:        m.Street,
		CountryCode:   m.CountryCode,
		Status:        string(m.Status),
		PaymentMethod: string(m.PaymentMethod),
		IBAN:          m.IBAN,
		BIC:           m.BIC,
		AccountHolder: m.AccountHolder,
		Chapter:       m.Chapter,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.FeeOverride != nil {
		dto.FeeOverride = m.FeeOverride.Amount.StringFixed(2)
	}
	return dto
}

// MemberList returns members matching the status, chapter and search
// filters.
func (a *App) MemberList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	members, err := a.Members.List(r.Context(), domain.MemberFilter{
		Status:  domain.MemberStatus(q.Get("status")),
		Chapter: q.Get("chapter"),
		Search:  q.Get("search"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]memberDTO, 0, len(members))
	for i := range members {
		items = append(items, memberToDTO(&members[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// MemberGet returns one member by id.
func (a *App) MemberGet(w http.ResponseWriter, r *http.Request) {
	m, err := a.Members.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, memberToDTO(m))
}

type bankDetailsRequest struct {
	IBAN          string `json:"iban"`
	BIC           string `json:"bic"`
	AccountHolder string `json:"account_holder"`
}

// MemberUpdateBank swaps the member's bank account after validation.
func (a *App) MemberUpdateBank(w http.ResponseWriter, r *http.Request) {
	var req bankDetailsRequest
	if !a.decode(w, r, &req) {
		return
	}
	m, err := a.Lifecycle.UpdateBankDetails(r.Context(), chi.URLParam(r, "id"), req.IBAN, req.BIC, req.AccountHolder)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, memberToDTO(m))
}

type feeOverrideRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// MemberFeeOverride sets a manager-approved deviation from the type
// rate.
func (a *App) MemberFeeOverride(w http.ResponseWriter, r *http.Request) {
	var req feeOverrideRequest
	if !a.decode(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be a decimal number")
		return
	}
	m, err := a.Lifecycle.SetFeeOverride(r.Context(), chi.URLParam(r, "id"), amount, req.Reason, a.actorName(r))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, memberToDTO(m))
}
