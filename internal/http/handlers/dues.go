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

type duesScheduleDTO struct {
	ID                  string `json:"id"`
	Member              string `json:"member"`
	Membership          string `json:"membership"`
	MembershipType      string `json:"membership_type"`
	BillingFrequency    string `json:"billing_frequency"`
	DuesRate            string `json:"dues_rate"`
	NextInvoiceDate     string `json:"next_invoice_date"`
	InvoiceLeadDays     int    `json:"invoice_lead_days"`
	CoverageStart       string `json:"coverage_start,omitempty"`
	CoverageEnd         string `json:"coverage_end,omitempty"`
	LastInvoiceDate     string `json:"last_invoice_date,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	GraceUntil          string `json:"grace_until,omitempty"`
	Status              string `json:"status"`
	PaymentMethod       string `json:"payment_method"`
	ActiveMandate       string `json:"active_mandate,omitempty"`
	AutoGenerate        bool   `json:"auto_generate"`
}

func duesScheduleToDTO(s *domain.DuesSchedule) duesScheduleDTO {
	dto := duesScheduleDTO{
		ID:                  s.ID,
		Member:              s.Member,
		Membership:          s.Membership,
		MembershipType:      s.MembershipType,
		BillingFrequency:    string(s.BillingFrequency),
		DuesRate:            s.DuesRate.StringFixed(2),
		NextInvoiceDate:     s.NextInvoiceDate.Format("2006-01-02"),
		InvoiceLeadDays:     s.InvoiceLeadDays,
		LastInvoiceDate:     dateOrEmpty(s.LastInvoiceDate),
		ConsecutiveFailures: s.ConsecutiveFailures,
		GraceUntil:          dateOrEmpty(s.GraceUntil),
		Status:              string(s.Status),
		PaymentMethod:       string(s.PaymentMethod),
		ActiveMandate:       s.ActiveMandate,
		AutoGenerate:        s.AutoGenerate,
	}
	if !s.CoverageStart.IsZero() {
		dto.CoverageStart = s.CoverageStart.Format("2006-01-02")
		dto.CoverageEnd = s.CoverageEnd.Format("2006-01-02")
	}
	return dto
}

// DuesScheduleGet returns one dues schedule.
func (a *App) DuesScheduleGet(w http.ResponseWriter, r *http.Request) {
	s, err := a.Schedules.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, duesScheduleToDTO(s))
}

// DuesScheduleList lists schedules in one state, Active by default.
func (a *App) DuesScheduleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	status := domain.DuesStatus(q.Get("status"))
	if status == "" {
		status = domain.DuesActive
	}
	switch status {
	case domain.DuesActive, domain.DuesGrace, domain.DuesSuspended, domain.DuesPaused, domain.DuesCancelled:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown schedule status")
		return
	}
	schedules, err := a.Schedules.ListByStatus(r.Context(), status, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]duesScheduleDTO, 0, len(schedules))
	for i := range schedules {
		items = append(items, duesScheduleToDTO(&schedules[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// DuesScheduleByMember returns the member's active schedule.
func (a *App) DuesScheduleByMember(w http.ResponseWriter, r *http.Request) {
	s, err := a.Schedules.GetActiveByMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, duesScheduleToDTO(s))
}

// DuesSchedulePause stops invoice generation until resumed.
func (a *App) DuesSchedulePause(w http.ResponseWriter, r *http.Request) {
	s, err := a.Schedules.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if s.Status == domain.DuesCancelled {
		a.error(w, http.StatusConflict, "conflict", "schedule is cancelled")
		return
	}
	s.Status = domain.DuesPaused
	if err := a.Schedules.Update(r.Context(), s); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, duesScheduleToDTO(s))
}

// DuesScheduleResume reactivates a paused schedule.
func (a *App) DuesScheduleResume(w http.ResponseWriter, r *http.Request) {
	s, err := a.Schedules.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if s.Status != domain.DuesPaused && s.Status != domain.DuesSuspended {
		a.error(w, http.StatusConflict, "conflict", "schedule is not paused")
		return
	}
	s.Status = domain.DuesActive
	s.ConsecutiveFailures = 0
	s.GraceUntil = nil
	if err := a.Schedules.Update(r.Context(), s); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, duesScheduleToDTO(s))
}

type coverageIssueDTO struct {
	Kind    string `json:"kind"`
	Invoice string `json:"invoice,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Detail  string `json:"detail"`
}

// DuesCoverageAudit checks a schedule's invoices for gaps and overlaps
// in the billed period.
func (a *App) DuesCoverageAudit(w http.ResponseWriter, r *http.Request) {
	s, err := a.Schedules.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	from := s.CreatedAt
	to := time.Now()
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if from, err = parseDate(v); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "from must be YYYY-MM-DD")
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = parseDate(v); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "to must be YYYY-MM-DD")
			return
		}
	}
	invoices, err := a.Invoices.ListCoverage(r.Context(), s.ID, from, to)
	if err != nil {
		a.fail(w, err)
		return
	}
	issues := billing.AuditCoverage(*s, invoices)
	items := make([]coverageIssueDTO, 0, len(issues))
	for _, is := range issues {
		dto := coverageIssueDTO{Kind: is.Kind, Invoice: is.Invoice, Detail: is.Detail}
		if !is.From.IsZero() {
			dto.From = is.From.Format("2006-01-02")
		}
		if !is.To.IsZero() {
			dto.To = is.To.Format("2006-01-02")
		}
		items = append(items, dto)
	}
	a.json(w, http.StatusOK, map[string]any{"schedule": s.ID, "issues": items})
}

type invoiceDTO struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	Member        string `json:"member"`
	MemberName    string `json:"member_name,omitempty"`
	DuesSchedule  string `json:"dues_schedule,omitempty"`
	Description   string `json:"description,omitempty"`
	Amount        string `json:"amount"`
	Outstanding   string `json:"outstanding"`
	Currency      string `json:"currency"`
	CoverageStart string `json:"coverage_start,omitempty"`
	CoverageEnd   string `json:"coverage_end,omitempty"`
	PostingDate   string `json:"posting_date"`
	DueDate       string `json:"due_date"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
	PaidAt        string `json:"paid_at,omitempty"`
	CancelReason  string `json:"cancel_reason,omitempty"`
}

func invoiceToDTO(inv *domain.Invoice) invoiceDTO {
	dto := invoiceDTO{
		ID:            inv.ID,
		Number:        inv.Number,
		Member:        inv.Member,
		MemberName:    inv.MemberName,
		DuesSchedule:  inv.DuesSchedule,
		Description:   inv.Description,
		Amount:        inv.Amount.StringFixed(2),
		Outstanding:   inv.Outstanding.StringFixed(2),
		Currency:      inv.Currency,
		PostingDate:   inv.PostingDate.Format("2006-01-02"),
		DueDate:       inv.DueDate.Format("2006-01-02"),
		PaymentMethod: string(inv.PaymentMethod),
		Status:        string(inv.Status),
		PaidAt:        timeOrEmpty(inv.PaidAt),
		CancelReason:  inv.CancelReason,
	}
	if !inv.CoverageStart.IsZero() {
		dto.CoverageStart = inv.CoverageStart.Format("2006-01-02")
		dto.CoverageEnd = inv.CoverageEnd.Format("2006-01-02")
	}
	return dto
}

// InvoiceList returns a member's invoices, or the open-for-collection
// queue when no member filter is given.
func (a *App) InvoiceList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	var (
		invoices []domain.Invoice
		err      error
	)
	if memberID := q.Get("member"); memberID != "" {
		invoices, err = a.Invoices.ListByMember(r.Context(), memberID, limit)
	} else {
		invoices, err = a.Invoices.ListOpenForCollection(r.Context(), limit)
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]invoiceDTO, 0, len(invoices))
	for i := range invoices {
		items = append(items, invoiceToDTO(&invoices[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// InvoiceGet returns one invoice by id.
func (a *App) InvoiceGet(w http.ResponseWriter, r *http.Request) {
	inv, err := a.Invoices.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, invoiceToDTO(inv))
}

type invoicePaymentRequest struct {
	Amount string `json:"amount"` // empty means the full outstanding amount
}

// InvoiceMarkPaid records a manual payment, such as a bank transfer
// matched by hand. A full payment resets the schedule's failure count.
func (a *App) InvoiceMarkPaid(w http.ResponseWriter, r *http.Request) {
	var req invoicePaymentRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	inv, err := a.Invoices.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if !inv.Open() {
		a.error(w, http.StatusConflict, "conflict", "invoice is "+string(inv.Status))
		return
	}
	amount := inv.Outstanding
	if req.Amount != "" {
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil || !amount.IsPositive() {
			a.error(w, http.StatusBadRequest, "bad_request", "amount must be a positive decimal number")
			return
		}
		if amount.GreaterThan(inv.Outstanding) {
			a.error(w, http.StatusBadRequest, "bad_request", "amount exceeds the outstanding balance")
			return
		}
	}
	now := time.Now()
	inv.Outstanding = inv.Outstanding.Sub(amount)
	if inv.Outstanding.IsZero() {
		inv.Status = domain.InvoicePaid
		inv.PaidAt = &now
	}
	if err := a.Invoices.Update(r.Context(), inv); err != nil {
		a.fail(w, err)
		return
	}
	if inv.Status == domain.InvoicePaid && inv.DuesSchedule != "" {
		if s, err := a.Schedules.GetByID(r.Context(), inv.DuesSchedule); err == nil {
			billing.ApplyCollectionSuccess(s)
			if err := a.Schedules.Update(r.Context(), s); err != nil {
				a.Logger.Warn().Err(err).Str("schedule", s.ID).Msg("reset failures after manual payment")
			}
		}
	}
	a.json(w, http.StatusOK, invoiceToDTO(inv))
}

type invoiceCancelRequest struct {
	Reason string `json:"reason"`
}

// InvoiceCancel voids an open invoice.
func (a *App) InvoiceCancel(w http.ResponseWriter, r *http.Request) {
	var req invoiceCancelRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Reason == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reason is required")
		return
	}
	inv, err := a.Invoices.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if !inv.Open() {
		a.error(w, http.StatusConflict, "conflict", "invoice is "+string(inv.Status))
		return
	}
	inv.Status = domain.InvoiceCancelled
	inv.CancelReason = req.Reason
	inv.Outstanding = decimal.Zero
	if err := a.Invoices.Update(r.Context(), inv); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, invoiceToDTO(inv))
}
