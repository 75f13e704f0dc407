package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledenbeheer/internal/domain"
)

type mandateDTO struct {
	ID            string `json:"id"`
	Reference     string `json:"reference"`
	Member        string `json:"member"`
	IBAN          string `json:"iban"`
	BIC           string `json:"bic,omitempty"`
	AccountHolder string `json:"account_holder"`
	SignDate      string `json:"sign_date"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
	Status        string `json:"status"`
	UsageCount    int    `json:"usage_count"`
	LastUsedAt    string `json:"last_used_at,omitempty"`
	CancelReason  string `json:"cancel_reason,omitempty"`
}

func mandateToDTO(m *domain.Mandate) mandateDTO {
	return mandateDTO{
		ID:            m.ID,
		Reference:     m.Reference,
		Member:        m.Member,
		IBAN:          m.IBAN,
		BIC:           m.BIC,
		AccountHolder: m.AccountHolder,
		SignDate:      m.SignDate.Format("2006-01-02"),
		ExpiryDate:    dateOrEmpty(m.ExpiryDate),
		Status:        string(m.Status),
		UsageCount:    m.UsageCount,
		LastUsedAt:    timeOrEmpty(m.LastUsedAt),
		CancelReason:  m.CancelReason,
	}
}

// MandateCreate signs a new mandate on the member's current bank
// account.
func (a *App) MandateCreate(w http.ResponseWriter, r *http.Request) {
	mandate, err := a.Lifecycle.IssueMandate(r.Context(), chi.URLParam(r, "id"), time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, mandateToDTO(mandate))
}

// MandateListByMember returns all mandates of one member, newest first.
func (a *App) MandateListByMember(w http.ResponseWriter, r *http.Request) {
	mandates, err := a.Mandates.ListByMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]mandateDTO, 0, len(mandates))
	for i := range mandates {
		items = append(items, mandateToDTO(&mandates[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// MandateGet returns one mandate by id.
func (a *App) MandateGet(w http.ResponseWriter, r *http.Request) {
	m, err := a.Mandates.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, mandateToDTO(m))
}

type mandateCancelRequest struct {
	Reason string `json:"reason"`
}

// MandateCancel revokes a mandate. A schedule that pointed at it loses
// its direct debit link and falls back to bank transfer.
func (a *App) MandateCancel(w http.ResponseWriter, r *http.Request) {
	var req mandateCancelRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Reason == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reason is required")
		return
	}
	m, err := a.Mandates.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if m.Status == domain.MandateCancelled || m.Status == domain.MandateExpired {
		a.error(w, http.StatusConflict, "conflict", "mandate is "+string(m.Status))
		return
	}
	m.Status = domain.MandateCancelled
	m.CancelReason = req.Reason
	if err := a.Mandates.Update(r.Context(), m); err != nil {
		a.fail(w, err)
		return
	}
	if s, err := a.Schedules.GetActiveByMember(r.Context(), m.Member); err == nil && s.ActiveMandate == m.ID {
		s.ActiveMandate = ""
		s.PaymentMethod = domain.PaymentMethodBankTransfer
		if err := a.Schedules.Update(r.Context(), s); err != nil {
			a.Logger.Warn().Err(err).Str("schedule", s.ID).Msg("detach cancelled mandate")
		}
	}
	a.json(w, http.StatusOK, mandateToDTO(m))
}

type discrepancyDTO struct {
	Kind        string `json:"kind"`
	Mandate     string `json:"mandate"`
	Member      string `json:"member"`
	MandateIBAN string `json:"mandate_iban,omitempty"`
	MemberIBAN  string `json:"member_iban,omitempty"`
	Detail      string `json:"detail"`
}

// MandateScan sweeps active mandates against current member bank data.
// With apply=true stale mandates are expired or cancelled on the spot.
func (a *App) MandateScan(w http.ResponseWriter, r *http.Request) {
	apply := r.URL.Query().Get("apply") == "true"
	findings, err := a.Scanner.Scan(r.Context(), time.Now(), apply)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]discrepancyDTO, 0, len(findings))
	for _, f := range findings {
		items = append(items, discrepancyDTO{
			Kind:        f.Kind,
			Mandate:     f.Mandate,
			Member:      f.Member,
			MandateIBAN: f.MandateIBAN,
			MemberIBAN:  f.MemberIBAN,
			Detail:      f.Detail,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"applied": apply, "findings": items})
}
