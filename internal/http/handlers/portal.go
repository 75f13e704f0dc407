package handlers

import (
	"net/http"
	"strconv"

	"ledenbeheer/internal/domain"
)

func (a *App) portalMember(w http.ResponseWriter, r *http.Request) (*domain.Member, bool) {
	_, _, memberID := a.currentAccount(r)
	if memberID == "" {
		a.error(w, http.StatusForbidden, "forbidden", "account is not linked to a member")
		return nil, false
	}
	m, err := a.Members.GetByID(r.Context(), memberID)
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return m, true
}

// PortalMe returns the signed-in member's own record.
func (a *App) PortalMe(w http.ResponseWriter, r *http.Request) {
	m, ok := a.portalMember(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, memberToDTO(m))
}

// PortalMembership returns the caller's membership terms.
func (a *App) PortalMembership(w http.ResponseWriter, r *http.Request) {
	m, ok := a.portalMember(w, r)
	if !ok {
		return
	}
	list, err := a.Memberships.ListByMember(r.Context(), m.ID)
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

// PortalInvoices returns the caller's invoices.
func (a *App) PortalInvoices(w http.ResponseWriter, r *http.Request) {
	m, ok := a.portalMember(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	invoices, err := a.Invoices.ListByMember(r.Context(), m.ID, limit)
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

// PortalUpdateBank lets the member swap their own bank account.
func (a *App) PortalUpdateBank(w http.ResponseWriter, r *http.Request) {
	m, ok := a.portalMember(w, r)
	if !ok {
		return
	}
	var req bankDetailsRequest
	if !a.decode(w, r, &req) {
		return
	}
	updated, err := a.Lifecycle.UpdateBankDetails(r.Context(), m.ID, req.IBAN, req.BIC, req.AccountHolder)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, memberToDTO(updated))
}

// PortalDues returns the caller's active dues schedule.
func (a *App) PortalDues(w http.ResponseWriter, r *http.Request) {
	m, ok := a.portalMember(w, r)
	if !ok {
		return
	}
	s, err := a.Schedules.GetActiveByMember(r.Context(), m.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, duesScheduleToDTO(s))
}
