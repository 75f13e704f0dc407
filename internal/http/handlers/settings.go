package handlers

import (
	"net/http"
	"strconv"
	"time"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/sepa"
)

type settingsDTO struct {
	OrganizationName     string `json:"organization_name"`
	LastMemberNumber     int    `json:"last_member_number"`
	CompanyIBAN          string `json:"company_iban,omitempty"`
	CompanyBIC           string `json:"company_bic,omitempty"`
	CompanyAccountHolder string `json:"company_account_holder,omitempty"`
	CreditorID           string `json:"creditor_id,omitempty"`
	BatchCreationDays    []int  `json:"batch_creation_days,omitempty"`
	CollectionLeadDays   int    `json:"collection_lead_days"`
	BatchAutoSubmit      bool   `json:"batch_auto_submit"`
	InvoiceDueDays       int    `json:"invoice_due_days"`
	EnableChapters       bool   `json:"enable_chapters"`
	EnablePortal         bool   `json:"enable_portal"`
	AnbiRSIN             string `json:"anbi_rsin,omitempty"`
	AnbiPublishedName    string `json:"anbi_published_name,omitempty"`
	SEPAConfigured       bool   `json:"sepa_configured"`
}

func settingsToDTO(s *domain.Settings) settingsDTO {
	return settingsDTO{
		OrganizationName:     s.OrganizationName,
		LastMemberNumber:     s.LastMemberNumber,
		CompanyIBAN:          s.CompanyIBAN,
		CompanyBIC:           s.CompanyBIC,
		CompanyAccountHolder: s.CompanyAccountHolder,
		CreditorID:           s.CreditorID,
		BatchCreationDays:    s.BatchCreationDays,
		CollectionLeadDays:   s.CollectionLeadDays,
		BatchAutoSubmit:      s.BatchAutoSubmit,
		InvoiceDueDays:       s.InvoiceDueDays,
		EnableChapters:       s.EnableChapters,
		EnablePortal:         s.EnablePortal,
		AnbiRSIN:             s.AnbiRSIN,
		AnbiPublishedName:    s.AnbiPublishedName,
		SEPAConfigured:       s.SEPAConfigured(),
	}
}

// SettingsGet returns the organization settings.
func (a *App) SettingsGet(w http.ResponseWriter, r *http.Request) {
	s, err := a.Settings.Get(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, settingsToDTO(s))
}

type settingsUpdateRequest struct {
	OrganizationName     *string `json:"organization_name"`
	CompanyIBAN          *string `json:"company_iban"`
	CompanyBIC           *string `json:"company_bic"`
	CompanyAccountHolder *string `json:"company_account_holder"`
	CreditorID           *string `json:"creditor_id"`
	BatchCreationDays    []int   `json:"batch_creation_days"`
	CollectionLeadDays   *int    `json:"collection_lead_days"`
	BatchAutoSubmit      *bool   `json:"batch_auto_submit"`
	InvoiceDueDays       *int    `json:"invoice_due_days"`
	EnableChapters       *bool   `json:"enable_chapters"`
	EnablePortal         *bool   `json:"enable_portal"`
	AnbiRSIN             *string `json:"anbi_rsin"`
	AnbiPublishedName    *string `json:"anbi_published_name"`
}

// SettingsUpdate patches the organization settings. Only fields
// present in the payload change; bank details are validated before
// they are accepted.
func (a *App) SettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	s, err := a.Settings.Get(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	if req.OrganizationName != nil {
		s.OrganizationName = *req.OrganizationName
	}
	if req.CompanyIBAN != nil {
		if *req.CompanyIBAN == "" {
			s.CompanyIBAN = ""
		} else {
			normalized, err := sepa.ValidateIBAN(*req.CompanyIBAN)
			if err != nil {
				a.fail(w, err)
				return
			}
			s.CompanyIBAN = normalized
			if s.CompanyBIC == "" {
				s.CompanyBIC = sepa.DeriveBIC(normalized)
			}
		}
	}
	if req.CompanyBIC != nil {
		if *req.CompanyBIC != "" && !sepa.ValidBIC(*req.CompanyBIC) {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid BIC")
			return
		}
		s.CompanyBIC = *req.CompanyBIC
	}
	if req.CompanyAccountHolder != nil {
		s.CompanyAccountHolder = *req.CompanyAccountHolder
	}
	if req.CreditorID != nil {
		if *req.CreditorID != "" {
			if err := sepa.ValidateCreditorID(*req.CreditorID); err != nil {
				a.fail(w, err)
				return
			}
		}
		s.CreditorID = *req.CreditorID
	}
	if req.BatchCreationDays != nil {
		for _, day := range req.BatchCreationDays {
			if day < 1 || day > 28 {
				a.error(w, http.StatusBadRequest, "bad_request", "batch_creation_days must be between 1 and 28")
				return
			}
		}
		s.BatchCreationDays = req.BatchCreationDays
	}
	if req.CollectionLeadDays != nil {
		if *req.CollectionLeadDays < 1 {
			a.error(w, http.StatusBadRequest, "bad_request", "collection_lead_days must be positive")
			return
		}
		s.CollectionLeadDays = *req.CollectionLeadDays
	}
	if req.BatchAutoSubmit != nil {
		s.BatchAutoSubmit = *req.BatchAutoSubmit
	}
	if req.InvoiceDueDays != nil {
		if *req.InvoiceDueDays < 1 {
			a.error(w, http.StatusBadRequest, "bad_request", "invoice_due_days must be positive")
			return
		}
		s.InvoiceDueDays = *req.InvoiceDueDays
	}
	if req.EnableChapters != nil {
		s.EnableChapters = *req.EnableChapters
	}
	if req.EnablePortal != nil {
		s.EnablePortal = *req.EnablePortal
	}
	if req.AnbiRSIN != nil {
		s.AnbiRSIN = *req.AnbiRSIN
	}
	if req.AnbiPublishedName != nil {
		s.AnbiPublishedName = *req.AnbiPublishedName
	}
	if err := a.Settings.Save(r.Context(), s); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, settingsToDTO(s))
}

type tokenRequest struct {
	Token string `json:"token"`
}

// CredentialsSetEBoekhouden stores the bookkeeping API token. The
// token itself never appears in responses or logs.
func (a *App) CredentialsSetEBoekhouden(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Token == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "token is required")
		return
	}
	if err := a.Credentials.SetEBoekhoudenToken(r.Context(), req.Token); err != nil {
		a.fail(w, err)
		return
	}
	accountID, _, _ := a.currentAccount(r)
	a.Logger.Info().Str("account", accountID).Msg("e-boekhouden token updated")
	w.WriteHeader(http.StatusNoContent)
}

// SyncStatus reports the bookkeeping queue depth and recent failures.
func (a *App) SyncStatus(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	pending, err := a.Sync.ListPending(r.Context(), limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	type syncRecordDTO struct {
		DocType   string `json:"doc_type"`
		DocID     string `json:"doc_id"`
		Status    string `json:"status"`
		Attempts  int    `json:"attempts"`
		LastError string `json:"last_error,omitempty"`
		SyncedAt  string `json:"synced_at,omitempty"`
	}
	items := make([]syncRecordDTO, 0, len(pending))
	for _, rec := range pending {
		items = append(items, syncRecordDTO{
			DocType:   string(rec.DocType),
			DocID:     rec.DocID,
			Status:    string(rec.Status),
			Attempts:  rec.Attempts,
			LastError: rec.LastError,
			SyncedAt:  timeOrEmpty(rec.SyncedAt),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"pending": items})
}

// SyncRun pushes pending documents to the bookkeeping system now
// instead of waiting for the scheduled run.
func (a *App) SyncRun(w http.ResponseWriter, r *http.Request) {
	if a.Bookkeeping == nil {
		a.error(w, http.StatusPreconditionFailed, "settings_incomplete", "bookkeeping sync is not configured")
		return
	}
	report, err := a.Bookkeeping.Run(r.Context(), time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"enqueued": report.Enqueued,
		"posted":   report.Posted,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	})
}
