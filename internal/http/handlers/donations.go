package handlers

import (
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/anbi"
	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/middleware"
)

type donorDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	Email              string `json:"email,omitempty"`
	BSN                string `json:"bsn,omitempty"` // always masked
	RSIN               string `json:"rsin,omitempty"`
	IdentityVerified   bool   `json:"identity_verified"`
	VerificationMethod string `json:"verification_method,omitempty"`
	VerifiedAt         string `json:"verified_at,omitempty"`
	ANBIConsent        bool   `json:"anbi_consent"`
	ANBIConsentAt      string `json:"anbi_consent_at,omitempty"`
}

func donorToDTO(d *domain.Donor) donorDTO {
	return donorDTO{
		ID:                 d.ID,
		Name:               d.Name,
		Type:               string(d.Type),
		Email:              d.Email,
		BSN:                d.BSN,
		RSIN:               d.RSIN,
		IdentityVerified:   d.IdentityVerified,
		VerificationMethod: d.VerificationMethod,
		VerifiedAt:         timeOrEmpty(d.VerifiedAt),
		ANBIConsent:        d.ANBIConsent,
		ANBIConsentAt:      timeOrEmpty(d.ANBIConsentAt),
	}
}

type donorCreateRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // Individual or Organization
	Email       string `json:"email"`
	BSN         string `json:"bsn"`
	RSIN        string `json:"rsin"`
	ANBIConsent bool   `json:"anbi_consent"`
}

// DonorCreate registers a donor. Tax identifiers are checked against
// the eleven proof before they are accepted.
func (a *App) DonorCreate(w http.ResponseWriter, r *http.Request) {
	var req donorCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	dtype := domain.DonorType(req.Type)
	if dtype == "" {
		dtype = domain.DonorIndividual
	}
	if dtype != domain.DonorIndividual && dtype != domain.DonorOrganization {
		a.error(w, http.StatusBadRequest, "bad_request", "type must be Individual or Organization")
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid email address")
			return
		}
	}
	d := &domain.Donor{Name: req.Name, Type: dtype, Email: req.Email}
	var err error
	if req.BSN != "" {
		if d.BSN, err = anbi.ValidateBSN(req.BSN); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	if req.RSIN != "" {
		if d.RSIN, err = anbi.ValidateRSIN(req.RSIN); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	if req.ANBIConsent {
		now := time.Now()
		d.ANBIConsent = true
		d.ANBIConsentAt = &now
	}
	if err := a.Donors.Create(r.Context(), d); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, donorToDTO(d))
}

// DonorGet returns one donor, BSN masked.
func (a *App) DonorGet(w http.ResponseWriter, r *http.Request) {
	d, err := a.Donors.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, donorToDTO(d))
}

// DonorList pages through donors.
func (a *App) DonorList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	donors, err := a.Donors.List(r.Context(), limit, offset)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]donorDTO, 0, len(donors))
	for i := range donors {
		items = append(items, donorToDTO(&donors[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type taxIDRequest struct {
	BSN                string `json:"bsn"`
	RSIN               string `json:"rsin"`
	VerificationMethod string `json:"verification_method"`
}

// DonorSetTaxID stores a validated BSN or RSIN. The write path is the
// only place a plain identifier crosses; reads stay masked. Every call
// is audit logged with the acting account.
func (a *App) DonorSetTaxID(w http.ResponseWriter, r *http.Request) {
	var req taxIDRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.BSN == "" && req.RSIN == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "bsn or rsin is required")
		return
	}
	d, err := a.Donors.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	var bsn, rsin string
	if req.BSN != "" {
		if bsn, err = anbi.ValidateBSN(req.BSN); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	if req.RSIN != "" {
		if rsin, err = anbi.ValidateRSIN(req.RSIN); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	if err := a.Donors.SetTaxID(r.Context(), d.ID, bsn, rsin); err != nil {
		a.fail(w, err)
		return
	}
	if req.VerificationMethod != "" {
		now := time.Now()
		d.IdentityVerified = true
		d.VerificationMethod = req.VerificationMethod
		d.VerifiedAt = &now
		if err := a.Donors.Update(r.Context(), d); err != nil {
			a.fail(w, err)
			return
		}
	}
	accountID, _, _ := a.currentAccount(r)
	a.Logger.Info().
		Str("donor", d.ID).
		Str("account", accountID).
		Bool("bsn", bsn != "").
		Bool("rsin", rsin != "").
		Msg("donor tax id updated")
	d.BSN = anbi.Mask(bsn)
	d.RSIN = rsin
	a.json(w, http.StatusOK, donorToDTO(d))
}

// DonorConsent records or withdraws ANBI reporting consent.
func (a *App) DonorConsent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Consent bool `json:"consent"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	d, err := a.Donors.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	d.ANBIConsent = req.Consent
	if req.Consent {
		now := time.Now()
		d.ANBIConsentAt = &now
	} else {
		d.ANBIConsentAt = nil
	}
	if err := a.Donors.Update(r.Context(), d); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, donorToDTO(d))
}

// DonorConsentRequests lists donors who have paid donations on record
// but no ANBI consent yet, so the board knows who to chase before the
// annual report.
func (a *App) DonorConsentRequests(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	donors, err := a.Donors.ListMissingConsent(r.Context(), limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	consented, total, err := a.Donors.ConsentCoverage(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]donorDTO, 0, len(donors))
	for i := range donors {
		items = append(items, donorToDTO(&donors[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":        items,
		"consented":    consented,
		"total_donors": total,
	})
}

type donationDTO struct {
	ID                  string `json:"id"`
	Donor               string `json:"donor"`
	Date                string `json:"date"`
	Amount              string `json:"amount"`
	PaymentMethod       string `json:"payment_method"`
	Status              string `json:"status"`
	Purpose             string `json:"purpose"`
	Earmarking          string `json:"earmarking"`
	PeriodicAgreement   string `json:"periodic_agreement,omitempty"`
	ANBIAgreementNumber string `json:"anbi_agreement_number,omitempty"`
	ANBIAgreementDate   string `json:"anbi_agreement_date,omitempty"`
	Reportable          bool   `json:"reportable"`
	BankReference       string `json:"bank_reference,omitempty"`
	Paid                bool   `json:"paid"`
	PaidAt              string `json:"paid_at,omitempty"`
}

func donationToDTO(d *domain.Donation) donationDTO {
	dto := donationDTO{
		ID:                  d.ID,
		Donor:               d.Donor,
		Date:                d.Date.Format("2006-01-02"),
		Amount:              d.Amount.StringFixed(2),
		PaymentMethod:       string(d.PaymentMethod),
		Status:              string(d.Status),
		Purpose:             string(d.Purpose),
		Earmarking:          d.EarmarkingSummary(),
		PeriodicAgreement:   d.PeriodicAgreement,
		ANBIAgreementNumber: d.ANBIAgreementNumber,
		Reportable:          d.Reportable,
		BankReference:       d.BankReference,
		Paid:                d.Paid,
		PaidAt:              timeOrEmpty(d.PaidAt),
	}
	if d.ANBIAgreementDate != nil {
		dto.ANBIAgreementDate = d.ANBIAgreementDate.Format("2006-01-02")
	}
	return dto
}

type donationCreateRequest struct {
	DonorID             string `json:"donor_id"`
	Date                string `json:"date"`
	Amount              string `json:"amount"`
	PaymentMethod       string `json:"payment_method"`
	Status              string `json:"status"`
	Purpose             string `json:"purpose"`
	CampaignRef         string `json:"campaign_ref"`
	ChapterRef          string `json:"chapter_ref"`
	GoalDescription     string `json:"goal_description"`
	PeriodicAgreement   string `json:"periodic_agreement"`
	ANBIAgreementNumber string `json:"anbi_agreement_number"`
	ANBIAgreementDate   string `json:"anbi_agreement_date"`
	BankReference       string `json:"bank_reference"`
	Paid                bool   `json:"paid"`
}

// DonationCreate books a gift. Purpose earmarking must name its
// target, and agreement-linked donations must match the agreement's
// donor.
func (a *App) DonationCreate(w http.ResponseWriter, r *http.Request) {
	var req donationCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	donor, err := a.Donors.GetByID(r.Context(), req.DonorID)
	if err != nil {
		a.fail(w, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be a positive decimal number")
		return
	}
	date := time.Now()
	if req.Date != "" {
		if date, err = parseDate(req.Date); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
			return
		}
	}
	status := domain.DonationStatus(req.Status)
	if status == "" {
		status = domain.DonationOneTime
	}
	switch status {
	case domain.DonationOneTime, domain.DonationRecurring, domain.DonationPromised:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown donation status")
		return
	}
	purpose := domain.DonationPurpose(req.Purpose)
	if purpose == "" {
		purpose = domain.PurposeGeneral
	}
	switch purpose {
	case domain.PurposeGeneral:
	case domain.PurposeCampaign:
		if req.CampaignRef == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "campaign_ref is required for campaign donations")
			return
		}
	case domain.PurposeChapter:
		if req.ChapterRef == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "chapter_ref is required for chapter donations")
			return
		}
		if _, err := a.Chapters.GetByID(r.Context(), req.ChapterRef); err != nil {
			a.fail(w, err)
			return
		}
	case domain.PurposeSpecificGoal:
		if req.GoalDescription == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "goal_description is required for specific goal donations")
			return
		}
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown donation purpose")
		return
	}
	if (req.ANBIAgreementNumber == "") != (req.ANBIAgreementDate == "") {
		a.error(w, http.StatusBadRequest, "bad_request", "anbi agreement number and date must both be present or both absent")
		return
	}
	d := &domain.Donation{
		Donor:           donor.ID,
		Date:            date,
		Amount:          amount,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		Status:          status,
		Purpose:         purpose,
		CampaignRef:     req.CampaignRef,
		ChapterRef:      req.ChapterRef,
		GoalDescription: req.GoalDescription,
		BankReference:   req.BankReference,
		CountryCode:     middleware.CountryFromContext(r.Context()),
		Paid:            req.Paid,
	}
	if d.PaymentMethod == "" {
		d.PaymentMethod = domain.PaymentMethodBankTransfer
	}
	if req.ANBIAgreementNumber != "" {
		agDate, err := parseDate(req.ANBIAgreementDate)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "anbi_agreement_date must be YYYY-MM-DD")
			return
		}
		d.ANBIAgreementNumber = req.ANBIAgreementNumber
		d.ANBIAgreementDate = &agDate
	}
	var agreement *domain.PeriodicAgreement
	if req.PeriodicAgreement != "" {
		agreement, err = a.Agreements.GetByID(r.Context(), req.PeriodicAgreement)
		if err != nil {
			a.fail(w, err)
			return
		}
		if agreement.Donor != donor.ID {
			a.fail(w, domain.ErrDonorMismatch)
			return
		}
		if agreement.Status != domain.AgreementActive && agreement.Status != domain.AgreementCompleted {
			a.fail(w, domain.ErrAgreementNotActive)
			return
		}
		d.PeriodicAgreement = agreement.ID
		d.ANBIAgreementNumber = agreement.Number
		d.ANBIAgreementDate = &agreement.AgreementDate
		d.SEPAMandate = agreement.SEPAMandate
	}
	if d.Paid {
		now := time.Now()
		d.PaidAt = &now
	}
	d.Reportable = anbi.Reportable(*d)
	if err := a.Donations.Create(r.Context(), d); err != nil {
		a.fail(w, err)
		return
	}
	if agreement != nil {
		agreement.TotalDonated = agreement.TotalDonated.Add(d.Amount)
		agreement.DonationsCount++
		if err := a.Agreements.Update(r.Context(), agreement); err != nil {
			a.Logger.Warn().Err(err).Str("agreement", agreement.Number).Msg("update agreement totals")
		}
	}
	a.json(w, http.StatusCreated, donationToDTO(d))
}

// DonationList returns a donor's donations, or the most recent ones.
func (a *App) DonationList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	var (
		donations []domain.Donation
		err       error
	)
	if donorID := q.Get("donor"); donorID != "" {
		donations, err = a.Donations.ListByDonor(r.Context(), donorID, limit)
	} else {
		donations, err = a.Donations.ListRecent(r.Context(), limit)
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]donationDTO, 0, len(donations))
	for i := range donations {
		items = append(items, donationToDTO(&donations[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// DonationMarkPaid settles a booked donation.
func (a *App) DonationMarkPaid(w http.ResponseWriter, r *http.Request) {
	d, err := a.Donations.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if d.Paid {
		a.error(w, http.StatusConflict, "conflict", "donation is already paid")
		return
	}
	now := time.Now()
	d.Paid = true
	d.PaidAt = &now
	if err := a.Donations.Update(r.Context(), d); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, donationToDTO(d))
}

type agreementDTO struct {
	ID               string `json:"id"`
	Number           string `json:"number"`
	Donor            string `json:"donor"`
	DonorName        string `json:"donor_name,omitempty"`
	AnnualAmount     string `json:"annual_amount"`
	PaymentFrequency string `json:"payment_frequency"`
	PaymentAmount    string `json:"payment_amount"`
	PaymentMethod    string `json:"payment_method"`
	AgreementType    string `json:"agreement_type"`
	AgreementDate    string `json:"agreement_date"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	DurationYears    int    `json:"duration_years"`
	Qualifying       bool   `json:"anbi_qualifying"`
	Status           string `json:"status"`
	TotalDonated     string `json:"total_donated"`
	DonationsCount   int    `json:"donations_count"`
	CancelReason     string `json:"cancel_reason,omitempty"`
}

func agreementToDTO(ag *domain.PeriodicAgreement) agreementDTO {
	return agreementDTO{
		ID:               ag.ID,
		Number:           ag.Number,
		Donor:            ag.Donor,
		DonorName:        ag.DonorName,
		AnnualAmount:     ag.AnnualAmount.StringFixed(2),
		PaymentFrequency: string(ag.PaymentFrequency),
		PaymentAmount:    ag.PaymentAmount.StringFixed(2),
		PaymentMethod:    string(ag.PaymentMethod),
		AgreementType:    string(ag.AgreementType),
		AgreementDate:    ag.AgreementDate.Format("2006-01-02"),
		StartDate:        ag.StartDate.Format("2006-01-02"),
		EndDate:          ag.EndDate.Format("2006-01-02"),
		DurationYears:    ag.DurationYears,
		Qualifying:       ag.ANBIQualifying(),
		Status:           string(ag.Status),
		TotalDonated:     ag.TotalDonated.StringFixed(2),
		DonationsCount:   ag.DonationsCount,
		CancelReason:     ag.CancelReason,
	}
}

type agreementCreateRequest struct {
	DonorID          string `json:"donor_id"`
	AnnualAmount     string `json:"annual_amount"`
	PaymentFrequency string `json:"payment_frequency"`
	PaymentMethod    string `json:"payment_method"`
	AgreementType    string `json:"agreement_type"`
	AgreementDate    string `json:"agreement_date"`
	StartDate        string `json:"start_date"`
	DurationYears    int    `json:"duration_years"`
	SEPAMandate      string `json:"sepa_mandate"`
}

// AgreementCreate concludes a periodic donation agreement. Shorter
// than five years is allowed but will not qualify for full
// deductibility.
func (a *App) AgreementCreate(w http.ResponseWriter, r *http.Request) {
	var req agreementCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	donor, err := a.Donors.GetByID(r.Context(), req.DonorID)
	if err != nil {
		a.fail(w, err)
		return
	}
	annual, err := decimal.NewFromString(req.AnnualAmount)
	if err != nil || !annual.IsPositive() {
		a.error(w, http.StatusBadRequest, "bad_request", "annual_amount must be a positive decimal number")
		return
	}
	freq := domain.PaymentFrequency(req.PaymentFrequency)
	switch freq {
	case domain.PayMonthly, domain.PayQuarterly, domain.PayAnnually:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "payment_frequency must be Monthly, Quarterly or Annually")
		return
	}
	atype := domain.AgreementType(req.AgreementType)
	if atype == "" {
		atype = domain.AgreementPrivate
	}
	if atype != domain.AgreementNotarial && atype != domain.AgreementPrivate {
		a.error(w, http.StatusBadRequest, "bad_request", "agreement_type must be Notarial or Private Written")
		return
	}
	if req.DurationYears <= 0 {
		req.DurationYears = domain.ANBIMinimumAgreementYears
	}
	now := time.Now()
	agDate := now
	if req.AgreementDate != "" {
		if agDate, err = parseDate(req.AgreementDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "agreement_date must be YYYY-MM-DD")
			return
		}
	}
	start := agDate
	if req.StartDate != "" {
		if start, err = parseDate(req.StartDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "start_date must be YYYY-MM-DD")
			return
		}
	}
	seq, err := a.Agreements.NextSequence(r.Context(), agDate.Year())
	if err != nil {
		a.fail(w, err)
		return
	}
	ag := &domain.PeriodicAgreement{
		Number:           domain.AgreementNumber(agDate.Year(), seq),
		Donor:            donor.ID,
		DonorName:        donor.Name,
		AnnualAmount:     annual,
		PaymentFrequency: freq,
		PaymentMethod:    domain.PaymentMethod(req.PaymentMethod),
		SEPAMandate:      req.SEPAMandate,
		AgreementType:    atype,
		AgreementDate:    agDate,
		StartDate:        start,
		EndDate:          start.AddDate(req.DurationYears, 0, 0),
		DurationYears:    req.DurationYears,
		Status:           domain.AgreementActive,
	}
	ag.PaymentAmount = ag.PerPaymentAmount()
	if ag.PaymentMethod == "" {
		ag.PaymentMethod = domain.PaymentMethodBankTransfer
	}
	if err := a.Agreements.Create(r.Context(), ag); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, agreementToDTO(ag))
}

// AgreementGet returns one agreement with its linked donations.
func (a *App) AgreementGet(w http.ResponseWriter, r *http.Request) {
	ag, err := a.Agreements.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	donations, err := a.Donations.ListByAgreement(r.Context(), ag.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]donationDTO, 0, len(donations))
	for i := range donations {
		items = append(items, donationToDTO(&donations[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"agreement": agreementToDTO(ag),
		"donations": items,
	})
}

// AgreementList returns agreements for one donor or all active ones.
func (a *App) AgreementList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		agreements []domain.PeriodicAgreement
		err        error
	)
	if donorID := q.Get("donor"); donorID != "" {
		agreements, err = a.Agreements.ListByDonor(r.Context(), donorID)
	} else {
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		agreements, err = a.Agreements.ListActive(r.Context(), limit, offset)
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]agreementDTO, 0, len(agreements))
	for i := range agreements {
		items = append(items, agreementToDTO(&agreements[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type agreementCancelRequest struct {
	Reason string `json:"reason"`
}

// AgreementCancel ends an active agreement early.
func (a *App) AgreementCancel(w http.ResponseWriter, r *http.Request) {
	var req agreementCancelRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Reason == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reason is required")
		return
	}
	ag, err := a.Agreements.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if ag.Status != domain.AgreementActive {
		a.fail(w, domain.ErrAgreementNotActive)
		return
	}
	ag.Status = domain.AgreementCancelled
	ag.CancelReason = req.Reason
	if err := a.Agreements.Update(r.Context(), ag); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, agreementToDTO(ag))
}

// AgreementStatistics returns the distribution of the agreement book
// and the yearly amount committed by active agreements.
func (a *App) AgreementStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Agreements.Stats(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}
	byType := make(map[string]int, len(stats.ByType))
	for typ, n := range stats.ByType {
		byType[string(typ)] = n
	}
	byFrequency := make(map[string]int, len(stats.ByFrequency))
	for freq, n := range stats.ByFrequency {
		byFrequency[string(freq)] = n
	}
	a.json(w, http.StatusOK, map[string]any{
		"total":        stats.Count,
		"by_status":    byStatus,
		"by_type":      byType,
		"by_frequency": byFrequency,
		"annual_total": stats.AnnualTotal.StringFixed(2),
	})
}
