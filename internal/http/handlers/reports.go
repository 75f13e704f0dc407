package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
)

type dashboardStats struct {
	Members        map[string]int    `json:"members"`
	ChapterSizes   map[string]int    `json:"chapter_sizes"`
	RevenueByMonth map[string]sumDTO `json:"revenue_by_month"`
	Overdue        overdueDTO        `json:"overdue"`
	GeneratedAt    string            `json:"generated_at"`
}

type sumDTO struct {
	Count int    `json:"count"`
	Total string `json:"total"`
}

type overdueDTO struct {
	Invoices int    `json:"invoices"`
	Count    int    `json:"count"`
	Total    string `json:"total"`
}

// StatsDashboard aggregates member, revenue and arrears numbers. The
// result is cached briefly since every staff page load asks for it.
func (a *App) StatsDashboard(w http.ResponseWriter, r *http.Request) {
	if a.Cache != nil && r.URL.Query().Get("refresh") != "true" {
		if cached, ok := a.Cache.Get(r.Context(), infra.CacheKeyDashboard); ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}
	counts, err := a.Stats.MemberCounts(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	sizes, err := a.Stats.ChapterSizes(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "year must be a number")
			return
		}
	}
	revenue, err := a.Stats.RevenueByMonth(r.Context(), year)
	if err != nil {
		a.fail(w, err)
		return
	}
	overdueCount, overdueSum, err := a.Stats.OverdueInvoiceTotals(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	stats := dashboardStats{
		Members:        make(map[string]int, len(counts)),
		ChapterSizes:   sizes,
		RevenueByMonth: make(map[string]sumDTO, len(revenue)),
		Overdue: overdueDTO{
			Invoices: overdueCount,
			Count:    overdueSum.Count,
			Total:    overdueSum.Total.StringFixed(2),
		},
		GeneratedAt: time.Now().Format(time.RFC3339),
	}
	for status, n := range counts {
		stats.Members[string(status)] = n
	}
	for month, sum := range revenue {
		stats.RevenueByMonth[month] = sumDTO{Count: sum.Count, Total: sum.Total.StringFixed(2)}
	}
	if a.Cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			a.Cache.Set(r.Context(), infra.CacheKeyDashboard, payload)
		}
	}
	a.json(w, http.StatusOK, stats)
}

type donorLineDTO struct {
	DonorID         string `json:"donor_id"`
	DonorName       string `json:"donor_name"`
	DonorType       string `json:"donor_type"`
	TaxID           string `json:"tax_id,omitempty"` // masked unless reveal=true
	Consent         bool   `json:"consent"`
	DonationCount   int    `json:"donation_count"`
	Total           string `json:"total"`
	FirstDonation   string `json:"first_donation"`
	LastDonation    string `json:"last_donation"`
	AgreementNumber string `json:"agreement_number,omitempty"`
	AgreementDate   string `json:"agreement_date,omitempty"`
	Qualifying      bool   `json:"qualifying"`
}

// AnbiAnnualReport builds the Belastingdienst export for one year and
// archives the CSVs. With reveal=true the masked tax identifiers are
// replaced by the decrypted values; admins only, and the access is
// logged.
func (a *App) AnbiAnnualReport(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year() - 1
	if v := r.URL.Query().Get("year"); v != "" {
		var err error
		if year, err = strconv.Atoi(v); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "year must be a number")
			return
		}
	}
	reveal := r.URL.Query().Get("reveal") == "true"
	accountID, role, _ := a.currentAccount(r)
	if reveal && role != string(domain.RoleAdmin) {
		a.error(w, http.StatusForbidden, "forbidden", "revealing tax identifiers requires the admin role")
		return
	}
	result, err := a.AnbiReport.GenerateAnnual(r.Context(), year)
	if err != nil {
		a.fail(w, err)
		return
	}
	lines := make([]donorLineDTO, 0, len(result.Lines))
	for _, line := range result.Lines {
		dto := donorLineDTO{
			DonorID:         line.DonorID,
			DonorName:       line.DonorName,
			DonorType:       string(line.DonorType),
			TaxID:           line.TaxID,
			Consent:         line.Consent,
			DonationCount:   line.DonationCount,
			Total:           line.Total.StringFixed(2),
			FirstDonation:   line.FirstDonation.Format("2006-01-02"),
			LastDonation:    line.LastDonation.Format("2006-01-02"),
			AgreementNumber: line.AgreementNumber,
			AgreementDate:   line.AgreementDate,
			Qualifying:      line.Qualifying,
		}
		if reveal {
			bsn, rsin, err := a.Donors.RevealTaxID(r.Context(), line.DonorID)
			if err != nil {
				a.fail(w, err)
				return
			}
			if bsn != "" {
				dto.TaxID = bsn
			} else {
				dto.TaxID = rsin
			}
		}
		lines = append(lines, dto)
	}
	if reveal {
		a.Logger.Info().
			Str("account", accountID).
			Int("year", year).
			Int("donors", len(lines)).
			Msg("anbi report tax ids revealed")
	}
	a.json(w, http.StatusOK, map[string]any{
		"year":    result.Year,
		"total":   result.Total.StringFixed(2),
		"archive": result.ArchiveKey,
		"lines":   lines,
	})
}

// AnbiArchiveDownload streams a stored report archive.
func (a *App) AnbiArchiveDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "key is required")
		return
	}
	data, err := a.Store.Read(r.Context(), key)
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="anbi-report.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// AgreementsExpiring lists agreements ending inside the window,
// default 90 days.
func (a *App) AgreementsExpiring(w http.ResponseWriter, r *http.Request) {
	days := 90
	if v := r.URL.Query().Get("days"); v != "" {
		var err error
		if days, err = strconv.Atoi(v); err != nil || days <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "days must be a positive number")
			return
		}
	}
	now := time.Now()
	agreements, err := a.Agreements.ListExpiring(r.Context(), now, now.AddDate(0, 0, days))
	if err != nil {
		a.fail(w, err)
		return
	}
	type expiringDTO struct {
		agreementDTO
		DaysLeft int `json:"days_left"`
	}
	items := make([]expiringDTO, 0, len(agreements))
	for i := range agreements {
		items = append(items, expiringDTO{
			agreementDTO: agreementToDTO(&agreements[i]),
			DaysLeft:     agreements[i].DaysUntilExpiry(now),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// OverdueReport lists overdue invoices oldest first with the total
// still outstanding.
func (a *App) OverdueReport(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	invoices, err := a.Invoices.ListByStatus(r.Context(), domain.InvoiceOverdue, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	total := decimal.Zero
	items := make([]invoiceDTO, 0, len(invoices))
	for i := range invoices {
		total = total.Add(invoices[i].Outstanding)
		items = append(items, invoiceToDTO(&invoices[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"count":       len(items),
		"outstanding": total.StringFixed(2),
		"items":       items,
	})
}

type scheduleCoverageDTO struct {
	Schedule             string             `json:"schedule"`
	Member               string             `json:"member"`
	MembershipType       string             `json:"membership_type,omitempty"`
	Issues               []coverageIssueDTO `json:"issues,omitempty"`
	MissingCurrentWindow bool               `json:"missing_current_window,omitempty"`
}

// CoverageReport runs the coverage audit over active schedules and
// flags the ones with billing holes, overlapping invoices or no
// invoice covering today.
func (a *App) CoverageReport(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	schedules, err := a.Schedules.ListByStatus(r.Context(), domain.DuesActive, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	now := time.Now()
	flagged := make([]scheduleCoverageDTO, 0)
	for i := range schedules {
		s := schedules[i]
		invoices, err := a.Invoices.ListCoverage(r.Context(), s.ID, s.CreatedAt, now)
		if err != nil {
			a.fail(w, err)
			return
		}
		issues := billing.AuditCoverage(s, invoices)
		missing := billing.MissedCurrentWindow(s, now)
		if len(issues) == 0 && !missing {
			continue
		}
		dto := scheduleCoverageDTO{
			Schedule:             s.ID,
			Member:               s.Member,
			MembershipType:       s.MembershipType,
			MissingCurrentWindow: missing,
		}
		for _, is := range issues {
			item := coverageIssueDTO{Kind: is.Kind, Invoice: is.Invoice, Detail: is.Detail}
			if !is.From.IsZero() {
				item.From = is.From.Format("2006-01-02")
			}
			if !is.To.IsZero() {
				item.To = is.To.Format("2006-01-02")
			}
			dto.Issues = append(dto.Issues, item)
		}
		flagged = append(flagged, dto)
	}
	a.json(w, http.StatusOK, map[string]any{
		"checked": len(schedules),
		"flagged": len(flagged),
		"items":   flagged,
	})
}

// MemberStatusBreakdown returns the member count per status.
func (a *App) MemberStatusBreakdown(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Members.CountByStatus(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make(map[string]int, len(counts))
	total := 0
	for status, n := range counts {
		out[string(status)] = n
		total += n
	}
	a.json(w, http.StatusOK, map[string]any{"total": total, "by_status": out})
}

// ExpiringMemberships lists memberships whose renewal date falls
// inside the window, default 30 days.
func (a *App) ExpiringMemberships(w http.ResponseWriter, r *http.Request) {
	days := 30
	q := r.URL.Query()
	if v := q.Get("days"); v != "" {
		var err error
		if days, err = strconv.Atoi(v); err != nil || days <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "days must be a positive number")
			return
		}
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	memberships, err := a.Memberships.ListExpiring(r.Context(), time.Now().AddDate(0, 0, days), limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]membershipDTO, 0, len(memberships))
	for i := range memberships {
		if memberships[i].Status != domain.MembershipActive {
			continue
		}
		items = append(items, membershipToDTO(&memberships[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
