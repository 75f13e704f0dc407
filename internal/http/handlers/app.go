package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/accounting"
	"ledenbeheer/internal/anbi"
	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/collection"
	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/infra/credentials"
	"ledenbeheer/internal/member"
	"ledenbeheer/internal/middleware"
	"ledenbeheer/internal/storage"
	"ledenbeheer/internal/termination"
)

// App carries the wired repositories and services every handler needs.
type App struct {
	Logger    zerolog.Logger
	JWTSecret string
	SQL       infra.SQLExecutor

	Members      domain.MemberRepository
	Applications domain.ApplicationRepository
	Memberships  domain.MembershipRepository
	Schedules    domain.DuesScheduleRepository
	Invoices     domain.InvoiceRepository
	Mandates     domain.MandateRepository
	Batches      domain.BatchRepository
	Chapters     domain.ChapterRepository
	Volunteers   domain.VolunteerRepository
	Expenses     domain.ExpenseRepository
	Donors       domain.DonorRepository
	Donations    domain.DonationRepository
	Agreements   domain.AgreementRepository
	Terminations domain.TerminationRepository
	Amendments   domain.AmendmentRepository
	Settings     domain.SettingsRepository
	Sync         domain.SyncRepository
	Stats        domain.StatsRepository
	Accounts     domain.AccountRepository

	Lifecycle   *member.Service
	Amending    *billing.Amendments
	Collector   *collection.Builder
	Scanner     *collection.Scanner
	Terminator  *termination.Executor
	AnbiReport  *anbi.Reporter
	Bookkeeping *accounting.Syncer

	Store       *storage.FileStore
	Cache       *infra.Cache
	Credentials *credentials.Store
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, msg string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": kind, "message": msg}})
}

// fail translates domain errors into HTTP responses. Unknown errors
// are logged and reported as a bare 500.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidIBAN):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrSettingsIncomplete):
		a.error(w, http.StatusPreconditionFailed, "settings_incomplete", err.Error())
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicateOperation),
		errors.Is(err, domain.ErrMembershipOverlap),
		errors.Is(err, domain.ErrAmendmentOpen),
		errors.Is(err, domain.ErrBatchNotEditable),
		errors.Is(err, domain.ErrTerminationImmutable),
		errors.Is(err, domain.ErrMandateInactive),
		errors.Is(err, domain.ErrNoActiveMandate),
		errors.Is(err, domain.ErrAgreementNotActive),
		errors.Is(err, domain.ErrDonorMismatch):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// currentAccount returns the authenticated account id, role and linked
// member id from the request context.
func (a *App) currentAccount(r *http.Request) (id, role, memberID string) {
	return middleware.AccountIDFromContext(r.Context()),
		middleware.RoleFromContext(r.Context()),
		middleware.MemberIDFromContext(r.Context())
}

// actorName resolves the display name of the authenticated account for
// audit fields, falling back to the account id.
func (a *App) actorName(r *http.Request) string {
	id, _, _ := a.currentAccount(r)
	if id == "" {
		return ""
	}
	if acc, err := a.Accounts.GetByID(r.Context(), id); err == nil && acc.Name != "" {
		return acc.Name
	}
	return id
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
