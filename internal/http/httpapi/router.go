package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ledenbeheer/internal/http/handlers"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/middleware"
)

// Config carries everything the router needs besides the handlers.
type Config struct {
	App           *handlers.App
	Metrics       *infra.Metrics
	JWTSecret     string
	DefaultLocale string
	Country       middleware.CountryLookup
	CORSOrigins   []string
	// RateLimitPerMin caps unauthenticated requests per client IP.
	// Zero means 30.
	RateLimitPerMin int
}

// NewRouter assembles the full API surface. Public routes are rate
// limited, everything else sits behind JWT auth with staff and admin
// gates per group.
func NewRouter(cfg Config) http.Handler {
	app := cfg.App
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.I18N(cfg.DefaultLocale, cfg.Country),
	)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSOrigins))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics.ObserveHTTP))
	}

	r.Get("/healthz", app.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	perMinute := cfg.RateLimitPerMin
	if perMinute <= 0 {
		perMinute = 30
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface: login, portal registration and the
		// application form.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(perMinute, time.Minute))
			r.Post("/auth/login", app.AuthLogin)
			r.Post("/auth/register", app.AuthRegister)
			r.Post("/applications", app.ApplicationSubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(cfg.JWTSecret))

			r.Get("/me", app.Me)

			// Member portal: everything scoped to the caller's own
			// record.
			r.Route("/portal", func(r chi.Router) {
				r.Get("/me", app.PortalMe)
				r.Get("/membership", app.PortalMembership)
				r.Get("/invoices", app.PortalInvoices)
				r.Get("/dues", app.PortalDues)
				r.Put("/bank-details", app.PortalUpdateBank)
				r.Post("/amendments", app.AmendmentSelfService)
			})

			// Staff surface.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", "board"))

				r.Get("/applications", app.ApplicationList)
				r.Post("/applications/{id}/approve", app.ApplicationApprove)
				r.Post("/applications/{id}/reject", app.ApplicationReject)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", app.MemberList)
					r.Get("/{id}", app.MemberGet)
					r.Put("/{id}/bank-details", app.MemberUpdateBank)
					r.Get("/{id}/memberships", app.MembershipListByMember)
					r.Get("/{id}/dues", app.DuesScheduleByMember)
					r.Get("/{id}/mandates", app.MandateListByMember)
					r.Post("/{id}/mandates", app.MandateCreate)
					r.With(middleware.RequireRole("admin")).
						Post("/{id}/fee-override", app.MemberFeeOverride)
				})

				r.Post("/memberships", app.MembershipCreate)
				r.Post("/memberships/{id}/cancel", app.MembershipCancel)
				r.Get("/membership-types", app.MembershipTypeList)
				r.Put("/membership-types", app.MembershipTypeSave)

				r.Get("/dues-schedules", app.DuesScheduleList)
				r.Route("/dues-schedules/{id}", func(r chi.Router) {
					r.Get("/", app.DuesScheduleGet)
					r.Post("/pause", app.DuesSchedulePause)
					r.Post("/resume", app.DuesScheduleResume)
					r.Get("/coverage", app.DuesCoverageAudit)
				})

				r.Route("/invoices", func(r chi.Router) {
					r.Get("/", app.InvoiceList)
					r.Get("/{id}", app.InvoiceGet)
					r.Post("/{id}/mark-paid", app.InvoiceMarkPaid)
					r.Post("/{id}/cancel", app.InvoiceCancel)
				})

				r.Route("/batches", func(r chi.Router) {
					r.Post("/", app.BatchCreate)
					r.Get("/", app.BatchList)
					r.Get("/preview", app.BatchPreview)
					r.Get("/{id}", app.BatchGet)
					r.Post("/{id}/validate", app.BatchValidate)
					r.Post("/{id}/generate", app.BatchGenerate)
					r.With(middleware.RequireRole("admin")).
						Post("/{id}/submit", app.BatchSubmit)
					r.Post("/{id}/results", app.BatchResults)
					r.Post("/{id}/return-file", app.BatchReturnFile)
					r.Post("/{id}/cancel", app.BatchCancel)
					r.Get("/{id}/download", app.BatchDownload)
				})

				r.Post("/mandates/scan", app.MandateScan)
				r.Get("/mandates/{id}", app.MandateGet)
				r.Post("/mandates/{id}/cancel", app.MandateCancel)

				r.Route("/chapters", func(r chi.Router) {
					r.Get("/", app.ChapterList)
					r.Post("/", app.ChapterCreate)
					r.Get("/{id}", app.ChapterGet)
					r.Put("/{id}", app.ChapterUpdate)
					r.Get("/{id}/board", app.ChapterBoardList)
					r.Post("/{id}/board", app.ChapterBoardAdd)
					r.Post("/{id}/board/{seat}/end", app.ChapterBoardEnd)
					r.Post("/{id}/board/{seat}/transition", app.ChapterBoardTransition)
					r.Get("/{id}/members", app.ChapterMemberList)
					r.Post("/{id}/members", app.ChapterMemberAdd)
				})
				r.Get("/chapter-roles", app.ChapterRoleList)

				r.Route("/volunteers", func(r chi.Router) {
					r.Get("/", app.VolunteerList)
					r.Post("/", app.VolunteerCreate)
					r.Get("/{id}", app.VolunteerGet)
					r.Post("/{id}/end", app.VolunteerEnd)
					r.Get("/{id}/assignments", app.VolunteerAssignments)
					r.Get("/{id}/activities", app.ActivityList)
					r.Post("/{id}/activities", app.ActivityCreate)
					r.Post("/{id}/activities/{activity}/end", app.ActivityEnd)
				})

				r.Route("/teams", func(r chi.Router) {
					r.Get("/", app.TeamList)
					r.Post("/", app.TeamCreate)
					r.Get("/{id}", app.TeamGet)
					r.Post("/{id}/disband", app.TeamDisband)
					r.Post("/{id}/members", app.TeamMemberAdd)
					r.Post("/{id}/members/{seat}/end", app.TeamMemberEnd)
				})

				r.Route("/expenses", func(r chi.Router) {
					r.Get("/", app.ExpenseList)
					r.Post("/", app.ExpenseSubmit)
					r.Get("/{id}", app.ExpenseGet)
					r.Post("/{id}/approve", app.ExpenseApprove)
					r.Post("/{id}/reject", app.ExpenseReject)
					r.Post("/{id}/mark-reimbursed", app.ExpenseMarkReimbursed)
				})

				r.Route("/donors", func(r chi.Router) {
					r.Get("/", app.DonorList)
					r.Post("/", app.DonorCreate)
					r.Get("/consent-requests", app.DonorConsentRequests)
					r.Get("/{id}", app.DonorGet)
					r.Post("/{id}/consent", app.DonorConsent)
					r.With(middleware.RequireRole("admin")).
						Post("/{id}/tax-id", app.DonorSetTaxID)
				})

				r.Route("/donations", func(r chi.Router) {
					r.Get("/", app.DonationList)
					r.Post("/", app.DonationCreate)
					r.Post("/{id}/mark-paid", app.DonationMarkPaid)
				})

				r.Route("/agreements", func(r chi.Router) {
					r.Get("/", app.AgreementList)
					r.Post("/", app.AgreementCreate)
					r.Get("/statistics", app.AgreementStatistics)
					r.Get("/{id}", app.AgreementGet)
					r.Post("/{id}/cancel", app.AgreementCancel)
				})

				r.Route("/terminations", func(r chi.Router) {
					r.Get("/", app.TerminationList)
					r.Post("/", app.TerminationSubmit)
					r.Get("/{id}", app.TerminationGet)
					r.With(middleware.RequireRole("admin")).
						Post("/{id}/approve", app.TerminationApprove)
					r.Post("/{id}/reject", app.TerminationReject)
					r.With(middleware.RequireRole("admin")).
						Post("/{id}/execute", app.TerminationExecute)
				})

				r.Route("/amendments", func(r chi.Router) {
					r.Get("/", app.AmendmentList)
					r.Post("/", app.AmendmentCreate)
					r.Get("/{id}", app.AmendmentGet)
					r.Post("/{id}/approve", app.AmendmentApprove)
					r.Post("/{id}/reject", app.AmendmentReject)
					r.Post("/{id}/cancel", app.AmendmentCancel)
					r.Post("/{id}/apply", app.AmendmentApply)
				})

				r.Get("/stats/dashboard", app.StatsDashboard)
				r.Get("/stats/members", app.MemberStatusBreakdown)
				r.Get("/reports/anbi/annual", app.AnbiAnnualReport)
				r.Get("/reports/anbi/archive", app.AnbiArchiveDownload)
				r.Get("/reports/overdue", app.OverdueReport)
				r.Get("/reports/coverage", app.CoverageReport)
				r.Get("/reports/agreements-expiring", app.AgreementsExpiring)
				r.Get("/reports/memberships-expiring", app.ExpiringMemberships)

				r.Get("/settings", app.SettingsGet)
				r.Get("/sync/status", app.SyncStatus)
			})

			// Admin-only surface: accounts, settings writes,
			// bookkeeping credentials.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))

				r.Post("/accounts", app.AccountCreate)
				r.Put("/settings", app.SettingsUpdate)
				r.Put("/credentials/e-boekhouden", app.CredentialsSetEBoekhouden)
				r.Post("/sync/run", app.SyncRun)
			})
		})
	})

	return r
}
