package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledenbeheer/internal/accounting"
	"ledenbeheer/internal/adapter/repo"
	"ledenbeheer/internal/anbi"
	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/collection"
	"ledenbeheer/internal/http/handlers"
	"ledenbeheer/internal/http/httpapi"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/infra/credentials"
	"ledenbeheer/internal/infra/geoip"
	"ledenbeheer/internal/member"
	"ledenbeheer/internal/middleware"
	"ledenbeheer/internal/storage"
	"ledenbeheer/internal/termination"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger("api", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: storage init failed")
	}

	redisClient, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: redis connection failed")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := infra.NewCache(redisClient, 5*time.Minute)

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip database unavailable, country detection off")
	}
	var country middleware.CountryLookup
	if resolver != nil {
		country = resolver.CountryCode
		defer resolver.Close()
	}

	settings := repo.NewSettingsRepository(runner)
	members := repo.NewMemberRepository(runner, settings)
	applications := repo.NewApplicationRepository(runner)
	memberships := repo.NewMembershipRepository(runner)
	schedules := repo.NewDuesScheduleRepository(runner)
	invoices := repo.NewInvoiceRepository(runner)
	mandates := repo.NewMandateRepository(runner)
	batches := repo.NewBatchRepository(runner)
	chapters := repo.NewChapterRepository(runner)
	volunteers := repo.NewVolunteerRepository(runner)
	expenses := repo.NewExpenseRepository(runner)
	donors := repo.NewDonorRepository(runner, cfg.PIIEncryptionKey)
	donations := repo.NewDonationRepository(runner)
	agreements := repo.NewAgreementRepository(runner)
	terminations := repo.NewTerminationRepository(runner)
	amendments := repo.NewAmendmentRepository(runner)
	outbox := repo.NewNotificationRepository(runner)
	syncs := repo.NewSyncRepository(runner)
	stats := repo.NewStatsRepository(runner)
	accounts := repo.NewAccountRepository(runner)

	creds := credentials.NewStore(runner)

	lifecycle := member.NewService(applications, members, memberships, schedules, mandates, chapters, outbox, logger)
	amending := billing.NewAmendments(amendments, schedules, members, outbox, logger)
	collector := collection.NewBuilder(invoices, mandates, members, batches, schedules, settings, outbox, store, logger)
	scanner := collection.NewScanner(mandates, members, outbox, logger)
	terminator := termination.NewExecutor(terminations, members, memberships, schedules, mandates, invoices, chapters, volunteers, expenses, accounts, outbox, logger)
	reporter := anbi.NewReporter(donations, donors, agreements, store, logger)

	var bookkeeping *accounting.Syncer
	if cfg.LedgerMappingPath != "" {
		mapping, err := accounting.LoadMapping(cfg.LedgerMappingPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: ledger mapping failed")
		}
		client := accounting.NewClient(accounting.Options{
			BaseURL:   cfg.EBoekhoudenBaseURL,
			APIToken:  cfg.EBoekhoudenToken,
			TokenFunc: creds.EBoekhoudenToken,
		})
		bookkeeping = accounting.NewSyncer(client, mapping, syncs, invoices, schedules, donations, donors, members, outbox, cfg.AlertEmail, logger)
	} else {
		logger.Info().Msg("api: no ledger mapping configured, bookkeeping sync off")
	}

	metrics := infra.NewMetrics()
	collector.OnBatchCreated(metrics.BatchesCreated.Inc)
	collector.OnCollectionResult(func(result string) {
		metrics.CollectionResults.WithLabelValues(result).Inc()
	})

	app := &handlers.App{
		Logger:    logger,
		JWTSecret: cfg.JWTSecret,
		SQL:       runner,

		Members:      members,
		Applications: applications,
		Memberships:  memberships,
		Schedules:    schedules,
		Invoices:     invoices,
		Mandates:     mandates,
		Batches:      batches,
		Chapters:     chapters,
		Volunteers:   volunteers,
		Expenses:     expenses,
		Donors:       donors,
		Donations:    donations,
		Agreements:   agreements,
		Terminations: terminations,
		Amendments:   amendments,
		Settings:     settings,
		Sync:         syncs,
		Stats:        stats,
		Accounts:     accounts,

		Lifecycle:   lifecycle,
		Amending:    amending,
		Collector:   collector,
		Scanner:     scanner,
		Terminator:  terminator,
		AnbiReport:  reporter,
		Bookkeeping: bookkeeping,

		Store:       store,
		Cache:       cache,
		Credentials: creds,
	}

	router := httpapi.NewRouter(httpapi.Config{
		App:             app,
		Metrics:         metrics,
		JWTSecret:       cfg.JWTSecret,
		DefaultLocale:   cfg.DefaultLocale,
		Country:         country,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router, logger)
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
