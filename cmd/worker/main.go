package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"ledenbeheer/internal/accounting"
	"ledenbeheer/internal/adapter/repo"
	"ledenbeheer/internal/anbi"
	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/collection"
	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/infra/credentials"
	"ledenbeheer/internal/member"
	"ledenbeheer/internal/outbox"
	"ledenbeheer/internal/storage"
	"ledenbeheer/internal/termination"
)

const (
	runItemLimit   = 500
	drainBatchSize = 200
	retryBackoff   = 5 * time.Minute
	cronLockTTL    = 10 * time.Minute
	draftLockTTL   = 20 * time.Hour

	jobRetention          = 90 * 24 * time.Hour
	notificationRetention = 180 * 24 * time.Hour
	draftBatchRetention   = 60 * 24 * time.Hour
)

// jobWorker owns the cron schedule and the job queue claim loop. Cron
// entries only enqueue; all work runs through dispatch so every task
// gets the same retry, logging and metrics treatment.
type jobWorker struct {
	ctx     context.Context
	logger  zerolog.Logger
	metrics *infra.Metrics
	redis   *redis.Client
	cache   *infra.Cache
	poll    time.Duration

	jobs          domain.JobRepository
	invoices      domain.InvoiceRepository
	batches       domain.BatchRepository
	terminations  domain.TerminationRepository
	notifications domain.NotificationRepository
	settings      domain.SettingsRepository

	biller      *billing.Engine
	lifecycle   *member.Service
	amending    *billing.Amendments
	collector   *collection.Builder
	scanner     *collection.Scanner
	terminator  *termination.Executor
	sweeper     *anbi.Sweeper
	reporter    *anbi.Reporter
	compliance  *termination.Compliance
	dispatcher  *outbox.Dispatcher
	bookkeeping *accounting.Syncer // nil without a ledger mapping
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger("worker", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: storage init failed")
	}

	redisClient, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := infra.NewCache(redisClient, 5*time.Minute)

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
	accounts := repo.NewAccountRepository(runner)
	donors := repo.NewDonorRepository(runner, cfg.PIIEncryptionKey)
	donations := repo.NewDonationRepository(runner)
	agreements := repo.NewAgreementRepository(runner)
	terminations := repo.NewTerminationRepository(runner)
	amendments := repo.NewAmendmentRepository(runner)
	notifications := repo.NewNotificationRepository(runner)
	syncs := repo.NewSyncRepository(runner)
	jobs := repo.NewJobRepository(runner)

	creds := credentials.NewStore(runner)
	metrics := infra.NewMetrics()

	biller := billing.NewEngine(schedules, invoices, members, settings, notifications, logger)
	biller.OnInvoiceGenerated(metrics.InvoicesCreated.Inc)

	lifecycle := member.NewService(applications, members, memberships, schedules, mandates, chapters, notifications, logger)
	amending := billing.NewAmendments(amendments, schedules, members, notifications, logger)

	collector := collection.NewBuilder(invoices, mandates, members, batches, schedules, settings, notifications, store, logger)
	collector.OnBatchCreated(metrics.BatchesCreated.Inc)
	collector.OnCollectionResult(func(result string) {
		metrics.CollectionResults.WithLabelValues(result).Inc()
	})

	scanner := collection.NewScanner(mandates, members, notifications, logger)
	terminator := termination.NewExecutor(terminations, members, memberships, schedules, mandates, invoices, chapters, volunteers, expenses, accounts, notifications, logger)
	sweeper := anbi.NewSweeper(agreements, donors, notifications, logger)
	reporter := anbi.NewReporter(donations, donors, agreements, store, logger)
	compliance := termination.NewCompliance(terminations, store, logger)

	var sender outbox.Sender
	if cfg.SMTPConfigured() {
		sender = &outbox.SMTPSender{
			Addr:     cfg.SMTPAddr,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}
	} else {
		logger.Warn().Msg("worker: SMTP not configured, mail goes to the log")
		sender = &outbox.LogSender{Logger: logger}
	}
	dispatcher := outbox.NewDispatcher(notifications, sender, logger)
	dispatcher.OnDelivery(func(kind, outcome string) {
		metrics.NotificationsSent.WithLabelValues(kind, outcome).Inc()
	})

	var bookkeeping *accounting.Syncer
	if cfg.LedgerMappingPath != "" {
		mapping, err := accounting.LoadMapping(cfg.LedgerMappingPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: ledger mapping failed")
		}
		client := accounting.NewClient(accounting.Options{
			BaseURL:   cfg.EBoekhoudenBaseURL,
			APIToken:  cfg.EBoekhoudenToken,
			TokenFunc: creds.EBoekhoudenToken,
		})
		bookkeeping = accounting.NewSyncer(client, mapping, syncs, invoices, schedules, donations, donors, members, notifications, cfg.AlertEmail, logger)
	} else {
		logger.Info().Msg("worker: no ledger mapping configured, bookkeeping sync off")
	}

	w := &jobWorker{
		ctx:     ctx,
		logger:  logger,
		metrics: metrics,
		redis:   redisClient,
		cache:   cache,
		poll:    cfg.WorkerPollInterval,

		jobs:          jobs,
		invoices:      invoices,
		batches:       batches,
		terminations:  terminations,
		notifications: notifications,
		settings:      settings,

		biller:      biller,
		lifecycle:   lifecycle,
		amending:    amending,
		collector:   collector,
		scanner:     scanner,
		terminator:  terminator,
		sweeper:     sweeper,
		reporter:    reporter,
		compliance:  compliance,
		dispatcher:  dispatcher,
		bookkeeping: bookkeeping,
	}

	startMetricsServer(ctx, cfg.WorkerMetricsAddr, metrics, logger)

	sched := cron.New()
	w.register(sched)
	sched.Start()
	defer sched.Stop()

	if err := w.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func startMetricsServer(ctx context.Context, addr string, metrics *infra.Metrics, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info().Str("addr", addr).Msg("worker: metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("worker: metrics listener failed")
		}
	}()
}

func (w *jobWorker) register(sched *cron.Cron) {
	mustAdd := func(spec string, fn func()) {
		if _, err := sched.AddFunc(spec, fn); err != nil {
			w.logger.Fatal().Err(err).Str("spec", spec).Msg("worker: bad cron spec")
		}
	}
	mustAdd("30 5 * * *", w.nightly)
	mustAdd("15 * * * *", w.hourly)
	mustAdd("0 7 * * 1", w.weekly)
	mustAdd("45 3 1 * *", w.monthly)
	mustAdd("0 6 2 1 *", w.yearly)
}

// nightly queues the daily run. The stagger keeps the claim order
// aligned with the billing flow: statuses and terminations settle
// before invoices generate, and invoices exist before the batch
// drafts.
func (w *jobWorker) nightly() {
	seq := []domain.JobType{
		domain.JobTypeMemberStatusRun,
		domain.JobTypeTerminationRun,
		domain.JobTypeAmendmentApply,
		domain.JobTypeInvoiceRun,
		domain.JobTypeOverdueSweep,
		domain.JobTypeMandateScan,
		domain.JobTypeAgreementSweep,
		domain.JobTypeRenewalReminders,
		domain.JobTypeBatchDraft,
	}
	if w.bookkeeping != nil {
		seq = append(seq, domain.JobTypeAccountingSync, domain.JobTypeReconcile)
	}
	seq = append(seq, domain.JobTypeStatsRefresh)

	now := time.Now()
	for i, jobType := range seq {
		w.enqueue(jobType, nil, now.Add(time.Duration(i)*time.Minute))
	}
}

func (w *jobWorker) hourly() {
	now := time.Now()
	w.enqueue(domain.JobTypeNotifyDispatch, nil, now)
	if w.bookkeeping != nil {
		w.enqueue(domain.JobTypePaymentCheck, nil, now)
	}
}

func (w *jobWorker) weekly() {
	now := time.Now()
	payload, _ := json.Marshal(map[string]string{
		"from": now.AddDate(0, 0, -7).Format("2006-01-02"),
		"to":   now.Format("2006-01-02"),
	})
	w.enqueue(domain.JobTypeComplianceReport, payload, now)
}

func (w *jobWorker) monthly() {
	now := time.Now()
	w.enqueue(domain.JobTypeConsentRequests, nil, now)
	w.enqueue(domain.JobTypeCleanup, nil, now.Add(time.Minute))
}

func (w *jobWorker) yearly() {
	now := time.Now()
	payload, _ := json.Marshal(map[string]int{"year": now.Year() - 1})
	w.enqueue(domain.JobTypeAnbiExport, payload, now)
}

// enqueue files one queued job unless a sibling worker already did.
// The lock is best effort: without Redis every worker enqueues and the
// SKIP LOCKED claim keeps execution single, so a duplicate only costs
// a repeat run of an idempotent task.
func (w *jobWorker) enqueue(jobType domain.JobType, payload []byte, runAfter time.Time) {
	lock := infra.NewLock(w.redis, "cron:"+string(jobType), cronLockTTL)
	held, err := lock.TryAcquire(w.ctx)
	if err != nil {
		w.logger.Warn().Err(err).Str("type", string(jobType)).Msg("worker: cron lock failed, enqueueing anyway")
	} else if !held {
		return
	}
	job := &domain.Job{Type: jobType, PayloadJSON: payload, RunAfter: runAfter}
	if err := w.jobs.Create(w.ctx, job); err != nil {
		w.logger.Error().Err(err).Str("type", string(jobType)).Msg("worker: enqueue failed")
		return
	}
	w.logger.Info().Str("type", string(jobType)).Str("job_id", job.ID).Time("run_after", runAfter).Msg("worker: job queued")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Dur("poll", w.poll).Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.jobs.ClaimNext(w.ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("worker: claim failed")
			w.idle()
			continue
		}
		if job == nil {
			w.idle()
			continue
		}
		w.handle(job)
	}
}

func (w *jobWorker) idle() {
	select {
	case <-w.ctx.Done():
	case <-time.After(w.poll):
	}
}

func (w *jobWorker) handle(job *domain.Job) {
	w.logger.Info().Str("job_id", job.ID).Str("type", string(job.Type)).Int("attempt", job.Attempts).Msg("worker: picked job")
	started := time.Now()
	result, err := w.dispatch(job)
	elapsed := time.Since(started)
	if err != nil {
		w.metrics.ObserveJob(string(job.Type), "failed", elapsed)
		w.logger.Error().Err(err).Str("job_id", job.ID).Str("type", string(job.Type)).Msg("worker: job failed")
		w.settleFailure(job, err)
		return
	}
	w.metrics.ObserveJob(string(job.Type), "succeeded", elapsed)
	var resultJSON []byte
	if result != nil {
		if b, mErr := json.Marshal(result); mErr == nil {
			resultJSON = b
		}
	}
	if err := w.jobs.UpdateStatus(w.ctx, job.ID, domain.JobStatusSucceeded, nil, resultJSON); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: status update failed")
	}
}

// settleFailure records the error, then requeues with a linear backoff
// while attempts remain.
func (w *jobWorker) settleFailure(job *domain.Job, cause error) {
	msg := cause.Error()
	if err := w.jobs.UpdateStatus(w.ctx, job.ID, domain.JobStatusFailed, &msg, nil); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: status update failed")
		return
	}
	if !job.Retryable() {
		return
	}
	delay := retryBackoff * time.Duration(job.Attempts)
	if err := w.jobs.Requeue(w.ctx, job.ID, time.Now().Add(delay)); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: requeue failed")
	}
}

func (w *jobWorker) dispatch(job *domain.Job) (any, error) {
	now := time.Now()
	switch job.Type {
	case domain.JobTypeInvoiceRun:
		return w.biller.Run(w.ctx, now, runItemLimit)
	case domain.JobTypeOverdueSweep:
		marked, err := w.invoices.MarkOverdue(w.ctx, now)
		if err != nil {
			return nil, err
		}
		return map[string]int{"marked": marked}, nil
	case domain.JobTypeMemberStatusRun:
		return w.lifecycle.ProcessMemberships(w.ctx, now, runItemLimit)
	case domain.JobTypeAmendmentApply:
		return w.amending.ApplyDue(w.ctx, now, runItemLimit)
	case domain.JobTypeMandateScan:
		discrepancies, err := w.scanner.Scan(w.ctx, now, true)
		if err != nil {
			return nil, err
		}
		return map[string]int{"discrepancies": len(discrepancies)}, nil
	case domain.JobTypeAgreementSweep:
		return w.sweeper.Run(w.ctx, now)
	case domain.JobTypeRenewalReminders:
		sent, err := w.lifecycle.SendRenewalReminders(w.ctx, now, runItemLimit)
		if err != nil {
			return nil, err
		}
		return map[string]int{"sent": sent}, nil
	case domain.JobTypeConsentRequests:
		sent, err := w.sweeper.RequestConsent(w.ctx, now, runItemLimit)
		if err != nil {
			return nil, err
		}
		return map[string]int{"sent": sent}, nil
	case domain.JobTypeBatchDraft:
		return w.draftBatch(now)
	case domain.JobTypeBatchGenerate:
		return w.generateBatch(job.PayloadJSON, now)
	case domain.JobTypeTerminationRun:
		return w.executeDueTerminations(now)
	case domain.JobTypeAccountingSync:
		if w.bookkeeping == nil {
			return nil, errors.New("bookkeeping sync not configured")
		}
		return w.bookkeeping.Run(w.ctx, now)
	case domain.JobTypeReconcile:
		if w.bookkeeping == nil {
			return nil, errors.New("bookkeeping sync not configured")
		}
		unmatched, err := w.bookkeeping.Reconcile(w.ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"unmatched": unmatched}, nil
	case domain.JobTypePaymentCheck:
		if w.bookkeeping == nil {
			return nil, errors.New("bookkeeping sync not configured")
		}
		settled, err := w.bookkeeping.CheckPayments(w.ctx, now)
		if err != nil {
			return nil, err
		}
		return map[string]int{"settled": settled}, nil
	case domain.JobTypeNotifyDispatch:
		return w.dispatcher.Drain(w.ctx, drainBatchSize)
	case domain.JobTypeStatsRefresh:
		w.cache.Invalidate(w.ctx, infra.CacheKeyDashboard)
		return nil, nil
	case domain.JobTypeComplianceReport:
		return w.complianceReport(job.PayloadJSON, now)
	case domain.JobTypeAnbiExport:
		return w.anbiExport(job.PayloadJSON, now)
	case domain.JobTypeCleanup:
		return w.cleanup(now)
	default:
		return nil, fmt.Errorf("unsupported job type %q", job.Type)
	}
}

// draftBatch runs the scheduled batch gate and, when a batch comes out
// of it, queues XML generation as a follow-up job. A day-long Redis
// lock keyed by the calendar date keeps retries and sibling workers
// from cutting the same batch twice.
func (w *jobWorker) draftBatch(now time.Time) (any, error) {
	lock := infra.NewLock(w.redis, "batch:draft:"+now.Format("2006-01-02"), draftLockTTL)
	held, err := lock.TryAcquire(w.ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("worker: batch draft lock failed, relying on sequence check")
	} else if !held {
		return map[string]string{"outcome": "locked"}, nil
	}
	batch, err := w.collector.AutoDraft(w.ctx, now)
	if err != nil {
		_ = lock.Release(w.ctx)
		return nil, err
	}
	if batch == nil {
		return map[string]string{"outcome": "skipped"}, nil
	}
	payload, _ := json.Marshal(map[string]string{"batch_id": batch.ID})
	followUp := &domain.Job{Type: domain.JobTypeBatchGenerate, PayloadJSON: payload}
	if err := w.jobs.Create(w.ctx, followUp); err != nil {
		return nil, fmt.Errorf("queue batch generation: %w", err)
	}
	return map[string]string{"outcome": "created", "batch_id": batch.ID, "batch": batch.Name}, nil
}

type batchPayload struct {
	BatchID string `json:"batch_id"`
}

// generateBatch validates a drafted batch, renders its pain.008 file
// and, when the organization opted in, submits it in the same run.
func (w *jobWorker) generateBatch(payload []byte, now time.Time) (any, error) {
	var p batchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode batch payload: %w", err)
	}
	if p.BatchID == "" {
		return nil, errors.New("batch payload missing batch_id")
	}
	batch, err := w.batches.GetByID(w.ctx, p.BatchID)
	if err != nil {
		return nil, err
	}
	if batch.Status == domain.BatchDraft {
		issues, err := w.collector.Validate(w.ctx, batch, now)
		if err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			return nil, fmt.Errorf("batch %s failed validation with %d issues", batch.Name, len(issues))
		}
	}
	key, err := w.collector.Generate(w.ctx, batch, now)
	if err != nil {
		return nil, err
	}
	out := map[string]string{"batch": batch.Name, "file": key}
	if cfg, err := w.settings.Get(w.ctx); err == nil && cfg.BatchAutoSubmit {
		if err := w.collector.Submit(w.ctx, batch, now); err != nil {
			return nil, fmt.Errorf("auto submit: %w", err)
		}
		out["submitted"] = "true"
	}
	return out, nil
}

func (w *jobWorker) executeDueTerminations(now time.Time) (any, error) {
	due, err := w.terminations.ListDueForExecution(w.ctx, now, runItemLimit)
	if err != nil {
		return nil, err
	}
	executed, failed := 0, 0
	for i := range due {
		req := due[i]
		if err := w.terminator.Execute(w.ctx, &req, now); err != nil {
			failed++
			w.logger.Error().Err(err).Str("termination", req.ID).Msg("worker: termination execution failed")
			continue
		}
		executed++
	}
	return map[string]int{"due": len(due), "executed": executed, "failed": failed}, nil
}

type rangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (w *jobWorker) complianceReport(payload []byte, now time.Time) (any, error) {
	from := now.AddDate(0, 0, -7)
	to := now
	var p rangePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode report payload: %w", err)
		}
	}
	if p.From != "" {
		t, err := time.Parse("2006-01-02", p.From)
		if err != nil {
			return nil, fmt.Errorf("report payload from: %w", err)
		}
		from = t
	}
	if p.To != "" {
		t, err := time.Parse("2006-01-02", p.To)
		if err != nil {
			return nil, fmt.Errorf("report payload to: %w", err)
		}
		to = t
	}
	key, err := w.compliance.Generate(w.ctx, from, to)
	if err != nil {
		return nil, err
	}
	return map[string]string{"file": key}, nil
}

type yearPayload struct {
	Year int `json:"year"`
}

func (w *jobWorker) anbiExport(payload []byte, now time.Time) (any, error) {
	var p yearPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode export payload: %w", err)
		}
	}
	year := p.Year
	if year == 0 {
		year = now.Year() - 1
	}
	result, err := w.reporter.GenerateAnnual(w.ctx, year)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"year":  result.Year,
		"lines": len(result.Lines),
		"total": result.Total.StringFixed(2),
		"file":  result.ArchiveKey,
	}, nil
}

// cleanup drops finished jobs and delivered mail past retention.
func (w *jobWorker) cleanup(now time.Time) (any, error) {
	jobsGone, err := w.jobs.DeleteFinishedBefore(w.ctx, now.Add(-jobRetention))
	if err != nil {
		return nil, err
	}
	mailGone, err := w.notifications.DeleteSentBefore(w.ctx, now.Add(-notificationRetention))
	if err != nil {
		return nil, err
	}
	draftsGone, err := w.batches.DeleteStaleDraftsBefore(w.ctx, now.Add(-draftBatchRetention))
	if err != nil {
		return nil, err
	}
	return map[string]int{"jobs": jobsGone, "notifications": mailGone, "stale_drafts": draftsGone}, nil
}
