package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/sepa"
	"ledenbeheer/internal/storage"
)

// Builder assembles, validates and generates direct debit batches.
type Builder struct {
	invoices  domain.InvoiceRepository
	mandates  domain.MandateRepository
	members   domain.MemberRepository
	batches   domain.BatchRepository
	schedules domain.DuesScheduleRepository
	settings  domain.SettingsRepository
	notify    domain.NotificationRepository
	store     *storage.FileStore
	logger    zerolog.Logger
	onBatch   func()             // metrics hook, may be nil
	onResult  func(result string)
}

// NewBuilder wires the batch builder.
func NewBuilder(
	invoices domain.InvoiceRepository,
	mandates domain.MandateRepository,
	members domain.MemberRepository,
	batches domain.BatchRepository,
	schedules domain.DuesScheduleRepository,
	settings domain.SettingsRepository,
	notify domain.NotificationRepository,
	store *storage.FileStore,
	logger zerolog.Logger,
) *Builder {
	return &Builder{
		invoices:  invoices,
		mandates:  mandates,
		members:   members,
		batches:   batches,
		schedules: schedules,
		settings:  settings,
		notify:    notify,
		store:     store,
		logger:    logger.With().Str("component", "collection").Logger(),
	}
}

// OnBatchCreated registers a counter hook fired per drafted batch.
func (b *Builder) OnBatchCreated(fn func()) { b.onBatch = fn }

// OnCollectionResult registers a counter hook fired per processed row
// with the outcome ("paid" or "failed").
func (b *Builder) OnCollectionResult(fn func(result string)) { b.onResult = fn }

// CreateBatch drafts a batch of all open direct debit invoices for the
// given collection date. Invoices without an active mandate or already
// sitting in an open batch are skipped and noted in the batch log.
func (b *Builder) CreateBatch(ctx context.Context, collectionDate time.Time, description string) (*domain.Batch, error) {
	cfg, err := b.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !cfg.SEPAConfigured() {
		return nil, fmt.Errorf("%w: company IBAN, account holder and creditor id must be set", domain.ErrSettingsIncomplete)
	}

	rows, skipped, err := b.eligibleRows(ctx)
	if err != nil {
		return nil, err
	}

	seq, err := b.batches.NextSequenceForDay(ctx, collectionDate)
	if err != nil {
		return nil, fmt.Errorf("batch sequence: %w", err)
	}
	batch := &domain.Batch{
		Name:        fmt.Sprintf("DD-%s-%02d", collectionDate.Format("20060102"), seq),
		BatchDate:   collectionDate,
		Description: description,
		Currency:    "EUR",
		Status:      domain.BatchDraft,
		Rows:        rows,
	}
	batch.Totals()

	if err := b.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	b.appendLog(ctx, batch, fmt.Sprintf("drafted with %d rows, %s total", batch.EntryCount, batch.TotalAmount.StringFixed(2)))
	for _, msg := range skipped {
		b.appendLog(ctx, batch, "skipped "+msg)
	}
	b.logger.Info().Str("batch", batch.Name).Int("rows", batch.EntryCount).Int("skipped", len(skipped)).Msg("batch drafted")
	if b.onBatch != nil {
		b.onBatch()
	}
	return batch, nil
}

// eligibleRows walks open direct debit invoices and pairs each with
// its holder's active mandate. Invoices already claimed by another
// open batch or without a mandate come back as skip reasons.
func (b *Builder) eligibleRows(ctx context.Context) ([]domain.BatchRow, []string, error) {
	open, err := b.invoices.ListOpenForCollection(ctx, sepa.MaxBatchRows)
	if err != nil {
		return nil, nil, fmt.Errorf("list open invoices: %w", err)
	}
	ids := make([]string, 0, len(open))
	for _, inv := range open {
		ids = append(ids, inv.ID)
	}
	claimed, err := b.batches.InvoicesInOpenBatches(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("check open batches: %w", err)
	}

	var rows []domain.BatchRow
	var skipped []string
	for _, inv := range open {
		if inv.PaymentMethod != domain.PaymentMethodDirectDebit {
			continue
		}
		if other, ok := claimed[inv.ID]; ok {
			skipped = append(skipped, fmt.Sprintf("%s already in %s", inv.Number, other))
			continue
		}
		mandate, err := b.mandates.GetActiveByMember(ctx, inv.Member)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s: no active mandate", inv.Number))
			continue
		}
		debtor := mandate.AccountHolder
		if debtor == "" {
			debtor = inv.MemberName
		}
		rows = append(rows, domain.BatchRow{
			Invoice:          inv.ID,
			InvoiceNumber:    inv.Number,
			Member:           inv.Member,
			MemberName:       inv.MemberName,
			Amount:           inv.Outstanding,
			Currency:         "EUR",
			IBAN:             mandate.IBAN,
			BIC:              mandate.BIC,
			DebtorName:       debtor,
			MandateReference: mandate.Reference,
			MandateSignDate:  mandate.SignDate,
			SequenceType:     mandate.NextSequenceType(),
			Status:           domain.RowPending,
		})
	}
	return rows, skipped, nil
}

// Preview reports what a batch cut right now would collect, without
// drafting anything.
func (b *Builder) Preview(ctx context.Context) ([]domain.BatchRow, []string, error) {
	return b.eligibleRows(ctx)
}

// AutoDraft cuts the scheduled batch when today is one of the
// configured creation days. It returns nil without error when today
// is not a batch day, a batch for the computed collection date
// already exists, or no direct debit invoice is open.
func (b *Builder) AutoDraft(ctx context.Context, now time.Time) (*domain.Batch, error) {
	cfg, err := b.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	scheduled := false
	for _, d := range cfg.BatchCreationDays {
		if d == now.Day() {
			scheduled = true
			break
		}
	}
	if !scheduled {
		return nil, nil
	}
	if !cfg.SEPAConfigured() {
		b.logger.Warn().Msg("batch day reached but SEPA settings incomplete")
		return nil, nil
	}
	collectionDate := sepa.NextCollectionDate(now, cfg.CollectionLeadDays)
	seq, err := b.batches.NextSequenceForDay(ctx, collectionDate)
	if err != nil {
		return nil, fmt.Errorf("batch sequence: %w", err)
	}
	if seq > 1 {
		b.logger.Debug().Str("date", collectionDate.Format("2006-01-02")).Msg("batch already drafted for collection date")
		return nil, nil
	}
	open, err := b.invoices.ListOpenForCollection(ctx, sepa.MaxBatchRows)
	if err != nil {
		return nil, fmt.Errorf("list open invoices: %w", err)
	}
	eligible := 0
	for _, inv := range open {
		if inv.PaymentMethod == domain.PaymentMethodDirectDebit {
			eligible++
		}
	}
	if eligible == 0 {
		b.logger.Info().Msg("batch day reached but no open direct debit invoices")
		return nil, nil
	}
	return b.CreateBatch(ctx, collectionDate, fmt.Sprintf("Scheduled collection run %s", now.Format("2006-01-02")))
}

// Validate checks every row and the collection date. On success the
// batch moves to Validated; otherwise the issues are returned and the
// batch stays a draft.
func (b *Builder) Validate(ctx context.Context, batch *domain.Batch, now time.Time) ([]sepa.RowIssue, error) {
	if !batch.Status.Editable() {
		return nil, fmt.Errorf("%w: batch is %s", domain.ErrBatchNotEditable, batch.Status)
	}
	if len(batch.Rows) == 0 {
		rows, err := b.batches.ListRows(ctx, batch.ID)
		if err != nil {
			return nil, fmt.Errorf("load rows: %w", err)
		}
		batch.Rows = rows
	}
	if len(batch.Rows) == 0 {
		return nil, fmt.Errorf("%w: batch has no rows", domain.ErrInvalidInput)
	}
	if len(batch.Rows) > sepa.MaxBatchRows {
		return nil, fmt.Errorf("%w: batch exceeds %d rows", domain.ErrInvalidInput, sepa.MaxBatchRows)
	}
	if err := sepa.ValidateCollectionDate(now, batch.BatchDate); err != nil {
		return nil, err
	}

	var issues []sepa.RowIssue
	seen := map[string]bool{}
	for i := range batch.Rows {
		row := &batch.Rows[i]
		if seen[row.Invoice] {
			issues = append(issues, sepa.RowIssue{Invoice: row.InvoiceNumber, Field: "invoice", Detail: "duplicated in batch"})
			continue
		}
		seen[row.Invoice] = true
		issues = append(issues, sepa.ValidateRow(*row)...)
		if inv, err := b.invoices.GetByID(ctx, row.Invoice); err != nil {
			issues = append(issues, sepa.RowIssue{Invoice: row.InvoiceNumber, Field: "invoice", Detail: "invoice not found"})
		} else if !inv.Open() {
			issues = append(issues, sepa.RowIssue{Invoice: row.InvoiceNumber, Field: "invoice", Detail: fmt.Sprintf("invoice is %s", inv.Status)})
		}
		issues = append(issues, b.checkSequence(ctx, batch, row)...)
	}
	if len(issues) > 0 {
		b.appendLog(ctx, batch, fmt.Sprintf("validation found %d issues", len(issues)))
		return issues, nil
	}

	batch.Status = domain.BatchValidated
	if err := b.batches.UpdateStatus(ctx, batch.ID, domain.BatchValidated); err != nil {
		return nil, fmt.Errorf("mark validated: %w", err)
	}
	b.appendLog(ctx, batch, "validation passed")
	return nil, nil
}

// checkSequence compares the row's claimed sequence type with the
// mandate's usage history. FRST on an already used mandate is repaired
// in place, RCUR without prior usage blocks the batch.
func (b *Builder) checkSequence(ctx context.Context, batch *domain.Batch, row *domain.BatchRow) []sepa.RowIssue {
	if row.MandateReference == "" {
		return nil
	}
	mandate, err := b.mandates.GetByReference(ctx, row.MandateReference)
	if err != nil {
		return []sepa.RowIssue{{Invoice: row.InvoiceNumber, Field: "mandate", Detail: "mandate not on file"}}
	}
	switch {
	case row.SequenceType == "":
		row.SequenceType = mandate.NextSequenceType()
	case row.SequenceType == domain.SequenceRecurring && mandate.UsageCount == 0:
		return []sepa.RowIssue{{Invoice: row.InvoiceNumber, Field: "sequence", Detail: "RCUR claimed but mandate has never been used"}}
	case row.SequenceType == domain.SequenceFirst && mandate.UsageCount > 0:
		row.SequenceType = domain.SequenceRecurring
		b.appendLog(ctx, batch, fmt.Sprintf("corrected %s to RCUR, mandate already used", row.InvoiceNumber))
	default:
		return nil
	}
	if err := b.batches.UpdateRow(ctx, row); err != nil {
		b.logger.Warn().Err(err).Str("invoice", row.InvoiceNumber).Msg("persist corrected sequence failed")
	}
	return nil
}

// Generate renders the pain.008 file, stores it and moves the batch to
// Generated. Prenotifications are queued for every row.
func (b *Builder) Generate(ctx context.Context, batch *domain.Batch, now time.Time) (string, error) {
	if batch.Status != domain.BatchValidated {
		return "", fmt.Errorf("%w: batch must be validated first", domain.ErrBatchNotEditable)
	}
	cfg, err := b.settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	doc, err := sepa.BuildDocument(batch, sepa.CreditorConfig{
		Name:       cfg.CompanyAccountHolder,
		IBAN:       cfg.CompanyIBAN,
		BIC:        cfg.CompanyBIC,
		CreditorID: cfg.CreditorID,
	}, shortRef(), now)
	if err != nil {
		return "", err
	}
	raw, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode pain.008: %w", err)
	}

	key := fmt.Sprintf("batches/%d/%s.xml", batch.BatchDate.Year(), batch.Name)
	storedKey, err := b.store.Write(ctx, key, raw)
	if err != nil {
		return "", fmt.Errorf("store batch file: %w", err)
	}
	batch.XMLKey = storedKey
	batch.Status = domain.BatchGenerated
	if err := b.batches.Update(ctx, batch); err != nil {
		return "", fmt.Errorf("mark generated: %w", err)
	}
	b.appendLog(ctx, batch, "pain.008 generated at "+storedKey)
	b.queuePrenotifications(ctx, batch, cfg)
	b.logger.Info().Str("batch", batch.Name).Str("file", storedKey).Msg("batch file generated")
	return storedKey, nil
}

// Submit marks the batch handed to the bank and stamps mandate usage,
// which flips first-use mandates to recurring for the next run.
func (b *Builder) Submit(ctx context.Context, batch *domain.Batch, now time.Time) error {
	if batch.Status != domain.BatchGenerated {
		return fmt.Errorf("%w: batch must be generated before submission", domain.ErrBatchNotEditable)
	}
	if len(batch.Rows) == 0 {
		rows, err := b.batches.ListRows(ctx, batch.ID)
		if err != nil {
			return fmt.Errorf("load rows: %w", err)
		}
		batch.Rows = rows
	}
	for _, row := range batch.Rows {
		mandate, err := b.mandates.GetByReference(ctx, row.MandateReference)
		if err != nil {
			b.logger.Warn().Err(err).Str("mandate", row.MandateReference).Msg("mandate lookup on submit failed")
			continue
		}
		if err := b.mandates.RecordUsage(ctx, &domain.MandateUsage{
			Mandate:      mandate.ID,
			Invoice:      row.Invoice,
			Batch:        batch.ID,
			Amount:       row.Amount,
			SequenceType: row.SequenceType,
		}); err != nil {
			return fmt.Errorf("record mandate usage: %w", err)
		}
		mandate.UsageCount++
		mandate.LastUsedAt = &now
		if err := b.mandates.Update(ctx, mandate); err != nil {
			return fmt.Errorf("update mandate: %w", err)
		}
	}
	batch.Status = domain.BatchSubmitted
	batch.SubmittedAt = &now
	if err := b.batches.Update(ctx, batch); err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	b.appendLog(ctx, batch, "submitted to bank")
	return nil
}

// Cancel aborts a batch that has not been submitted yet.
func (b *Builder) Cancel(ctx context.Context, batch *domain.Batch, reason string) error {
	switch batch.Status {
	case domain.BatchDraft, domain.BatchValidated, domain.BatchGenerated:
	default:
		return fmt.Errorf("%w: %s batch cannot be cancelled", domain.ErrBatchNotEditable, batch.Status)
	}
	batch.Status = domain.BatchCancelled
	if err := b.batches.UpdateStatus(ctx, batch.ID, domain.BatchCancelled); err != nil {
		return fmt.Errorf("cancel batch: %w", err)
	}
	msg := "cancelled"
	if reason != "" {
		msg += ": " + reason
	}
	b.appendLog(ctx, batch, msg)
	return nil
}

func (b *Builder) queuePrenotifications(ctx context.Context, batch *domain.Batch, cfg *domain.Settings) {
	date := batch.BatchDate.Format("2006-01-02")
	for _, row := range batch.Rows {
		member, err := b.members.GetByID(ctx, row.Member)
		if err != nil || member.Email == "" {
			continue
		}
		n := &domain.Notification{
			Kind:        domain.NotifyPrenotification,
			Member:      row.Member,
			RefType:     "batch",
			RefID:       batch.ID,
			Recipient:   member.Email,
			Subject:     fmt.Sprintf("Upcoming direct debit on %s", date),
			Body:        billing.PrenotificationBody(member, row, date, cfg.CreditorID),
			Status:      domain.NotificationPending,
			DedupeKey:   fmt.Sprintf("prenotify:%s:%s", batch.Name, row.InvoiceNumber),
			ScheduledAt: time.Now(),
		}
		if err := b.notify.Enqueue(ctx, n); err != nil {
			b.logger.Warn().Err(err).Str("invoice", row.InvoiceNumber).Msg("enqueue prenotification failed")
		}
	}
}

func (b *Builder) appendLog(ctx context.Context, batch *domain.Batch, msg string) {
	entry := domain.BatchLogEntry{Timestamp: time.Now(), Message: msg}
	batch.Log = append(batch.Log, entry)
	if batch.ID == "" {
		return
	}
	if err := b.batches.AppendLog(ctx, batch.ID, entry); err != nil {
		b.logger.Warn().Err(err).Str("batch", batch.Name).Msg("append batch log failed")
	}
}

func shortRef() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
