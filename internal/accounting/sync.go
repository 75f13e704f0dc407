package accounting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/domain"
)

// API is the slice of the REST client the syncer needs. Tests swap in
// a fake.
type API interface {
	ListLedgers(ctx context.Context) ([]Ledger, error)
	ListRelations(ctx context.Context) ([]Relation, error)
	CreateRelation(ctx context.Context, r NewRelation) (int64, error)
	CreateMutation(ctx context.Context, m NewMutation) (int64, error)
	ListMutationsSince(ctx context.Context, sinceID int64) ([]Mutation, error)
}

const (
	maxSyncAttempts = 5
	syncBatchSize   = 200
	mutationCursor  = "mutations"
	paymentCursor   = "payments"
)

// Syncer pushes invoices, payments and donations into the bookkeeping
// system and reconciles what came back.
type Syncer struct {
	api       API
	mapping   *Mapping
	syncs     domain.SyncRepository
	invoices  domain.InvoiceRepository
	schedules domain.DuesScheduleRepository
	donations domain.DonationRepository
	donors    domain.DonorRepository
	members   domain.MemberRepository
	outbox    domain.NotificationRepository
	alertAddr string
	logger    zerolog.Logger
}

func NewSyncer(
	api API,
	mapping *Mapping,
	syncs domain.SyncRepository,
	invoices domain.InvoiceRepository,
	schedules domain.DuesScheduleRepository,
	donations domain.DonationRepository,
	donors domain.DonorRepository,
	members domain.MemberRepository,
	outbox domain.NotificationRepository,
	alertAddr string,
	logger zerolog.Logger,
) *Syncer {
	return &Syncer{
		api:       api,
		mapping:   mapping,
		syncs:     syncs,
		invoices:  invoices,
		schedules: schedules,
		donations: donations,
		donors:    donors,
		members:   members,
		outbox:    outbox,
		alertAddr: alertAddr,
		logger:    logger.With().Str("component", "accounting").Logger(),
	}
}

// SyncReport summarises one sync run.
type SyncReport struct {
	Enqueued int
	Posted   int
	Skipped  int
	Failed   int
}

// Run enqueues documents that have no sync record yet, then posts all
// pending records as journal entries. Failures are recorded per
// document and retried on later runs until the attempt cap.
func (s *Syncer) Run(ctx context.Context, now time.Time) (SyncReport, error) {
	var report SyncReport
	for _, docType := range []domain.SyncDocType{domain.SyncDocInvoice, domain.SyncDocPayment, domain.SyncDocDonation} {
		n, err := s.syncs.EnqueueMissing(ctx, docType, syncBatchSize)
		if err != nil {
			return report, fmt.Errorf("enqueue %s sync records: %w", docType, err)
		}
		report.Enqueued += n
	}

	ledgers, err := s.resolveLedgers(ctx)
	if err != nil {
		return report, err
	}
	relations, err := s.relationIndex(ctx)
	if err != nil {
		return report, err
	}

	pending, err := s.syncs.ListPending(ctx, syncBatchSize)
	if err != nil {
		return report, fmt.Errorf("list pending sync records: %w", err)
	}
	for i := range pending {
		rec := &pending[i]
		mut, skip, err := s.buildMutation(ctx, rec, ledgers, relations)
		if err != nil {
			s.fail(ctx, rec, err)
			report.Failed++
			continue
		}
		if skip {
			rec.Status = domain.SyncSynced
			rec.SyncedAt = &now
			if err := s.syncs.Upsert(ctx, rec); err != nil {
				return report, fmt.Errorf("store sync record: %w", err)
			}
			report.Skipped++
			continue
		}
		id, err := s.api.CreateMutation(ctx, mut)
		if err != nil {
			s.fail(ctx, rec, err)
			report.Failed++
			continue
		}
		rec.MutationID = id
		rec.Status = domain.SyncSynced
		rec.SyncedAt = &now
		rec.LastError = ""
		if err := s.syncs.Upsert(ctx, rec); err != nil {
			return report, fmt.Errorf("store sync record: %w", err)
		}
		report.Posted++
	}
	s.logger.Info().
		Int("enqueued", report.Enqueued).
		Int("posted", report.Posted).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("accounting sync run finished")
	return report, nil
}

// Reconcile walks remote mutations past the stored cursor and flags
// incoming money that no sync record accounts for. Each flagged
// mutation produces at most one outbox notice ever.
func (s *Syncer) Reconcile(ctx context.Context) (int, error) {
	cursor, err := s.syncs.Cursor(ctx, mutationCursor)
	if err != nil {
		return 0, fmt.Errorf("load mutation cursor: %w", err)
	}
	muts, err := s.api.ListMutationsSince(ctx, cursor)
	if err != nil {
		return 0, err
	}
	maxID := cursor
	unmatched := 0
	for _, m := range muts {
		if m.ID > maxID {
			maxID = m.ID
		}
		if m.Type != MutationPaymentReceived && m.Type != MutationMoneyReceived {
			continue
		}
		known, err := s.syncs.HasMutation(ctx, m.ID)
		if err != nil {
			return unmatched, fmt.Errorf("check mutation %d: %w", m.ID, err)
		}
		if known {
			continue
		}
		unmatched++
		s.logger.Warn().Int64("mutation", m.ID).Str("date", m.Date).Msg("unmatched bank entry")
		if s.alertAddr == "" {
			continue
		}
		n := &domain.Notification{
			Kind:        domain.NotifyReconcileAlert,
			RefType:     "mutation",
			RefID:       strconv.FormatInt(m.ID, 10),
			Recipient:   s.alertAddr,
			Subject:     fmt.Sprintf("Unmatched bank entry %d", m.ID),
			Body:        reconcileAlertBody(m),
			Status:      domain.NotificationPending,
			DedupeKey:   fmt.Sprintf("reconcile:%d", m.ID),
			ScheduledAt: time.Now(),
		}
		if err := s.outbox.Enqueue(ctx, n); err != nil {
			s.logger.Warn().Err(err).Int64("mutation", m.ID).Msg("enqueue reconcile alert failed")
		}
	}
	if maxID > cursor {
		if err := s.syncs.SetCursor(ctx, mutationCursor, maxID); err != nil {
			return unmatched, fmt.Errorf("advance mutation cursor: %w", err)
		}
	}
	return unmatched, nil
}

// CheckPayments walks payment mutations past the payment cursor and
// settles open invoices the treasurer booked directly in the
// bookkeeping. A settled invoice gets a synced payment record carrying
// the mutation id, so neither the nightly sync nor the reconciliation
// touches that mutation again.
func (s *Syncer) CheckPayments(ctx context.Context, now time.Time) (int, error) {
	cursor, err := s.syncs.Cursor(ctx, paymentCursor)
	if err != nil {
		return 0, fmt.Errorf("load payment cursor: %w", err)
	}
	muts, err := s.api.ListMutationsSince(ctx, cursor)
	if err != nil {
		return 0, err
	}
	maxID := cursor
	settled := 0
	for _, m := range muts {
		if m.ID > maxID {
			maxID = m.ID
		}
		if m.Type != MutationPaymentReceived && m.Type != MutationMoneyReceived {
			continue
		}
		if m.InvoiceNumber == "" {
			continue
		}
		known, err := s.syncs.HasMutation(ctx, m.ID)
		if err != nil {
			return settled, fmt.Errorf("check mutation %d: %w", m.ID, err)
		}
		if known {
			continue
		}
		done, err := s.settleFromMutation(ctx, m, now)
		if err != nil {
			s.logger.Warn().Err(err).Int64("mutation", m.ID).Str("invoice", m.InvoiceNumber).Msg("settle invoice from mutation failed")
			continue
		}
		if done {
			settled++
		}
	}
	if maxID > cursor {
		if err := s.syncs.SetCursor(ctx, paymentCursor, maxID); err != nil {
			return settled, fmt.Errorf("advance payment cursor: %w", err)
		}
	}
	if settled > 0 {
		s.logger.Info().Int("settled", settled).Msg("invoices settled from bookkeeping payments")
	}
	return settled, nil
}

func (s *Syncer) settleFromMutation(ctx context.Context, m Mutation, now time.Time) (bool, error) {
	inv, err := s.invoices.GetByNumber(ctx, m.InvoiceNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// not one of ours, reconciliation decides what it is
			return false, nil
		}
		return false, err
	}
	if !inv.Open() {
		return false, nil
	}
	amount := decimal.Zero
	for _, row := range m.Rows {
		amount = amount.Add(decimal.NewFromFloat(row.Amount))
	}
	if !amount.IsPositive() || amount.GreaterThan(inv.Outstanding) {
		amount = inv.Outstanding
	}
	inv.Outstanding = inv.Outstanding.Sub(amount)
	if inv.Outstanding.IsZero() {
		paidAt := now
		if d, err := time.Parse("2006-01-02", m.Date); err == nil {
			paidAt = d
		}
		inv.Status = domain.InvoicePaid
		inv.PaidAt = &paidAt
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return false, fmt.Errorf("update invoice %s: %w", inv.Number, err)
	}
	if inv.Status == domain.InvoicePaid && inv.DuesSchedule != "" {
		if sched, err := s.schedules.GetByID(ctx, inv.DuesSchedule); err == nil {
			billing.ApplyCollectionSuccess(sched)
			if err := s.schedules.Update(ctx, sched); err != nil {
				s.logger.Warn().Err(err).Str("schedule", sched.ID).Msg("reset failures after bookkeeping payment")
			}
		}
	}
	rec := &domain.SyncRecord{
		DocType:    domain.SyncDocPayment,
		DocID:      inv.ID,
		MutationID: m.ID,
		Status:     domain.SyncSynced,
		SyncedAt:   &now,
	}
	if err := s.syncs.Upsert(ctx, rec); err != nil {
		return true, fmt.Errorf("store payment sync record: %w", err)
	}
	return true, nil
}

func reconcileAlertBody(m Mutation) string {
	return fmt.Sprintf(
		"Mutation %d of %s (%s) was found in the bookkeeping but matches no synced document.\nDescription: %s\nInvoice reference: %s\n",
		m.ID, m.Date, mutationTypeName(m.Type), m.Description, m.InvoiceNumber)
}

func mutationTypeName(t int) string {
	switch t {
	case MutationSalesInvoice:
		return "sales invoice"
	case MutationPaymentReceived:
		return "payment received"
	case MutationMoneyReceived:
		return "money received"
	case MutationMemorial:
		return "memorial entry"
	default:
		return fmt.Sprintf("type %d", t)
	}
}

// resolveLedgers maps every configured ledger code to its remote id.
func (s *Syncer) resolveLedgers(ctx context.Context) (map[string]int64, error) {
	remote, err := s.api.ListLedgers(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]int64, len(remote))
	for _, l := range remote {
		byCode[l.Code] = l.ID
	}
	var missing []string
	for _, code := range s.mapping.Codes() {
		if _, ok := byCode[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("ledger codes missing from remote chart of accounts: %v", missing)
	}
	return byCode, nil
}

func (s *Syncer) relationIndex(ctx context.Context) (map[string]int64, error) {
	remote, err := s.api.ListRelations(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]int64, len(remote))
	for _, r := range remote {
		if r.Code != "" {
			byCode[r.Code] = r.ID
		}
	}
	return byCode, nil
}

// relationFor returns the remote relation id for a party, creating the
// relation on first contact.
func (s *Syncer) relationFor(ctx context.Context, relations map[string]int64, code, kind, name, email string) (int64, error) {
	if id, ok := relations[code]; ok {
		return id, nil
	}
	id, err := s.api.CreateRelation(ctx, NewRelation{Type: kind, Code: code, Name: name, Email: email})
	if err != nil {
		return 0, fmt.Errorf("create relation %s: %w", code, err)
	}
	relations[code] = id
	return id, nil
}

func (s *Syncer) buildMutation(ctx context.Context, rec *domain.SyncRecord, ledgers, relations map[string]int64) (NewMutation, bool, error) {
	switch rec.DocType {
	case domain.SyncDocInvoice:
		return s.invoiceMutation(ctx, rec.DocID, ledgers, relations)
	case domain.SyncDocPayment:
		return s.paymentMutation(ctx, rec.DocID, ledgers, relations)
	case domain.SyncDocDonation:
		return s.donationMutation(ctx, rec.DocID, ledgers, relations)
	default:
		return NewMutation{}, false, fmt.Errorf("unknown sync document type %q", rec.DocType)
	}
}

func (s *Syncer) invoiceMutation(ctx context.Context, invoiceID string, ledgers, relations map[string]int64) (NewMutation, bool, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return NewMutation{}, false, fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}
	if inv.Status == domain.InvoiceCancelled {
		return NewMutation{}, true, nil
	}
	relation, err := s.memberRelation(ctx, relations, inv.Member)
	if err != nil {
		return NewMutation{}, false, err
	}
	return NewMutation{
		Type:          MutationSalesInvoice,
		Date:          inv.PostingDate.Format("2006-01-02"),
		Description:   inv.Description,
		LedgerID:      ledgers[s.mapping.Receivable],
		RelationID:    relation,
		InvoiceNumber: inv.Number,
		Rows: []MutationRow{{
			LedgerID: ledgers[s.mapping.Dues],
			Amount:   amount(inv.Amount),
		}},
	}, false, nil
}

func (s *Syncer) paymentMutation(ctx context.Context, invoiceID string, ledgers, relations map[string]int64) (NewMutation, bool, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return NewMutation{}, false, fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}
	if inv.PaidAt == nil {
		return NewMutation{}, false, fmt.Errorf("invoice %s has a payment sync record but no paid date", inv.Number)
	}
	relation, err := s.memberRelation(ctx, relations, inv.Member)
	if err != nil {
		return NewMutation{}, false, err
	}
	return NewMutation{
		Type:          MutationPaymentReceived,
		Date:          inv.PaidAt.Format("2006-01-02"),
		Description:   "Payment " + inv.Number,
		LedgerID:      ledgers[s.mapping.Bank],
		RelationID:    relation,
		InvoiceNumber: inv.Number,
		Rows: []MutationRow{{
			LedgerID: ledgers[s.mapping.Receivable],
			Amount:   amount(inv.Amount),
		}},
	}, false, nil
}

func (s *Syncer) donationMutation(ctx context.Context, donationID string, ledgers, relations map[string]int64) (NewMutation, bool, error) {
	don, err := s.donations.GetByID(ctx, donationID)
	if err != nil {
		return NewMutation{}, false, fmt.Errorf("load donation %s: %w", donationID, err)
	}
	donor, err := s.donors.GetByID(ctx, don.Donor)
	if err != nil {
		return NewMutation{}, false, fmt.Errorf("load donor %s: %w", don.Donor, err)
	}
	kind := "P"
	if donor.Type == domain.DonorOrganization {
		kind = "B"
	}
	relation, err := s.relationFor(ctx, relations, donorRelationCode(donor.ID), kind, donor.Name, donor.Email)
	if err != nil {
		return NewMutation{}, false, err
	}
	date := don.Date
	if don.PaidAt != nil {
		date = *don.PaidAt
	}
	return NewMutation{
		Type:        MutationMoneyReceived,
		Date:        date.Format("2006-01-02"),
		Description: "Donation " + don.ID,
		LedgerID:    ledgers[s.mapping.Bank],
		RelationID:  relation,
		Rows: []MutationRow{{
			LedgerID:    ledgers[s.mapping.DonationLedger(don.Purpose)],
			Amount:      amount(don.Amount),
			Description: don.EarmarkingSummary(),
		}},
	}, false, nil
}

func (s *Syncer) memberRelation(ctx context.Context, relations map[string]int64, memberID string) (int64, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("load member %s: %w", memberID, err)
	}
	code := fmt.Sprintf("M%d", m.MemberNumber)
	return s.relationFor(ctx, relations, code, "P", m.FullName(), m.Email)
}

func donorRelationCode(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "D-" + id
}

func (s *Syncer) fail(ctx context.Context, rec *domain.SyncRecord, cause error) {
	rec.Attempts++
	rec.LastError = cause.Error()
	if rec.Attempts >= maxSyncAttempts {
		rec.Status = domain.SyncError
	}
	if err := s.syncs.Upsert(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("doc", rec.DocID).Msg("store failed sync record")
		return
	}
	s.logger.Warn().Err(cause).
		Str("doc_type", string(rec.DocType)).
		Str("doc", rec.DocID).
		Int("attempts", rec.Attempts).
		Msg("sync of document failed")
}

// amount converts a decimal euro value to the wire representation.
func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
