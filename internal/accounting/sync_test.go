package accounting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

type fakeAPI struct {
	ledgers   []Ledger
	relations []Relation
	mutations []Mutation
	created   []NewMutation
	newRels   []NewRelation
	nextMutID int64
	createErr error
}

func (f *fakeAPI) ListLedgers(context.Context) ([]Ledger, error)     { return f.ledgers, nil }
func (f *fakeAPI) ListRelations(context.Context) ([]Relation, error) { return f.relations, nil }

func (f *fakeAPI) CreateRelation(_ context.Context, r NewRelation) (int64, error) {
	f.newRels = append(f.newRels, r)
	return int64(9000 + len(f.newRels)), nil
}

func (f *fakeAPI) CreateMutation(_ context.Context, m NewMutation) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, m)
	f.nextMutID++
	return f.nextMutID, nil
}

func (f *fakeAPI) ListMutationsSince(_ context.Context, sinceID int64) ([]Mutation, error) {
	var out []Mutation
	for _, m := range f.mutations {
		if m.ID > sinceID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeSyncs struct {
	domain.SyncRepository
	pending  []domain.SyncRecord
	stored   []domain.SyncRecord
	posted   map[int64]bool
	cursor   int64
	enqueued int
}

func (f *fakeSyncs) EnqueueMissing(context.Context, domain.SyncDocType, int) (int, error) {
	f.enqueued++
	return 0, nil
}

func (f *fakeSyncs) ListPending(context.Context, int) ([]domain.SyncRecord, error) {
	return f.pending, nil
}

func (f *fakeSyncs) Upsert(_ context.Context, r *domain.SyncRecord) error {
	f.stored = append(f.stored, *r)
	return nil
}

func (f *fakeSyncs) HasMutation(_ context.Context, id int64) (bool, error) {
	return f.posted[id], nil
}

func (f *fakeSyncs) Cursor(context.Context, string) (int64, error) { return f.cursor, nil }

func (f *fakeSyncs) SetCursor(_ context.Context, _ string, v int64) error {
	f.cursor = v
	return nil
}

type fakeSyncInvoices struct {
	domain.InvoiceRepository
	byID    map[string]domain.Invoice
	updated []domain.Invoice
}

func (f *fakeSyncInvoices) GetByID(_ context.Context, id string) (*domain.Invoice, error) {
	inv, ok := f.byID[id]
	if !ok {
		return nil, errors.New("invoice not found")
	}
	return &inv, nil
}

func (f *fakeSyncInvoices) GetByNumber(_ context.Context, number string) (*domain.Invoice, error) {
	for _, inv := range f.byID {
		if inv.Number == number {
			out := inv
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSyncInvoices) Update(_ context.Context, inv *domain.Invoice) error {
	f.byID[inv.ID] = *inv
	f.updated = append(f.updated, *inv)
	return nil
}

type fakeSyncSchedules struct {
	domain.DuesScheduleRepository
	byID    map[string]*domain.DuesSchedule
	updated []domain.DuesSchedule
}

func (f *fakeSyncSchedules) GetByID(_ context.Context, id string) (*domain.DuesSchedule, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (f *fakeSyncSchedules) Update(_ context.Context, s *domain.DuesSchedule) error {
	cp := *s
	f.byID[s.ID] = &cp
	f.updated = append(f.updated, cp)
	return nil
}

type fakeSyncDonations struct {
	domain.DonationRepository
	byID map[string]domain.Donation
}

func (f *fakeSyncDonations) GetByID(_ context.Context, id string) (*domain.Donation, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, errors.New("donation not found")
	}
	return &d, nil
}

type fakeSyncDonors struct {
	domain.DonorRepository
	donor domain.Donor
}

func (f *fakeSyncDonors) GetByID(context.Context, string) (*domain.Donor, error) {
	d := f.donor
	return &d, nil
}

type fakeSyncMembers struct {
	domain.MemberRepository
	member domain.Member
}

func (f *fakeSyncMembers) GetByID(context.Context, string) (*domain.Member, error) {
	m := f.member
	return &m, nil
}

type fakeSyncOutbox struct {
	domain.NotificationRepository
	enqueued []domain.Notification
}

func (f *fakeSyncOutbox) Enqueue(_ context.Context, n *domain.Notification) error {
	f.enqueued = append(f.enqueued, *n)
	return nil
}

func testMapping() *Mapping {
	return &Mapping{
		Receivable: "1300",
		Bank:       "1100",
		Dues:       "8000",
		Donations:  map[string]string{"default": "8100", "Campaign": "8110"},
	}
}

func remoteChart() []Ledger {
	return []Ledger{
		{ID: 1, Code: "1300"},
		{ID: 2, Code: "1100"},
		{ID: 3, Code: "8000"},
		{ID: 4, Code: "8100"},
		{ID: 5, Code: "8110"},
	}
}

func syncFixture(api *fakeAPI, syncs *fakeSyncs) (*Syncer, *fakeSyncOutbox) {
	paid := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	invoices := &fakeSyncInvoices{byID: map[string]domain.Invoice{
		"inv-1": {
			ID:          "inv-1",
			Number:      "INV-2026-00017",
			Member:      "member-1",
			Description: "Membership dues March 2026",
			Amount:      decimal.RequireFromString("25.00"),
			PostingDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Status:      domain.InvoicePaid,
			PaidAt:      &paid,
		},
		"inv-cancelled": {
			ID:     "inv-cancelled",
			Number: "INV-2026-00018",
			Member: "member-1",
			Status: domain.InvoiceCancelled,
		},
	}}
	donations := &fakeSyncDonations{byID: map[string]domain.Donation{
		"don-1": {
			ID:      "don-1",
			Donor:   "donor-1",
			Date:    time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			Amount:  decimal.RequireFromString("150.00"),
			Purpose: domain.PurposeCampaign,
		},
	}}
	donors := &fakeSyncDonors{donor: domain.Donor{
		ID:   "donor-1-aaaa-bbbb",
		Name: "Stichting Vrienden",
		Type: domain.DonorOrganization,
	}}
	members := &fakeSyncMembers{member: domain.Member{
		ID:           "member-1",
		MemberNumber: 10007,
		FirstName:    "Fleur",
		LastName:     "Jansen",
		Email:        "fleur@example.org",
	}}
	outbox := &fakeSyncOutbox{}
	schedules := &fakeSyncSchedules{byID: map[string]*domain.DuesSchedule{}}
	s := NewSyncer(api, testMapping(), syncs, invoices, schedules, donations, donors, members, outbox,
		"treasurer@example.org", zerolog.Nop())
	return s, outbox
}

func TestRunPostsPendingDocuments(t *testing.T) {
	api := &fakeAPI{
		ledgers:   remoteChart(),
		relations: []Relation{{ID: 501, Code: "M10007", Name: "Fleur Jansen"}},
	}
	syncs := &fakeSyncs{pending: []domain.SyncRecord{
		{ID: "s1", DocType: domain.SyncDocInvoice, DocID: "inv-1", Status: domain.SyncPending},
		{ID: "s2", DocType: domain.SyncDocPayment, DocID: "inv-1", Status: domain.SyncPending},
		{ID: "s3", DocType: domain.SyncDocDonation, DocID: "don-1", Status: domain.SyncPending},
	}}
	s, _ := syncFixture(api, syncs)

	report, err := s.Run(context.Background(), time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Posted != 3 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(api.created) != 3 {
		t.Fatalf("created %d mutations, want 3", len(api.created))
	}

	inv := api.created[0]
	if inv.Type != MutationSalesInvoice || inv.InvoiceNumber != "INV-2026-00017" {
		t.Fatalf("invoice mutation = %+v", inv)
	}
	if inv.LedgerID != 1 || inv.Rows[0].LedgerID != 3 {
		t.Fatalf("invoice ledgers = header %d row %d", inv.LedgerID, inv.Rows[0].LedgerID)
	}
	if inv.RelationID != 501 {
		t.Fatalf("invoice relation = %d, want existing 501", inv.RelationID)
	}
	if inv.Rows[0].Amount != 25.00 {
		t.Fatalf("invoice amount = %v", inv.Rows[0].Amount)
	}

	pay := api.created[1]
	if pay.Type != MutationPaymentReceived || pay.Date != "2026-03-10" {
		t.Fatalf("payment mutation = %+v", pay)
	}
	if pay.LedgerID != 2 || pay.Rows[0].LedgerID != 1 {
		t.Fatalf("payment ledgers = header %d row %d", pay.LedgerID, pay.Rows[0].LedgerID)
	}

	don := api.created[2]
	if don.Type != MutationMoneyReceived {
		t.Fatalf("donation mutation = %+v", don)
	}
	if don.Rows[0].LedgerID != 5 {
		t.Fatalf("campaign donation booked on ledger %d, want 5", don.Rows[0].LedgerID)
	}
	if len(api.newRels) != 1 || api.newRels[0].Type != "B" || api.newRels[0].Code != "D-donor-1-" {
		t.Fatalf("donor relation = %+v", api.newRels)
	}

	for _, rec := range syncs.stored {
		if rec.Status != domain.SyncSynced || rec.MutationID == 0 {
			t.Fatalf("stored record = %+v", rec)
		}
	}
}

func TestRunSkipsCancelledInvoices(t *testing.T) {
	api := &fakeAPI{ledgers: remoteChart()}
	syncs := &fakeSyncs{pending: []domain.SyncRecord{
		{ID: "s1", DocType: domain.SyncDocInvoice, DocID: "inv-cancelled", Status: domain.SyncPending},
	}}
	s, _ := syncFixture(api, syncs)

	report, err := s.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped != 1 || report.Posted != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(api.created) != 0 {
		t.Fatal("cancelled invoice must not be booked")
	}
	if len(syncs.stored) != 1 || syncs.stored[0].Status != domain.SyncSynced {
		t.Fatalf("stored = %+v", syncs.stored)
	}
}

func TestRunRecordsFailuresAndCapsAttempts(t *testing.T) {
	api := &fakeAPI{ledgers: remoteChart(), createErr: errors.New("remote says no")}
	syncs := &fakeSyncs{pending: []domain.SyncRecord{
		{ID: "s1", DocType: domain.SyncDocInvoice, DocID: "inv-1", Status: domain.SyncPending, Attempts: maxSyncAttempts - 1},
	}}
	s, _ := syncFixture(api, syncs)

	report, err := s.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	rec := syncs.stored[0]
	if rec.Status != domain.SyncError {
		t.Fatalf("record at the attempt cap should be marked error, got %q", rec.Status)
	}
	if rec.LastError == "" || rec.Attempts != maxSyncAttempts {
		t.Fatalf("record = %+v", rec)
	}
}

func TestRunFailsOnUnknownLedgerCode(t *testing.T) {
	api := &fakeAPI{ledgers: []Ledger{{ID: 1, Code: "1300"}}}
	syncs := &fakeSyncs{}
	s, _ := syncFixture(api, syncs)

	if _, err := s.Run(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for ledger codes missing remotely")
	}
}

func TestReconcileFlagsUnmatchedEntries(t *testing.T) {
	api := &fakeAPI{mutations: []Mutation{
		{ID: 11, Type: MutationPaymentReceived, Date: "2026-03-09"},
		{ID: 12, Type: MutationSalesInvoice, Date: "2026-03-09"},
		{ID: 13, Type: MutationMoneyReceived, Date: "2026-03-10", Description: "Gift via bank"},
	}}
	syncs := &fakeSyncs{cursor: 10, posted: map[int64]bool{11: true}}
	s, outbox := syncFixture(api, syncs)

	unmatched, err := s.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if unmatched != 1 {
		t.Fatalf("unmatched = %d, want 1", unmatched)
	}
	if syncs.cursor != 13 {
		t.Fatalf("cursor = %d, want 13", syncs.cursor)
	}
	if len(outbox.enqueued) != 1 {
		t.Fatalf("enqueued %d notices, want 1", len(outbox.enqueued))
	}
	n := outbox.enqueued[0]
	if n.Kind != domain.NotifyReconcileAlert || n.DedupeKey != "reconcile:13" {
		t.Fatalf("notice = %+v", n)
	}
	if n.Recipient != "treasurer@example.org" {
		t.Fatalf("recipient = %q", n.Recipient)
	}
}

func TestReconcileKeepsCursorWithoutNews(t *testing.T) {
	api := &fakeAPI{}
	syncs := &fakeSyncs{cursor: 10}
	s, _ := syncFixture(api, syncs)

	unmatched, err := s.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if unmatched != 0 || syncs.cursor != 10 {
		t.Fatalf("unmatched = %d cursor = %d", unmatched, syncs.cursor)
	}
}

func TestCheckPaymentsSettlesBookedInvoice(t *testing.T) {
	api := &fakeAPI{mutations: []Mutation{
		{ID: 21, Type: MutationPaymentReceived, Date: "2026-03-12",
			InvoiceNumber: "INV-2026-00021",
			Rows:          []MutationRow{{LedgerID: 2, Amount: 25}}},
		{ID: 22, Type: MutationPaymentReceived, Date: "2026-03-12",
			InvoiceNumber: "F-OTHER-001",
			Rows:          []MutationRow{{LedgerID: 2, Amount: 10}}},
		{ID: 23, Type: MutationPaymentReceived, Date: "2026-03-12",
			InvoiceNumber: "INV-2026-00017",
			Rows:          []MutationRow{{LedgerID: 2, Amount: 25}}},
	}}
	syncs := &fakeSyncs{posted: map[int64]bool{23: true}}
	invoices := &fakeSyncInvoices{byID: map[string]domain.Invoice{
		"inv-open": {
			ID:           "inv-open",
			Number:       "INV-2026-00021",
			Member:       "member-1",
			DuesSchedule: "sched-1",
			Amount:       decimal.RequireFromString("25.00"),
			Outstanding:  decimal.RequireFromString("25.00"),
			Status:       domain.InvoiceUnpaid,
		},
	}}
	schedules := &fakeSyncSchedules{byID: map[string]*domain.DuesSchedule{
		"sched-1": {ID: "sched-1", Status: domain.DuesGrace, ConsecutiveFailures: 2},
	}}
	s := NewSyncer(api, testMapping(), syncs, invoices, schedules,
		&fakeSyncDonations{}, &fakeSyncDonors{}, &fakeSyncMembers{}, &fakeSyncOutbox{},
		"treasurer@example.org", zerolog.Nop())

	settled, err := s.CheckPayments(context.Background(), time.Date(2026, 3, 13, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CheckPayments: %v", err)
	}
	if settled != 1 {
		t.Fatalf("settled = %d, want 1", settled)
	}
	inv := invoices.byID["inv-open"]
	if inv.Status != domain.InvoicePaid || !inv.Outstanding.IsZero() {
		t.Fatalf("invoice = %+v", inv)
	}
	if inv.PaidAt == nil || !inv.PaidAt.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("paid at = %v, want the mutation date", inv.PaidAt)
	}
	if len(schedules.updated) != 1 {
		t.Fatalf("schedule updates = %d, want 1", len(schedules.updated))
	}
	sched := schedules.updated[0]
	if sched.Status != domain.DuesActive || sched.ConsecutiveFailures != 0 {
		t.Fatalf("schedule = %+v, want failures cleared", sched)
	}
	if len(syncs.stored) != 1 {
		t.Fatalf("stored %d sync records, want 1", len(syncs.stored))
	}
	rec := syncs.stored[0]
	if rec.DocType != domain.SyncDocPayment || rec.DocID != "inv-open" || rec.MutationID != 21 || rec.Status != domain.SyncSynced {
		t.Fatalf("sync record = %+v", rec)
	}
	if syncs.cursor != 23 {
		t.Fatalf("cursor = %d, want 23", syncs.cursor)
	}
}

func TestCheckPaymentsPartialPaymentKeepsInvoiceOpen(t *testing.T) {
	api := &fakeAPI{mutations: []Mutation{
		{ID: 31, Type: MutationMoneyReceived, Date: "2026-04-02",
			InvoiceNumber: "INV-2026-00030",
			Rows:          []MutationRow{{LedgerID: 2, Amount: 10}}},
	}}
	syncs := &fakeSyncs{}
	invoices := &fakeSyncInvoices{byID: map[string]domain.Invoice{
		"inv-30": {
			ID:          "inv-30",
			Number:      "INV-2026-00030",
			Member:      "member-2",
			Amount:      decimal.RequireFromString("25.00"),
			Outstanding: decimal.RequireFromString("25.00"),
			Status:      domain.InvoiceOverdue,
		},
	}}
	schedules := &fakeSyncSchedules{byID: map[string]*domain.DuesSchedule{}}
	s := NewSyncer(api, testMapping(), syncs, invoices, schedules,
		&fakeSyncDonations{}, &fakeSyncDonors{}, &fakeSyncMembers{}, &fakeSyncOutbox{},
		"treasurer@example.org", zerolog.Nop())

	settled, err := s.CheckPayments(context.Background(), time.Date(2026, 4, 3, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CheckPayments: %v", err)
	}
	if settled != 1 {
		t.Fatalf("settled = %d, want 1", settled)
	}
	inv := invoices.byID["inv-30"]
	if inv.Status != domain.InvoiceOverdue || inv.PaidAt != nil {
		t.Fatalf("invoice = %+v, want still open", inv)
	}
	if inv.Outstanding.String() != "15" {
		t.Fatalf("outstanding = %s, want 15", inv.Outstanding)
	}
	if len(schedules.updated) != 0 {
		t.Fatalf("schedule updates = %d, want none for a partial payment", len(schedules.updated))
	}
}
