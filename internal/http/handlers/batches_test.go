package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/collection"
	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/storage"
)

type fakeBatchRepo struct {
	domain.BatchRepository
	byID    map[string]*domain.Batch
	claimed map[string]string
}

func (f *fakeBatchRepo) GetByID(_ context.Context, id string) (*domain.Batch, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBatchRepo) InvoicesInOpenBatches(_ context.Context, _ []string) (map[string]string, error) {
	if f.claimed == nil {
		return map[string]string{}, nil
	}
	return f.claimed, nil
}

type fakeMandateRepo struct {
	domain.MandateRepository
	byMember map[string]*domain.Mandate
}

func (f *fakeMandateRepo) GetActiveByMember(_ context.Context, memberID string) (*domain.Mandate, error) {
	m, ok := f.byMember[memberID]
	if !ok {
		return nil, domain.ErrNoActiveMandate
	}
	cp := *m
	return &cp, nil
}

func draftedBatch() *domain.Batch {
	return &domain.Batch{
		ID: "batch-1", Name: "DD-20260128-01",
		BatchDate:   time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC),
		Currency:    "EUR",
		Status:      domain.BatchDraft,
		TotalAmount: decimal.RequireFromString("12.50"),
		EntryCount:  1,
		Rows: []domain.BatchRow{{
			ID: "row-1", Invoice: "inv-1", InvoiceNumber: "INV-2026-0001",
			Member: "member-1", MemberName: "J. Jansen",
			Amount: decimal.RequireFromString("12.50"), IBAN: "NL91ABNA0417164300",
			MandateReference: "M-10001-20250601-001", SequenceType: domain.SequenceRecurring,
			Status: domain.RowPending,
		}},
		Log: []domain.BatchLogEntry{{
			Timestamp: time.Date(2026, 1, 26, 6, 0, 0, 0, time.UTC),
			Message:   "batch drafted with 1 rows",
		}},
	}
}

func TestBatchGetIncludesRowsAndLog(t *testing.T) {
	app := &App{Logger: zerolog.Nop(), Batches: &fakeBatchRepo{byID: map[string]*domain.Batch{"batch-1": draftedBatch()}}}

	rr := httptest.NewRecorder()
	app.BatchGet(rr, withURLParam(httptest.NewRequest("GET", "/batches/batch-1", nil), "id", "batch-1"))

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload struct {
		Name        string `json:"name"`
		TotalAmount string `json:"total_amount"`
		HasDocument bool   `json:"has_document"`
		Rows        []struct {
			InvoiceNumber string `json:"invoice_number"`
			Amount        string `json:"amount"`
		} `json:"rows"`
		Log []struct {
			Message string `json:"message"`
		} `json:"log"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Name != "DD-20260128-01" || payload.TotalAmount != "12.50" || payload.HasDocument {
		t.Fatalf("payload = %+v", payload)
	}
	if len(payload.Rows) != 1 || payload.Rows[0].Amount != "12.50" {
		t.Fatalf("rows = %+v", payload.Rows)
	}
	if len(payload.Log) != 1 || payload.Log[0].Message != "batch drafted with 1 rows" {
		t.Fatalf("log = %+v", payload.Log)
	}
}

func TestBatchGetNotFound(t *testing.T) {
	app := &App{Logger: zerolog.Nop(), Batches: &fakeBatchRepo{}}
	rr := httptest.NewRecorder()
	app.BatchGet(rr, withURLParam(httptest.NewRequest("GET", "/batches/ghost", nil), "id", "ghost"))
	if rr.Code != 404 {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "not_found" {
		t.Fatalf("code = %s", code)
	}
}

func TestBatchCreateValidatesDate(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	rr := httptest.NewRecorder()
	app.BatchCreate(rr, jsonRequest("POST", "/batches", `{"collection_date":"28-01-2026"}`))
	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestBatchResultsRequireRows(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	rr := httptest.NewRecorder()
	req := withURLParam(jsonRequest("POST", "/batches/batch-1/results", `{"results":[]}`), "id", "batch-1")
	app.BatchResults(rr, req)
	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestBatchDownloadStreamsDocument(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	document := `<?xml version="1.0" encoding="UTF-8"?><Document/>`
	key, err := store.Write(context.Background(), "batches/DD-20260128-01.xml", []byte(document))
	if err != nil {
		t.Fatalf("store document: %v", err)
	}

	b := draftedBatch()
	b.Status = domain.BatchGenerated
	b.XMLKey = key
	app := &App{Logger: zerolog.Nop(), Batches: &fakeBatchRepo{byID: map[string]*domain.Batch{"batch-1": b}}, Store: store}

	rr := httptest.NewRecorder()
	app.BatchDownload(rr, withURLParam(httptest.NewRequest("GET", "/batches/batch-1/document", nil), "id", "batch-1"))

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("content type = %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "DD-20260128-01.xml") {
		t.Fatalf("content disposition = %s", cd)
	}
	if rr.Body.String() != document {
		t.Fatalf("body = %s", rr.Body)
	}
}

func TestBatchDownloadWithoutDocument(t *testing.T) {
	app := &App{Logger: zerolog.Nop(), Batches: &fakeBatchRepo{byID: map[string]*domain.Batch{"batch-1": draftedBatch()}}}
	rr := httptest.NewRecorder()
	app.BatchDownload(rr, withURLParam(httptest.NewRequest("GET", "/batches/batch-1/document", nil), "id", "batch-1"))
	if rr.Code != 404 {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestBatchPreviewTotalsEligibleRows(t *testing.T) {
	invoices := &fakeInvoiceRepo{open: []domain.Invoice{
		{
			ID: "inv-1", Number: "INV-2026-0001", Member: "member-1", MemberName: "J. Jansen",
			Amount: decimal.RequireFromString("12.50"), Outstanding: decimal.RequireFromString("12.50"),
			Status: domain.InvoiceUnpaid, PaymentMethod: domain.PaymentMethodDirectDebit,
		},
		{
			ID: "inv-2", Number: "INV-2026-0002", Member: "member-2", MemberName: "P. de Vries",
			Amount: decimal.RequireFromString("25.00"), Outstanding: decimal.RequireFromString("25.00"),
			Status: domain.InvoiceOverdue, PaymentMethod: domain.PaymentMethodDirectDebit,
		},
	}}
	mandates := &fakeMandateRepo{byMember: map[string]*domain.Mandate{"member-1": {
		ID: "mnd-1", Reference: "M-10001-20250601-001", Member: "member-1",
		IBAN: "NL91ABNA0417164300", AccountHolder: "J. Jansen",
		Status: domain.MandateActive, UsageCount: 2,
	}}}
	collector := collection.NewBuilder(invoices, mandates, nil, &fakeBatchRepo{}, nil, nil, nil, nil, zerolog.Nop())
	app := &App{Logger: zerolog.Nop(), Collector: collector}

	rr := httptest.NewRecorder()
	app.BatchPreview(rr, httptest.NewRequest("GET", "/batches/preview", nil))

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload struct {
		EntryCount  int    `json:"entry_count"`
		TotalAmount string `json:"total_amount"`
		Rows        []struct {
			InvoiceNumber    string `json:"invoice_number"`
			MandateReference string `json:"mandate_reference"`
			SequenceType     string `json:"sequence_type"`
		} `json:"rows"`
		Skipped []string `json:"skipped"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.EntryCount != 1 || payload.TotalAmount != "12.50" {
		t.Fatalf("payload = %+v", payload)
	}
	row := payload.Rows[0]
	if row.InvoiceNumber != "INV-2026-0001" || row.MandateReference != "M-10001-20250601-001" || row.SequenceType != "RCUR" {
		t.Fatalf("row = %+v", row)
	}
	if len(payload.Skipped) != 1 || !strings.Contains(payload.Skipped[0], "no active mandate") {
		t.Fatalf("skipped = %v", payload.Skipped)
	}
}
