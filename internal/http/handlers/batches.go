package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/collection"
	"ledenbeheer/internal/domain"
)

type batchDTO struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	BatchDate    string        `json:"batch_date"`
	Description  string        `json:"description,omitempty"`
	SequenceType string        `json:"sequence_type,omitempty"`
	Currency     string        `json:"currency"`
	Status       string        `json:"status"`
	TotalAmount  string        `json:"total_amount"`
	EntryCount   int           `json:"entry_count"`
	HasDocument  bool          `json:"has_document"`
	SubmittedAt  string        `json:"submitted_at,omitempty"`
	Rows         []batchRowDTO `json:"rows,omitempty"`
	Log          []batchLogDTO `json:"log,omitempty"`
}

type batchRowDTO struct {
	ID               string `json:"id"`
	Invoice          string `json:"invoice"`
	InvoiceNumber    string `json:"invoice_number"`
	Member           string `json:"member"`
	MemberName       string `json:"member_name"`
	Amount           string `json:"amount"`
	IBAN             string `json:"iban"`
	MandateReference string `json:"mandate_reference"`
	SequenceType     string `json:"sequence_type"`
	Status           string `json:"status"`
	ResultCode       string `json:"result_code,omitempty"`
	ResultMessage    string `json:"result_message,omitempty"`
}

type batchLogDTO struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

func batchToDTO(b *domain.Batch, withRows bool) batchDTO {
	dto := batchDTO{
		ID:           b.ID,
		Name:         b.Name,
		BatchDate:    b.BatchDate.Format("2006-01-02"),
		Description:  b.Description,
		SequenceType: string(b.SequenceType),
		Currency:     b.Currency,
		Status:       string(b.Status),
		TotalAmount:  b.TotalAmount.StringFixed(2),
		EntryCount:   b.EntryCount,
		HasDocument:  b.XMLKey != "",
		SubmittedAt:  timeOrEmpty(b.SubmittedAt),
	}
	if !withRows {
		return dto
	}
	dto.Rows = make([]batchRowDTO, 0, len(b.Rows))
	for _, row := range b.Rows {
		dto.Rows = append(dto.Rows, batchRowDTO{
			ID:               row.ID,
			Invoice:          row.Invoice,
			InvoiceNumber:    row.InvoiceNumber,
			Member:           row.Member,
			MemberName:       row.MemberName,
			Amount:           row.Amount.StringFixed(2),
			IBAN:             row.IBAN,
			MandateReference: row.MandateReference,
			SequenceType:     string(row.SequenceType),
			Status:           string(row.Status),
			ResultCode:       row.ResultCode,
			ResultMessage:    row.ResultMessage,
		})
	}
	dto.Log = make([]batchLogDTO, 0, len(b.Log))
	for _, entry := range b.Log {
		dto.Log = append(dto.Log, batchLogDTO{
			Timestamp: entry.Timestamp.Format(time.RFC3339),
			Message:   entry.Message,
		})
	}
	return dto
}

type batchCreateRequest struct {
	CollectionDate string `json:"collection_date"`
	Description    string `json:"description"`
}

// BatchCreate drafts a collection batch from the open invoice queue.
func (a *App) BatchCreate(w http.ResponseWriter, r *http.Request) {
	var req batchCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	date, err := parseDate(req.CollectionDate)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "collection_date must be YYYY-MM-DD")
		return
	}
	b, err := a.Collector.CreateBatch(r.Context(), date, req.Description)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, batchToDTO(b, true))
}

// BatchPreview shows what a batch cut right now would collect,
// together with the invoices that would be skipped and why. Nothing
// is drafted.
func (a *App) BatchPreview(w http.ResponseWriter, r *http.Request) {
	rows, skipped, err := a.Collector.Preview(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	total := decimal.Zero
	items := make([]batchRowDTO, 0, len(rows))
	for _, row := range rows {
		total = total.Add(row.Amount)
		items = append(items, batchRowDTO{
			Invoice:          row.Invoice,
			InvoiceNumber:    row.InvoiceNumber,
			Member:           row.Member,
			MemberName:       row.MemberName,
			Amount:           row.Amount.StringFixed(2),
			IBAN:             row.IBAN,
			MandateReference: row.MandateReference,
			SequenceType:     string(row.SequenceType),
			Status:           string(row.Status),
		})
	}
	if skipped == nil {
		skipped = []string{}
	}
	a.json(w, http.StatusOK, map[string]any{
		"entry_count":  len(items),
		"total_amount": total.StringFixed(2),
		"rows":         items,
		"skipped":      skipped,
	})
}

// BatchList returns batches, optionally filtered by status.
func (a *App) BatchList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	batches, err := a.Batches.List(r.Context(), domain.BatchStatus(q.Get("status")), limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]batchDTO, 0, len(batches))
	for i := range batches {
		items = append(items, batchToDTO(&batches[i], false))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) loadBatch(w http.ResponseWriter, r *http.Request) (*domain.Batch, bool) {
	b, err := a.Batches.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return b, true
}

// BatchGet returns one batch with its rows and log.
func (a *App) BatchGet(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBatch(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, batchToDTO(b, true))
}

type rowIssueDTO struct {
	Invoice string `json:"invoice"`
	Field   string `json:"field"`
	Detail  string `json:"detail"`
}

// BatchValidate runs the pre-generation checks on a draft batch.
func (a *App) BatchValidate(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBatch(w, r)
	if !ok {
		return
	}
	issues, err := a.Collector.Validate(r.Context(), b, time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]rowIssueDTO, 0, len(issues))
	for _, is := range issues {
		items = append(items, rowIssueDTO{Invoice: is.Invoice, Field: is.Field, Detail: is.Detail})
	}
	a.json(w, http.StatusOK, map[string]any{
		"status": string(b.Status),
		"valid":  len(items) == 0,
		"issues": items,
	})
}

// BatchGenerate produces the pain.008 document for a validated batch.
func (a *App) BatchGenerate(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBatch(w, r)
	if !ok {
		return
	}
	key, err := a.Collector.Generate(r.Context(), b, time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"status": string(b.Status), "document": key})
}

// BatchSubmit marks the batch as handed to the bank.
func (a *App) BatchSubmit(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBatch(w, r)
	if !ok {
		return
	}
	if err := a.Collector.Submit(r.Context(), b, time.Now()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, batchToDTO(b, false))
}

type batchCancelRequest struct {
	Reason string `json:"reason"`
}

// BatchCancel withdraws a batch that has not been submitted yet.
func (a *App) BatchCancel(w http.ResponseWriter, r *http.Request) {
	var req batchCancelRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	b, ok := a.loadBatch(w, r)
	if !ok {
		return
	}
	if err := a.Collector.Cancel(r.Context(), b, req.Reason); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, batchToDTO(b, false))
}

type batchResultRow struct {
	InvoiceNumber string `json:"invoice_number"`
	OK            bool   `json:"ok"`
	Code          string `json:"code"`
	Message       string `json:"message"`
}

type batchResultsRequest struct {
	Results []batchResultRow `json:"results"`
}

// BatchResults applies bank outcomes to a submitted batch.
func (a *App) BatchResults(w http.ResponseWriter, r *http.Request) {
	var req batchResultsRequest
	if !a.decode(w, r, &req) {
		return
	}
	if len(req.Results) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "results must not be empty")
		return
	}
	b, ok := a.loadBatch(w, r)
	if !ok {
		return
	}
	results := make([]collection.RowResult, 0, len(req.Results))
	for _, row := range req.Results {
		results = append(results, collection.RowResult{
			InvoiceNumber: row.InvoiceNumber,
			OK:            row.OK,
			Code:          row.Code,
			Message:       row.Message,
		})
	}
	summary, err := a.Collector.ProcessResults(r.Context(), b, results, time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":    string(b.Status),
		"collected": summary.Collected,
		"failed":    summary.Failed,
		"suspended": summary.Suspended,
		"unmatched": summary.Unmatched,
	})
}

// BatchReturnFile ingests a pain.002 status report uploaded as the
// raw request body and applies it to a submitted batch.
func (a *App) BatchReturnFile(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBatch(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "read return file: "+err.Error())
		return
	}
	if len(data) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "return file body must not be empty")
		return
	}
	summary, err := a.Collector.ProcessReturnFile(r.Context(), b, data, time.Now())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":    string(b.Status),
		"collected": summary.Collected,
		"failed":    summary.Failed,
		"suspended": summary.Suspended,
		"unmatched": summary.Unmatched,
	})
}

// BatchDownload streams the generated pain.008 document.
func (a *App) BatchDownload(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBatch(w, r)
	if !ok {
		return
	}
	if b.XMLKey == "" {
		a.error(w, http.StatusNotFound, "not_found", "batch has no generated document")
		return
	}
	data, err := a.Store.Read(r.Context(), b.XMLKey)
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+b.Name+`.xml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
