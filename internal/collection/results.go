package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/domain"
)

// RowResult is one bank outcome keyed by invoice number.
type RowResult struct {
	InvoiceNumber string
	OK            bool
	Code          string // ISO R-transaction code on failure, e.g. AM04
	Message       string
}

// ResultSummary totals one result import.
type ResultSummary struct {
	Collected int
	Failed    int
	Suspended int
	Unmatched []string
}

// ProcessResults applies bank outcomes to a submitted batch. Collected
// rows settle their invoice, failures count against the member's
// schedule and can suspend it. The batch ends Processed, Partially
// Processed or Failed.
func (b *Builder) ProcessResults(ctx context.Context, batch *domain.Batch, results []RowResult, now time.Time) (ResultSummary, error) {
	var summary ResultSummary
	if batch.Status != domain.BatchSubmitted {
		return summary, fmt.Errorf("%w: results apply to submitted batches only", domain.ErrBatchNotEditable)
	}
	if len(batch.Rows) == 0 {
		rows, err := b.batches.ListRows(ctx, batch.ID)
		if err != nil {
			return summary, fmt.Errorf("load rows: %w", err)
		}
		batch.Rows = rows
	}
	byInvoice := make(map[string]*domain.BatchRow, len(batch.Rows))
	for i := range batch.Rows {
		byInvoice[batch.Rows[i].InvoiceNumber] = &batch.Rows[i]
	}

	for _, res := range results {
		row, ok := byInvoice[res.InvoiceNumber]
		if !ok {
			summary.Unmatched = append(summary.Unmatched, res.InvoiceNumber)
			continue
		}
		if res.OK {
			if err := b.settleRow(ctx, row, now); err != nil {
				return summary, err
			}
			summary.Collected++
			if b.onResult != nil {
				b.onResult("paid")
			}
			continue
		}
		suspended, err := b.failRow(ctx, row, res, now)
		if err != nil {
			return summary, err
		}
		summary.Failed++
		if suspended {
			summary.Suspended++
		}
		if b.onResult != nil {
			b.onResult("failed")
		}
	}

	collected, failed := 0, 0
	for _, row := range batch.Rows {
		switch row.Status {
		case domain.RowCollected:
			collected++
		case domain.RowFailed:
			failed++
		}
	}
	switch {
	case failed == 0 && collected == len(batch.Rows):
		batch.Status = domain.BatchProcessed
	case collected == 0 && failed == len(batch.Rows):
		batch.Status = domain.BatchFailed
	default:
		batch.Status = domain.BatchPartiallyProcessed
	}
	if err := b.batches.UpdateStatus(ctx, batch.ID, batch.Status); err != nil {
		return summary, fmt.Errorf("finalize batch: %w", err)
	}
	b.appendLog(ctx, batch, fmt.Sprintf("results processed: %d collected, %d failed", summary.Collected, summary.Failed))
	for _, inv := range summary.Unmatched {
		b.appendLog(ctx, batch, "unmatched result for "+inv)
	}
	return summary, nil
}

func (b *Builder) settleRow(ctx context.Context, row *domain.BatchRow, now time.Time) error {
	row.Status = domain.RowCollected
	if err := b.batches.UpdateRow(ctx, row); err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	inv, err := b.invoices.GetByID(ctx, row.Invoice)
	if err != nil {
		return fmt.Errorf("load invoice %s: %w", row.InvoiceNumber, err)
	}
	inv.Status = domain.InvoicePaid
	inv.Outstanding = inv.Outstanding.Sub(row.Amount)
	if inv.Outstanding.IsNegative() {
		inv.Outstanding = decimal.Zero
	}
	inv.PaidAt = &now
	if err := b.invoices.Update(ctx, inv); err != nil {
		return fmt.Errorf("settle invoice %s: %w", row.InvoiceNumber, err)
	}
	if s, err := b.schedules.GetActiveByMember(ctx, row.Member); err == nil {
		billing.ApplyCollectionSuccess(s)
		if err := b.schedules.Update(ctx, s); err != nil {
			return fmt.Errorf("reset schedule: %w", err)
		}
	}
	return nil
}

func (b *Builder) failRow(ctx context.Context, row *domain.BatchRow, res RowResult, now time.Time) (bool, error) {
	row.Status = domain.RowFailed
	row.ResultCode = res.Code
	row.ResultMessage = res.Message
	if err := b.batches.UpdateRow(ctx, row); err != nil {
		return false, fmt.Errorf("update row: %w", err)
	}

	// MD01 means the bank no longer recognises the mandate.
	if res.Code == "MD01" {
		if mandate, err := b.mandates.GetByReference(ctx, row.MandateReference); err == nil {
			mandate.Status = domain.MandateCancelled
			mandate.CancelReason = "bank reported no valid mandate (MD01)"
			if err := b.mandates.Update(ctx, mandate); err != nil {
				b.logger.Warn().Err(err).Str("mandate", mandate.Reference).Msg("cancel mandate after MD01 failed")
			}
		}
	}

	inv, err := b.invoices.GetByID(ctx, row.Invoice)
	if err != nil {
		return false, fmt.Errorf("load invoice %s: %w", row.InvoiceNumber, err)
	}
	if inv.DueDate.Before(now) {
		inv.Status = domain.InvoiceOverdue
	} else {
		inv.Status = domain.InvoiceUnpaid
	}
	if err := b.invoices.Update(ctx, inv); err != nil {
		return false, fmt.Errorf("reopen invoice %s: %w", row.InvoiceNumber, err)
	}

	suspended := false
	if s, err := b.schedules.GetActiveByMember(ctx, row.Member); err == nil {
		suspended = billing.ApplyCollectionFailure(s, now)
		if err := b.schedules.Update(ctx, s); err != nil {
			return false, fmt.Errorf("record schedule failure: %w", err)
		}
	}
	if suspended {
		if err := b.members.UpdateStatus(ctx, row.Member, domain.MemberStatusSuspended); err != nil {
			b.logger.Warn().Err(err).Str("member", row.Member).Msg("suspend member failed")
		}
	}
	b.queueFailureNotice(ctx, row, inv, suspended)
	return suspended, nil
}

func (b *Builder) queueFailureNotice(ctx context.Context, row *domain.BatchRow, inv *domain.Invoice, suspended bool) {
	member, err := b.members.GetByID(ctx, row.Member)
	if err != nil || member.Email == "" {
		return
	}
	n := &domain.Notification{
		Kind:        domain.NotifyPaymentFailed,
		Member:      row.Member,
		RefType:     "invoice",
		RefID:       inv.ID,
		Recipient:   member.Email,
		Subject:     fmt.Sprintf("Collection of %s failed", inv.Number),
		Body:        billing.FailureNoticeBody(member, inv, suspended),
		Status:      domain.NotificationPending,
		DedupeKey:   fmt.Sprintf("collectfail:%s:%s", row.Batch, inv.Number),
		ScheduledAt: time.Now(),
	}
	if err := b.notify.Enqueue(ctx, n); err != nil {
		b.logger.Warn().Err(err).Str("invoice", inv.Number).Msg("enqueue failure notice failed")
	}
}
