package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/sepa"
)

// ProcessReturnFile applies a bank status report (pain.002) to a
// submitted batch. Transactions are matched on the EndToEndId the
// initiation file carried, so "E2E-" plus the invoice number. Dutch
// banks only report exceptions back: pending rows the report does not
// mention are taken as collected. PDNG rows stay open for a later
// report.
func (b *Builder) ProcessReturnFile(ctx context.Context, batch *domain.Batch, data []byte, now time.Time) (ResultSummary, error) {
	report, err := sepa.ParseStatusReport(data)
	if err != nil {
		return ResultSummary{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if batch.Status != domain.BatchSubmitted {
		return ResultSummary{}, fmt.Errorf("%w: return files apply to submitted batches only", domain.ErrBatchNotEditable)
	}
	if len(batch.Rows) == 0 {
		rows, err := b.batches.ListRows(ctx, batch.ID)
		if err != nil {
			return ResultSummary{}, fmt.Errorf("load rows: %w", err)
		}
		batch.Rows = rows
	}

	if report.GroupStatus == "RJCT" {
		results := make([]RowResult, 0, len(batch.Rows))
		for _, row := range batch.Rows {
			if row.Status != domain.RowPending {
				continue
			}
			results = append(results, RowResult{
				InvoiceNumber: row.InvoiceNumber,
				Code:          report.GroupReason,
				Message:       "batch rejected by bank",
			})
		}
		b.logger.Warn().
			Str("batch", batch.Name).
			Str("reason", report.GroupReason).
			Msg("bank rejected the whole batch")
		return b.ProcessResults(ctx, batch, results, now)
	}

	mentioned := make(map[string]bool, len(report.Transactions))
	results := make([]RowResult, 0, len(batch.Rows))
	for _, tx := range report.Transactions {
		invoice := strings.TrimPrefix(tx.EndToEndID, "E2E-")
		mentioned[invoice] = true
		switch {
		case tx.Pending():
			// Not decided yet, leave the row for the next report.
		case tx.Rejected():
			results = append(results, RowResult{
				InvoiceNumber: invoice,
				Code:          tx.ReasonCode,
				Message:       tx.Info,
			})
		default:
			results = append(results, RowResult{InvoiceNumber: invoice, OK: true})
		}
	}
	for _, row := range batch.Rows {
		if row.Status != domain.RowPending || mentioned[row.InvoiceNumber] {
			continue
		}
		results = append(results, RowResult{InvoiceNumber: row.InvoiceNumber, OK: true})
	}
	return b.ProcessResults(ctx, batch, results, now)
}
