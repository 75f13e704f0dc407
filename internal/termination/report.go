package termination

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/storage"
	"ledenbeheer/pkg/zip"
)

// Compliance builds the weekly governance report: every termination
// request filed in the window with its approval trail, plus a summary
// the board can use to verify the four-eyes rule held for
// disciplinary cases.
type Compliance struct {
	requests domain.TerminationRepository
	store    *storage.FileStore
	logger   zerolog.Logger
}

func NewCompliance(requests domain.TerminationRepository, store *storage.FileStore, logger zerolog.Logger) *Compliance {
	return &Compliance{
		requests: requests,
		store:    store,
		logger:   logger.With().Str("component", "termination_report").Logger(),
	}
}

var reportTypes = []domain.TerminationType{
	domain.TerminationVoluntary,
	domain.TerminationNonPayment,
	domain.TerminationDeceased,
	domain.TerminationExpulsion,
	domain.TerminationDisc,
	domain.TerminationExpelled,
}

// Generate writes the report archive for the window and returns its
// storage key.
func (c *Compliance) Generate(ctx context.Context, from, to time.Time) (string, error) {
	items, err := c.requests.ListBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("list termination requests: %w", err)
	}

	rows := &bytes.Buffer{}
	wr := csv.NewWriter(rows)
	_ = wr.Write([]string{
		"request", "member", "type", "status", "requested_by", "request_date",
		"secondary_approver", "approved_at", "effective_date", "executed_at", "docs_attached",
	})

	byType := map[domain.TerminationType]int{}
	violations := 0
	for i := range items {
		t := items[i]
		byType[t.Type]++
		docs := "no"
		if t.DisciplinaryDocs != "" {
			docs = "yes"
		}
		if t.Type.Disciplinary() && t.Status == domain.TerminationExecuted && t.SecondaryApprover == "" {
			violations++
		}
		_ = wr.Write([]string{
			t.ID, t.MemberName, string(t.Type), string(t.Status), t.RequestedBy,
			t.RequestDate.Format("2006-01-02"), t.SecondaryApprover, timestampColumn(t.ApprovedAt),
			dateColumn(t.EffectiveDate), timestampColumn(t.ExecutedAt), docs,
		})
	}
	wr.Flush()
	if err := wr.Error(); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}

	summary := &bytes.Buffer{}
	fmt.Fprintf(summary, "Termination compliance %s to %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Fprintf(summary, "requests filed: %d\n", len(items))
	for _, typ := range reportTypes {
		if n := byType[typ]; n > 0 {
			fmt.Fprintf(summary, "  %s: %d\n", typ, n)
		}
	}
	fmt.Fprintf(summary, "executed disciplinary cases without second approver: %d\n", violations)

	archive, err := zip.Archive([]zip.File{
		{Filename: "terminations.csv", Data: rows.Bytes()},
		{Filename: "summary.txt", Data: summary.Bytes()},
	})
	if err != nil {
		return "", fmt.Errorf("pack report: %w", err)
	}
	key := fmt.Sprintf("reports/terminations/compliance-%s.zip", to.Format("2006-01-02"))
	saved, err := c.store.Write(ctx, key, archive)
	if err != nil {
		return "", fmt.Errorf("store report: %w", err)
	}
	c.logger.Info().
		Str("key", saved).
		Int("requests", len(items)).
		Int("violations", violations).
		Msg("compliance report written")
	return saved, nil
}

func timestampColumn(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func dateColumn(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
