package collection

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/sepa"
)

// Discrepancy kinds reported by the mandate scan.
const (
	DiscrepancyLikelyTypo     = "likely_typo"
	DiscrepancyAccountChanged = "account_changed"
	DiscrepancyLapsed         = "lapsed"
	DiscrepancyNameMismatch   = "name_mismatch"
	DiscrepancyMissingMandate = "missing_mandate"
)

// Discrepancy is one finding of the mandate scan.
type Discrepancy struct {
	Kind        string
	Mandate     string
	Member      string
	MandateIBAN string
	MemberIBAN  string
	Detail      string
}

// Scanner compares active mandates against current member bank data
// and flags mandates that went stale.
type Scanner struct {
	mandates domain.MandateRepository
	members  domain.MemberRepository
	notify   domain.NotificationRepository
	logger   zerolog.Logger
}

// NewScanner wires the mandate scanner.
func NewScanner(mandates domain.MandateRepository, members domain.MemberRepository, notify domain.NotificationRepository, logger zerolog.Logger) *Scanner {
	return &Scanner{
		mandates: mandates,
		members:  members,
		notify:   notify,
		logger:   logger.With().Str("component", "mandate_scan").Logger(),
	}
}

// Scan walks active mandates in pages and reports discrepancies, then
// lists direct debit payers left without any active mandate. With
// apply set, lapsed mandates are expired, mandates on a replaced bank
// account are cancelled with a request to re-authorise, and holder
// names that differ only in spelling are aligned with the member
// record. Two near-identical account numbers usually mean a typo fix
// on the member record, so those stay a report.
func (s *Scanner) Scan(ctx context.Context, now time.Time, apply bool) ([]Discrepancy, error) {
	const pageSize = 200
	var findings []Discrepancy
	for offset := 0; ; offset += pageSize {
		page, err := s.mandates.ListActive(ctx, pageSize, offset)
		if err != nil {
			return findings, fmt.Errorf("list active mandates: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for i := range page {
			mandate := page[i]
			if d := s.inspect(ctx, &mandate, now, apply); d != nil {
				findings = append(findings, *d)
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	uncovered, err := s.members.ListDirectDebitWithoutMandate(ctx, 500)
	if err != nil {
		return findings, fmt.Errorf("list uncovered members: %w", err)
	}
	for i := range uncovered {
		m := uncovered[i]
		findings = append(findings, Discrepancy{
			Kind:       DiscrepancyMissingMandate,
			Member:     m.ID,
			MemberIBAN: sepa.NormalizeIBAN(m.IBAN),
			Detail:     "pays by direct debit but has no active mandate",
		})
	}
	s.logger.Info().Int("findings", len(findings)).Bool("apply", apply).Msg("mandate scan complete")
	return findings, nil
}

func (s *Scanner) inspect(ctx context.Context, mandate *domain.Mandate, now time.Time, apply bool) *Discrepancy {
	if mandate.Lapsed(now) {
		d := &Discrepancy{
			Kind:        DiscrepancyLapsed,
			Mandate:     mandate.Reference,
			Member:      mandate.Member,
			MandateIBAN: mandate.IBAN,
			Detail:      fmt.Sprintf("unused for over %d months", domain.MandateLapseMonths),
		}
		if apply {
			s.expire(ctx, mandate)
		}
		return d
	}

	member, err := s.members.GetByID(ctx, mandate.Member)
	if err != nil {
		s.logger.Warn().Err(err).Str("mandate", mandate.Reference).Msg("member lookup failed")
		return nil
	}
	memberIBAN := sepa.NormalizeIBAN(member.IBAN)
	mandateIBAN := sepa.NormalizeIBAN(mandate.IBAN)
	if memberIBAN == "" || memberIBAN == mandateIBAN {
		if member.AccountHolder != "" && mandate.AccountHolder != "" && member.AccountHolder != mandate.AccountHolder {
			if nameKey(member.AccountHolder) == nameKey(mandate.AccountHolder) {
				// Spelling only. Carry the member record's version over.
				if apply {
					mandate.AccountHolder = member.AccountHolder
					if err := s.mandates.Update(ctx, mandate); err != nil {
						s.logger.Warn().Err(err).Str("mandate", mandate.Reference).Msg("align holder name failed")
					}
				}
				return nil
			}
			return &Discrepancy{
				Kind:    DiscrepancyNameMismatch,
				Mandate: mandate.Reference,
				Member:  mandate.Member,
				Detail:  fmt.Sprintf("mandate holder %q, member record %q", mandate.AccountHolder, member.AccountHolder),
			}
		}
		return nil
	}

	kind := DiscrepancyAccountChanged
	detail := "member bank account differs from mandate, new mandate required"
	if diff := charDiff(memberIBAN, mandateIBAN); diff > 0 && diff <= 2 {
		kind = DiscrepancyLikelyTypo
		detail = fmt.Sprintf("IBANs differ in %d characters, likely a correction", diff)
	} else if apply {
		s.retire(ctx, mandate, member)
	}
	return &Discrepancy{
		Kind:        kind,
		Mandate:     mandate.Reference,
		Member:      mandate.Member,
		MandateIBAN: mandateIBAN,
		MemberIBAN:  memberIBAN,
		Detail:      detail,
	}
}

// retire cancels a mandate whose bank account no longer exists on the
// member record and asks the member for a fresh authorisation.
func (s *Scanner) retire(ctx context.Context, mandate *domain.Mandate, member *domain.Member) {
	mandate.Status = domain.MandateCancelled
	mandate.CancelReason = "bank account changed"
	if err := s.mandates.Update(ctx, mandate); err != nil {
		s.logger.Warn().Err(err).Str("mandate", mandate.Reference).Msg("retire mandate failed")
		return
	}
	if member.Email == "" {
		return
	}
	n := &domain.Notification{
		Kind:        domain.NotifyMandateLapsed,
		Member:      member.ID,
		RefType:     "mandate",
		RefID:       mandate.ID,
		Recipient:   member.Email,
		Subject:     "New direct debit authorisation needed",
		Body:        fmt.Sprintf("Beste %s,\n\nYour bank account on file changed, so mandate %s is no longer valid. Please issue a new authorisation to keep paying by direct debit.\n", member.FirstName, mandate.Reference),
		Status:      domain.NotificationPending,
		DedupeKey:   "retired:" + mandate.Reference,
		ScheduledAt: time.Now(),
	}
	if err := s.notify.Enqueue(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("mandate", mandate.Reference).Msg("enqueue reauthorisation notice failed")
	}
}

func (s *Scanner) expire(ctx context.Context, mandate *domain.Mandate) {
	mandate.Status = domain.MandateExpired
	mandate.CancelReason = "lapsed, no collection in 36 months"
	if err := s.mandates.Update(ctx, mandate); err != nil {
		s.logger.Warn().Err(err).Str("mandate", mandate.Reference).Msg("expire mandate failed")
		return
	}
	member, err := s.members.GetByID(ctx, mandate.Member)
	if err != nil || member.Email == "" {
		return
	}
	n := &domain.Notification{
		Kind:        domain.NotifyMandateLapsed,
		Member:      member.ID,
		RefType:     "mandate",
		RefID:       mandate.ID,
		Recipient:   member.Email,
		Subject:     "Your direct debit authorisation has lapsed",
		Body:        fmt.Sprintf("Beste %s,\n\nMandate %s lapsed after %d months without use. Please issue a new authorisation to keep paying by direct debit.\n", member.FirstName, mandate.Reference, domain.MandateLapseMonths),
		Status:      domain.NotificationPending,
		DedupeKey:   "lapsed:" + mandate.Reference,
		ScheduledAt: time.Now(),
	}
	if err := s.notify.Enqueue(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("mandate", mandate.Reference).Msg("enqueue lapse notice failed")
	}
}

// nameKey folds case, punctuation and spacing out of a holder name so
// "j.p. jansen" and "J P Jansen" compare equal.
func nameKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// charDiff counts positionwise differences between equal-length
// strings; different lengths return the length delta plus compared
// mismatches, which pushes real account changes past the typo bound.
func charDiff(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	diff := len(b) - len(a)
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff
}
