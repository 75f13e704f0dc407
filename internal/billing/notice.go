package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ledenbeheer/internal/domain"
)

var printers = map[language.Tag]*message.Printer{
	language.Dutch:   message.NewPrinter(language.Dutch),
	language.English: message.NewPrinter(language.English),
}

// localeFor picks the message locale for a recipient country. Members
// in the Low Countries get Dutch formatting, everybody abroad English.
func localeFor(country string) language.Tag {
	switch country {
	case "", "NL", "BE":
		return language.Dutch
	default:
		return language.English
	}
}

func greeting(tag language.Tag) string {
	if tag == language.Dutch {
		return "Beste"
	}
	return "Dear"
}

// FormatEUR renders an amount the way Dutch members expect it,
// e.g. "€ 12,50".
func FormatEUR(d decimal.Decimal) string {
	return FormatEURIn(language.Dutch, d)
}

// FormatEURIn renders an amount in the conventions of one locale.
func FormatEURIn(tag language.Tag, d decimal.Decimal) string {
	p, ok := printers[tag]
	if !ok {
		p = printers[language.Dutch]
	}
	return p.Sprintf("%v", currency.NarrowSymbol(currency.EUR.Amount(d.InexactFloat64())))
}

func invoiceNoticeBody(m *domain.Member, inv *domain.Invoice) string {
	loc := localeFor(m.CountryCode)
	return fmt.Sprintf(
		"%s %s,\n\nInvoice %s for %s covers your membership from %s to %s. Payment is due by %s.\n",
		greeting(loc),
		m.FirstName,
		inv.Number,
		FormatEURIn(loc, inv.Amount),
		inv.CoverageStart.Format("2006-01-02"),
		inv.CoverageEnd.Format("2006-01-02"),
		inv.DueDate.Format("2006-01-02"),
	)
}

// PrenotificationBody announces an upcoming direct debit. The scheme
// requires this ahead of the collection date.
func PrenotificationBody(m *domain.Member, row domain.BatchRow, collectionDate string, creditorID string) string {
	return fmt.Sprintf(
		"On %s we will collect %s for invoice %s from account %s under mandate %s (creditor id %s).\n",
		collectionDate,
		FormatEURIn(localeFor(m.CountryCode), row.Amount),
		row.InvoiceNumber,
		maskIBAN(row.IBAN),
		row.MandateReference,
		creditorID,
	)
}

// FailureNoticeBody explains a failed collection and the grace window.
func FailureNoticeBody(m *domain.Member, inv *domain.Invoice, suspended bool) string {
	loc := localeFor(m.CountryCode)
	if suspended {
		return fmt.Sprintf(
			"%s %s,\n\nCollection of invoice %s (%s) failed repeatedly. Your membership billing is suspended until the outstanding amount is settled.\n",
			greeting(loc), m.FirstName, inv.Number, FormatEURIn(loc, inv.Outstanding),
		)
	}
	return fmt.Sprintf(
		"%s %s,\n\nCollection of invoice %s (%s) failed. Please settle it within %d days to avoid suspension.\n",
		greeting(loc), m.FirstName, inv.Number, FormatEURIn(loc, inv.Outstanding), domain.FailureGraceDays,
	)
}

func amendmentNoticeBody(m *domain.Member, am *domain.ContributionAmendment, state string) string {
	loc := localeFor(m.CountryCode)
	var change string
	switch am.Type {
	case domain.AmendmentIntervalChange:
		change = fmt.Sprintf("billing interval from %s to %s", am.CurrentFreq, am.NewFreq)
	default:
		change = fmt.Sprintf("contribution from %s to %s", FormatEURIn(loc, am.CurrentAmount), FormatEURIn(loc, am.NewAmount))
	}
	return fmt.Sprintf(
		"%s %s,\n\nYour request to change your %s has been %s. Effective date: %s.\n",
		greeting(loc), m.FirstName, change, state, am.EffectiveDate.Format("2006-01-02"),
	)
}

func maskIBAN(iban string) string {
	if len(iban) <= 4 {
		return iban
	}
	return "****" + iban[len(iban)-4:]
}
