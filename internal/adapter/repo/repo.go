// Package repo provides PostgreSQL-backed implementations of the
// domain repositories. All SQL lives in internal/sqlinline and runs
// through the marker-checking executor from internal/infra.
package repo

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

// notFound maps the pgx sentinel onto the domain error.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// dec converts a scanned numeric column into a decimal. NULL scans to
// zero.
func dec(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Decimal{}
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// num binds a decimal to a numeric parameter.
func num(d decimal.Decimal) string {
	return d.String()
}

// dateOrNil binds a date parameter, keeping NULL for unset dates.
func dateOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
