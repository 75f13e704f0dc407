package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SQLExecutor is the narrow database contract the repositories and
// handlers depend on. *SQLRunner satisfies it in production; tests
// swap in fakes.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// Every statement in internal/sqlinline opens with a "--sql <uuid>"
// marker line. The runner refuses anything without one, so ad hoc SQL
// cannot reach the pool, and the marker keys every log line back to
// the statement that produced it.
var markerRegexp = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// slowQuery is the elapsed time above which a statement is logged at
// warn level. Anything from the member list or stats paths that keeps
// tripping this belongs in a materialized view instead.
const slowQuery = 250 * time.Millisecond

type SQLRunner struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewSQLRunner(pool *pgxpool.Pool, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{
		pool:   pool,
		logger: logger.With().Str("component", "sql").Logger(),
	}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, stmt, err := splitMarker(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := time.Now()
	tag, err := r.pool.Exec(ctx, stmt, args...)
	r.observe(marker, "exec", start, err)
	return tag, err
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, stmt, err := splitMarker(query)
	if err != nil {
		return errorRow{err: err}
	}
	return scannedRow{
		row:    r.pool.QueryRow(ctx, stmt, args...),
		runner: r,
		marker: marker,
		start:  time.Now(),
	}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, stmt, err := splitMarker(query)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := r.pool.Query(ctx, stmt, args...)
	r.observe(marker, "query", start, err)
	return rows, err
}

// observe logs failures and slow statements. Healthy statements only
// show up at debug level, and pgx.ErrNoRows is not a failure: the
// repositories translate it to a not-found result.
func (r *SQLRunner) observe(marker, kind string, start time.Time, err error) {
	elapsed := time.Since(start)
	switch {
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		r.logger.Error().Err(err).Str("marker", marker).Str("kind", kind).Dur("elapsed", elapsed).Msg("statement failed")
	case elapsed > slowQuery:
		r.logger.Warn().Str("marker", marker).Str("kind", kind).Dur("elapsed", elapsed).Msg("slow statement")
	default:
		r.logger.Debug().Str("marker", marker).Str("kind", kind).Dur("elapsed", elapsed).Msg("statement")
	}
}

// scannedRow defers observation until Scan, which is where pgx
// surfaces QueryRow errors.
type scannedRow struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

func (s scannedRow) Scan(dest ...any) error {
	err := s.row.Scan(dest...)
	s.runner.observe(s.marker, "query_row", s.start, err)
	return err
}

// errorRow carries a marker violation to the caller's Scan.
type errorRow struct {
	err error
}

func (e errorRow) Scan(...any) error {
	return e.err
}

func splitMarker(query string) (marker, stmt string, err error) {
	trimmed := strings.TrimSpace(query)
	line, rest, _ := strings.Cut(trimmed, "\n")
	line = strings.TrimSpace(line)
	if !markerRegexp.MatchString(line) {
		return "", "", errors.New("sql statement is missing its --sql marker")
	}
	return strings.TrimPrefix(line, "--sql "), rest, nil
}

var _ SQLExecutor = (*SQLRunner)(nil)
