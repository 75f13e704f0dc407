package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token   string
	err     error
	selects int
	exec    struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.selects++
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestTokenTrimsAndCaches(t *testing.T) {
	exec := &stubExecutor{token: " abc123 "}
	store := NewStore(exec)

	for i := 0; i < 3; i++ {
		token, err := store.EBoekhoudenToken(context.Background())
		if err != nil {
			t.Fatalf("EBoekhoudenToken: %v", err)
		}
		if token != "abc123" {
			t.Fatalf("token = %q, want %q", token, "abc123")
		}
	}
	if exec.selects != 1 {
		t.Fatalf("selects = %d, want 1", exec.selects)
	}
}

func TestTokenUnconfigured(t *testing.T) {
	exec := &stubExecutor{err: pgx.ErrNoRows}
	store := NewStore(exec)

	token, err := store.EBoekhoudenToken(context.Background())
	if err != nil {
		t.Fatalf("EBoekhoudenToken: %v", err)
	}
	if token != "" {
		t.Fatalf("token = %q, want empty", token)
	}

	// An unconfigured provider must not be cached, otherwise a token
	// set elsewhere stays invisible for the cache TTL.
	if _, err := store.EBoekhoudenToken(context.Background()); err != nil {
		t.Fatalf("EBoekhoudenToken: %v", err)
	}
	if exec.selects != 2 {
		t.Fatalf("selects = %d, want 2", exec.selects)
	}
}

func TestSetTokenDropsCachedCopy(t *testing.T) {
	exec := &stubExecutor{token: "old"}
	store := NewStore(exec)

	if _, err := store.EBoekhoudenToken(context.Background()); err != nil {
		t.Fatalf("EBoekhoudenToken: %v", err)
	}
	if err := store.SetEBoekhoudenToken(context.Background(), "rotated"); err != nil {
		t.Fatalf("SetEBoekhoudenToken: %v", err)
	}
	if len(exec.exec.args) != 2 {
		t.Fatalf("exec args = %d, want 2", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "rotated" {
		t.Fatalf("token argument = %T %v", exec.exec.args[1], exec.exec.args[1])
	}

	exec.token = "rotated"
	token, err := store.EBoekhoudenToken(context.Background())
	if err != nil {
		t.Fatalf("EBoekhoudenToken: %v", err)
	}
	if token != "rotated" {
		t.Fatalf("token = %q, want %q", token, "rotated")
	}
	if exec.selects != 2 {
		t.Fatalf("selects = %d, want 2", exec.selects)
	}
}

func TestSetTokenRejectsBlank(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetEBoekhoudenToken(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank token")
	}
}
