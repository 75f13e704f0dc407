// Package credentials keeps third-party API tokens in the database so
// operators can rotate them without a redeploy.
package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

const ProviderEBoekhouden = "eboekhouden"

// tokenTTL bounds how long a fetched token is reused before the
// database is read again, so a rotation done by another process lands
// within a minute.
const tokenTTL = time.Minute

type cachedToken struct {
	value     string
	fetchedAt time.Time
}

type Store struct {
	sql infra.SQLExecutor

	mu    sync.Mutex
	cache map[string]cachedToken
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, cache: make(map[string]cachedToken)}
}

// EBoekhoudenToken returns the bookkeeping API token, empty when none
// has been configured yet.
func (s *Store) EBoekhoudenToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderEBoekhouden)
}

func (s *Store) SetEBoekhoudenToken(ctx context.Context, token string) error {
	return s.SetToken(ctx, ProviderEBoekhouden, token)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	s.mu.Lock()
	entry, ok := s.cache[provider]
	s.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < tokenTTL {
		return entry.value, nil
	}

	var token string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider).Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	token = strings.TrimSpace(token)

	s.mu.Lock()
	s.cache[provider] = cachedToken{value: token, fetchedAt: time.Now()}
	s.mu.Unlock()
	return token, nil
}

// SetToken stores a rotated token and drops the cached copy so this
// process uses the new value immediately.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("api token is required")
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, provider)
	s.mu.Unlock()
	return nil
}
