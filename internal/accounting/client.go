package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Session tokens are valid for 60 minutes; we refresh at 55 so a token
// never expires mid-request.
const sessionLifetime = 55 * time.Minute

const pageSize = 500

type Options struct {
	BaseURL  string
	APIToken string
	// TokenFunc resolves the API token when a session is opened. When
	// set it takes precedence over APIToken, so a token rotated through
	// the credentials store applies without a restart.
	TokenFunc  func(context.Context) (string, error)
	Source     string
	HTTPClient *http.Client
	Timeout    time.Duration
	// Requests per second against the remote API. Zero means 5/s.
	RateLimit float64
	// Base wait between retries of 429/5xx responses. Zero means 500ms.
	RetryWait time.Duration
}

// Client talks to the e-Boekhouden REST API. All calls go through a
// shared rate limiter and a circuit breaker that opens after five
// consecutive failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	tokenFunc  func(context.Context) (string, error)
	source     string
	retryWait  time.Duration
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker

	mu         sync.Mutex
	session    string
	sessionExp time.Time
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.e-boekhouden.nl"
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	rps := opts.RateLimit
	if rps <= 0 {
		rps = 5
	}
	source := strings.TrimSpace(opts.Source)
	if source == "" {
		source = "ledenbeheer"
	}
	retryWait := opts.RetryWait
	if retryWait <= 0 {
		retryWait = 500 * time.Millisecond
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		apiToken:   strings.TrimSpace(opts.APIToken),
		tokenFunc:  opts.TokenFunc,
		source:     source,
		retryWait:  retryWait,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "eboekhouden",
			MaxRequests: 3,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Ledger is one chart-of-accounts entry.
type Ledger struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Relation is a customer or supplier on the remote side.
type Relation struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewRelation is the create payload for a relation.
type NewRelation struct {
	Type  string `json:"type"` // "B" business, "P" private
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Mutation types used by the sync. The remote API numbers them.
const (
	MutationSalesInvoice    = 2 // Factuurverstuurd
	MutationPaymentReceived = 3 // FactuurbetalingOntvangen
	MutationMoneyReceived   = 5 // GeldOntvangen
	MutationMemorial        = 7 // Memoriaal
)

// MutationRow is one journal line.
type MutationRow struct {
	LedgerID    int64   `json:"ledgerId"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// Mutation is a journal entry as returned by the API.
type Mutation struct {
	ID            int64         `json:"id"`
	Type          int           `json:"type"`
	Date          string        `json:"date"` // YYYY-MM-DD
	Description   string        `json:"description"`
	LedgerID      int64         `json:"ledgerId"`
	RelationID    int64         `json:"relationId"`
	InvoiceNumber string        `json:"invoiceNumber"`
	Rows          []MutationRow `json:"rows"`
}

// NewMutation is the create payload for a journal entry.
type NewMutation struct {
	Type          int           `json:"type"`
	Date          string        `json:"date"`
	Description   string        `json:"description"`
	LedgerID      int64         `json:"ledgerId"`
	RelationID    int64         `json:"relationId,omitempty"`
	InvoiceNumber string        `json:"invoiceNumber,omitempty"`
	Rows          []MutationRow `json:"rows"`
}

type sessionRequest struct {
	AccessToken string `json:"accessToken"`
	Source      string `json:"source"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

type apiError struct {
	Message string `json:"message"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

func (c *Client) sessionToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != "" && time.Now().Before(c.sessionExp) {
		return c.session, nil
	}
	token := c.apiToken
	if c.tokenFunc != nil {
		stored, err := c.tokenFunc(ctx)
		if err != nil {
			return "", fmt.Errorf("eboekhouden: resolve api token: %w", err)
		}
		if stored != "" {
			token = stored
		}
	}
	if token == "" {
		return "", errors.New("eboekhouden: API token is missing")
	}
	body, err := json.Marshal(sessionRequest{AccessToken: token, Source: c.source})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/session", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("eboekhouden: session request failed with http %d", resp.StatusCode)
	}
	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("eboekhouden: session response carried no token")
	}
	c.session = out.Token
	c.sessionExp = time.Now().Add(sessionLifetime)
	return c.session, nil
}

func (c *Client) dropSession() {
	c.mu.Lock()
	c.session = ""
	c.mu.Unlock()
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// do performs one API call through the limiter and the breaker,
// retrying 429s and 5xx responses with backoff. A 401 invalidates the
// cached session and the call is repeated once with a fresh token.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var lastErr error
		refreshed := false
		for attempt := 0; attempt < 3; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(attempt) * c.retryWait):
				}
			}
			status, err := c.once(ctx, method, path, query, in, out)
			if err == nil {
				return nil, nil
			}
			lastErr = err
			if status == http.StatusUnauthorized && !refreshed {
				c.dropSession()
				refreshed = true
				attempt--
				continue
			}
			if !retryableStatus(status) {
				return nil, err
			}
		}
		return nil, lastErr
	})
	return err
}

func (c *Client) once(ctx context.Context, method, path string, query url.Values, in, out any) (int, error) {
	token, err := c.sessionToken(ctx)
	if err != nil {
		return 0, err
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return resp.StatusCode, fmt.Errorf("eboekhouden: %s %s: %s (http %d)", method, path, apiErr.Message, resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("eboekhouden: %s %s: http %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("eboekhouden: decoding %s response: %w", path, err)
	}
	return resp.StatusCode, nil
}

// ListLedgers fetches the full chart of accounts.
func (c *Client) ListLedgers(ctx context.Context) ([]Ledger, error) {
	var all []Ledger
	for offset := 0; offset <= 10000; offset += pageSize {
		var page struct {
			Items []Ledger `json:"items"`
		}
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))
		if err := c.do(ctx, http.MethodGet, "/v1/ledger", q, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < pageSize {
			break
		}
	}
	return all, nil
}

// ListRelations fetches all relations.
func (c *Client) ListRelations(ctx context.Context) ([]Relation, error) {
	var all []Relation
	for offset := 0; offset <= 10000; offset += pageSize {
		var page struct {
			Items []Relation `json:"items"`
		}
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))
		if err := c.do(ctx, http.MethodGet, "/v1/relation", q, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < pageSize {
			break
		}
	}
	return all, nil
}

// CreateRelation registers a relation and returns its remote id.
func (c *Client) CreateRelation(ctx context.Context, r NewRelation) (int64, error) {
	var out createdResponse
	if err := c.do(ctx, http.MethodPost, "/v1/relation", nil, r, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// GetMutation fetches one journal entry by remote id.
func (c *Client) GetMutation(ctx context.Context, id int64) (*Mutation, error) {
	var out Mutation
	if err := c.do(ctx, http.MethodGet, "/v1/mutation/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMutationsSince fetches journal entries with an id above the
// cursor. The mutation list can run long, so the safety cap is wider
// than for the other lists.
func (c *Client) ListMutationsSince(ctx context.Context, sinceID int64) ([]Mutation, error) {
	var all []Mutation
	for offset := 0; offset <= 50000; offset += pageSize {
		var page struct {
			Items []Mutation `json:"items"`
		}
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))
		if sinceID > 0 {
			q.Set("idFrom", strconv.FormatInt(sinceID+1, 10))
		}
		if err := c.do(ctx, http.MethodGet, "/v1/mutation", q, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < pageSize {
			break
		}
	}
	return all, nil
}

// CreateMutation posts a journal entry and returns its remote id.
func (c *Client) CreateMutation(ctx context.Context, m NewMutation) (int64, error) {
	var out createdResponse
	if err := c.do(ctx, http.MethodPost, "/v1/mutation", nil, m, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}
