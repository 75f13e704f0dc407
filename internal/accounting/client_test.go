package accounting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Options{
		BaseURL:    srv.URL,
		APIToken:   "api-token",
		HTTPClient: srv.Client(),
		RateLimit:  1000,
		RetryWait:  time.Millisecond,
	})
	return c, srv
}

func writeSession(w http.ResponseWriter, token string) {
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func TestSessionTokenIsCachedAcrossCalls(t *testing.T) {
	sessions := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/session", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode session request: %v", err)
		}
		if body["accessToken"] != "api-token" {
			t.Fatalf("session requested with token %q", body["accessToken"])
		}
		if body["source"] == "" {
			t.Fatal("session request without source")
		}
		sessions++
		writeSession(w, "sess-1")
	})
	mux.HandleFunc("/v1/ledger", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "sess-1" {
			t.Fatalf("Authorization = %q, want session token", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []Ledger{{ID: 1, Code: "8000"}}})
	})
	c, _ := testClient(t, mux)

	for i := 0; i < 3; i++ {
		if _, err := c.ListLedgers(context.Background()); err != nil {
			t.Fatalf("ListLedgers: %v", err)
		}
	}
	if sessions != 1 {
		t.Fatalf("session requested %d times, want 1", sessions)
	}
}

func TestUnauthorizedRefreshesSession(t *testing.T) {
	sessions := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/session", func(w http.ResponseWriter, r *http.Request) {
		sessions++
		writeSession(w, fmt.Sprintf("sess-%d", sessions))
	})
	mux.HandleFunc("/v1/ledger", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "sess-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []Ledger{{ID: 1, Code: "8000"}}})
	})
	c, _ := testClient(t, mux)

	ledgers, err := c.ListLedgers(context.Background())
	if err != nil {
		t.Fatalf("ListLedgers: %v", err)
	}
	if len(ledgers) != 1 {
		t.Fatalf("got %d ledgers, want 1", len(ledgers))
	}
	if sessions != 2 {
		t.Fatalf("session requested %d times, want 2", sessions)
	}
}

func TestListLedgersFollowsPaging(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/session", func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, "sess")
	})
	mux.HandleFunc("/v1/ledger", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if r.URL.Query().Get("limit") != strconv.Itoa(pageSize) {
			t.Fatalf("limit = %q", r.URL.Query().Get("limit"))
		}
		var items []Ledger
		if offset == 0 {
			for i := 0; i < pageSize; i++ {
				items = append(items, Ledger{ID: int64(i + 1), Code: strconv.Itoa(1000 + i)})
			}
		} else {
			items = []Ledger{{ID: int64(pageSize + 1), Code: "9999"}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	})
	c, _ := testClient(t, mux)

	ledgers, err := c.ListLedgers(context.Background())
	if err != nil {
		t.Fatalf("ListLedgers: %v", err)
	}
	if len(ledgers) != pageSize+1 {
		t.Fatalf("got %d ledgers, want %d", len(ledgers), pageSize+1)
	}
	if ledgers[pageSize].Code != "9999" {
		t.Fatalf("last ledger = %+v", ledgers[pageSize])
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/session", func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, "sess")
	})
	mux.HandleFunc("/v1/mutation", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42})
	})
	c, _ := testClient(t, mux)

	id, err := c.CreateMutation(context.Background(), NewMutation{Type: MutationSalesInvoice})
	if err != nil {
		t.Fatalf("CreateMutation: %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d, want 42", id)
	}
	if attempts != 3 {
		t.Fatalf("server hit %d times, want 3", attempts)
	}
}

func TestBadRequestIsNotRetried(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/session", func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, "sess")
	})
	mux.HandleFunc("/v1/mutation", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "date is required"})
	})
	c, _ := testClient(t, mux)

	_, err := c.CreateMutation(context.Background(), NewMutation{Type: MutationSalesInvoice})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("server hit %d times, want 1", attempts)
	}
	if want := "date is required"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not mention %q", err, want)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/session", func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, "sess")
	})
	mux.HandleFunc("/v1/ledger", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c, _ := testClient(t, mux)

	for i := 0; i < 5; i++ {
		if _, err := c.ListLedgers(context.Background()); err == nil {
			t.Fatalf("call %d unexpectedly succeeded", i)
		}
	}
	_, err := c.ListLedgers(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open breaker", err)
	}
}
