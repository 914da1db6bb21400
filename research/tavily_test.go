package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestTavily(t *testing.T, srv *httptest.Server, maxResults int) *Tavily {
	t.Helper()
	tv, err := NewTavily("test-key", "", maxResults, srv.Client())
	if err != nil {
		t.Fatalf("NewTavily: %v", err)
	}
	tv.Endpoint = srv.URL
	tv.backoff = time.Millisecond
	return tv
}

func TestNewTavilyRequiresKey(t *testing.T) {
	if _, err := NewTavily("  ", "basic", 5, nil); err == nil {
		t.Fatal("expected error for blank key")
	}
}

func TestTavilySearchMapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Query != "The future of AI" || req.SearchDepth != "advanced" || req.MaxResults != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		var results []string
		for i := 0; i < 3; i++ {
			results = append(results, fmt.Sprintf(`{"title":"T%d","url":"https://example.com/%d","content":"snippet %d"}`, i, i, i))
		}
		fmt.Fprintf(w, `{"results":[%s]}`, strings.Join(results, ","))
	}))
	defer srv.Close()

	got, err := newTestTavily(t, srv, 2).Search(context.Background(), "The future of AI")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(got))
	}
	want := Citation{Source: "https://example.com/0", Title: "T0", Content: "snippet 0"}
	if got[0] != want {
		t.Fatalf("citation = %+v, want %+v", got[0], want)
	}
}

func TestTavilyRetriesOnRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[{"title":"ok","url":"u","content":"c"}]}`)
	}))
	defer srv.Close()

	got, err := newTestTavily(t, srv, 5).Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("got %d citations after %d calls", len(got), calls)
	}
}

func TestTavilyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestTavily(t, srv, 5).Search(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestTavilyGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestTavily(t, srv, 5).Search(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != maxAttempts {
		t.Fatalf("calls = %d, want %d", got, maxAttempts)
	}
}

func TestTavilyBackoffHonorsCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tv := newTestTavily(t, srv, 5)
	tv.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := tv.Search(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("search kept waiting after cancel: %s", elapsed)
	}
}
