package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"stonks/internal/fetcher"
	"stonks/internal/ratelimit"
)

func TestSource_Fetch_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stocks.json" {
			t.Errorf("path = %q, want /stocks.json", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"stocks": [
				{"id": "AAPL", "ticker": "AAPL", "name": "Apple Inc.", "currentPrice": 150.0, "previousClosePrice": 145.0, "isFeatured": true},
				{"id": "AMZN", "ticker": "AMZN", "name": "Amazon.com Inc.", "currentPrice": 3100.0, "previousClosePrice": 3050.0, "isFeatured": false}
			]
		}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	src := NewSource(server.URL+"/stocks.json", ratelimit.Unlimited())

	quotes, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	if len(quotes) != 2 {
		t.Fatalf("len(quotes) = %d, want 2", len(quotes))
	}
	if quotes[1].ID != "AMZN" || quotes[1].CurrentPrice != 3100 {
		t.Errorf("unexpected second quote: %+v", quotes[1])
	}
}

func TestSource_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantKind  fetcher.ErrorKind
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, "", fetcher.KindLoadFailed, true},
		{"rate limited", http.StatusTooManyRequests, "", fetcher.KindLoadFailed, true},
		{"not found", http.StatusNotFound, "", fetcher.KindFileNotFound, false},
		{"bad request", http.StatusBadRequest, "", fetcher.KindInvalidResponse, false},
		{"empty body", http.StatusOK, "", fetcher.KindInvalidResponse, false},
		{"malformed body", http.StatusOK, `{"stocks": [`, fetcher.KindDecodingFailed, false},
		{"missing stocks", http.StatusOK, `{"Note": "rate limited"}`, fetcher.KindInvalidResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			src := NewSource(server.URL, ratelimit.Unlimited())

			_, err := src.Fetch(context.Background())
			if err == nil {
				t.Fatal("Fetch() expected error, got nil")
			}

			fe := fetcher.Classify(err)
			if fe.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q (err: %v)", fe.Kind, tt.wantKind, err)
			}
			if fetcher.IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", fetcher.IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestSource_Fetch_NetworkUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	src := NewSource(url, ratelimit.Unlimited())

	_, err := src.Fetch(context.Background())
	if fe := fetcher.Classify(err); fe.Kind != fetcher.KindNetworkUnavailable {
		t.Errorf("Kind = %q, want %q (err: %v)", fe.Kind, fetcher.KindNetworkUnavailable, err)
	}
}

func TestSource_Fetch_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	src := NewSource(server.URL, ratelimit.Unlimited())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Fetch(ctx)
	if err == nil {
		t.Fatal("Fetch() expected error for cancelled context, got nil")
	}
	if fetcher.IsRetryable(err) {
		t.Error("cancellation should not be retryable")
	}
}

func TestSource_Fetch_RequestID(t *testing.T) {
	seen := make(chan string, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(RequestIDHeader)
		w.Write([]byte(`{"stocks": []}`))
	}))
	defer server.Close()

	src := NewSource(server.URL, ratelimit.Unlimited())
	for range 2 {
		if _, err := src.Fetch(context.Background()); err != nil {
			t.Fatalf("Fetch() returned unexpected error: %v", err)
		}
	}

	first, second := <-seen, <-seen
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("%s = %q is not a UUID: %v", RequestIDHeader, first, err)
	}
	if first == second {
		t.Errorf("request ids should differ per attempt, both were %q", first)
	}
}

func TestSource_Fetch_TransportRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stocks": [{"id": "AAPL", "ticker": "AAPL", "currentPrice": 150.0, "previousClosePrice": 145.0}]}`))
	}))
	defer server.Close()

	src := NewSource(server.URL, ratelimit.Unlimited()).WithTransportRetries(3)
	src.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)

	quotes, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}
	if len(quotes) != 1 {
		t.Errorf("len(quotes) = %d, want 1", len(quotes))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestSource_Fetch_TransportRetriesDoNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	src := NewSource(server.URL, ratelimit.Unlimited()).WithTransportRetries(3)
	src.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)

	_, err := src.Fetch(context.Background())
	if fe := fetcher.Classify(err); fe.Kind != fetcher.KindInvalidResponse {
		t.Errorf("Kind = %q, want %q (err: %v)", fe.Kind, fetcher.KindInvalidResponse, err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestSource_Key(t *testing.T) {
	src := NewSource("http://localhost/stocks.json", nil)
	if got, want := src.Key(), "source:remote:http://localhost/stocks.json"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}
