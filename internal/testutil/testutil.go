package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"stonks/internal/fetcher"
	"stonks/internal/quote"
)

// MockSource is a mock implementation of the fetcher.Source interface for testing
type MockSource struct {
	FetchFunc func(ctx context.Context) ([]quote.Quote, error)
	KeyFunc   func() string

	mu    sync.Mutex
	calls int
}

// Fetch implements the fetcher.Source interface
func (m *MockSource) Fetch(ctx context.Context) ([]quote.Quote, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return nil, nil
}

// Key implements the fetcher.Source interface
func (m *MockSource) Key() string {
	if m.KeyFunc != nil {
		return m.KeyFunc()
	}
	return "source:mock"
}

// Calls returns the number of Fetch invocations so far
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// NewMockSource creates a simple mock source with predefined results
func NewMockSource(quotes []quote.Quote, err error) *MockSource {
	return &MockSource{
		FetchFunc: func(ctx context.Context) ([]quote.Quote, error) {
			return quotes, err
		},
	}
}

// NewSequenceSource returns errs[i] on call i and quotes once errs is exhausted.
func NewSequenceSource(quotes []quote.Quote, errs ...error) *MockSource {
	var (
		mu sync.Mutex
		n  int
	)
	return &MockSource{
		FetchFunc: func(ctx context.Context) ([]quote.Quote, error) {
			mu.Lock()
			defer mu.Unlock()
			i := n
			n++
			if i < len(errs) {
				return nil, errs[i]
			}
			return quotes, nil
		},
	}
}

// TestQuotes returns four quotes: AAPL +5 and GOOGL -50 (featured),
// MSFT +5 and AMZN +50.
func TestQuotes() []quote.Quote {
	return []quote.Quote{
		{ID: "AAPL", Ticker: "AAPL", Name: "Apple Inc.", CurrentPrice: 150.0, PreviousClosePrice: 145.0, IsFeatured: true},
		{ID: "GOOGL", Ticker: "GOOGL", Name: "Alphabet Inc.", CurrentPrice: 2500.0, PreviousClosePrice: 2550.0, IsFeatured: true},
		{ID: "MSFT", Ticker: "MSFT", Name: "Microsoft Corporation", CurrentPrice: 300.0, PreviousClosePrice: 295.0, IsFeatured: false},
		{ID: "AMZN", Ticker: "AMZN", Name: "Amazon.com Inc.", CurrentPrice: 3100.0, PreviousClosePrice: 3050.0, IsFeatured: false},
	}
}

// CreateStocks returns count quotes with ids TEST0..TEST{count-1}.
func CreateStocks(count int, featured bool) []quote.Quote {
	quotes := make([]quote.Quote, count)
	for i := range quotes {
		id := fmt.Sprintf("TEST%d", i)
		quotes[i] = quote.Quote{
			ID:                 id,
			Ticker:             id,
			Name:               fmt.Sprintf("Test Stock %d", i),
			CurrentPrice:       100 + float64(i)*10,
			PreviousClosePrice: 100,
			IsFeatured:         featured,
		}
	}
	return quotes
}

// CreateMixedStocks returns featuredCount featured quotes followed by
// normalCount regular ones, numbered consecutively.
func CreateMixedStocks(featuredCount, normalCount int) []quote.Quote {
	quotes := CreateStocks(featuredCount+normalCount, false)
	for i := 0; i < featuredCount; i++ {
		quotes[i].IsFeatured = true
	}
	return quotes
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var _ fetcher.Source = (*MockSource)(nil)
