package fetcher

import (
	"context"

	"stonks/internal/quote"
)

// Source is the core interface that all quote data sources must implement.
// A source returns the complete quote list on every call; it never merges.
type Source interface {
	// Fetch retrieves the full quote list.
	// Failures should be *FetchError values so that callers can decide
	// whether to retry. Any other error is treated as permanent.
	Fetch(ctx context.Context) ([]quote.Quote, error)

	// Key identifies the source in logs.
	// Format: source:{kind}:{identifier}
	// Examples:
	//   - source:bundle:stocks.json
	//   - source:remote:https://example.com/stocks.json
	//   - source:alphavantage:AAPL,MSFT
	Key() string
}
