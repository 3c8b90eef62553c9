package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"resty.dev/v3"

	"stonks/internal/fetcher"
	"stonks/internal/quote"
	"stonks/internal/ratelimit"
)

// defaultMaxConcurrency bounds the number of in-flight GLOBAL_QUOTE calls
const defaultMaxConcurrency = 4

// GlobalQuoteResponse represents the AlphaVantage API response for stock quotes
type GlobalQuoteResponse struct {
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Open             string `json:"02. open"`
		High             string `json:"03. high"`
		Low              string `json:"04. low"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
		Change           string `json:"09. change"`
		ChangePercent    string `json:"10. change percent"`
	} `json:"Global Quote"`

	// Note is set instead of a quote when the API throttles the key.
	Note string `json:"Note"`
}

// StockSource builds a quote list from one GLOBAL_QUOTE call per symbol
type StockSource struct {
	apiKey   string
	symbols  []string
	featured map[string]bool
	client   *resty.Client
	limiter  *ratelimit.Limiter
}

// NewStockSource creates a source for symbols. Symbols listed in featured are
// marked as featured quotes.
func NewStockSource(apiKey, baseURL string, symbols, featured []string, limiter *ratelimit.Limiter) *StockSource {
	f := make(map[string]bool, len(featured))
	for _, s := range featured {
		f[strings.ToUpper(s)] = true
	}

	return &StockSource{
		apiKey:   apiKey,
		symbols:  slices.Clone(symbols),
		featured: f,
		client:   fetcher.NewHTTPClient(baseURL, 0),
		limiter:  limiter,
	}
}

// WithTransportRetries lets the HTTP client retry transport errors and
// 408, 429 and 5xx responses up to n times within a single Fetch. The free
// tier answers bursts with 429, so a few quick retries spare a full backoff.
func (f *StockSource) WithTransportRetries(n int) *StockSource {
	if n >= 0 {
		f.client.SetRetryCount(n)
	}
	return f
}

type indexedQuote struct {
	idx int
	q   quote.Quote
}

// Fetch retrieves all symbols concurrently and returns them in configured order.
// The first failure cancels the remaining calls.
func (f *StockSource) Fetch(ctx context.Context) ([]quote.Quote, error) {
	p := pool.NewWithResults[indexedQuote]().
		WithContext(ctx).
		WithFirstError().
		WithCancelOnError().
		WithMaxGoroutines(defaultMaxConcurrency)

	for i, symbol := range f.symbols {
		p.Go(func(ctx context.Context) (indexedQuote, error) {
			q, err := f.fetchSymbol(ctx, symbol)
			return indexedQuote{idx: i, q: q}, err
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b indexedQuote) int { return a.idx - b.idx })

	quotes := make([]quote.Quote, len(results))
	for i, r := range results {
		quotes[i] = r.q
	}
	return quotes, nil
}

// fetchSymbol retrieves the current and previous close price for one symbol
func (f *StockSource) fetchSymbol(ctx context.Context, symbol string) (quote.Quote, error) {
	if err := f.limiter.Wait(ctx, ratelimit.APIAlphaVantage); err != nil {
		return quote.Quote{}, err
	}

	var result GlobalQuoteResponse

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":   f.apiKey,
			"function": "GLOBAL_QUOTE",
			"symbol":   symbol,
		}).
		SetResult(&result).
		Get("")

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return quote.Quote{}, err
		}
		return quote.Quote{}, fetcher.NewNetworkUnavailableError(fmt.Errorf("failed to fetch stock price for %s: %w", symbol, err))
	}

	if !resp.IsSuccess() {
		return quote.Quote{}, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	if result.Note != "" {
		return quote.Quote{}, fetcher.NewLoadFailedError(fmt.Sprintf("alphavantage throttled the request for %s", symbol), errors.New(result.Note))
	}

	if result.GlobalQuote.Price == "" {
		return quote.Quote{}, fetcher.NewInvalidResponseError(fmt.Sprintf("price not found in response for %s", symbol))
	}

	price, err := strconv.ParseFloat(result.GlobalQuote.Price, 64)
	if err != nil {
		return quote.Quote{}, fetcher.NewDecodingFailedError(fmt.Errorf("failed to parse stock price: %w", err))
	}

	// Without a previous close the change is zero.
	prev := price
	if result.GlobalQuote.PreviousClose != "" {
		prev, err = strconv.ParseFloat(result.GlobalQuote.PreviousClose, 64)
		if err != nil {
			return quote.Quote{}, fetcher.NewDecodingFailedError(fmt.Errorf("failed to parse previous close: %w", err))
		}
	}

	return quote.Quote{
		ID:                 symbol,
		Ticker:             symbol,
		Name:               symbol,
		CurrentPrice:       price,
		PreviousClosePrice: prev,
		IsFeatured:         f.featured[strings.ToUpper(symbol)],
	}, nil
}

// Key returns the log key for this source
func (f *StockSource) Key() string {
	return fmt.Sprintf("source:alphavantage:%s", strings.Join(f.symbols, ","))
}
