// Package remote provides a quote source that downloads the quote document
// over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"resty.dev/v3"

	"stonks/internal/fetcher"
	"stonks/internal/quote"
	"stonks/internal/ratelimit"
)

// Source fetches a `{"stocks": [...]}` document from a URL
type Source struct {
	url     string
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewSource creates a new remote quote source. Retrying is left to the caller.
func NewSource(url string, limiter *ratelimit.Limiter) *Source {
	return &Source{
		url:     url,
		client:  fetcher.NewHTTPClient("", 0),
		limiter: limiter,
	}
}

// WithTransportRetries lets the HTTP client retry transport errors and
// 408, 429 and 5xx responses up to n times within a single Fetch.
func (s *Source) WithTransportRetries(n int) *Source {
	if n >= 0 {
		s.client.SetRetryCount(n)
	}
	return s
}

// RequestIDHeader carries a fresh id per Fetch so server logs can be
// matched with ours.
const RequestIDHeader = "X-Request-ID"

// Fetch downloads and decodes the quote document
func (s *Source) Fetch(ctx context.Context) ([]quote.Quote, error) {
	if err := s.limiter.Wait(ctx, ratelimit.APIRemote); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID).
		Get(s.url)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fetcher.NewNetworkUnavailableError(err)
	}

	if !resp.IsSuccess() {
		slog.Debug("quote request failed",
			"url", s.url,
			"request_id", requestID,
			"status_code", resp.StatusCode())

		fe := fetcher.ClassifyHTTPError(resp.StatusCode())
		if fe.Kind == fetcher.KindFileNotFound {
			fe.Resource = s.url
		}
		return nil, fe
	}

	return fetcher.DecodeQuotes(resp.Bytes())
}

// Key returns the log key for this source
func (s *Source) Key() string {
	return fmt.Sprintf("source:remote:%s", s.url)
}
