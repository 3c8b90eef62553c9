package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external quote APIs we interact with
type API string

const (
	// APIRemote represents a remote quote document endpoint
	APIRemote API = "remote"
	// APIAlphaVantage represents the AlphaVantage API
	APIAlphaVantage API = "alphavantage"
)

// Limiter manages rate limits for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

// New returns a Limiter with the conservative production defaults.
func New() *Limiter {
	l := &Limiter{
		limiters: make(map[API]*rate.Limiter),
	}

	// Remote document: 2 requests per second
	l.limiters[APIRemote] = rate.NewLimiter(rate.Limit(2), 1)

	// AlphaVantage: 5 requests per minute on free tier = 1 request every 12 seconds
	l.limiters[APIAlphaVantage] = rate.NewLimiter(rate.Limit(1.0/12.0), 1)

	return l
}

// Unlimited returns a Limiter that never blocks. Used in tests.
func Unlimited() *Limiter {
	return &Limiter{
		limiters: map[API]*rate.Limiter{
			APIRemote:       rate.NewLimiter(rate.Inf, 1),
			APIAlphaVantage: rate.NewLimiter(rate.Inf, 1),
		},
	}
}

// Set replaces the limit for api with perSecond requests and the given burst.
// A non-positive perSecond removes the limit.
func (l *Limiter) Set(api API, perSecond float64, burst int) {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[api] = rate.NewLimiter(limit, burst)
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	if l == nil {
		return nil
	}

	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}
