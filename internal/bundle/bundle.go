// Package bundle provides a quote source backed by a static JSON document
// shipped alongside the binary.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/afero"

	"stonks/internal/fetcher"
	"stonks/internal/quote"
)

// DefaultDelay simulates the latency of a real quote service.
const DefaultDelay = 1 * time.Second

// Source reads quotes from a JSON file after a simulated delay.
type Source struct {
	fs    afero.Fs
	path  string
	delay time.Duration
}

// NewSource creates a bundled source reading path from fs. A negative delay
// is treated as zero.
func NewSource(fs afero.Fs, path string, delay time.Duration) *Source {
	if delay < 0 {
		delay = 0
	}
	return &Source{
		fs:    fs,
		path:  path,
		delay: delay,
	}
}

// Fetch waits for the configured delay, then reads and decodes the document.
func (s *Source) Fetch(ctx context.Context) ([]quote.Quote, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	payload, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fetcher.NewFileNotFoundError(s.path, err)
		}
		return nil, fetcher.NewLoadFailedError(fmt.Sprintf("failed to read %s", s.path), err)
	}

	return fetcher.DecodeQuotes(payload)
}

// Key returns the log key for this source
func (s *Source) Key() string {
	return fmt.Sprintf("source:bundle:%s", s.path)
}
