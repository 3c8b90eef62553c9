package controller

import (
	"fmt"
	"slices"

	"stonks/internal/quote"
)

// Field names accepted by Subscribe.
const (
	// Any subscribes to every change.
	Any = "any"

	FieldQuotes          = "Quotes"
	FieldFavoriteIDs     = "FavoriteIDs"
	FieldFeatured        = "Featured"
	FieldFavorites       = "Favorites"
	FieldSortedFavorites = "SortedFavorites"
	FieldSortAscending   = "SortAscending"
	FieldIsLoading       = "IsLoading"
	FieldLastError       = "LastError"
	FieldRetryCount      = "RetryCount"
)

var fields = []string{
	FieldQuotes,
	FieldFavoriteIDs,
	FieldFeatured,
	FieldFavorites,
	FieldSortedFavorites,
	FieldSortAscending,
	FieldIsLoading,
	FieldLastError,
	FieldRetryCount,
}

// State is a snapshot of everything the controller publishes.
// Slices are shared between snapshots and must be treated as read-only.
type State struct {
	// Version increases by one for every published change.
	Version uint64

	Quotes          []quote.Quote
	FavoriteIDs     []string
	Featured        []quote.Quote
	Favorites       []quote.Quote
	SortedFavorites []quote.Quote
	SortAscending   bool

	IsLoading bool
	// LastError is the *fetcher.FetchError that ended the last load chain,
	// or nil.
	LastError error
	// ErrorMessage is the user-facing description of LastError.
	ErrorMessage string
	RetryCount   int
}

// Signal is sent to subscribers when a field changes.
type Signal struct {
	// Version is the State version after the change.
	Version uint64
	// Fields are the fields that changed, sorted.
	Fields []string
	// State is the complete state after the change.
	State State
}

// FieldChanged reports whether f is among the changed fields.
func (s Signal) FieldChanged(f string) bool {
	return slices.Contains(s.Fields, f)
}

// CancelFunc ends a subscription and closes its channel.
type CancelFunc func()

type subscriber struct {
	id int
	ch chan Signal
}

func validField(field string) error {
	if field == Any || slices.Contains(fields, field) {
		return nil
	}
	return fmt.Errorf("cannot subscribe to non-existing field: %s", field)
}
