// Package paging defines the offset/limit page contract shared by the
// coalescing loader, the full-collection fetcher and the catalog sources.
package paging

import (
	"context"
	"errors"
)

// ErrInvalidRange is returned when a caller asks for a negative offset or a
// non-positive limit.
var ErrInvalidRange = errors.New("invalid page range")

// FetchFunc loads up to limit items starting at offset.
//
// Implementations must return at most limit items. Returning fewer than limit
// items (including none) signals the end of the collection.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Page is one window of a collection with arithmetic prev/next cursors.
type Page[T any] struct {
	Data []T `json:"data"`

	// PrevKey is nil on the first page, otherwise max(0, offset-limit).
	PrevKey *int `json:"prev_key"`

	// NextKey is nil once fewer than limit items came back, otherwise offset+limit.
	NextKey *int `json:"next_key"`
}

// NewPage builds the page a caller asking for [offset, offset+limit) sees
// when data was returned for it.
func NewPage[T any](offset, limit int, data []T) Page[T] {
	page := Page[T]{Data: data}
	if offset > 0 {
		prev := max(0, offset-limit)
		page.PrevKey = &prev
	}
	if len(data) >= limit {
		next := offset + limit
		page.NextKey = &next
	}
	return page
}

// ValidateRange reports ErrInvalidRange for offsets below zero or
// non-positive limits.
func ValidateRange(offset, limit int) error {
	if offset < 0 || limit <= 0 {
		return ErrInvalidRange
	}
	return nil
}
