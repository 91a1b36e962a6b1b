package testutil

import (
	"context"
	"sync"
	"time"
)

// Call records one invocation of Collection.Fetch.
type Call struct {
	Offset int
	Limit  int
}

// Collection is an in-memory paginated collection whose Fetch method
// satisfies paging.FetchFunc. Every call is recorded.
type Collection[T any] struct {
	mu    sync.Mutex
	items []T
	calls []Call

	// Delay, when set, returns how long a call should take.
	Delay func(offset, limit int) time.Duration

	// Fail, when set, returns the error a call should fail with (nil for success).
	Fail func(offset, limit int) error
}

// NewCollection creates a collection over items.
func NewCollection[T any](items []T) *Collection[T] {
	return &Collection[T]{items: items}
}

// Ints returns the sequence 0..n-1.
func Ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Fetch returns up to limit items starting at offset.
func (c *Collection[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Offset: offset, Limit: limit})
	delay, fail := c.Delay, c.Fail
	c.mu.Unlock()

	if delay != nil {
		if d := delay(offset, limit); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if fail != nil {
		if err := fail(offset, limit); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if offset >= len(c.items) {
		return []T{}, nil
	}
	end := min(len(c.items), offset+limit)
	out := make([]T, end-offset)
	copy(out, c.items[offset:end])
	return out, nil
}

// Calls returns a copy of the recorded calls in arrival order.
func (c *Collection[T]) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns the number of recorded calls.
func (c *Collection[T]) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Reset clears the recorded calls.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}
