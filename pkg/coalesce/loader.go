package coalesce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/catalog-pager/pkg/paging"
)

// Prometheus metrics for coalesced page loads.
var (
	coalesceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_coalesce_requests_total",
		Help: "Total page requests received by coalescing loaders",
	}, []string{"loader"})

	coalesceBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_coalesce_batches_total",
		Help: "Total upstream fetches dispatched by coalescing loaders",
	}, []string{"loader"})

	coalesceBatchWaiters = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_coalesce_batch_waiters",
		Help:    "Number of requests served by one coalesced fetch",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 512},
	}, []string{"loader"})

	coalesceBatchWidth = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_coalesce_batch_width_items",
		Help:    "Width of the range requested by one coalesced fetch",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 5000},
	}, []string{"loader"})

	coalesceFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_coalesce_fetch_errors_total",
		Help: "Total coalesced fetches that failed",
	}, []string{"loader"})
)

// Config holds loader configuration.
type Config struct {
	// Name labels the loader in logs and metrics (e.g. "albums").
	Name string

	// Window is how long a batch accepts new requests before it is dispatched.
	Window time.Duration
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		Name:   "default",
		Window: 75 * time.Millisecond,
	}
}

// Loader merges close-in-time, overlapping page requests into one fetch.
type Loader[T any] struct {
	fetch  paging.FetchFunc[T]
	config Config
	logger zerolog.Logger

	// mu guards batch, and the range and waiters of the batch it points to.
	mu    sync.Mutex
	batch *batchRequest[T]
}

type result[T any] struct {
	page paging.Page[T]
	err  error
}

type pendingRequest[T any] struct {
	offset int
	limit  int

	// done has capacity 1 and receives exactly one result.
	done chan result[T]
}

type batchRequest[T any] struct {
	id        string
	offset    int
	limit     int
	createdAt time.Time
	waiters   []*pendingRequest[T]
}

// NewLoader creates a coalescing loader around fetch.
func NewLoader[T any](fetch paging.FetchFunc[T], config Config) *Loader[T] {
	if config.Name == "" {
		config.Name = "default"
	}
	if config.Window <= 0 {
		config.Window = 75 * time.Millisecond
	}

	return &Loader[T]{
		fetch:  fetch,
		config: config,
		logger: log.With().Str("component", "coalesce").Str("loader", config.Name).Logger(),
	}
}

// Load returns the page [offset, offset+limit).
//
// Requests arriving within the window whose range overlaps or touches the
// pending batch are served by the same upstream fetch. If ctx is cancelled
// Load returns ctx.Err(), but the request stays part of its batch.
func (l *Loader[T]) Load(ctx context.Context, offset, limit int) (paging.Page[T], error) {
	if err := paging.ValidateRange(offset, limit); err != nil {
		return paging.Page[T]{}, fmt.Errorf("load offset=%d limit=%d: %w", offset, limit, err)
	}
	coalesceRequestsTotal.WithLabelValues(l.config.Name).Inc()

	req := &pendingRequest[T]{
		offset: offset,
		limit:  limit,
		done:   make(chan result[T], 1),
	}

	if batch, owner := l.enqueue(req); owner {
		go l.dispatch(context.WithoutCancel(ctx), batch)
	}

	select {
	case res := <-req.done:
		return res.page, res.err
	case <-ctx.Done():
		return paging.Page[T]{}, ctx.Err()
	}
}

// enqueue attaches req to the pending batch or starts a new one. The
// returned bool is true when the caller owns the new batch.
func (l *Loader[T]) enqueue(req *pendingRequest[T]) (*batchRequest[T], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b := l.batch; b != nil && time.Since(b.createdAt) < l.config.Window && b.touches(req.offset, req.limit) {
		b.grow(req.offset, req.limit)
		b.waiters = append(b.waiters, req)
		return b, false
	}

	b := &batchRequest[T]{
		id:        uuid.NewString(),
		offset:    req.offset,
		limit:     req.limit,
		createdAt: time.Now(),
		waiters:   []*pendingRequest[T]{req},
	}
	l.batch = b

	l.logger.Debug().
		Str("batch_id", b.id).
		Int("offset", b.offset).
		Int("limit", b.limit).
		Msg("Opened batch")

	return b, true
}

// detach clears the pending slot if it still holds b. After detach returns
// no request can join b.
func (l *Loader[T]) detach(b *batchRequest[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.batch == b {
		l.batch = nil
	}
}

// dispatch waits out the window, then fetches the batch range once and
// hands every waiter its slice.
func (l *Loader[T]) dispatch(ctx context.Context, b *batchRequest[T]) {
	time.Sleep(l.config.Window)
	l.detach(b)

	// b is no longer reachable from the slot, so its fields are stable.
	coalesceBatchesTotal.WithLabelValues(l.config.Name).Inc()
	coalesceBatchWaiters.WithLabelValues(l.config.Name).Observe(float64(len(b.waiters)))
	coalesceBatchWidth.WithLabelValues(l.config.Name).Observe(float64(b.limit))

	l.logger.Debug().
		Str("batch_id", b.id).
		Int("offset", b.offset).
		Int("limit", b.limit).
		Int("waiters", len(b.waiters)).
		Msg("Dispatching batch")

	items, err := l.fetchBatch(ctx, b)
	if err != nil {
		coalesceFetchErrorsTotal.WithLabelValues(l.config.Name).Inc()
		l.logger.Warn().
			Err(err).
			Str("batch_id", b.id).
			Int("offset", b.offset).
			Int("limit", b.limit).
			Int("waiters", len(b.waiters)).
			Msg("Batch fetch failed")

		for _, w := range b.waiters {
			w.done <- result[T]{err: err}
		}
		return
	}

	for _, w := range b.waiters {
		w.done <- result[T]{page: paging.NewPage(w.offset, w.limit, b.slice(items, w))}
	}
}

// fetchBatch calls the fetch function, turning a panic into an error so
// every waiter still receives a result.
func (l *Loader[T]) fetchBatch(ctx context.Context, b *batchRequest[T]) (items []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch offset=%d limit=%d panicked: %v", b.offset, b.limit, r)
		}
	}()
	return l.fetch(ctx, b.offset, b.limit)
}

func (b *batchRequest[T]) end() int {
	return b.offset + b.limit
}

// touches reports whether [offset, offset+limit) overlaps or is adjacent to
// the batch range.
func (b *batchRequest[T]) touches(offset, limit int) bool {
	return offset <= b.end() && offset+limit >= b.offset
}

func (b *batchRequest[T]) grow(offset, limit int) {
	start := min(b.offset, offset)
	end := max(b.end(), offset+limit)
	b.offset = start
	b.limit = end - start
}

// slice copies the part of items that belongs to w.
func (b *batchRequest[T]) slice(items []T, w *pendingRequest[T]) []T {
	start := max(0, w.offset-b.offset)
	if start >= len(items) {
		return []T{}
	}
	end := min(len(items), start+w.limit)

	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
