// Package pagination provides parallel fetching of whole offset-paginated collections
package pagination

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/catalog-pager/pkg/paging"
)

// ErrInvalidConfig is returned when page size, parallelism or start offset are out of range.
var ErrInvalidConfig = errors.New("invalid full-fetch configuration")

// Prometheus metrics for full-collection fetches.
var (
	fullFetchPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fullfetch_pages_total",
		Help: "Total non-empty pages fetched during full-collection fetches",
	})

	fullFetchDiscardedPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fullfetch_discarded_pages_total",
		Help: "Total fetched pages dropped because they lie past the discovered end",
	})

	fullFetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fullfetch_failures_total",
		Help: "Total full-collection fetches aborted by a page error",
	})

	fullFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_fullfetch_duration_seconds",
		Help:    "Duration of full-collection fetches",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// Config holds batch fetcher configuration
type Config struct {
	// PageSize is the number of items requested per page
	PageSize int
	// Parallelism is the number of concurrent workers
	Parallelism int
}

// DefaultConfig returns the default full-fetch configuration
func DefaultConfig() Config {
	return Config{
		PageSize:    200,
		Parallelism: 3,
	}
}

// BatchFetcher fetches whole collections through a single FetchFunc
type BatchFetcher[T any] struct {
	fetch  paging.FetchFunc[T]
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetch paging.FetchFunc[T], config Config) *BatchFetcher[T] {
	if config.PageSize <= 0 {
		config.PageSize = 200
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 3
	}

	return &BatchFetcher[T]{
		fetch:  fetch,
		config: config,
	}
}

// Config returns the normalised configuration
func (bf *BatchFetcher[T]) Config() Config {
	return bf.config
}

// FetchAll fetches every item from startOffset to the end of the collection
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, startOffset int, onPageLoaded func(n int)) ([]T, error) {
	return FetchAll(ctx, bf.config.PageSize, bf.config.Parallelism, startOffset, bf.fetch, onPageLoaded)
}

// fetchState is shared by the workers of one FetchAll call
type fetchState[T any] struct {
	nextOffset atomic.Int64
	stopOffset atomic.Int64
	pages      sync.Map // int64 offset -> []T
	pageCount  atomic.Int64
}

func newFetchState[T any](startOffset int) *fetchState[T] {
	s := &fetchState[T]{}
	s.nextOffset.Store(int64(startOffset))
	s.stopOffset.Store(math.MaxInt64)
	return s
}

// claim reserves the next page offset
func (s *fetchState[T]) claim(pageSize int) int64 {
	return s.nextOffset.Add(int64(pageSize)) - int64(pageSize)
}

// lowerStop moves the stop offset down to candidate; it never moves up
func (s *fetchState[T]) lowerStop(candidate int64) {
	for {
		current := s.stopOffset.Load()
		if candidate >= current {
			return
		}
		if s.stopOffset.CompareAndSwap(current, candidate) {
			return
		}
	}
}

// assemble concatenates the recorded pages below the stop offset in offset order
func (s *fetchState[T]) assemble() ([]T, int) {
	stop := s.stopOffset.Load()

	var offsets []int64
	discarded := 0
	s.pages.Range(func(key, _ any) bool {
		offset := key.(int64)
		if offset < stop {
			offsets = append(offsets, offset)
		} else {
			discarded++
		}
		return true
	})
	slices.Sort(offsets)

	var items []T
	for _, offset := range offsets {
		page, _ := s.pages.Load(offset)
		items = append(items, page.([]T)...)
	}
	if items == nil {
		items = []T{}
	}
	return items, discarded
}

// FetchAll fetches a whole collection with parallelism workers walking pages of pageSize
// forward from startOffset.
//
// The collection exposes no total count. A page shorter than pageSize (or empty) marks the
// end; workers converge on the smallest such offset and pages past it are dropped. The first
// page error ends the call at once and no partial result is returned. In-flight fetches of
// other workers are not cancelled; they finish in the background and their pages are ignored.
//
// onPageLoaded, if non-nil, is called with the item count of every non-empty page, including
// pages later dropped past the end. It may be called from several goroutines at once, and
// after a failed FetchAll has returned.
func FetchAll[T any](ctx context.Context, pageSize, parallelism, startOffset int, fetchPage paging.FetchFunc[T], onPageLoaded func(n int)) ([]T, error) {
	if pageSize <= 0 || parallelism <= 0 || startOffset < 0 {
		return nil, fmt.Errorf("%w: page_size=%d parallelism=%d start_offset=%d",
			ErrInvalidConfig, pageSize, parallelism, startOffset)
	}

	start := time.Now()
	defer func() {
		fullFetchDuration.Observe(time.Since(start).Seconds())
	}()

	log.Info().
		Int("page_size", pageSize).
		Int("parallelism", parallelism).
		Int("start_offset", startOffset).
		Msg("Starting parallel full fetch")

	state := newFetchState[T](startOffset)

	// gctx only tells workers to stop claiming. Fetches get ctx so a failure
	// elsewhere does not cancel pages already in flight.
	g, gctx := errgroup.WithContext(ctx)
	firstErr := make(chan error, 1)
	for i := 0; i < parallelism; i++ {
		g.Go(func() error {
			err := worker(ctx, gctx, state, pageSize, fetchPage, onPageLoaded, i)
			if err != nil {
				select {
				case firstErr <- err:
				default:
				}
			}
			return err
		})
	}

	finished := make(chan error, 1)
	go func() {
		finished <- g.Wait()
	}()

	var err error
	select {
	case err = <-firstErr:
	case err = <-finished:
	}
	if err != nil {
		fullFetchFailuresTotal.Inc()
		log.Warn().
			Err(err).
			Int64("pages_fetched", state.pageCount.Load()).
			Msg("Full fetch aborted")
		return nil, err
	}

	items, discarded := state.assemble()
	if discarded > 0 {
		fullFetchDiscardedPagesTotal.Add(float64(discarded))
	}

	log.Info().
		Int("items", len(items)).
		Int64("pages", state.pageCount.Load()).
		Int("discarded_pages", discarded).
		Int64("stop_offset", state.stopOffset.Load()).
		Dur("duration", time.Since(start)).
		Msg("Full fetch complete")

	return items, nil
}

// worker claims and fetches pages until the end of the collection is known
func worker[T any](ctx, gctx context.Context, state *fetchState[T], pageSize int, fetchPage paging.FetchFunc[T], onPageLoaded func(int), workerID int) error {
	pagesProcessed := 0

	for {
		// Another worker failed or the caller gave up
		if err := gctx.Err(); err != nil {
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return err
		}

		claimed := state.claim(pageSize)
		if claimed >= state.stopOffset.Load() {
			break
		}

		items, err := fetchPage(ctx, int(claimed), pageSize)
		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int64("offset", claimed).
				Msg("Page fetch failed")
			return err
		}

		if len(items) == 0 {
			state.lowerStop(claimed)
			break
		}
		if len(items) > pageSize {
			items = items[:pageSize]
		}

		state.pages.Store(claimed, items)
		pagesProcessed++
		fullFetchPagesTotal.Inc()
		if onPageLoaded != nil {
			onPageLoaded(len(items))
		}

		// Progress logging every 50 pages
		if fetched := state.pageCount.Add(1); fetched%50 == 0 {
			log.Info().
				Int64("fetched_pages", fetched).
				Int64("offset", claimed).
				Msg("Fetch progress")
		}

		if len(items) < pageSize {
			state.lowerStop(claimed + int64(len(items)))
			break
		}
	}

	log.Debug().
		Int("worker_id", workerID).
		Int("pages_processed", pagesProcessed).
		Msg("Worker completed")
	return nil
}
