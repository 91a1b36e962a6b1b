package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/catalog-pager/pkg/coalesce"
	"github.com/Sternrassler/catalog-pager/pkg/paging"
	"github.com/Sternrassler/catalog-pager/pkg/pagination"
)

// Source exposes one collection through the list-paging contract: page
// loads while scrolling, and a load of everything on refresh.
type Source[T any] struct {
	entity  Entity
	loader  *coalesce.Loader[T]
	fetcher *pagination.BatchFetcher[T]
	logger  zerolog.Logger
}

// NewSource wires fetch into a coalescing loader and a full-collection fetcher.
func NewSource[T any](entity Entity, fetch paging.FetchFunc[T], cfg Config) *Source[T] {
	loaderCfg := cfg.Coalesce
	loaderCfg.Name = string(entity)

	return &Source[T]{
		entity:  entity,
		loader:  coalesce.NewLoader(fetch, loaderCfg),
		fetcher: pagination.NewBatchFetcher(fetch, cfg.Full),
		logger:  log.With().Str("component", "catalog").Str("entity", string(entity)).Logger(),
	}
}

// Entity returns the collection this source serves.
func (s *Source[T]) Entity() Entity {
	return s.entity
}

// LoadPage loads [offset, offset+limit), coalescing with nearby requests.
func (s *Source[T]) LoadPage(ctx context.Context, offset, limit int) (paging.Page[T], error) {
	return s.loader.Load(ctx, offset, limit)
}

// LoadAll loads every item from startOffset to the end of the collection.
func (s *Source[T]) LoadAll(ctx context.Context, startOffset int) ([]T, error) {
	return s.LoadAllWithProgress(ctx, startOffset, nil)
}

// LoadAllWithProgress is LoadAll with progress reporting scoped to this call.
//
// onProgress, if non-nil, receives the running number of items received so
// far and may be called from several goroutines. The running count can
// exceed the result when pages past the end of a changing collection are
// fetched and then dropped, so on success a final call reports len(items).
func (s *Source[T]) LoadAllWithProgress(ctx context.Context, startOffset int, onProgress func(loaded int64)) ([]T, error) {
	start := time.Now()

	var loaded atomic.Int64
	items, err := s.fetcher.FetchAll(ctx, startOffset, func(n int) {
		total := loaded.Add(int64(n))
		if onProgress != nil {
			onProgress(total)
		}
	})
	if err != nil {
		s.logger.Warn().Err(err).Int("start_offset", startOffset).Msg("Load all failed")
		return nil, err
	}

	if onProgress != nil {
		onProgress(int64(len(items)))
	}

	s.logger.Info().
		Int("start_offset", startOffset).
		Int("items", len(items)).
		Int64("fetched", loaded.Load()).
		Dur("duration", time.Since(start)).
		Msg("Loaded collection")
	return items, nil
}
