package redislist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/catalog-pager/pkg/paging"
)

// ErrInvalidItem indicates a list element could not be decoded.
var ErrInvalidItem = errors.New("invalid list item")

// appendChunk bounds the number of values sent in one RPUSH.
const appendChunk = 500

// Store reads and writes catalog collections kept as Redis lists of JSON documents.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new store with Redis backend.
func NewStore(redisClient *redis.Client) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Store{
		redis: redisClient,
	}
}

// Fetch returns a FetchFunc reading the list at key with LRANGE.
// A missing key reads as an empty collection.
func Fetch[T any](s *Store, key Key) paging.FetchFunc[T] {
	listKey := key.String()

	return func(ctx context.Context, offset, limit int) ([]T, error) {
		if err := paging.ValidateRange(offset, limit); err != nil {
			return nil, err
		}

		raw, err := s.redis.LRange(ctx, listKey, int64(offset), int64(offset+limit-1)).Result()
		if err != nil {
			ListErrors.WithLabelValues("lrange").Inc()
			return nil, fmt.Errorf("redis lrange %s: %w", listKey, err)
		}
		ListReads.WithLabelValues(key.Entity).Inc()
		ListItemsRead.WithLabelValues(key.Entity).Add(float64(len(raw)))

		items := make([]T, len(raw))
		for i, doc := range raw {
			if err := json.Unmarshal([]byte(doc), &items[i]); err != nil {
				ListErrors.WithLabelValues("decode").Inc()
				return nil, fmt.Errorf("%w: %s[%d]: %v", ErrInvalidItem, listKey, offset+i, err)
			}
		}
		return items, nil
	}
}

// Append adds items to the end of the list at key.
func Append[T any](ctx context.Context, s *Store, key Key, items ...T) error {
	if len(items) == 0 {
		return nil
	}
	listKey := key.String()

	pipe := s.redis.Pipeline()
	for start := 0; start < len(items); start += appendChunk {
		end := min(len(items), start+appendChunk)

		values := make([]any, 0, end-start)
		for _, item := range items[start:end] {
			data, err := json.Marshal(item)
			if err != nil {
				ListErrors.WithLabelValues("encode").Inc()
				return fmt.Errorf("marshal list item: %w", err)
			}
			values = append(values, data)
		}
		pipe.RPush(ctx, listKey, values...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		ListErrors.WithLabelValues("rpush").Inc()
		return fmt.Errorf("redis rpush %s: %w", listKey, err)
	}
	return nil
}

// Len returns the number of items in the list at key.
func (s *Store) Len(ctx context.Context, key Key) (int64, error) {
	n, err := s.redis.LLen(ctx, key.String()).Result()
	if err != nil {
		ListErrors.WithLabelValues("llen").Inc()
		return 0, fmt.Errorf("redis llen: %w", err)
	}
	return n, nil
}

// Delete removes the list at key.
func (s *Store) Delete(ctx context.Context, key Key) error {
	if err := s.redis.Del(ctx, key.String()).Err(); err != nil {
		ListErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
