// Package redislist serves catalog collections stored as Redis lists.
//
// Each collection is one Redis list whose elements are JSON documents in
// collection order. Paging maps directly onto LRANGE, so a list behaves
// like a remote source that offers offset/limit access and nothing else:
// there is no count in the read path, and a short page marks the end.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	store := redislist.NewStore(redisClient)
//	key := redislist.Key{Entity: "albums", Scope: map[string]string{"library": "main"}}
//
//	// Populate
//	if err := redislist.Append(ctx, store, key, albums...); err != nil {
//		return err
//	}
//
//	// Read pages
//	fetch := redislist.Fetch[catalog.Album](store, key)
//	page, err := fetch(ctx, 200, 50)
//
// # Metrics
//
//   - catalog_redis_list_reads_total{entity} - LRANGE page reads
//   - catalog_redis_list_items_read_total{entity} - items returned
//   - catalog_redis_list_errors_total{operation} - operation errors
package redislist
