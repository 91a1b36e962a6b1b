// Package pagination provides parallel fetching of entire offset-paginated collections.
//
// Catalog sources only offer offset/limit paging and never report a total
// count. The only end-of-collection signal is a page shorter than the
// requested size. This package runs a small worker group that walks offsets
// forward, each worker atomically claiming the next page, until one of them
// hits that signal.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher(fetchAlbums, pagination.DefaultConfig())
//	albums, err := fetcher.FetchAll(ctx, 0, func(n int) { progress.Add(int64(n)) })
//
// The batch fetcher:
//   - Claims page offsets with an atomic fetch-and-add
//   - Lowers a shared stop offset (never raises it) when a short or empty page arrives
//   - Lets racing workers probe past the end and drops those pages at assembly
//   - Returns items ordered by offset regardless of completion order
//   - Fails fast on the first page error (no partial data)
package pagination
