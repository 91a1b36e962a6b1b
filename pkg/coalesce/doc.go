// Package coalesce merges bursts of small page requests into single
// upstream fetches.
//
// A scrolling list asks for many small, overlapping windows in quick
// succession (visible range plus prefetch distance). The Loader keeps one
// pending batch open for a short window. Any request arriving inside that
// window whose range overlaps or touches the batch is folded into it, and
// the batch range grows to the union. When the window elapses the batch is
// detached, fetched once, and each caller receives its own slice with
// cursors computed from its own offset and limit.
//
// Example usage:
//
//	loader := coalesce.NewLoader(fetchAlbums, coalesce.DefaultConfig())
//	page, err := loader.Load(ctx, 40, 20)
//
// Properties:
//   - one fetch per batch, covering the union of all joined ranges
//   - a failed fetch delivers the same error to every caller in the batch
//   - the lock covers only the pending-batch slot, never the fetch
//   - batches formed in different windows are never deduplicated
//   - there is no cap on batch width or waiter count
package coalesce
