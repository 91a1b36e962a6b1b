// Package metrics provides the Prometheus registry and scrape handler for the catalog pager.
// All metrics are defined in their respective packages (coalesce, pagination, upstream,
// redislist) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the catalog pager.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer scraped by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler exposing every registered metric.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Coalescing Metrics (pkg/coalesce):
//   - catalog_coalesce_requests_total{loader} (Counter): Page requests received
//   - catalog_coalesce_batches_total{loader} (Counter): Upstream fetches dispatched
//   - catalog_coalesce_batch_waiters{loader} (Histogram): Requests served per fetch
//   - catalog_coalesce_batch_width_items{loader} (Histogram): Width of the fetched range
//   - catalog_coalesce_fetch_errors_total{loader} (Counter): Failed coalesced fetches
//
// Full Fetch Metrics (pkg/pagination):
//   - catalog_fullfetch_pages_total (Counter): Non-empty pages fetched
//   - catalog_fullfetch_discarded_pages_total (Counter): Pages dropped past the discovered end
//   - catalog_fullfetch_failures_total (Counter): Full fetches aborted by a page error
//   - catalog_fullfetch_duration_seconds (Histogram): Full fetch duration
//
// Upstream Metrics (pkg/upstream):
//   - catalog_upstream_requests_total{path, status} (Counter): Requests by path and HTTP status
//   - catalog_upstream_request_duration_seconds{path} (Histogram): Request duration by path
//   - catalog_upstream_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Redis List Metrics (pkg/redislist):
//   - catalog_redis_list_reads_total{entity} (Counter): LRANGE page reads
//   - catalog_redis_list_items_read_total{entity} (Counter): Items returned by page reads
//   - catalog_redis_list_errors_total{operation} (Counter): Redis list operation errors
//
// Example Prometheus Queries:
//
//   # Average requests folded into one fetch
//   sum(rate(catalog_coalesce_requests_total[5m])) / sum(rate(catalog_coalesce_batches_total[5m]))
//
//   # Upstream error rate
//   rate(catalog_upstream_errors_total[5m])
//
//   # P95 full fetch duration
//   histogram_quantile(0.95, rate(catalog_fullfetch_duration_seconds_bucket[5m]))
