package redislist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ListReads tracks LRANGE page reads by entity
	ListReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_redis_list_reads_total",
			Help: "Total number of page reads from Redis lists",
		},
		[]string{"entity"},
	)

	// ListItemsRead tracks items returned by page reads
	ListItemsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_redis_list_items_read_total",
			Help: "Total number of items read from Redis lists",
		},
		[]string{"entity"},
	)

	// ListErrors tracks Redis list operation errors
	ListErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_redis_list_errors_total",
			Help: "Total number of Redis list operation errors",
		},
		[]string{"operation"}, // "lrange", "rpush", "llen", "delete", "encode", "decode"
	)
)
