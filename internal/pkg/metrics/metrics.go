// Package metrics holds the prometheus collectors shared by the media store
// and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MediaOperations counts blob store calls by backend, operation and result.
	MediaOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carportal_media_operations_total",
			Help: "Media store operations by backend, operation and result",
		},
		[]string{"backend", "op", "result"},
	)

	// MediaIngestedBytes counts accepted attachment bytes.
	MediaIngestedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carportal_media_ingested_bytes_total",
			Help: "Bytes of accepted attachments by backend and category",
		},
		[]string{"backend", "category"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carportal_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carportal_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultMissing  = "missing"
)
