package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics that are exposed by the application.

// httpRequestsTotal counts requests served by the HTTP adapter, partitioned by
// path, method and resulting status code.
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skycast_http_requests_total",
	Help: "Total number of HTTP requests by path, method and code.",
}, []string{"path", "method", "code"})

// upstreamRequestsTotal counts calls to the weather API by endpoint and by
// outcome ("ok" or a failure kind).
var upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skycast_upstream_requests_total",
	Help: "Total number of weather API requests by endpoint and outcome.",
}, []string{"endpoint", "outcome"})

// searchDispatchesTotal counts debounced searches that actually fired.
var searchDispatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "skycast_search_dispatches_total",
	Help: "Total number of location searches dispatched after the debounce window.",
})

// externalRequestDuration observes the latency of outbound calls, labelled by
// upstream host.
var externalRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "skycast_external_request_duration_seconds",
	Help:    "Duration of requests to external APIs by host.",
	Buckets: prometheus.DefBuckets,
}, []string{"host"})
