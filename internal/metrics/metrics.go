// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinescout",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinescout",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
	}, []string{"method", "route"})

	CatalogRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinescout",
		Name:      "catalog_requests_total",
		Help:      "Total catalog requests by endpoint and outcome (ok, domain_error, transport_error, cached).",
	}, []string{"endpoint", "outcome"})

	CatalogRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinescout",
		Name:      "catalog_request_duration_seconds",
		Help:      "Catalog request duration in seconds, retries included.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinescout",
		Name:      "searches_total",
		Help:      "Settled search pipeline runs by phase (success, error, stale).",
	}, []string{"phase"})

	TrendingIncrementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinescout",
		Name:      "trending_increments_total",
		Help:      "Trending counter increments by outcome (ok, error, blocked).",
	}, []string{"outcome"})

	TrendingTerms = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinescout",
		Name:      "trending_terms",
		Help:      "Number of distinct search terms in the trending store.",
	})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinescout",
		Name:      "active_sessions",
		Help:      "Number of live search sessions.",
	})
)

// Register registers all collectors with reg
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CatalogRequestsTotal,
		CatalogRequestDuration,
		SearchesTotal,
		TrendingIncrementsTotal,
		TrendingTerms,
		ActiveSessions,
	)
}
