// Package metrics exposes the Prometheus instruments for scanning and
// routing-provider traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the application's private prometheus registry.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// ProviderCallsTotal counts routing-provider attempts by provider and
// outcome (ok / error).
var ProviderCallsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "routing",
	Name:      "provider_calls_total",
	Help:      "Routing provider calls by provider name and outcome",
}, []string{"provider", "outcome"})

// ProviderDurationSeconds tracks routed-distance call latency.
var ProviderDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "routing",
	Name:      "provider_duration_seconds",
	Help:      "Latency of routing provider calls",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
})

// CacheHitsTotal counts routed-distance cache hits and misses.
var CacheHitsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "routing",
	Name:      "cache_requests_total",
	Help:      "Routed-distance cache lookups by result (hit / miss)",
}, []string{"result"})

// ScanDurationSeconds tracks the full gap-scan duration per request.
var ScanDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "scheduling",
	Name:      "scan_duration_seconds",
	Help:      "Time taken to scan all technicians for gaps",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
})

// GapsFoundTotal counts raw gap candidates emitted by the scanner.
var GapsFoundTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "scheduling",
	Name:      "gaps_found_total",
	Help:      "Raw gap candidates emitted across all scans",
})

// TechniciansSkippedTotal counts technicians excluded from a scan by reason.
var TechniciansSkippedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduling",
	Name:      "technicians_skipped_total",
	Help:      "Technicians skipped during scanning by reason",
}, []string{"reason"})
