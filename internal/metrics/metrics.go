// Package metrics holds the prometheus collectors shared by the services.
// Everything is registered on the default registry and served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SchedulerCycles counts publication cycles by result
	// (created, existing, no_candidates, failed).
	SchedulerCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qotd_scheduler_cycles_total",
		Help: "Total question publication cycles by result",
	}, []string{"result"})

	// EditorialSource counts which branch produced the stored editorial.
	EditorialSource = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qotd_editorial_source_total",
		Help: "Editorials stored by source (generated, fallback)",
	}, []string{"source"})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qotd_verifications_total",
		Help: "Total solve verifications by verdict",
	}, []string{"verdict"})

	LeaderboardCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qotd_leaderboard_cache_total",
		Help: "Leaderboard cache lookups by result (hit, miss)",
	}, []string{"result"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qotd_upstream_request_duration_seconds",
		Help:    "Latency of calls to external services",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"upstream", "outcome"})
)

// ObserveUpstream records the latency of one external call since start.
func ObserveUpstream(upstream string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	UpstreamDuration.WithLabelValues(upstream, outcome).Observe(time.Since(start).Seconds())
}
