// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine's collectors so they can be passed around
// as one value instead of package globals.
type Metrics struct {
	SweepsTotal      *prometheus.CounterVec
	SweepDuration    prometheus.Histogram
	BotRunsTotal     *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	CacheHitsTotal   *prometheus.CounterVec
	ReadsTotal       *prometheus.CounterVec
}

// New registers the engine collectors on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SweepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_sweeps_total",
			Help: "Asset sweeps performed, by cycle and delta outcome.",
		}, []string{"cycle", "delta"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "research_sweep_duration_seconds",
			Help:    "Wall-clock duration of one asset sweep.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		BotRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_bot_runs_total",
			Help: "Bot invocations by bot name and status.",
		}, []string{"bot", "status"}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_provider_requests_total",
			Help: "Outbound requests by provider.",
		}, []string{"provider"}),
		CacheHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_bot_cache_total",
			Help: "Per-bot cache lookups by outcome.",
		}, []string{"outcome"}),
		ReadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_reads_total",
			Help: "Read endpoint responses by serve source.",
		}, []string{"served_from"}),
	}
}

// NewNop returns metrics on a throwaway registry, for tests
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
