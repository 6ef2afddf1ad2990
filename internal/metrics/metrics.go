// Package metrics exposes the proxy's runtime counters via
// prometheus/client_golang.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "proxyserver"

// Metrics holds every counter/gauge the proxy updates. A nil *Metrics is not
// valid; use New to construct one, or thread a nil Engine.metrics through
// only in tests that don't care about observability.
type Metrics struct {
	InboundSessions  prometheus.Gauge
	OutboundSessions prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	ResolveFailures  prometheus.Counter
	ResolverQueued   prometheus.Gauge
}

// New registers and returns the proxy's metric set against reg. Pass
// prometheus.DefaultRegisterer for the global registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InboundSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "inbound_sessions",
			Help:      "Number of inbound client sessions currently open.",
		}),
		OutboundSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "outbound_sessions",
			Help:      "Number of outbound origin sessions currently open.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response_cache",
			Name:      "hits_total",
			Help:      "Number of requests whose URL already had a response cache entry when the origin request was sent.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response_cache",
			Name:      "misses_total",
			Help:      "Number of requests that found no usable response cache entry.",
		}),
		ResolveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "failures_total",
			Help:      "Number of resolve attempts that failed or timed out.",
		}),
		ResolverQueued: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "queued_tasks",
			Help:      "Approximate number of resolve tasks waiting on the worker pool.",
		}),
	}
}
