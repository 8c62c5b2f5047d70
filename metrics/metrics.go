// Package metrics exposes Prometheus collectors for lookups and favorites.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	lookupsTotal      *prometheus.CounterVec
	lookupDuration    prometheus.Histogram
	busyRejections    prometheus.Counter
	favoritesCount    prometheus.Gauge
	persistenceErrors *prometheus.CounterVec
}

// New creates a collector with all metrics registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutriinfo_lookups_total",
				Help: "Nutrition lookups by outcome",
			},
			[]string{"outcome"},
		),
		lookupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nutriinfo_lookup_duration_seconds",
				Help:    "Time from submit to success or error",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
		),
		busyRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nutriinfo_busy_rejections_total",
				Help: "Submissions rejected while a lookup was in flight",
			},
		),
		favoritesCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nutriinfo_favorites",
				Help: "Recipes currently in the favorites set",
			},
		),
		persistenceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutriinfo_persistence_errors_total",
				Help: "Storage failures by operation",
			},
			[]string{"op"},
		),
	}
}

// ObserveLookup records one finished lookup.
func (c *Collector) ObserveLookup(outcome string, took time.Duration) {
	c.lookupsTotal.WithLabelValues(outcome).Inc()
	c.lookupDuration.Observe(took.Seconds())
}

// BusyRejected counts a submission refused because another was in flight.
func (c *Collector) BusyRejected() {
	c.busyRejections.Inc()
}

// SetFavorites records the favorites set size.
func (c *Collector) SetFavorites(n int) {
	c.favoritesCount.Set(float64(n))
}

// PersistenceFailed counts a storage failure for op ("load" or "save").
func (c *Collector) PersistenceFailed(op string) {
	c.persistenceErrors.WithLabelValues(op).Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
