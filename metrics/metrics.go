package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of the bot. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	CellsTotal       *prometheus.CounterVec
	CellLatency      *prometheus.HistogramVec
	ListingsDetected *prometheus.CounterVec
	SnapshotSize     *prometheus.GaugeVec
	CacheLookups     *prometheus.CounterVec
}

// New registers the collectors on reg, a fresh registry when nil.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		CellsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptobot_ticker_cells_total",
			Help: "Ticker cells produced by the aggregator, by exchange and outcome",
		}, []string{"exchange", "outcome"}),

		CellLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cryptobot_ticker_cell_seconds",
			Help:    "Time to resolve and fetch one (exchange, asset) cell",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"exchange"}),

		ListingsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptobot_listings_detected_total",
			Help: "New tracked-asset listings detected by snapshot diff",
		}, []string{"exchange"}),

		SnapshotSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cryptobot_listing_snapshot_symbols",
			Help: "Symbols in the latest tradable snapshot per exchange",
		}, []string{"exchange"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptobot_scanner_cache_lookups_total",
			Help: "Scanner cache lookups by scanner and result",
		}, []string{"scanner", "result"}),
	}
}

func (m *Metrics) RecordCell(exchange, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CellsTotal.WithLabelValues(exchange, outcome).Inc()
	m.CellLatency.WithLabelValues(exchange).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordListing(exchange string) {
	if m == nil {
		return
	}
	m.ListingsDetected.WithLabelValues(exchange).Inc()
}

func (m *Metrics) RecordSnapshotSize(exchange string, size int) {
	if m == nil {
		return
	}
	m.SnapshotSize.WithLabelValues(exchange).Set(float64(size))
}

func (m *Metrics) RecordCacheLookup(scanner string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(scanner, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
