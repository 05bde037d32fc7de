package scatter

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes engine counters on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	picks         *prometheus.CounterVec
	indexRebuilds prometheus.Counter
	staleDiscards *prometheus.CounterVec
	centerQueries prometheus.Counter
	reallocations prometheus.Counter
	drawDuration  prometheus.Histogram
}

// NewMetrics creates a fresh registry with the engine metrics registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	picks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "latentmap",
		Name:      "picks_total",
		Help:      "Pick queries answered, by outcome",
	}, []string{"result"})

	indexRebuilds := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "latentmap",
		Name:      "index_rebuilds_total",
		Help:      "Spatial index builds applied",
	})

	staleDiscards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "latentmap",
		Name:      "stale_discards_total",
		Help:      "Results dropped because the point set changed underneath them",
	}, []string{"kind"})

	centerQueries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "latentmap",
		Name:      "center_queries_total",
		Help:      "Viewport-center nearest-N queries published",
	})

	reallocations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "latentmap",
		Name:      "buffer_reallocations_total",
		Help:      "Full point buffer reallocations",
	})

	drawDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "latentmap",
		Name:      "draw_duration_seconds",
		Help:      "Time spent submitting one frame",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})

	registry.MustRegister(picks, indexRebuilds, staleDiscards, centerQueries, reallocations, drawDuration)

	return &Metrics{
		registry:      registry,
		picks:         picks,
		indexRebuilds: indexRebuilds,
		staleDiscards: staleDiscards,
		centerQueries: centerQueries,
		reallocations: reallocations,
		drawDuration:  drawDuration,
	}
}

func (m *Metrics) ObservePick(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.picks.WithLabelValues(result).Inc()
}

func (m *Metrics) IncIndexRebuild() {
	if m == nil {
		return
	}
	m.indexRebuilds.Inc()
}

func (m *Metrics) IncStaleDiscard(kind string) {
	if m == nil {
		return
	}
	m.staleDiscards.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncCenterQuery() {
	if m == nil {
		return
	}
	m.centerQueries.Inc()
}

func (m *Metrics) IncReallocation() {
	if m == nil {
		return
	}
	m.reallocations.Inc()
}

func (m *Metrics) ObserveDraw(d time.Duration) {
	if m == nil {
		return
	}
	m.drawDuration.Observe(d.Seconds())
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
