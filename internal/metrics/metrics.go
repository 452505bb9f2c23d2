package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quotechart"

// Metrics holds the collectors for one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Ticks         *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	LastPrice     prometheus.Gauge
	SeriesPoints  prometheus.Gauge
	Viewers       prometheus.Gauge
	ChartRenders  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Poll ticks by outcome (ok, nan, network, parse, schema, canceled, unknown).",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one fetch+extract.",
			Buckets:   prometheus.DefBuckets,
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_price",
			Help:      "Most recently plotted price.",
		}),
		SeriesPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "series_points",
			Help:      "Number of points in the plotted series.",
		}),
		Viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_viewers",
			Help:      "Connected websocket viewers.",
		}),
		ChartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_renders_total",
			Help:      "Chart renders by format and cache result.",
		}, []string{"format", "cache"}),
	}
	m.Registry.MustRegister(
		m.Ticks,
		m.FetchDuration,
		m.LastPrice,
		m.SeriesPoints,
		m.Viewers,
		m.ChartRenders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveTick(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(took.Seconds())
}

func (m *Metrics) ObservePoint(value float64, points int) {
	if m == nil {
		return
	}
	m.LastPrice.Set(value)
	m.SeriesPoints.Set(float64(points))
}

func (m *Metrics) SetViewers(n int) {
	if m == nil {
		return
	}
	m.Viewers.Set(float64(n))
}

func (m *Metrics) ObserveRender(format string, cached bool) {
	if m == nil {
		return
	}
	result := "miss"
	if cached {
		result = "hit"
	}
	m.ChartRenders.WithLabelValues(format, result).Inc()
}
