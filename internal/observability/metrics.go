package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for downloads and rendering.
type Metrics struct {
	Downloads        *prometheus.CounterVec   // labels: source={noaa,era5}, outcome={success,error}
	DownloadRetries  prometheus.Counter
	DownloadDuration *prometheus.HistogramVec // labels: source
	CacheLookups     *prometheus.CounterVec   // labels: result={hit,miss}
	Renders          *prometheus.CounterVec   // labels: kind={daily,monthly}
	StationsLoaded   prometheus.Gauge
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_viewer",
			Name:      "downloads_total",
			Help:      "Series downloads by data source and outcome.",
		}, []string{"source", "outcome"}),
		DownloadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_viewer",
			Name:      "download_retries_total",
			Help:      "Station downloads retried at concurrency 1.",
		}),
		DownloadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_viewer",
			Name:      "download_duration_seconds",
			Help:      "Duration of a complete series download.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_viewer",
			Name:      "cache_lookups_total",
			Help:      "Download cache lookups by result.",
		}, []string{"result"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_viewer",
			Name:      "renders_total",
			Help:      "Charts rendered by product kind.",
		}, []string{"kind"}),
		StationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_viewer",
			Name:      "stations_loaded",
			Help:      "Number of stations in the station directory.",
		}),
	}

	reg.MustRegister(
		m.Downloads,
		m.DownloadRetries,
		m.DownloadDuration,
		m.CacheLookups,
		m.Renders,
		m.StationsLoaded,
	)

	return m
}
