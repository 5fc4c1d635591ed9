package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for a bot run plus a health
// status for the /health endpoint.
type Metrics struct {
	StationsFetched    prometheus.Counter
	StationFetchErrors prometheus.Counter
	StationWaitSeconds prometheus.Histogram
	ReportsBuilt       prometheus.Counter
	ArticlesSelected   *prometheus.CounterVec // labels: origin={primary,secondary,backup}
	PostsPublished     prometheus.Counter
	PostLength         prometheus.Gauge
	RunDuration        prometheus.Histogram

	mu            sync.RWMutex
	lastRunTime   time.Time
	lastErrorTime time.Time
	lastError     string
	healthy       bool
}

func newCollectors() *Metrics {
	return &Metrics{
		StationsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqibot",
			Name:      "stations_fetched_total",
			Help:      "Station forecasts fetched from WAQI.",
		}),
		StationFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqibot",
			Name:      "station_fetch_errors_total",
			Help:      "Station forecast fetches that failed.",
		}),
		StationWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqibot",
			Name:      "station_wait_seconds",
			Help:      "Time each station request waited for the pacer.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ReportsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqibot",
			Name:      "reports_built_total",
			Help:      "Air quality reports rendered.",
		}),
		ArticlesSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqibot",
			Name:      "articles_selected_total",
			Help:      "Articles chosen for a post by origin.",
		}, []string{"origin"}),
		PostsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqibot",
			Name:      "posts_published_total",
			Help:      "Posts sent to Bluesky.",
		}),
		PostLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqibot",
			Name:      "post_length_chars",
			Help:      "Length of the last assembled post in characters.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqibot",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-report-select-post run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		healthy: true,
	}
}

// NewMetrics creates the collectors and registers them with the default registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(
		m.StationsFetched,
		m.StationFetchErrors,
		m.StationWaitSeconds,
		m.ReportsBuilt,
		m.ArticlesSelected,
		m.PostsPublished,
		m.PostLength,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}

func (m *Metrics) SetLastRun(duration time.Duration) {
	m.RunDuration.Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRunTime = time.Now()
	m.healthy = true
}

func (m *Metrics) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
	m.lastErrorTime = time.Now()
	m.healthy = false
}

// Healthy reports whether the last run finished without error.
func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"last_run_time":   m.lastRunTime.Format(time.RFC3339),
		"last_error_time": m.lastErrorTime.Format(time.RFC3339),
		"last_error":      m.lastError,
		"is_healthy":      m.healthy,
	}
}
