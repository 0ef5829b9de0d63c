package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reseed tracks the outcome of a single reseed run.
type Reseed struct {
	registry *prometheus.Registry

	FindDuration   prometheus.Histogram
	Outcomes       *prometheus.CounterVec
	TokensConsumed prometheus.Gauge
	LastRun        prometheus.Gauge
}

// NewReseed registers the reseed instruments on a private registry.
func NewReseed() *Reseed {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Reseed{
		registry: reg,
		FindDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ptpkit_reseed_find_duration_seconds",
			Help:    "Time spent matching one path to a tracker torrent",
			Buckets: prometheus.DefBuckets,
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ptpkit_reseed_outcomes_total",
			Help: "Reseed outcomes by status",
		}, []string{"status"}),
		TokensConsumed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ptpkit_tracker_tokens_consumed",
			Help: "Rate limiter tokens consumed by the last run",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ptpkit_reseed_last_run_timestamp_seconds",
			Help: "Unix time the last reseed run finished",
		}),
	}
}

// ObserveFind records how long one match attempt took.
func (m *Reseed) ObserveFind(d time.Duration) {
	m.FindDuration.Observe(d.Seconds())
}

// Outcome counts one recorded path outcome.
func (m *Reseed) Outcome(status string) {
	m.Outcomes.WithLabelValues(status).Inc()
}

// WriteTextfile stamps the finish time and writes the registry to path in
// the text exposition format. The file is replaced atomically.
func (m *Reseed) WriteTextfile(path string, finished time.Time) error {
	m.LastRun.Set(float64(finished.Unix()))
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
