// Package metrics exports the totals of a run in the Prometheus text format
// so node-exporter style collectors can pick them up from a file.
package metrics

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bgricker/testbridge/internal/report"
)

const MetricsNamespace = "testbridge"

var labels = []string{"product", "run_id"}

// Recorder holds the run metrics on a registry of its own.
type Recorder struct {
	registry *prometheus.Registry
	log      log.Logger

	tests    *prometheus.GaugeVec
	passed   *prometheus.GaugeVec
	failed   *prometheus.GaugeVec
	errors   *prometheus.GaugeVec
	duration *prometheus.GaugeVec
	cases    *prometheus.CounterVec
}

// New creates a recorder. logger may be nil.
func New(logger log.Logger) *Recorder {
	if logger == nil {
		logger = log.New()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		log:      logger.New("component", "metrics"),
		tests: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "records_total",
			Help:      "Number of top-level result records in the run",
		}, labels),
		passed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "records_passed",
			Help:      "Number of records that passed",
		}, labels),
		failed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "records_failed",
			Help:      "Number of records with failures or errors",
		}, labels),
		errors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "errors_total",
			Help:      "Failures and errors reported during the run",
		}, labels),
		duration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the run",
		}, labels),
		cases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "cases_total",
			Help:      "Test cases by outcome",
		}, append(append([]string{}, labels...), "status")),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Record sets the run gauges from s and counts every case by status.
func (r *Recorder) Record(s report.Summary) {
	lv := []string{s.Product, s.RunID}
	r.tests.WithLabelValues(lv...).Set(float64(s.TotalTests))
	r.passed.WithLabelValues(lv...).Set(float64(s.Passed))
	r.failed.WithLabelValues(lv...).Set(float64(s.Failed))
	r.errors.WithLabelValues(lv...).Set(float64(s.TotalErrors))
	r.duration.WithLabelValues(lv...).Set(s.Duration.Seconds())
	for _, rec := range s.Records {
		for _, c := range rec.Cases {
			r.cases.WithLabelValues(s.Product, s.RunID, c.Status).Inc()
		}
	}
	r.log.Debug("metrics recorded", "run_id", s.RunID, "records", s.TotalTests)
}

// WriteTextfile writes every metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %q: %w", path, err)
	}
	return nil
}
