// Package metrics records synchronisation outcomes for prometheus.
//
// paramdocs runs as a short-lived command, so nothing is served over HTTP; the
// collected values are written to a node_exporter textfile instead.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync results
const (
	ResultUpdated   = "updated"
	ResultUnchanged = "unchanged"
	ResultEmpty     = "empty"
	ResultMissing   = "missing"
	ResultFailed    = "failed"
)

// Recorder owns a private registry and the paramdocs collectors. A nil Recorder
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	syncTotal    *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	discovered   *prometheus.GaugeVec
	lockRetries  prometheus.Counter
	missing      *prometheus.GaugeVec
}

// New creates a recorder with all collectors registered
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		syncTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paramdocs_sync_total",
				Help: "Total number of section synchronisations by result",
			},
			[]string{"section", "result"},
		),
		syncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paramdocs_sync_duration_seconds",
				Help:    "Duration of section synchronisations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"section"},
		),
		discovered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "paramdocs_discovered_parameters",
				Help: "Number of parameters discovered in the last run",
			},
			[]string{"section"},
		),
		lockRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "paramdocs_lock_retries_total",
				Help: "Total number of failed attempts to lock the document",
			},
		),
		missing: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "paramdocs_audit_missing_parameters",
				Help: "Number of documented parameters absent from their source in the last audit",
			},
			[]string{"section"},
		),
	}
}

// RecordSync records one synchronisation of section
func (r *Recorder) RecordSync(section, result string, durationSeconds float64) {
	if r == nil {
		return
	}
	r.syncTotal.WithLabelValues(section, result).Inc()
	r.syncDuration.WithLabelValues(section).Observe(durationSeconds)
}

// RecordDiscovered records how many parameters were discovered for section
func (r *Recorder) RecordDiscovered(section string, count int) {
	if r == nil {
		return
	}
	r.discovered.WithLabelValues(section).Set(float64(count))
}

// RecordLockRetry counts one failed lock attempt
func (r *Recorder) RecordLockRetry() {
	if r == nil {
		return
	}
	r.lockRetries.Inc()
}

// RecordMissing records how many parameters an audit could not find
func (r *Recorder) RecordMissing(section string, count int) {
	if r == nil {
		return
	}
	r.missing.WithLabelValues(section).Set(float64(count))
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile atomically writes every collected metric to path in the text
// exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
