// Package metrics provides Prometheus metrics for APOD API requests.
package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "apod"

// Recorder records fetch observations into Prometheus collectors. It
// satisfies apod.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	// FetchTotal counts completed operations by outcome
	FetchTotal *prometheus.CounterVec
	// FetchDuration measures operations that reached the transport
	FetchDuration *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Total number of APOD fetch operations",
			},
			[]string{"operation", "outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of APOD requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	r.registry.MustRegister(r.FetchTotal, r.FetchDuration)
	return r
}

// Registry returns the registry the collectors are registered with
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records one operation. Operations rejected before reaching
// the transport report a zero duration and are not added to the histogram.
func (r *Recorder) ObserveFetch(operation, outcome string, duration time.Duration) {
	r.FetchTotal.WithLabelValues(operation, outcome).Inc()
	if duration > 0 {
		r.FetchDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// Sample is a single counter value with its labels
type Sample struct {
	Operation string
	Outcome   string
	Count     float64
}

// Snapshot returns the current fetch counters, sorted by operation then outcome
func (r *Recorder) Snapshot() ([]Sample, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, family := range families {
		if family.GetName() != namespace+"_fetch_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			s := Sample{Count: m.GetCounter().GetValue()}
			for _, label := range m.GetLabel() {
				switch label.GetName() {
				case "operation":
					s.Operation = label.GetValue()
				case "outcome":
					s.Outcome = label.GetValue()
				}
			}
			samples = append(samples, s)
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Operation != samples[j].Operation {
			return samples[i].Operation < samples[j].Operation
		}
		return samples[i].Outcome < samples[j].Outcome
	})
	return samples, nil
}
