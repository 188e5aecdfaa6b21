package service

import (
	"time"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// metricHistoryCap bounds the rolling sample window kept per metric.
const metricHistoryCap = 100

// metricHistory keeps a fixed-capacity rolling sample window per metric.
// Every metric observed by CheckMetrics is recorded here whether or not any
// rule references it, so anomaly baselines exist even for un-alarmed metrics.
// Not safe for concurrent use; the owning Monitor serializes access.
type metricHistory struct {
	samples map[model.Metric][]model.MetricSample
	cap     int
}

func newMetricHistory(capacity int) *metricHistory {
	if capacity <= 0 {
		capacity = metricHistoryCap
	}
	return &metricHistory{samples: make(map[model.Metric][]model.MetricSample), cap: capacity}
}

// append records a sample, evicting the oldest once the window is full.
func (h *metricHistory) append(metric model.Metric, value float64, at time.Time) {
	s := h.samples[metric]
	if len(s) >= h.cap {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	h.samples[metric] = append(s, model.MetricSample{Value: value, Timestamp: at})
}

// window returns samples for metric newer than cutoff, oldest first.
func (h *metricHistory) window(metric model.Metric, cutoff time.Time) []model.MetricSample {
	s := h.samples[metric]
	// samples are appended in time order; find the first one inside the window
	i := 0
	for i < len(s) && !s[i].Timestamp.After(cutoff) {
		i++
	}
	out := make([]model.MetricSample, len(s)-i)
	copy(out, s[i:])
	return out
}

// values returns every retained sample value for metric, oldest first.
func (h *metricHistory) values(metric model.Metric) []float64 {
	s := h.samples[metric]
	out := make([]float64, len(s))
	for i, sm := range s {
		out[i] = sm.Value
	}
	return out
}
