package service

import (
	"math"
	"time"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// trendBand is the relative change below which a metric counts as stable.
const trendBand = 0.05

// GetMetricTrends summarizes a metric's samples over the recent window.
// Returns false when no sample falls inside the window.
func (m *Monitor) GetMetricTrends(metric model.Metric, windowMinutes int) (model.MetricTrend, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-time.Duration(windowMinutes) * time.Minute)
	samples := m.metrics.window(metric, cutoff)
	if len(samples) == 0 {
		return model.MetricTrend{}, false
	}

	vs := make([]float64, len(samples))
	minV, maxV := samples[0].Value, samples[0].Value
	for i, s := range samples {
		vs[i] = s.Value
		if s.Value < minV {
			minV = s.Value
		}
		if s.Value > maxV {
			maxV = s.Value
		}
	}

	return model.MetricTrend{
		Metric:    metric,
		WindowMin: windowMinutes,
		Count:     len(vs),
		Min:       minV,
		Max:       maxV,
		Mean:      mean(vs),
		Median:    median(vs),
		StdDev:    sampleStdDev(vs),
		Current:   vs[len(vs)-1],
		Direction: trendDirection(vs),
	}, true
}

// trendDirection compares the newer half of the window against the older
// half; moves inside a 5% band count as stable. Short windows are stable by
// definition.
func trendDirection(vs []float64) model.TrendDirection {
	if len(vs) < 4 {
		return model.TrendStable
	}
	mid := len(vs) / 2
	older := mean(vs[:mid])
	newer := mean(vs[mid:])
	// The band is relative to the magnitude of the older half, so it works
	// the same for negative means. A zero baseline makes any move a trend.
	delta := newer - older
	switch {
	case math.Abs(delta) <= trendBand*math.Abs(older):
		return model.TrendStable
	case delta > 0:
		return model.TrendRising
	default:
		return model.TrendFalling
	}
}
