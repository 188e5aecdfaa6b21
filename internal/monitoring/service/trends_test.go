package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

func TestGetMetricTrends(t *testing.T) {
	clock := newFakeClock()
	m := newTestMonitor(clock)
	seedHistory(t, m, clock, model.MetricOpenPortCount, []float64{10, 12, 20, 24})

	trend, ok := m.GetMetricTrends(model.MetricOpenPortCount, 60)
	require.True(t, ok)
	assert.Equal(t, model.MetricOpenPortCount, trend.Metric)
	assert.Equal(t, 4, trend.Count)
	assert.Equal(t, 10.0, trend.Min)
	assert.Equal(t, 24.0, trend.Max)
	assert.Equal(t, 16.5, trend.Mean)
	assert.Equal(t, 16.0, trend.Median)
	assert.Equal(t, 24.0, trend.Current)
	assert.Equal(t, model.TrendRising, trend.Direction)
}

func TestGetMetricTrendsDirections(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   model.TrendDirection
	}{
		{"rising", []float64{1, 1, 2, 2}, model.TrendRising},
		{"falling", []float64{20, 22, 10, 8}, model.TrendFalling},
		{"flat", []float64{10, 10, 10, 10}, model.TrendStable},
		{"inside the band", []float64{100, 100, 102, 102}, model.TrendStable},
		{"negative inside the band", []float64{-100, -100, -102, -102}, model.TrendStable},
		{"negative falling", []float64{-100, -100, -110, -110}, model.TrendFalling},
		{"negative rising", []float64{-110, -110, -100, -100}, model.TrendRising},
		{"zero baseline", []float64{0, 0, 1, 1}, model.TrendRising},
		{"too short", []float64{1, 100, 200}, model.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			m := newTestMonitor(clock)
			seedHistory(t, m, clock, model.MetricFailedLoginRate, tt.values)

			trend, ok := m.GetMetricTrends(model.MetricFailedLoginRate, 60)
			require.True(t, ok)
			assert.Equal(t, tt.want, trend.Direction)
		})
	}
}

func TestGetMetricTrendsWindowing(t *testing.T) {
	clock := newFakeClock()
	m := newTestMonitor(clock)

	// two old samples, then a two hour gap, then two fresh ones
	seedHistory(t, m, clock, model.MetricCertExpiryDays, []float64{90, 89})
	clock.Advance(2 * time.Hour)
	seedHistory(t, m, clock, model.MetricCertExpiryDays, []float64{30, 29})

	trend, ok := m.GetMetricTrends(model.MetricCertExpiryDays, 30)
	require.True(t, ok)
	assert.Equal(t, 2, trend.Count, "samples outside the window must be excluded")
	assert.Equal(t, 30.0, trend.Max)

	wide, ok := m.GetMetricTrends(model.MetricCertExpiryDays, 24*60)
	require.True(t, ok)
	assert.Equal(t, 4, wide.Count)
	assert.Equal(t, model.TrendFalling, wide.Direction)
}

func TestGetMetricTrendsNoSamples(t *testing.T) {
	m := newTestMonitor(nil)
	_, ok := m.GetMetricTrends(model.MetricOpenPortCount, 60)
	assert.False(t, ok)

	// samples exist but the window is too narrow
	clock := newFakeClock()
	m = newTestMonitor(clock)
	seedHistory(t, m, clock, model.MetricOpenPortCount, []float64{5})
	clock.Advance(3 * time.Hour)
	_, ok = m.GetMetricTrends(model.MetricOpenPortCount, 10)
	assert.False(t, ok)
}
