package service

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

const (
	// anomalyMinSamples is the minimum rolling-history size before a metric
	// is eligible for statistical assessment.
	anomalyMinSamples = 10
	// anomalyZScore is the z threshold above which a value counts as an
	// outlier.
	anomalyZScore = 3.0
	// DefaultConfidenceThreshold filters the detection result set.
	DefaultConfidenceThreshold = 0.8
)

// DetectAnomalies assesses each metric in the snapshot against its rolling
// history using a Gaussian z-score. Metrics with fewer than ten prior
// samples or zero variance are skipped: no variance means no statistically
// meaningful anomaly. Detection reads history without mutating it and is
// fully independent of threshold rules; a value can be below every
// configured threshold and still be an unprecedented statistical low.
//
// Only results with confidence >= confidenceThreshold are returned.
func (m *Monitor) DetectAnomalies(snapshot map[model.Metric]float64, confidenceThreshold float64) []model.AnomalyDetection {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var out []model.AnomalyDetection
	for metric, current := range snapshot {
		hist := m.metrics.values(metric)
		if len(hist) < anomalyMinSamples {
			continue
		}
		mu := mean(hist)
		sd := sampleStdDev(hist)
		if sd == 0 {
			continue
		}
		z := math.Abs(current-mu) / sd
		confidence := math.Min(z/anomalyZScore, 1.0)
		if confidence < confidenceThreshold {
			continue
		}
		det := model.AnomalyDetection{
			Metric:         metric,
			CurrentValue:   current,
			ExpectedLow:    mu - 2*sd,
			ExpectedHigh:   mu + 2*sd,
			IsAnomaly:      z > anomalyZScore,
			Confidence:     confidence,
			HistoricalMean: mu,
			HistoricalStd:  sd,
			Timestamp:      now,
		}
		out = append(out, det)
		if det.IsAnomaly {
			m.anomaliesFound++
			anomaliesDetectedTotal.Inc()
			log.Warn().Str("metric", string(metric)).Float64("value", current).
				Float64("mean", mu).Float64("stddev", sd).Float64("z", z).
				Msg("statistical anomaly detected")
		}
	}
	return out
}
