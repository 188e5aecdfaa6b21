package model

import "time"

// AnomalyDetection is a transient result of one statistical detection pass.
// It is returned to the caller and never stored.
type AnomalyDetection struct {
	Metric         Metric    `json:"metric"`
	CurrentValue   float64   `json:"current_value"`
	ExpectedLow    float64   `json:"expected_low"`  // historical mean - 2*stddev
	ExpectedHigh   float64   `json:"expected_high"` // historical mean + 2*stddev
	IsAnomaly      bool      `json:"is_anomaly"`
	Confidence     float64   `json:"confidence"` // z/3 capped at 1.0
	HistoricalMean float64   `json:"historical_mean"`
	HistoricalStd  float64   `json:"historical_stddev"`
	Timestamp      time.Time `json:"timestamp"`
}

// ComplianceStatus is the transient result of a point-in-time control check.
type ComplianceStatus struct {
	Framework      string    `json:"framework"`
	Score          float64   `json:"score"` // 0-100, percentage of controls passing
	Passing        bool      `json:"passing"`
	FailedControls []string  `json:"failed_controls"`
	LastAssessed   time.Time `json:"last_assessed"`
	NextAssessment time.Time `json:"next_assessment"` // fixed +30 days
}

// TrendDirection classifies how a metric moved over the requested window.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// MetricTrend summarizes a metric's recent window for the query surface.
type MetricTrend struct {
	Metric    Metric         `json:"metric"`
	WindowMin int            `json:"window_minutes"`
	Count     int            `json:"count"`
	Min       float64        `json:"min"`
	Max       float64        `json:"max"`
	Mean      float64        `json:"mean"`
	Median    float64        `json:"median"`
	StdDev    float64        `json:"stddev"`
	Current   float64        `json:"current"`
	Direction TrendDirection `json:"direction"`
}

// Statistics aggregates monitor-wide counters for the query surface.
type Statistics struct {
	TotalSessions    int                         `json:"total_sessions"`
	ActiveSessions   int                         `json:"active_sessions"`
	TotalAlerts      int                         `json:"total_alerts"`
	ActiveAlerts     int                         `json:"active_alerts"`
	AlertsBySeverity map[Severity]int            `json:"alerts_by_severity"`
	AlertsByChannel  map[NotificationChannel]int `json:"alerts_by_channel"`
	AnomaliesFound   int                         `json:"anomalies_detected"`
	ComplianceChecks int                         `json:"compliance_checks_performed"`
}
