package model

import "time"

// MonitoringSession groups a sequence of metric checks against one named
// target. ActiveRules is a snapshot of enabled rule ids taken at start time
// and is not live-updated when the registry changes mid-session.
type MonitoringSession struct {
	SessionID       string    `json:"session_id"`
	Target          string    `json:"target"`
	StartedAt       time.Time `json:"started_at"`
	MonitoringLevel string    `json:"monitoring_level"`
	ActiveRules     []string  `json:"active_rules"`
	AlertsGenerated int       `json:"alerts_generated"`
	LastCheck       time.Time `json:"last_check"`
}

// MetricSample is one observed value in a metric's rolling history.
type MetricSample struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
