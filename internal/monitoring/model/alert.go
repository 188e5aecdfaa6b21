package model

import "time"

// MonitoringThreshold is the immutable condition owned by an alert rule.
// Replace the whole rule to change it; thresholds are never edited in place.
type MonitoringThreshold struct {
	Metric          Metric    `json:"metric" yaml:"metric"`
	Op              CompareOp `json:"op" yaml:"op"`
	Value           float64   `json:"value" yaml:"value"`
	Severity        Severity  `json:"severity" yaml:"severity"`
	Description     string    `json:"description" yaml:"description"`
	Enabled         bool      `json:"enabled" yaml:"enabled"`
	CooldownMinutes int       `json:"cooldown_minutes" yaml:"cooldown_minutes"`
}

// AlertRule is a named, addressable wrapper around a threshold. The registry
// holds at most one rule per RuleID; re-adding an id replaces the old rule.
type AlertRule struct {
	RuleID      string                `json:"rule_id" yaml:"rule_id"`
	Name        string                `json:"name" yaml:"name"`
	Description string                `json:"description" yaml:"description"`
	Threshold   MonitoringThreshold   `json:"threshold" yaml:"threshold"`
	Channels    []NotificationChannel `json:"channels" yaml:"channels"` // ordered, dispatch attempts follow this order
	Enabled     bool                  `json:"enabled" yaml:"enabled"`
	Tags        []string              `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// SecurityAlert is the central mutable entity produced when a rule fires.
// It references its rule by id only; deleting the rule leaves the alert as a
// valid historical record.
type SecurityAlert struct {
	AlertID          string                `json:"alert_id"`
	RuleID           string                `json:"rule_id"`
	Severity         Severity              `json:"severity"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Metric           Metric                `json:"metric"`
	CurrentValue     float64               `json:"current_value"`
	ThresholdValue   float64               `json:"threshold_value"`
	Timestamp        time.Time             `json:"timestamp"` // creation time, immutable
	Status           AlertStatus           `json:"status"`
	ChannelsNotified []NotificationChannel `json:"channels_notified"` // append-only, grows as dispatch succeeds
	AcknowledgedBy   string                `json:"acknowledged_by,omitempty"`
	AcknowledgedAt   *time.Time            `json:"acknowledged_at,omitempty"`
	ResolvedAt       *time.Time            `json:"resolved_at,omitempty"`
	ResolutionNotes  string                `json:"resolution_notes,omitempty"`
	Metadata         map[string]string     `json:"metadata,omitempty"` // includes originating session id when present
}

// Clone returns a deep copy so callers can hold alert snapshots without
// racing the monitor's own mutations.
func (a *SecurityAlert) Clone() *SecurityAlert {
	cp := *a
	cp.ChannelsNotified = append([]NotificationChannel(nil), a.ChannelsNotified...)
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		cp.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		cp.ResolvedAt = &t
	}
	if a.Metadata != nil {
		cp.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
