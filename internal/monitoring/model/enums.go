package model

// Metric names a numeric time series sampled by callers. The set below covers
// the scanner's built-in signals; arbitrary metric names are still accepted on
// ingestion, these constants just keep rule files and tests honest.
type Metric string

const (
	MetricCriticalVulnCount Metric = "critical_vuln_count"
	MetricHighVulnCount     Metric = "high_vuln_count"
	MetricFailedLoginRate   Metric = "failed_login_rate"
	MetricOpenPortCount     Metric = "open_port_count"
	MetricCertExpiryDays    Metric = "cert_expiry_days"
	MetricScanErrorRate     Metric = "scan_error_rate"
	MetricComplianceScore   Metric = "compliance_score"
)

// Severity is the alert severity code carried on rules and alerts.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the known severity codes.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// CompareOp is the comparison applied between a metric value and a threshold.
type CompareOp string

const (
	OpGreaterThan    CompareOp = "gt"
	OpGreaterOrEqual CompareOp = "gte"
	OpLessThan       CompareOp = "lt"
	OpLessOrEqual    CompareOp = "lte"
	OpEqual          CompareOp = "eq"
	OpNotEqual       CompareOp = "ne"
)

// Valid reports whether op is a supported comparison operator. Unknown
// operators never fire (see Evaluate in the service package).
func (op CompareOp) Valid() bool {
	switch op {
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual, OpEqual, OpNotEqual:
		return true
	}
	return false
}

// AlertStatus is the lifecycle state of a SecurityAlert.
//
// PENDING -> SENT -> ACKNOWLEDGED -> RESOLVED, with SUPPRESSED reachable from
// PENDING and FALSE_POSITIVE as a parallel terminal state.
type AlertStatus string

const (
	StatusPending       AlertStatus = "pending"
	StatusSent          AlertStatus = "sent"
	StatusAcknowledged  AlertStatus = "acknowledged"
	StatusResolved      AlertStatus = "resolved"
	StatusSuppressed    AlertStatus = "suppressed"
	StatusFalsePositive AlertStatus = "false_positive"
)

// Terminal reports whether the status is an end state.
func (s AlertStatus) Terminal() bool {
	return s == StatusResolved || s == StatusFalsePositive
}

// NotificationChannel identifies one of the six delivery channels.
type NotificationChannel string

const (
	ChannelEmail     NotificationChannel = "email"
	ChannelSMS       NotificationChannel = "sms"
	ChannelSlack     NotificationChannel = "slack"
	ChannelWebhook   NotificationChannel = "webhook"
	ChannelDashboard NotificationChannel = "dashboard"
	ChannelSyslog    NotificationChannel = "syslog"
)

// Valid reports whether c is a recognized channel kind.
func (c NotificationChannel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelSlack, ChannelWebhook, ChannelDashboard, ChannelSyslog:
		return true
	}
	return false
}
