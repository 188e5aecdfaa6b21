package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Self-instrumentation exposed on /metrics via promhttp in the server binary.
var (
	alertsFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchpost_alerts_fired_total",
		Help: "Alerts created by threshold rules, by severity.",
	}, []string{"severity"})

	alertsSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchpost_alerts_suppressed_total",
		Help: "Rule firings suppressed by the per-rule cooldown window.",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchpost_notifications_total",
		Help: "Per-channel notification attempts, by outcome.",
	}, []string{"channel", "result"})

	anomaliesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchpost_anomalies_detected_total",
		Help: "Statistical anomalies returned to callers.",
	})

	complianceChecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchpost_compliance_checks_total",
		Help: "Compliance status checks performed.",
	})

	activeAlertsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchpost_active_alerts",
		Help: "Alerts currently in a non-terminal state.",
	})
)
