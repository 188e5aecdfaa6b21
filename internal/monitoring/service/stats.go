package service

import "github.com/halcyonsec/watchpost/internal/monitoring/model"

// Statistics returns a snapshot of the monitor-wide aggregate counters.
func (m *Monitor) Statistics() model.Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	bySev := make(map[model.Severity]int, len(m.bySeverity))
	for k, v := range m.bySeverity {
		bySev[k] = v
	}
	byCh := make(map[model.NotificationChannel]int, len(m.byChannel))
	for k, v := range m.byChannel {
		byCh[k] = v
	}
	return model.Statistics{
		TotalSessions:    m.totalSessions,
		ActiveSessions:   len(m.sessions),
		TotalAlerts:      m.totalAlerts,
		ActiveAlerts:     len(m.active),
		AlertsBySeverity: bySev,
		AlertsByChannel:  byCh,
		AnomaliesFound:   m.anomaliesFound,
		ComplianceChecks: m.complianceChecks,
	}
}
