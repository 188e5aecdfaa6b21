package service

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// StartSession opens a monitoring session for a named target. ActiveRules
// snapshots the ids of currently-enabled rules and is not live-updated when
// the registry changes afterwards. Sessions have no automatic expiry; an
// abandoned session lives until explicitly stopped.
func (m *Monitor) StartSession(target, level string) *model.MonitoringSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	enabled := make([]string, 0, len(m.ruleOrder))
	for _, id := range m.ruleOrder {
		if r, ok := m.rules[id]; ok && r.Enabled {
			enabled = append(enabled, id)
		}
	}
	now := m.now()
	s := &model.MonitoringSession{
		SessionID:       uuid.NewString(),
		Target:          target,
		StartedAt:       now,
		MonitoringLevel: level,
		ActiveRules:     enabled,
		LastCheck:       now,
	}
	m.sessions[s.SessionID] = s
	m.totalSessions++
	log.Info().Str("session", s.SessionID).Str("target", target).
		Int("rules", len(enabled)).Msg("monitoring session started")

	cp := *s
	cp.ActiveRules = append([]string(nil), s.ActiveRules...)
	return &cp
}

// StopSession removes a session from the live map. Alerts attributed to it
// are untouched; in-flight dispatch is not canceled. Returns false for
// unknown ids.
func (m *Monitor) StopSession(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	delete(m.sessions, sessionID)
	log.Info().Str("session", sessionID).Msg("monitoring session stopped")
	return true
}

// GetSession returns a copy of a live session, or false for unknown ids.
func (m *Monitor) GetSession(sessionID string) (model.MonitoringSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return model.MonitoringSession{}, false
	}
	cp := *s
	cp.ActiveRules = append([]string(nil), s.ActiveRules...)
	return cp, true
}

// ListSessions returns copies of all live sessions.
func (m *Monitor) ListSessions() []model.MonitoringSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.MonitoringSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		cp := *s
		cp.ActiveRules = append([]string(nil), s.ActiveRules...)
		out = append(out, cp)
	}
	return out
}
