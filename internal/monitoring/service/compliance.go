package service

import (
	"sort"
	"time"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

const (
	// compliancePassingScore is the minimum score counted as passing.
	compliancePassingScore = 80.0
	// complianceReassessAfter schedules the next assessment.
	complianceReassessAfter = 30 * 24 * time.Hour
)

// CheckCompliance scores a caller-supplied control evaluation for a named
// framework. The computation is stateless; only the aggregate check counter
// survives the call. An empty control map scores zero.
func (m *Monitor) CheckCompliance(framework string, controls map[string]bool) model.ComplianceStatus {
	passed := 0
	failed := make([]string, 0)
	for id, ok := range controls {
		if ok {
			passed++
		} else {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)

	score := 0.0
	if len(controls) > 0 {
		score = 100 * float64(passed) / float64(len(controls))
	}

	m.mu.Lock()
	now := m.now()
	m.complianceChecks++
	m.mu.Unlock()
	complianceChecksTotal.Inc()

	return model.ComplianceStatus{
		Framework:      framework,
		Score:          score,
		Passing:        score >= compliancePassingScore,
		FailedControls: failed,
		LastAssessed:   now,
		NextAssessment: now.Add(complianceReassessAfter),
	}
}
