// Package service implements the proactive monitoring engine: threshold
// rules over streaming metric snapshots, alert lifecycle management with
// cooldown-based suppression, statistical anomaly detection, compliance
// scoring and session bookkeeping. All state lives in one mutex-guarded
// Monitor; collaborators (notification channels, the Postgres archive, the
// Redis dashboard cache) are injected and nil-safe.
package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
	"github.com/halcyonsec/watchpost/internal/monitoring/notify"
)

var (
	// ErrInvalidRule indicates a rule definition is incomplete or invalid.
	ErrInvalidRule = errors.New("invalid alert rule")
)

// SessionKey is the metadata key carrying the originating session id.
const SessionKey = "session_id"

// defaultHistoryLimit bounds the in-memory alert history ring. The full
// record survives in the archive store when one is configured.
const defaultHistoryLimit = 10000

// AlertArchive persists alert records externally. SaveAlert is called on
// creation and on every lifecycle transition, so implementations must
// upsert by alert id. SaveRuleCooldown records the suppression window a
// firing opened, keyed by the alert that opened it.
type AlertArchive interface {
	SaveAlert(ctx context.Context, a *model.SecurityAlert) error
	SaveRuleCooldown(ctx context.Context, alertID string, cooldown time.Duration) error
}

// AlertCache is a best-effort write-through cache of alert state for
// dashboard readers. Errors are logged and never affect domain state.
type AlertCache interface {
	WriteAlert(ctx context.Context, a *model.SecurityAlert) error
	RemoveAlert(ctx context.Context, alertID string, final model.AlertStatus) error
}

// Option configures a Monitor at construction time.
type Option func(*Monitor)

// WithArchive attaches an external alert archive.
func WithArchive(a AlertArchive) Option { return func(m *Monitor) { m.archive = a } }

// WithCache attaches a write-through alert cache.
func WithCache(c AlertCache) Option { return func(m *Monitor) { m.cache = c } }

// WithHistoryLimit overrides the in-memory history ring size.
func WithHistoryLimit(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.maxHistory = n
		}
	}
}

// WithClock overrides the time source, used by cooldown and trend tests.
func WithClock(now func() time.Time) Option { return func(m *Monitor) { m.now = now } }

// Monitor is the proactive monitoring service object. All exported methods
// are safe for concurrent use; each logical operation holds the mutex.
type Monitor struct {
	mu sync.Mutex

	rules     map[string]*model.AlertRule
	ruleOrder []string             // registration order, drives evaluation order
	cooldowns map[string]time.Time // rule id -> suppression window expiry

	active     map[string]*model.SecurityAlert
	history    []*model.SecurityAlert
	alertIndex map[string]*model.SecurityAlert // every alert still held in memory
	maxHistory int

	metrics  *metricHistory
	sessions map[string]*model.MonitoringSession

	// aggregate counters for the statistics surface
	totalSessions    int
	totalAlerts      int
	bySeverity       map[model.Severity]int
	byChannel        map[model.NotificationChannel]int
	anomaliesFound   int
	complianceChecks int

	dispatcher *notify.Dispatcher
	archive    AlertArchive
	cache      AlertCache
	now        func() time.Time
}

// NewMonitor builds a Monitor wired to the given dispatcher. The dispatcher's
// result callback is installed here so successful deliveries land in
// channels_notified.
func NewMonitor(dispatcher *notify.Dispatcher, opts ...Option) *Monitor {
	m := &Monitor{
		rules:      make(map[string]*model.AlertRule),
		cooldowns:  make(map[string]time.Time),
		active:     make(map[string]*model.SecurityAlert),
		alertIndex: make(map[string]*model.SecurityAlert),
		maxHistory: defaultHistoryLimit,
		metrics:    newMetricHistory(metricHistoryCap),
		sessions:   make(map[string]*model.MonitoringSession),
		bySeverity: make(map[model.Severity]int),
		byChannel:  make(map[model.NotificationChannel]int),
		dispatcher: dispatcher,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if dispatcher != nil {
		dispatcher.SetResultFunc(m.recordDispatchResult)
	}
	return m
}

// AddRule registers a rule. Re-adding an existing rule id replaces the old
// definition in place (last write wins) while keeping its evaluation slot;
// callers rely on this for hot-reloading rule definitions.
func (m *Monitor) AddRule(rule model.AlertRule) error {
	if rule.RuleID == "" || rule.Name == "" {
		return fmt.Errorf("%w: missing rule_id or name", ErrInvalidRule)
	}
	if !rule.Threshold.Op.Valid() {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidRule, rule.Threshold.Op)
	}
	if !rule.Threshold.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidRule, rule.Threshold.Severity)
	}
	if rule.Threshold.CooldownMinutes < 0 {
		return fmt.Errorf("%w: negative cooldown", ErrInvalidRule)
	}
	for _, ch := range rule.Channels {
		if !ch.Valid() {
			return fmt.Errorf("%w: unknown channel %q", ErrInvalidRule, ch)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rules[rule.RuleID]; !exists {
		m.ruleOrder = append(m.ruleOrder, rule.RuleID)
	}
	cp := rule
	m.rules[rule.RuleID] = &cp
	log.Info().Str("rule", rule.RuleID).Str("metric", string(rule.Threshold.Metric)).
		Str("op", string(rule.Threshold.Op)).Float64("value", rule.Threshold.Value).
		Msg("alert rule registered")
	return nil
}

// RemoveRule deletes a rule from the registry. Existing alerts that
// reference it remain valid historical records.
func (m *Monitor) RemoveRule(ruleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[ruleID]; !ok {
		return false
	}
	delete(m.rules, ruleID)
	delete(m.cooldowns, ruleID)
	for i, id := range m.ruleOrder {
		if id == ruleID {
			m.ruleOrder = append(m.ruleOrder[:i], m.ruleOrder[i+1:]...)
			break
		}
	}
	return true
}

// SetRuleEnabled flips a rule's enabled flag. Returns false for unknown ids.
func (m *Monitor) SetRuleEnabled(ruleID string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[ruleID]
	if !ok {
		return false
	}
	r.Enabled = enabled
	return true
}

// GetRule returns a copy of the rule, or false for unknown ids.
func (m *Monitor) GetRule(ruleID string) (model.AlertRule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[ruleID]
	if !ok {
		return model.AlertRule{}, false
	}
	return *r, true
}

// ListRules returns rule copies in registration order.
func (m *Monitor) ListRules() []model.AlertRule {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AlertRule, 0, len(m.ruleOrder))
	for _, id := range m.ruleOrder {
		if r, ok := m.rules[id]; ok {
			out = append(out, *r)
		}
	}
	return out
}

// isInCooldown reports whether rule id is inside its suppression window.
// Caller holds the mutex.
func (m *Monitor) isInCooldown(ruleID string, at time.Time) bool {
	expiry, ok := m.cooldowns[ruleID]
	return ok && at.Before(expiry)
}

// CheckMetrics evaluates every enabled rule against the snapshot, in rule
// registration order, and returns the alerts created by this call. All
// observed metrics feed the rolling history regardless of rule coverage.
// sessionID may be empty; when set, the owning session's bookkeeping is
// updated and the id travels in alert metadata.
func (m *Monitor) CheckMetrics(ctx context.Context, snapshot map[model.Metric]float64, sessionID string) []*model.SecurityAlert {
	type firing struct {
		alert    *model.SecurityAlert // live entry, mutate only under the mutex
		snap     *model.SecurityAlert // stable copy handed to the dispatcher
		channels []model.NotificationChannel
		cooldown time.Duration
	}

	m.mu.Lock()
	now := m.now()
	for metric, value := range snapshot {
		m.metrics.append(metric, value, now)
	}
	if s, ok := m.sessions[sessionID]; ok {
		s.LastCheck = now
	}

	var fired []firing
	for _, ruleID := range m.ruleOrder {
		rule := m.rules[ruleID]
		if rule == nil || !rule.Enabled || !rule.Threshold.Enabled {
			continue
		}
		value, present := snapshot[rule.Threshold.Metric]
		if !present {
			continue
		}
		if !EvaluateThreshold(value, rule.Threshold.Op, rule.Threshold.Value) {
			continue
		}
		if m.isInCooldown(ruleID, now) {
			alertsSuppressedTotal.Inc()
			log.Debug().Str("rule", ruleID).Float64("value", value).Msg("firing suppressed by cooldown")
			continue
		}

		alert := m.createAlertLocked(rule, value, now, sessionID)
		var cooldown time.Duration
		if rule.Threshold.CooldownMinutes > 0 {
			cooldown = time.Duration(rule.Threshold.CooldownMinutes) * time.Minute
			m.cooldowns[ruleID] = now.Add(cooldown)
		}
		if s, ok := m.sessions[sessionID]; ok {
			s.AlertsGenerated++
		}
		fired = append(fired, firing{
			alert:    alert,
			snap:     alert.Clone(),
			channels: append([]model.NotificationChannel(nil), rule.Channels...),
			cooldown: cooldown,
		})
	}
	m.mu.Unlock()

	// Dispatch outside the lock: channel sends must never stall other
	// monitor operations. The result callback re-locks to record outcomes.
	for _, f := range fired {
		if m.dispatcher != nil && len(f.channels) > 0 {
			m.dispatcher.Dispatch(ctx, f.snap, f.channels)
		}
		m.mu.Lock()
		if f.alert.Status == model.StatusPending {
			f.alert.Status = model.StatusSent
		}
		cp := f.alert.Clone()
		m.mu.Unlock()
		m.persist(ctx, cp)
		if m.archive != nil && f.cooldown > 0 {
			if err := m.archive.SaveRuleCooldown(ctx, cp.AlertID, f.cooldown); err != nil {
				log.Warn().Err(err).Str("alert", cp.AlertID).Msg("cooldown archive failed")
			}
		}
	}

	m.mu.Lock()
	out := make([]*model.SecurityAlert, len(fired))
	for i, f := range fired {
		out[i] = f.alert.Clone()
	}
	m.mu.Unlock()
	return out
}

// createAlertLocked builds and registers a new PENDING alert. Caller holds
// the mutex.
func (m *Monitor) createAlertLocked(rule *model.AlertRule, value float64, now time.Time, sessionID string) *model.SecurityAlert {
	alert := &model.SecurityAlert{
		AlertID:        m.newAlertID(rule.RuleID, now),
		RuleID:         rule.RuleID,
		Severity:       rule.Threshold.Severity,
		Title:          rule.Name,
		Description:    rule.Threshold.Description,
		Metric:         rule.Threshold.Metric,
		CurrentValue:   value,
		ThresholdValue: rule.Threshold.Value,
		Timestamp:      now,
		Status:         model.StatusPending,
		Metadata:       map[string]string{},
	}
	if sessionID != "" {
		alert.Metadata[SessionKey] = sessionID
	}

	m.active[alert.AlertID] = alert
	m.alertIndex[alert.AlertID] = alert
	m.history = append(m.history, alert)
	if len(m.history) > m.maxHistory {
		// Evict the oldest record that is no longer active. Active alerts
		// must stay visible in history, so the ring is allowed to run past
		// the limit while every entry is still live.
		for i, old := range m.history {
			if _, stillActive := m.active[old.AlertID]; stillActive {
				continue
			}
			delete(m.alertIndex, old.AlertID)
			m.history = append(m.history[:i], m.history[i+1:]...)
			break
		}
	}

	m.totalAlerts++
	m.bySeverity[alert.Severity]++
	alertsFiredTotal.WithLabelValues(string(alert.Severity)).Inc()
	activeAlertsGauge.Set(float64(len(m.active)))

	log.Info().Str("alert", alert.AlertID).Str("rule", rule.RuleID).
		Str("severity", string(alert.Severity)).Float64("value", value).
		Float64("threshold", rule.Threshold.Value).Msg("alert created")
	return alert
}

// newAlertID derives an id from the rule id and firing timestamp. A suffix
// disambiguates the (unlikely) hash collision so ids are never reused.
func (m *Monitor) newAlertID(ruleID string, at time.Time) string {
	for n := 0; ; n++ {
		sum := sha1.Sum([]byte(fmt.Sprintf("%s:%d:%d", ruleID, at.UnixNano(), n)))
		id := "alert-" + hex.EncodeToString(sum[:6])
		if _, taken := m.alertIndex[id]; !taken {
			return id
		}
	}
}

// recordDispatchResult is the dispatcher callback. Successful deliveries are
// appended to channels_notified; failures only feed counters. Late results
// for alerts already evicted from memory are dropped.
func (m *Monitor) recordDispatchResult(alertID string, ch model.NotificationChannel, err error) {
	if err != nil {
		notificationsTotal.WithLabelValues(string(ch), "error").Inc()
		return
	}
	notificationsTotal.WithLabelValues(string(ch), "ok").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alertIndex[alertID]
	if !ok {
		return
	}
	for _, seen := range alert.ChannelsNotified {
		if seen == ch {
			return
		}
	}
	alert.ChannelsNotified = append(alert.ChannelsNotified, ch)
	m.byChannel[ch]++
}

// AcknowledgeAlert transitions an active alert to ACKNOWLEDGED, recording
// the actor and timestamp. Returns false for unknown ids and for alerts
// already acknowledged or resolved.
func (m *Monitor) AcknowledgeAlert(ctx context.Context, alertID, actor string) bool {
	m.mu.Lock()
	alert, ok := m.active[alertID]
	if !ok || (alert.Status != model.StatusPending && alert.Status != model.StatusSent) {
		m.mu.Unlock()
		return false
	}
	now := m.now()
	alert.Status = model.StatusAcknowledged
	alert.AcknowledgedBy = actor
	alert.AcknowledgedAt = &now
	cp := alert.Clone()
	m.mu.Unlock()

	log.Info().Str("alert", alertID).Str("actor", actor).Msg("alert acknowledged")
	m.persist(ctx, cp)
	return true
}

// ResolveAlert transitions an alert to RESOLVED and removes it from the
// active set; the history entry is retained. Returns false for unknown ids.
func (m *Monitor) ResolveAlert(ctx context.Context, alertID, notes string) bool {
	m.mu.Lock()
	alert, ok := m.active[alertID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	now := m.now()
	alert.Status = model.StatusResolved
	alert.ResolvedAt = &now
	alert.ResolutionNotes = notes
	delete(m.active, alertID)
	activeAlertsGauge.Set(float64(len(m.active)))
	cp := alert.Clone()
	m.mu.Unlock()

	log.Info().Str("alert", alertID).Msg("alert resolved")
	m.persist(ctx, cp)
	if m.cache != nil {
		if err := m.cache.RemoveAlert(ctx, alertID, model.StatusResolved); err != nil {
			log.Warn().Err(err).Str("alert", alertID).Msg("cache remove failed")
		}
	}
	return true
}

// MarkFalsePositive moves an active alert to the FALSE_POSITIVE terminal
// state. Returns false for unknown ids.
func (m *Monitor) MarkFalsePositive(ctx context.Context, alertID, actor string) bool {
	m.mu.Lock()
	alert, ok := m.active[alertID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	now := m.now()
	alert.Status = model.StatusFalsePositive
	alert.ResolvedAt = &now
	alert.ResolutionNotes = "marked false positive by " + actor
	delete(m.active, alertID)
	activeAlertsGauge.Set(float64(len(m.active)))
	cp := alert.Clone()
	m.mu.Unlock()

	log.Info().Str("alert", alertID).Str("actor", actor).Msg("alert marked false positive")
	m.persist(ctx, cp)
	if m.cache != nil {
		if err := m.cache.RemoveAlert(ctx, alertID, model.StatusFalsePositive); err != nil {
			log.Warn().Err(err).Str("alert", alertID).Msg("cache remove failed")
		}
	}
	return true
}

// ActiveAlertFilter narrows GetActiveAlerts. Zero values match everything.
type ActiveAlertFilter struct {
	Severity model.Severity
	Metric   model.Metric
}

// GetActiveAlerts returns a filtered snapshot of the active set, oldest
// first.
func (m *Monitor) GetActiveAlerts(f ActiveAlertFilter) []*model.SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SecurityAlert, 0, len(m.active))
	for _, a := range m.active {
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if f.Metric != "" && a.Metric != f.Metric {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// HistoryFilter narrows GetAlertHistory. Zero times mean unbounded.
type HistoryFilter struct {
	Start    time.Time
	End      time.Time
	Severity model.Severity
}

// GetAlertHistory returns a filtered scan of the in-memory history, oldest
// first. History is append-only; resolved alerts stay visible here.
func (m *Monitor) GetAlertHistory(f HistoryFilter) []*model.SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SecurityAlert, 0, len(m.history))
	for _, a := range m.history {
		if !f.Start.IsZero() && a.Timestamp.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && a.Timestamp.After(f.End) {
			continue
		}
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}

// persist writes the alert through to the archive and cache, best-effort.
func (m *Monitor) persist(ctx context.Context, a *model.SecurityAlert) {
	if m.archive != nil {
		if err := m.archive.SaveAlert(ctx, a); err != nil {
			log.Warn().Err(err).Str("alert", a.AlertID).Msg("alert archive write failed")
		}
	}
	if m.cache != nil && !a.Status.Terminal() {
		if err := m.cache.WriteAlert(ctx, a); err != nil {
			log.Warn().Err(err).Str("alert", a.AlertID).Msg("alert cache write failed")
		}
	}
}
