package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

const bootstrapYAML = `rules:
  - rule_id: crit-vulns
    name: Critical vulnerabilities present
    threshold:
      metric: critical_vuln_count
      op: gt
      value: 0
      severity: critical
      enabled: true
      cooldown_minutes: 30
    channels: [email, slack]
    enabled: true
  - rule_id: bad-rule
    name: Broken operator
    threshold:
      metric: open_port_count
      op: within
      value: 10
      severity: low
      enabled: true
    enabled: true
  - rule_id: cert-expiry
    name: Certificate expiring soon
    threshold:
      metric: cert_expiry_days
      op: lte
      value: 14
      severity: medium
      enabled: true
    channels: [dashboard]
    enabled: true
`

func TestBootstrapRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte(bootstrapYAML), 0o644))

	m := newTestMonitor(nil)
	require.NoError(t, m.BootstrapRulesFromFile(path))

	rules := m.ListRules()
	require.Len(t, rules, 2, "the invalid rule is skipped, not fatal")
	assert.Equal(t, "crit-vulns", rules[0].RuleID)
	assert.Equal(t, model.SeverityCritical, rules[0].Threshold.Severity)
	assert.Equal(t, 30, rules[0].Threshold.CooldownMinutes)
	assert.Equal(t, []model.NotificationChannel{model.ChannelEmail, model.ChannelSlack}, rules[0].Channels)
	assert.Equal(t, "cert-expiry", rules[1].RuleID)
}

func TestBootstrapRulesFromFileErrors(t *testing.T) {
	m := newTestMonitor(nil)

	assert.NoError(t, m.BootstrapRulesFromFile(""), "blank path is a no-op")
	assert.Error(t, m.BootstrapRulesFromFile("/nonexistent/rules.yml"))

	path := filepath.Join(t.TempDir(), "garbage.yml")
	require.NoError(t, os.WriteFile(path, []byte("rules: {not: [valid"), 0o644))
	assert.Error(t, m.BootstrapRulesFromFile(path))
}
