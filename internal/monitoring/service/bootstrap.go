package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// RulesFile is the on-disk bootstrap format loaded at startup.
type RulesFile struct {
	Rules []model.AlertRule `yaml:"rules"`
}

// BootstrapRulesFromFile loads alert rules from a YAML file and registers
// them. Invalid entries are logged and skipped so one bad rule cannot block
// startup. A blank path is a no-op.
func (m *Monitor) BootstrapRulesFromFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse rules file: %w", err)
	}
	loaded := 0
	for _, r := range f.Rules {
		if err := m.AddRule(r); err != nil {
			log.Error().Err(err).Str("rule", r.RuleID).Msg("skipping invalid bootstrap rule")
			continue
		}
		loaded++
	}
	log.Info().Int("loaded", loaded).Int("total", len(f.Rules)).Str("file", path).Msg("bootstrap rules registered")
	return nil
}
