package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// PutAlertRule registers or replaces a rule. Replacement is deliberate
// last-write-wins so operators can hot-reload rule definitions.
func (api *Api) PutAlertRule(c *gin.Context) {
	ruleID := c.Param("ruleID")
	var rule model.AlertRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		badRequest(c, "invalid JSON")
		return
	}
	if rule.RuleID == "" {
		rule.RuleID = ruleID
	}
	if rule.RuleID != ruleID {
		badRequest(c, "rule_id in body does not match path")
		return
	}
	if err := api.monitor.AddRule(rule); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, map[string]any{"ok": true, "rule_id": rule.RuleID})
}

func (api *Api) ListAlertRules(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]any{"rules": api.monitor.ListRules()})
}

func (api *Api) DeleteAlertRule(c *gin.Context) {
	if !api.monitor.RemoveRule(c.Param("ruleID")) {
		notFound(c, "rule not found")
		return
	}
	c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (api *Api) EnableAlertRule(c *gin.Context) {
	api.setRuleEnabled(c, true)
}

func (api *Api) DisableAlertRule(c *gin.Context) {
	api.setRuleEnabled(c, false)
}

func (api *Api) setRuleEnabled(c *gin.Context, enabled bool) {
	if !api.monitor.SetRuleEnabled(c.Param("ruleID"), enabled) {
		notFound(c, "rule not found")
		return
	}
	c.JSON(http.StatusOK, map[string]any{"ok": true, "enabled": enabled})
}
