package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
	"github.com/halcyonsec/watchpost/internal/monitoring/notify"
	"github.com/halcyonsec/watchpost/internal/monitoring/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	monitor := service.NewMonitor(notify.NewDispatcher(notify.DispatcherConfig{Workers: 0}, nil))
	NewApi(router, monitor)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func putRule(t *testing.T, router *gin.Engine, id string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPut, "/v1/alert-rules/"+id, model.AlertRule{
		RuleID: id,
		Name:   "rule " + id,
		Threshold: model.MonitoringThreshold{
			Metric:   model.MetricCriticalVulnCount,
			Op:       model.OpGreaterThan,
			Value:    0,
			Severity: model.SeverityCritical,
			Enabled:  true,
		},
		Enabled: true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRuleEndpoints(t *testing.T) {
	router := newTestRouter(t)

	putRule(t, router, "crit-vulns")

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/alert-rules", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		rules := body["rules"].([]any)
		require.Len(t, rules, 1)
	})

	t.Run("mismatched body id rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/v1/alert-rules/other", map[string]any{
			"rule_id": "crit-vulns",
			"name":    "x",
			"threshold": map[string]any{
				"metric": "critical_vuln_count", "op": "gt", "value": 0, "severity": "high", "enabled": true,
			},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid rule rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/v1/alert-rules/bad", map[string]any{
			"name": "x",
			"threshold": map[string]any{
				"metric": "critical_vuln_count", "op": "nearby", "value": 0, "severity": "high", "enabled": true,
			},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("disable and enable", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/alert-rules/crit-vulns/disable", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = doJSON(t, router, http.MethodPost, "/v1/alert-rules/crit-vulns/enable", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = doJSON(t, router, http.MethodPost, "/v1/alert-rules/ghost/enable", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/v1/alert-rules/crit-vulns", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = doJSON(t, router, http.MethodDelete, "/v1/alert-rules/crit-vulns", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMetricsAndAlertFlow(t *testing.T) {
	router := newTestRouter(t)
	putRule(t, router, "crit-vulns")

	// submit a snapshot that fires the rule
	w := doJSON(t, router, http.MethodPost, "/v1/metrics", map[string]any{
		"metrics": map[string]float64{"critical_vuln_count": 2},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, float64(1), body["count"])
	alert := body["alerts"].([]any)[0].(map[string]any)
	alertID := alert["alert_id"].(string)
	require.NotEmpty(t, alertID)

	t.Run("empty snapshot rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/metrics", map[string]any{"metrics": map[string]float64{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("active alerts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/alerts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decode(t, w)["count"])

		w = doJSON(t, router, http.MethodGet, "/v1/alerts?severity=low", nil)
		assert.Equal(t, float64(0), decode(t, w)["count"])
	})

	t.Run("acknowledge requires actor", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/alerts/"+alertID+"/acknowledge", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, router, http.MethodPost, "/v1/alerts/"+alertID+"/acknowledge", map[string]any{"actor": "oncall"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("resolve", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/alerts/"+alertID+"/resolve", map[string]any{"notes": "patched"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodPost, "/v1/alerts/"+alertID+"/resolve", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("history keeps the resolved alert", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/alerts/history", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decode(t, w)["count"])

		w = doJSON(t, router, http.MethodGet, "/v1/alerts/history?start=not-a-time", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]any{"target": "edge-gw", "level": "deep"})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID := decode(t, w)["session_id"].(string)
	require.NotEmpty(t, sessionID)

	t.Run("target required", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]any{"level": "deep"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get and list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/sessions/"+sessionID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "edge-gw", decode(t, w)["target"])

		w = doJSON(t, router, http.MethodGet, "/v1/sessions", nil)
		assert.Equal(t, float64(1), decode(t, w)["count"])
	})

	t.Run("stop", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/v1/sessions/"+sessionID, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = doJSON(t, router, http.MethodDelete, "/v1/sessions/"+sessionID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestComplianceAndStatisticsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/compliance/check", map[string]any{
		"framework": "cis-v8",
		"controls":  map[string]bool{"c1": true, "c2": false},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(50), body["score"])
	assert.Equal(t, false, body["passing"])

	t.Run("framework required", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/compliance/check", map[string]any{"controls": map[string]bool{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("statistics", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/statistics", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decode(t, w)["compliance_checks_performed"])
	})
}

func TestAnomalyAndTrendEndpoints(t *testing.T) {
	router := newTestRouter(t)

	// seed history through the metrics endpoint
	for i := 0; i < 12; i++ {
		v := 9.0
		if i%2 == 1 {
			v = 11.0
		}
		w := doJSON(t, router, http.MethodPost, "/v1/metrics", map[string]any{
			"metrics": map[string]float64{"failed_login_rate": v},
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("detect", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/anomalies/detect", map[string]any{
			"metrics": map[string]float64{"failed_login_rate": 25},
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		require.Equal(t, float64(1), body["count"])
		det := body["anomalies"].([]any)[0].(map[string]any)
		assert.Equal(t, true, det["is_anomaly"])
	})

	t.Run("trends", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/metrics/failed_login_rate/trends?window_minutes=60", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(12), body["count"])

		w = doJSON(t, router, http.MethodGet, "/v1/metrics/never_seen/trends", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, router, http.MethodGet, "/v1/metrics/failed_login_rate/trends?window_minutes=zero", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
