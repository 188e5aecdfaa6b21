package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
	"github.com/halcyonsec/watchpost/internal/monitoring/service"
)

type submitMetricsRequest struct {
	SessionID string                   `json:"session_id"`
	Metrics   map[model.Metric]float64 `json:"metrics"`
}

// SubmitMetrics feeds one metric snapshot through every enabled rule and
// returns the alerts created by this call (possibly none).
func (api *Api) SubmitMetrics(c *gin.Context) {
	var req submitMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON")
		return
	}
	if len(req.Metrics) == 0 {
		badRequest(c, "metrics map is empty")
		return
	}
	alerts := api.monitor.CheckMetrics(c.Request.Context(), req.Metrics, req.SessionID)
	c.JSON(http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

type detectAnomaliesRequest struct {
	Metrics             map[model.Metric]float64 `json:"metrics"`
	ConfidenceThreshold *float64                 `json:"confidence_threshold"`
}

// DetectAnomalies runs a statistical detection pass over the snapshot,
// independent of threshold rules.
func (api *Api) DetectAnomalies(c *gin.Context) {
	var req detectAnomaliesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON")
		return
	}
	threshold := service.DefaultConfidenceThreshold
	if req.ConfidenceThreshold != nil {
		threshold = *req.ConfidenceThreshold
	}
	results := api.monitor.DetectAnomalies(req.Metrics, threshold)
	c.JSON(http.StatusOK, map[string]any{"anomalies": results, "count": len(results)})
}

func (api *Api) ListActiveAlerts(c *gin.Context) {
	filter := service.ActiveAlertFilter{
		Severity: model.Severity(c.Query("severity")),
		Metric:   model.Metric(c.Query("metric")),
	}
	alerts := api.monitor.GetActiveAlerts(filter)
	c.JSON(http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (api *Api) ListAlertHistory(c *gin.Context) {
	var filter service.HistoryFilter
	filter.Severity = model.Severity(c.Query("severity"))
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "start must be RFC3339")
			return
		}
		filter.Start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "end must be RFC3339")
			return
		}
		filter.End = t
	}
	alerts := api.monitor.GetAlertHistory(filter)
	c.JSON(http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

type acknowledgeRequest struct {
	Actor string `json:"actor"`
}

func (api *Api) AcknowledgeAlert(c *gin.Context) {
	var req acknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Actor == "" {
		badRequest(c, "actor is required")
		return
	}
	if !api.monitor.AcknowledgeAlert(c.Request.Context(), c.Param("alertID"), req.Actor) {
		notFound(c, "alert not found or not acknowledgeable")
		return
	}
	c.JSON(http.StatusOK, map[string]any{"ok": true})
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

func (api *Api) ResolveAlert(c *gin.Context) {
	var req resolveRequest
	_ = c.ShouldBindJSON(&req) // notes are optional
	if !api.monitor.ResolveAlert(c.Request.Context(), c.Param("alertID"), req.Notes) {
		notFound(c, "alert not found")
		return
	}
	c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (api *Api) MarkFalsePositive(c *gin.Context) {
	var req acknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Actor == "" {
		badRequest(c, "actor is required")
		return
	}
	if !api.monitor.MarkFalsePositive(c.Request.Context(), c.Param("alertID"), req.Actor) {
		notFound(c, "alert not found")
		return
	}
	c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (api *Api) GetMetricTrends(c *gin.Context) {
	windowMinutes := 60
	if v := c.Query("window_minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "window_minutes must be a positive integer")
			return
		}
		windowMinutes = n
	}
	trend, ok := api.monitor.GetMetricTrends(model.Metric(c.Param("metric")), windowMinutes)
	if !ok {
		notFound(c, "no samples for metric in window")
		return
	}
	c.JSON(http.StatusOK, trend)
}

func (api *Api) GetStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, api.monitor.Statistics())
}
