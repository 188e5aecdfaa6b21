// Package api exposes the monitoring engine over HTTP. All handlers are
// thin: parse, call the Monitor, render. Domain behavior lives in the
// service package.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/halcyonsec/watchpost/internal/monitoring/service"
)

type Api struct {
	monitor *service.Monitor
}

// NewApi registers all monitoring routes on the router.
func NewApi(router *gin.Engine, monitor *service.Monitor) *Api {
	api := &Api{monitor: monitor}
	api.setupRouters(router)
	return api
}

func (api *Api) setupRouters(router *gin.Engine) {
	router.PUT("/v1/alert-rules/:ruleID", api.PutAlertRule)
	router.GET("/v1/alert-rules", api.ListAlertRules)
	router.DELETE("/v1/alert-rules/:ruleID", api.DeleteAlertRule)
	router.POST("/v1/alert-rules/:ruleID/enable", api.EnableAlertRule)
	router.POST("/v1/alert-rules/:ruleID/disable", api.DisableAlertRule)

	router.POST("/v1/metrics", api.SubmitMetrics)
	router.POST("/v1/anomalies/detect", api.DetectAnomalies)
	router.GET("/v1/metrics/:metric/trends", api.GetMetricTrends)

	router.GET("/v1/alerts", api.ListActiveAlerts)
	router.GET("/v1/alerts/history", api.ListAlertHistory)
	router.POST("/v1/alerts/:alertID/acknowledge", api.AcknowledgeAlert)
	router.POST("/v1/alerts/:alertID/resolve", api.ResolveAlert)
	router.POST("/v1/alerts/:alertID/false-positive", api.MarkFalsePositive)

	router.POST("/v1/sessions", api.StartSession)
	router.GET("/v1/sessions", api.ListSessions)
	router.GET("/v1/sessions/:sessionID", api.GetSession)
	router.DELETE("/v1/sessions/:sessionID", api.StopSession)

	router.POST("/v1/compliance/check", api.CheckCompliance)
	router.GET("/v1/statistics", api.GetStatistics)
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, map[string]any{"error": map[string]any{"code": code, "message": message}})
}

func notFound(c *gin.Context, message string) {
	errorResponse(c, http.StatusNotFound, "NOT_FOUND", message)
}

func badRequest(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, "INVALID_PARAMETER", message)
}
