package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type complianceRequest struct {
	Framework string          `json:"framework"`
	Controls  map[string]bool `json:"controls"`
}

// CheckCompliance scores a caller-supplied control evaluation. The control
// values come from an external control-evaluation system; this service only
// does the arithmetic.
func (api *Api) CheckCompliance(c *gin.Context) {
	var req complianceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Framework == "" {
		badRequest(c, "framework is required")
		return
	}
	status := api.monitor.CheckCompliance(req.Framework, req.Controls)
	c.JSON(http.StatusOK, status)
}
