package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type startSessionRequest struct {
	Target string `json:"target"`
	Level  string `json:"level"`
}

func (api *Api) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Target == "" {
		badRequest(c, "target is required")
		return
	}
	if req.Level == "" {
		req.Level = "standard"
	}
	session := api.monitor.StartSession(req.Target, req.Level)
	c.JSON(http.StatusCreated, session)
}

func (api *Api) GetSession(c *gin.Context) {
	session, ok := api.monitor.GetSession(c.Param("sessionID"))
	if !ok {
		notFound(c, "session not found")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (api *Api) ListSessions(c *gin.Context) {
	sessions := api.monitor.ListSessions()
	c.JSON(http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
}

func (api *Api) StopSession(c *gin.Context) {
	if !api.monitor.StopSession(c.Param("sessionID")) {
		notFound(c, "session not found")
		return
	}
	c.JSON(http.StatusOK, map[string]any{"ok": true})
}
