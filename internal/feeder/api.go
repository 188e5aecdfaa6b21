package feeder

import (
	"net/http"
	"time"

	"github.com/fox-gonic/fox"
	"github.com/rs/zerolog/log"
)

// Api exposes the feeder admin surface.
type Api struct {
	cfg        *Config
	feeder     *Feeder
	promClient *PromClient
}

func NewApi(router *fox.Engine, cfg *Config, f *Feeder, promClient *PromClient) *Api {
	api := &Api{cfg: cfg, feeder: f, promClient: promClient}
	api.setupRouters(router)
	return api
}

func (api *Api) setupRouters(router *fox.Engine) {
	router.GET("/v1/healthz", api.Healthz)
	router.GET("/v1/queries", api.ListQueries)
	router.GET("/v1/queries/:metric/range", api.QueryMetricRange)
	router.GET("/v1/prometheus/metrics", api.ListPrometheusMetrics)
	router.POST("/v1/poll", api.PollNow)
}

func (api *Api) Healthz(c *fox.Context) {
	snapshot, lastPush, lastErr := api.feeder.Status()
	c.JSON(http.StatusOK, map[string]any{
		"status":        "ok",
		"last_push":     lastPush,
		"last_error":    lastErr,
		"last_snapshot": snapshot,
	})
}

func (api *Api) ListQueries(c *fox.Context) {
	c.JSON(http.StatusOK, map[string]any{"queries": api.cfg.Queries})
}

// QueryMetricRange replays a configured query over the configured lookback
// window, returning the raw sample values.
func (api *Api) QueryMetricRange(c *fox.Context) {
	metric := c.Param("metric")
	var query string
	for _, q := range api.cfg.Queries {
		if q.Metric == metric {
			query = q.Query
			break
		}
	}
	if query == "" {
		c.JSON(http.StatusNotFound, map[string]any{"error": "no query configured for metric", "metric": metric})
		return
	}

	lookback := api.cfg.Watchpost.Range()
	if v := c.Query("range"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			lookback = d
		}
	}

	values, err := api.promClient.QueryRangeValues(c.Request.Context(), query, lookback, api.cfg.Watchpost.Step())
	if err != nil {
		log.Error().Err(err).Str("metric", metric).Msg("range query failed")
		c.JSON(http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, map[string]any{"metric": metric, "values": values, "count": len(values)})
}

func (api *Api) ListPrometheusMetrics(c *fox.Context) {
	metrics, err := api.promClient.AvailableMetrics(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list prometheus metrics")
		c.JSON(http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, map[string]any{"metrics": metrics})
}

// PollNow triggers an immediate collect-and-push outside the schedule.
func (api *Api) PollNow(c *fox.Context) {
	snapshot, err := api.feeder.PollOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, map[string]any{"error": err.Error(), "snapshot": snapshot})
		return
	}
	c.JSON(http.StatusOK, map[string]any{"snapshot": snapshot})
}
