package feeder

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	promModel "github.com/prometheus/common/model"
	"github.com/rs/zerolog/log"
)

// PromClient is a thin wrapper over the Prometheus query API.
type PromClient struct {
	api v1.API
}

func NewPromClient(address string) (*PromClient, error) {
	c, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &PromClient{api: v1.NewAPI(c)}, nil
}

// QueryLatest evaluates an instant query and returns the value of the first
// sample. ok is false when the query matched no series.
func (c *PromClient) QueryLatest(ctx context.Context, query string) (float64, bool, error) {
	result, warnings, err := c.api.Query(ctx, query, time.Now())
	if err != nil {
		return 0, false, fmt.Errorf("failed to query prometheus: %w", err)
	}
	if len(warnings) > 0 {
		log.Warn().Strs("warnings", warnings).Str("query", query).Msg("prometheus query warnings")
	}

	switch v := result.(type) {
	case promModel.Vector:
		if len(v) == 0 {
			return 0, false, nil
		}
		return float64(v[0].Value), true, nil
	case *promModel.Scalar:
		return float64(v.Value), true, nil
	default:
		return 0, false, fmt.Errorf("unexpected result type: %T", result)
	}
}

// QueryRangeValues evaluates a range query and flattens the matrix into
// chronological values across all matched series.
func (c *PromClient) QueryRangeValues(ctx context.Context, query string, lookback, step time.Duration) ([]float64, error) {
	end := time.Now()
	r := v1.Range{Start: end.Add(-lookback), End: end, Step: step}

	result, warnings, err := c.api.QueryRange(ctx, query, r)
	if err != nil {
		return nil, fmt.Errorf("failed to range-query prometheus: %w", err)
	}
	if len(warnings) > 0 {
		log.Warn().Strs("warnings", warnings).Str("query", query).Msg("prometheus query warnings")
	}

	matrix, ok := result.(promModel.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}

	var values []float64
	for _, series := range matrix {
		for _, pair := range series.Values {
			values = append(values, float64(pair.Value))
		}
	}
	return values, nil
}

// AvailableMetrics lists metric names known to Prometheus over the last hour.
func (c *PromClient) AvailableMetrics(ctx context.Context) ([]string, error) {
	result, warnings, err := c.api.LabelValues(ctx, "__name__", nil, time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	if len(warnings) > 0 {
		log.Warn().Strs("warnings", warnings).Msg("prometheus query warnings")
	}

	metrics := make([]string, 0, len(result))
	for _, m := range result {
		metrics = append(metrics, string(m))
	}
	return metrics, nil
}
