// Package cache keeps a best-effort, write-through copy of active alert
// state in Redis for dashboard readers. Keys: alert:<id> holds the JSON
// record; alert:index:status:<status> sets index ids by lifecycle state.
// All operations are advisory; failures never affect the monitor's domain
// state.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

const (
	keyPrefix      = "alert:"
	indexPrefix    = "alert:index:status:"
	recordTTL      = 7 * 24 * time.Hour
	terminalRecTTL = time.Hour
)

// AlertCache implements service.AlertCache on Redis.
type AlertCache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *AlertCache { return &AlertCache{rdb: rdb} }

// WriteAlert stores the record and moves it to its status index set.
func (c *AlertCache) WriteAlert(ctx context.Context, a *model.SecurityAlert) error {
	if c.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert for cache: %w", err)
	}
	key := keyPrefix + a.AlertID
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key, payload, recordTTL)
	for _, st := range []model.AlertStatus{
		model.StatusPending, model.StatusSent, model.StatusAcknowledged,
	} {
		if st == a.Status {
			pipe.SAdd(ctx, indexPrefix+string(st), a.AlertID)
		} else {
			pipe.SRem(ctx, indexPrefix+string(st), a.AlertID)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// RemoveAlert drops the record from all live-status indexes and shortens the
// record TTL; terminal alerts only need to linger long enough for dashboards
// to render the transition.
func (c *AlertCache) RemoveAlert(ctx context.Context, alertID string, final model.AlertStatus) error {
	if c.rdb == nil {
		return nil
	}
	key := keyPrefix + alertID
	pipe := c.rdb.TxPipeline()
	for _, st := range []model.AlertStatus{
		model.StatusPending, model.StatusSent, model.StatusAcknowledged,
	} {
		pipe.SRem(ctx, indexPrefix+string(st), alertID)
	}
	pipe.SAdd(ctx, indexPrefix+string(final), alertID)
	pipe.Expire(ctx, indexPrefix+string(final), recordTTL)
	pipe.Expire(ctx, key, terminalRecTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache remove: %w", err)
	}
	return nil
}

// ActiveIDs lists alert ids currently indexed under a live status.
func (c *AlertCache) ActiveIDs(ctx context.Context, status model.AlertStatus) ([]string, error) {
	if c.rdb == nil {
		return nil, nil
	}
	ids, err := c.rdb.SMembers(ctx, indexPrefix+string(status)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache index read: %w", err)
	}
	return ids, nil
}
