package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

func TestAlertCacheNilClient(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	assert.NoError(t, c.WriteAlert(ctx, &model.SecurityAlert{AlertID: "alert-x"}))
	assert.NoError(t, c.RemoveAlert(ctx, "alert-x", model.StatusResolved))
	ids, err := c.ActiveIDs(ctx, model.StatusPending)
	assert.NoError(t, err)
	assert.Nil(t, ids)
}

func TestAlertCache(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer rdb.Close()

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping test")
	}

	c := New(rdb)
	alert := &model.SecurityAlert{
		AlertID:   "alert-cache-test",
		RuleID:    "r1",
		Severity:  model.SeverityHigh,
		Title:     "cache test",
		Metric:    model.MetricOpenPortCount,
		Timestamp: time.Now().UTC(),
		Status:    model.StatusPending,
	}
	t.Cleanup(func() {
		rdb.Del(ctx, keyPrefix+alert.AlertID)
		for _, st := range []model.AlertStatus{
			model.StatusPending, model.StatusSent, model.StatusAcknowledged, model.StatusResolved,
		} {
			rdb.SRem(ctx, indexPrefix+string(st), alert.AlertID)
		}
	})

	t.Run("WriteAlert indexes by status", func(t *testing.T) {
		require.NoError(t, c.WriteAlert(ctx, alert))
		ids, err := c.ActiveIDs(ctx, model.StatusPending)
		require.NoError(t, err)
		assert.Contains(t, ids, alert.AlertID)
	})

	t.Run("status transition moves the index entry", func(t *testing.T) {
		alert.Status = model.StatusSent
		require.NoError(t, c.WriteAlert(ctx, alert))

		pending, err := c.ActiveIDs(ctx, model.StatusPending)
		require.NoError(t, err)
		assert.NotContains(t, pending, alert.AlertID)

		sent, err := c.ActiveIDs(ctx, model.StatusSent)
		require.NoError(t, err)
		assert.Contains(t, sent, alert.AlertID)
	})

	t.Run("RemoveAlert clears live indexes", func(t *testing.T) {
		require.NoError(t, c.RemoveAlert(ctx, alert.AlertID, model.StatusResolved))
		sent, err := c.ActiveIDs(ctx, model.StatusSent)
		require.NoError(t, err)
		assert.NotContains(t, sent, alert.AlertID)

		ttl, err := rdb.TTL(ctx, keyPrefix+alert.AlertID).Result()
		require.NoError(t, err)
		assert.True(t, ttl > 0 && ttl <= terminalRecTTL)
	})
}
