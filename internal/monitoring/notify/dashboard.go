package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// DashboardChannel is the Redis pub/sub channel UI event streams subscribe to.
const DashboardChannel = "watchpost:dashboard:alerts"

type dashboardEvent struct {
	Type      string               `json:"type"` // "alert"
	Alert     *model.SecurityAlert `json:"alert"`
	Timestamp time.Time            `json:"timestamp"`
}

// DashboardNotifier pushes alerts onto the UI event stream via Redis pub/sub.
type DashboardNotifier struct {
	rdb *redis.Client
}

func NewDashboardNotifier(rdb *redis.Client) *DashboardNotifier {
	return &DashboardNotifier{rdb: rdb}
}

func (n *DashboardNotifier) Channel() model.NotificationChannel { return model.ChannelDashboard }

func (n *DashboardNotifier) Send(ctx context.Context, alert *model.SecurityAlert) error {
	if n.rdb == nil {
		return fmt.Errorf("dashboard channel not configured")
	}
	payload, err := json.Marshal(dashboardEvent{Type: "alert", Alert: alert, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal dashboard event: %w", err)
	}
	if err := n.rdb.Publish(ctx, DashboardChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish dashboard event: %w", err)
	}
	return nil
}
