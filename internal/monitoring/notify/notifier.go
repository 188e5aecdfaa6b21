// Package notify implements the notification fan-out for fired alerts: a
// bounded dispatch queue and one Notifier implementation per delivery
// channel. Channel sends are best-effort; a failing channel never blocks
// alert creation or the other channels.
package notify

import (
	"context"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// Notifier delivers an alert over one channel kind. Implementations must be
// safe for concurrent use; Send should honor ctx for cancellation/timeout.
type Notifier interface {
	Channel() model.NotificationChannel
	Send(ctx context.Context, alert *model.SecurityAlert) error
}
