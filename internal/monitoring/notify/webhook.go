package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// WebhookConfig configures the generic HTTP webhook channel.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Timeout time.Duration     `json:"timeout"`
}

// webhookPayload is the body POSTed to generic webhooks.
type webhookPayload struct {
	Type      string               `json:"type"` // always "alert"
	Alert     *model.SecurityAlert `json:"alert"`
	Timestamp time.Time            `json:"timestamp"`
	Source    string               `json:"source"`
}

// WebhookNotifier POSTs alerts as JSON to a configured endpoint.
type WebhookNotifier struct {
	cfg    WebhookConfig
	client *http.Client
}

func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WebhookNotifier{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (n *WebhookNotifier) Channel() model.NotificationChannel { return model.ChannelWebhook }

func (n *WebhookNotifier) Send(ctx context.Context, alert *model.SecurityAlert) error {
	if n.cfg.URL == "" {
		return fmt.Errorf("webhook channel not configured")
	}
	body, err := json.Marshal(webhookPayload{
		Type:      "alert",
		Alert:     alert,
		Timestamp: time.Now().UTC(),
		Source:    "watchpost",
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "watchpost/1.0")
	for k, v := range n.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
