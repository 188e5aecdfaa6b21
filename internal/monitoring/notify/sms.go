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

// SMSConfig configures the carrier-gateway SMS channel. The gateway is any
// HTTP endpoint accepting {"to": "...", "message": "..."} with a bearer key.
type SMSConfig struct {
	GatewayURL string        `json:"gateway_url"`
	APIKey     string        `json:"api_key"`
	Recipients []string      `json:"recipients"`
	Timeout    time.Duration `json:"timeout"`
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SMSNotifier delivers a short alert summary to each configured recipient.
// Per-recipient failures are collected; the send fails only if every
// recipient fails.
type SMSNotifier struct {
	cfg    SMSConfig
	client *http.Client
}

func NewSMSNotifier(cfg SMSConfig) *SMSNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMSNotifier{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (n *SMSNotifier) Channel() model.NotificationChannel { return model.ChannelSMS }

func (n *SMSNotifier) Send(ctx context.Context, alert *model.SecurityAlert) error {
	if n.cfg.GatewayURL == "" || len(n.cfg.Recipients) == 0 {
		return fmt.Errorf("sms channel not configured")
	}
	text := fmt.Sprintf("watchpost %s: %s (%s=%g, threshold %g)",
		alert.Severity, alert.Title, alert.Metric, alert.CurrentValue, alert.ThresholdValue)

	var lastErr error
	delivered := 0
	for _, to := range n.cfg.Recipients {
		if err := n.sendOne(ctx, to, text); err != nil {
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("sms delivery failed for all recipients: %w", lastErr)
	}
	return nil
}

func (n *SMSNotifier) sendOne(ctx context.Context, to, text string) error {
	body, err := json.Marshal(smsRequest{To: to, Message: text})
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway status %d", resp.StatusCode)
	}
	return nil
}
