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

// SlackConfig configures the Slack incoming-webhook channel.
type SlackConfig struct {
	WebhookURL string        `json:"webhook_url"`
	ChannelTag string        `json:"channel"` // optional #channel override
	Timeout    time.Duration `json:"timeout"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Ts     int64        `json:"ts"`
}

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Attachments []slackAttachment `json:"attachments"`
}

// SlackNotifier delivers alerts via a Slack incoming webhook.
type SlackNotifier struct {
	cfg    SlackConfig
	client *http.Client
}

func NewSlackNotifier(cfg SlackConfig) *SlackNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SlackNotifier{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (n *SlackNotifier) Channel() model.NotificationChannel { return model.ChannelSlack }

func severityColor(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "#d50200"
	case model.SeverityHigh:
		return "#de4e2b"
	case model.SeverityMedium:
		return "#f2c744"
	case model.SeverityLow:
		return "#2eb886"
	default:
		return "#439fe0"
	}
}

func (n *SlackNotifier) Send(ctx context.Context, alert *model.SecurityAlert) error {
	if n.cfg.WebhookURL == "" {
		return fmt.Errorf("slack channel not configured")
	}
	msg := slackMessage{
		Channel:   n.cfg.ChannelTag,
		Username:  "watchpost",
		IconEmoji: ":rotating_light:",
		Attachments: []slackAttachment{{
			Color: severityColor(alert.Severity),
			Title: alert.Title,
			Text:  alert.Description,
			Fields: []slackField{
				{Title: "Severity", Value: string(alert.Severity), Short: true},
				{Title: "Metric", Value: string(alert.Metric), Short: true},
				{Title: "Current", Value: fmt.Sprintf("%g", alert.CurrentValue), Short: true},
				{Title: "Threshold", Value: fmt.Sprintf("%g", alert.ThresholdValue), Short: true},
			},
			Ts: alert.Timestamp.Unix(),
		}},
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack status %d", resp.StatusCode)
	}
	return nil
}
