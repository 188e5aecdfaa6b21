package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// EmailConfig configures the SMTP relay channel.
type EmailConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// EmailNotifier delivers alerts through an SMTP relay.
type EmailNotifier struct {
	cfg EmailConfig
	// sendMail allows overriding for tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, sendMail: smtp.SendMail}
}

func (n *EmailNotifier) Channel() model.NotificationChannel { return model.ChannelEmail }

func (n *EmailNotifier) Send(ctx context.Context, alert *model.SecurityAlert) error {
	if n.cfg.Host == "" || len(n.cfg.To) == 0 {
		return fmt.Errorf("email channel not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Title)
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n\r\n", subject)
	fmt.Fprintf(&b, "Alert:       %s\r\n", alert.AlertID)
	fmt.Fprintf(&b, "Rule:        %s\r\n", alert.RuleID)
	fmt.Fprintf(&b, "Metric:      %s\r\n", alert.Metric)
	fmt.Fprintf(&b, "Current:     %g (threshold %g)\r\n", alert.CurrentValue, alert.ThresholdValue)
	fmt.Fprintf(&b, "Fired at:    %s\r\n\r\n", alert.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "%s\r\n", alert.Description)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.sendMail(addr, auth, n.cfg.From, n.cfg.To, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
