//go:build !windows

package notify

import (
	"context"
	"fmt"
	"log/syslog"
	"sync"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// SyslogConfig configures the syslog sink. Empty Network/Addr means the
// local system logger.
type SyslogConfig struct {
	Network string `json:"network"` // "udp", "tcp" or "" for local
	Addr    string `json:"addr"`
	Tag     string `json:"tag"`
}

// SyslogNotifier writes alerts to a local or remote syslog sink. The writer
// is dialed lazily on first send and reused afterwards.
type SyslogNotifier struct {
	cfg SyslogConfig

	mu sync.Mutex
	w  *syslog.Writer
}

func NewSyslogNotifier(cfg SyslogConfig) *SyslogNotifier {
	if cfg.Tag == "" {
		cfg.Tag = "watchpost"
	}
	return &SyslogNotifier{cfg: cfg}
}

func (n *SyslogNotifier) Channel() model.NotificationChannel { return model.ChannelSyslog }

func (n *SyslogNotifier) writer() (*syslog.Writer, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.w != nil {
		return n.w, nil
	}
	w, err := syslog.Dial(n.cfg.Network, n.cfg.Addr, syslog.LOG_ALERT|syslog.LOG_DAEMON, n.cfg.Tag)
	if err != nil {
		return nil, fmt.Errorf("dial syslog: %w", err)
	}
	n.w = w
	return w, nil
}

func (n *SyslogNotifier) Send(ctx context.Context, alert *model.SecurityAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w, err := n.writer()
	if err != nil {
		return err
	}
	line := fmt.Sprintf("alert_id=%s rule_id=%s severity=%s metric=%s value=%g threshold=%g title=%q",
		alert.AlertID, alert.RuleID, alert.Severity, alert.Metric, alert.CurrentValue, alert.ThresholdValue, alert.Title)

	switch alert.Severity {
	case model.SeverityCritical:
		err = w.Crit(line)
	case model.SeverityHigh:
		err = w.Err(line)
	case model.SeverityMedium:
		err = w.Warning(line)
	case model.SeverityLow:
		err = w.Notice(line)
	default:
		err = w.Info(line)
	}
	if err != nil {
		// drop the cached writer so the next send redials
		n.mu.Lock()
		n.w = nil
		n.mu.Unlock()
		return fmt.Errorf("syslog write: %w", err)
	}
	return nil
}
