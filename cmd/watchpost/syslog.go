//go:build !windows

package main

import (
	"github.com/halcyonsec/watchpost/internal/config"
	"github.com/halcyonsec/watchpost/internal/monitoring/notify"
)

func registerSyslog(d *notify.Dispatcher, cfg config.SyslogChannelConfig) {
	if cfg.Tag == "" {
		return
	}
	d.Register(notify.NewSyslogNotifier(notify.SyslogConfig{
		Network: cfg.Network,
		Addr:    cfg.Addr,
		Tag:     cfg.Tag,
	}))
}
