//go:build windows

package main

import (
	"github.com/halcyonsec/watchpost/internal/config"
	"github.com/halcyonsec/watchpost/internal/monitoring/notify"
)

// log/syslog is unavailable on windows; the channel stays unregistered.
func registerSyslog(_ *notify.Dispatcher, _ config.SyslogChannelConfig) {}
