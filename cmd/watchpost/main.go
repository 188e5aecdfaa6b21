package main

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/halcyonsec/watchpost/internal/config"
	"github.com/halcyonsec/watchpost/internal/middleware"
	monapi "github.com/halcyonsec/watchpost/internal/monitoring/api"
	"github.com/halcyonsec/watchpost/internal/monitoring/cache"
	mdb "github.com/halcyonsec/watchpost/internal/monitoring/database"
	"github.com/halcyonsec/watchpost/internal/monitoring/model"
	"github.com/halcyonsec/watchpost/internal/monitoring/notify"
	"github.com/halcyonsec/watchpost/internal/monitoring/service"
)

func main() {
	log.Info().Msg("Starting watchpost api server")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// configure log level from config
	switch strings.ToLower(cfg.Logging.Level) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// optional redis for the dashboard channel and the active-alert cache
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Workers:     cfg.Monitoring.Dispatch.Workers,
		QueueSize:   cfg.Monitoring.Dispatch.QueueSize,
		SendTimeout: parseDuration(cfg.Monitoring.Dispatch.SendTimeout, 10*time.Second),
	}, nil)
	registerNotifiers(dispatcher, cfg, rdb)
	dispatcher.Start(ctx)

	opts := []service.Option{
		service.WithHistoryLimit(cfg.Monitoring.HistoryLimit),
	}

	// optional postgres archive for alerts surviving restarts
	if cfg.Database.Enabled {
		db, derr := mdb.New(cfg.Database.DSN())
		if derr != nil {
			log.Error().Err(derr).Msg("alert archive DB init failed; running in-memory only")
		} else {
			defer db.Close()
			opts = append(opts, service.WithArchive(mdb.NewAlertStore(db)))
		}
	}
	if rdb != nil {
		opts = append(opts, service.WithCache(cache.New(rdb)))
	}

	monitor := service.NewMonitor(dispatcher, opts...)

	if cfg.Monitoring.RulesFile != "" {
		if err := monitor.BootstrapRulesFromFile(cfg.Monitoring.RulesFile); err != nil {
			log.Error().Err(err).Str("file", cfg.Monitoring.RulesFile).Msg("bootstrap rules failed")
		}
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.Authentication(cfg.Server.APIToken))
	monapi.NewApi(router, monitor)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Msgf("Starting server on %s", cfg.Server.BindAddr)
	if err := router.Run(cfg.Server.BindAddr); err != nil {
		log.Fatal().Err(err).Msg("start watchpost api server failed.")
	}
	log.Info().Msg("watchpost api server exit...")
}

// registerNotifiers wires every channel that has enough configuration to
// deliver. Unconfigured channels are skipped so a dispatch to them reports
// an error instead of silently succeeding.
func registerNotifiers(d *notify.Dispatcher, cfg *config.Config, rdb *redis.Client) {
	ch := cfg.Monitoring.Channels
	if ch.Email.Host != "" {
		d.Register(notify.NewEmailNotifier(notify.EmailConfig{
			Host:     ch.Email.Host,
			Port:     ch.Email.Port,
			Username: ch.Email.Username,
			Password: ch.Email.Password,
			From:     ch.Email.From,
			To:       ch.Email.To,
		}))
	}
	if ch.SMS.GatewayURL != "" {
		d.Register(notify.NewSMSNotifier(notify.SMSConfig{
			GatewayURL: ch.SMS.GatewayURL,
			APIKey:     ch.SMS.APIKey,
			Recipients: ch.SMS.Recipients,
		}))
	}
	if ch.Slack.WebhookURL != "" {
		d.Register(notify.NewSlackNotifier(notify.SlackConfig{
			WebhookURL: ch.Slack.WebhookURL,
			ChannelTag: ch.Slack.Channel,
		}))
	}
	if ch.Webhook.URL != "" {
		d.Register(notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     ch.Webhook.URL,
			Headers: ch.Webhook.Headers,
		}))
	}
	if rdb != nil {
		d.Register(notify.NewDashboardNotifier(rdb))
	}
	registerSyslog(d, ch.Syslog)

	for _, c := range []model.NotificationChannel{
		model.ChannelEmail, model.ChannelSMS, model.ChannelSlack,
		model.ChannelWebhook, model.ChannelDashboard, model.ChannelSyslog,
	} {
		log.Info().Str("channel", string(c)).Bool("registered", d.Has(c)).Msg("notification channel")
	}
}

func parseDuration(s string, d time.Duration) time.Duration {
	if s == "" {
		return d
	}
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	return d
}
