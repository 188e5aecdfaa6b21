package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Logging    LoggingConfig    `json:"logging"`
	Redis      RedisConfig      `json:"redis"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

type ServerConfig struct {
	BindAddr string `json:"bindAddr"`
	APIToken string `json:"apiToken"` // empty disables API auth
}

type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// DSN renders the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LoggingConfig struct {
	Level string `json:"level"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type MonitoringConfig struct {
	RulesFile    string         `json:"rulesFile"`    // optional YAML bootstrap
	HistoryLimit int            `json:"historyLimit"` // in-memory alert history ring size
	Dispatch     DispatchConfig `json:"dispatch"`
	Channels     ChannelsConfig `json:"channels"`
}

type DispatchConfig struct {
	Workers     int    `json:"workers"` // 0 = inline synchronous dispatch
	QueueSize   int    `json:"queueSize"`
	SendTimeout string `json:"sendTimeout"` // e.g. "10s"
}

type ChannelsConfig struct {
	Email   EmailChannelConfig   `json:"email"`
	SMS     SMSChannelConfig     `json:"sms"`
	Slack   SlackChannelConfig   `json:"slack"`
	Webhook WebhookChannelConfig `json:"webhook"`
	Syslog  SyslogChannelConfig  `json:"syslog"`
}

type EmailChannelConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type SMSChannelConfig struct {
	GatewayURL string   `json:"gatewayUrl"`
	APIKey     string   `json:"apiKey"`
	Recipients []string `json:"recipients"`
}

type SlackChannelConfig struct {
	WebhookURL string `json:"webhookUrl"`
	Channel    string `json:"channel"`
}

type WebhookChannelConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

type SyslogChannelConfig struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	Tag     string `json:"tag"`
}

func Load() (*Config, error) {
	configFile := flag.String("f", "", "Path to configuration file")
	flag.Parse()

	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getEnv("SERVER_BIND_ADDR", "0.0.0.0:8080"),
			APIToken: getEnv("API_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Enabled:  getEnv("DB_ENABLED", "") == "true",
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "watchpost"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "watchpost"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "") == "true",
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Monitoring: MonitoringConfig{
			RulesFile:    getEnv("ALERT_RULES_FILE", ""),
			HistoryLimit: getEnvInt("ALERT_HISTORY_LIMIT", 10000),
			Dispatch: DispatchConfig{
				Workers:     getEnvInt("DISPATCH_WORKERS", 4),
				QueueSize:   getEnvInt("DISPATCH_QUEUE_SIZE", 256),
				SendTimeout: getEnv("DISPATCH_SEND_TIMEOUT", "10s"),
			},
			Channels: ChannelsConfig{
				Email: EmailChannelConfig{
					Host: getEnv("SMTP_HOST", ""),
					Port: getEnvInt("SMTP_PORT", 587),
					From: getEnv("SMTP_FROM", "alerts@watchpost.local"),
				},
				SMS: SMSChannelConfig{
					GatewayURL: getEnv("SMS_GATEWAY_URL", ""),
					APIKey:     getEnv("SMS_API_KEY", ""),
				},
				Slack: SlackChannelConfig{
					WebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
				},
				Webhook: WebhookChannelConfig{
					URL: getEnv("ALERT_WEBHOOK_URL", ""),
				},
				Syslog: SyslogChannelConfig{
					Network: getEnv("SYSLOG_NETWORK", ""),
					Addr:    getEnv("SYSLOG_ADDR", ""),
					Tag:     getEnv("SYSLOG_TAG", "watchpost"),
				},
			},
		},
	}

	if *configFile != "" {
		if err := loadFromFile(cfg, *configFile); err != nil {
			log.Err(err)
			return nil, err
		}
	}

	// fill reasonable defaults when fields omitted in file
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = "0.0.0.0:8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Monitoring.HistoryLimit <= 0 {
		cfg.Monitoring.HistoryLimit = 10000
	}
	if cfg.Monitoring.Dispatch.QueueSize <= 0 {
		cfg.Monitoring.Dispatch.QueueSize = 256
	}
	if cfg.Monitoring.Dispatch.SendTimeout == "" {
		cfg.Monitoring.Dispatch.SendTimeout = "10s"
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
