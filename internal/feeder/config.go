package feeder

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config drives the promfeeder sidecar: where to pull samples from, which
// PromQL queries feed which watchpost metrics, and where to push snapshots.
type Config struct {
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Watchpost  WatchpostConfig  `yaml:"watchpost"`
	Queries    []MetricQuery    `yaml:"queries"`
	Server     ServerConfig     `yaml:"server"`
}

type PrometheusConfig struct {
	Address string `yaml:"address"`
}

type WatchpostConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIToken     string `yaml:"api_token"`
	SessionID    string `yaml:"session_id"`     // optional session to attribute snapshots to
	PushInterval string `yaml:"push_interval"`  // e.g. "30s"
	QueryRange   string `yaml:"query_range"`    // lookback for range queries, e.g. "5m"
	QueryStep    string `yaml:"query_step"`     // range query resolution
}

// MetricQuery maps one PromQL expression to a watchpost metric name.
type MetricQuery struct {
	Metric string `yaml:"metric"`
	Query  string `yaml:"query"`
}

type ServerConfig struct {
	BindAddr string `yaml:"bind_addr"`
}

// LoadConfig reads the YAML file at configPath, falling back to defaults
// when the file is absent, then applies environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/promfeeder.yml"
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Warn().Str("path", configPath).Msg("config file not found, using default configuration")
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.Prometheus.Address == "" {
		return nil, fmt.Errorf("prometheus address is required")
	}
	if cfg.Watchpost.BaseURL == "" {
		return nil, fmt.Errorf("watchpost base_url is required")
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Prometheus: PrometheusConfig{Address: "http://localhost:9090"},
		Watchpost: WatchpostConfig{
			BaseURL:      "http://localhost:8080",
			PushInterval: "30s",
			QueryRange:   "5m",
			QueryStep:    "1m",
		},
		Server: ServerConfig{BindAddr: "0.0.0.0:9999"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROMETHEUS_ADDRESS"); v != "" {
		cfg.Prometheus.Address = v
	}
	if v := os.Getenv("WATCHPOST_BASE_URL"); v != "" {
		cfg.Watchpost.BaseURL = v
	}
	if v := os.Getenv("WATCHPOST_API_TOKEN"); v != "" {
		cfg.Watchpost.APIToken = v
	}
	if v := os.Getenv("FEEDER_PUSH_INTERVAL"); v != "" {
		cfg.Watchpost.PushInterval = v
	}
	if v := os.Getenv("FEEDER_BIND_ADDR"); v != "" {
		cfg.Server.BindAddr = v
	}
}

// Interval returns the parsed push interval with a sane fallback.
func (c *WatchpostConfig) Interval() time.Duration {
	return parseDuration(c.PushInterval, 30*time.Second)
}

func (c *WatchpostConfig) Range() time.Duration { return parseDuration(c.QueryRange, 5*time.Minute) }

func (c *WatchpostConfig) Step() time.Duration { return parseDuration(c.QueryStep, time.Minute) }

func parseDuration(s string, d time.Duration) time.Duration {
	if s == "" {
		return d
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		log.Warn().Err(err).Str("value", s).Msg("invalid duration, using default")
		return d
	}
	return v
}
