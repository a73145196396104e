package config

import (
	"time"

	"golang-news-dashboard/pkg/common"
	"golang-news-dashboard/pkg/config"
	"golang-news-dashboard/pkg/telegram"
)

// Channel holds push channel configuration.
type Channel struct {
	RedisChannel   string        `mapstructure:"redis_channel"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

// Backend holds configuration for the dashboard backend pull endpoints.
type Backend struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	AIConfigTTL         time.Duration `mapstructure:"ai_config_ttl"`
}

// Poller holds the polling fallback configuration.
type Poller struct {
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`
	ResyncInterval  time.Duration `mapstructure:"resync_interval"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
}

// Reconciler holds article list configuration.
type Reconciler struct {
	Bound         int           `mapstructure:"bound"`
	MarkerTTL     time.Duration `mapstructure:"marker_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Chat holds chat assembly configuration.
type Chat struct {
	FirstChunkTimeout time.Duration `mapstructure:"first_chunk_timeout"`
	MaxMessages       int           `mapstructure:"max_messages"`
	Slot              string        `mapstructure:"slot"`
}

// Alert holds configuration for recommendation alerts.
type Alert struct {
	Enabled       bool          `mapstructure:"enabled"`
	MinConfidence int           `mapstructure:"min_confidence"`
	DedupWindow   time.Duration `mapstructure:"dedup_window"`
}

// Config holds the full configuration for the dashboard sync service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Channel    Channel         `mapstructure:"channel"`
	Backend    Backend         `mapstructure:"backend"`
	Poller     Poller          `mapstructure:"poller"`
	Reconciler Reconciler      `mapstructure:"reconciler"`
	Chat       Chat            `mapstructure:"chat"`
	Telegram   telegram.Config `mapstructure:"telegram"`
	Alert      Alert           `mapstructure:"alert"`
}

// envKeys can be supplied purely through the environment.
var envKeys = []string{
	"redis.host", "redis.port", "redis.password",
	"backend.base_url",
	"telegram.bot_token", "telegram.chat_id",
	"alert.enabled",
}

// Load loads the dashboard configuration from the given path and fills in
// defaults for unset values.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, envKeys...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults sets every zero value that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "dashboard-sync"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Encoding == "" {
		c.Logger.Encoding = "json"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.API.Port == 0 {
		c.API.Port = 8090
	}
	if c.Channel.RedisChannel == "" {
		c.Channel.RedisChannel = common.RedisChannelDashboardEvents
	}
	if c.Channel.RetryDelay == 0 {
		c.Channel.RetryDelay = 2 * time.Second
	}
	if c.Channel.HealthInterval == 0 {
		c.Channel.HealthInterval = 30 * time.Second
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Backend.MaxRequestPerMinute == 0 {
		c.Backend.MaxRequestPerMinute = 120
	}
	if c.Backend.AIConfigTTL == 0 {
		c.Backend.AIConfigTTL = time.Minute
	}
	if c.Poller.MetricsInterval == 0 {
		c.Poller.MetricsInterval = 5 * time.Second
	}
	if c.Poller.ResyncInterval == 0 {
		c.Poller.ResyncInterval = 2 * time.Second
	}
	if c.Poller.PollTimeout == 0 {
		c.Poller.PollTimeout = 10 * time.Second
	}
	if c.Reconciler.Bound == 0 {
		c.Reconciler.Bound = 50
	}
	if c.Reconciler.MarkerTTL == 0 {
		c.Reconciler.MarkerTTL = 3 * time.Second
	}
	if c.Reconciler.SweepInterval == 0 {
		c.Reconciler.SweepInterval = 500 * time.Millisecond
	}
	if c.Chat.FirstChunkTimeout == 0 {
		c.Chat.FirstChunkTimeout = 60 * time.Second
	}
	if c.Chat.MaxMessages == 0 {
		c.Chat.MaxMessages = 200
	}
	if c.Chat.Slot == "" {
		c.Chat.Slot = common.DefaultChatSlot
	}
	if c.Alert.MinConfidence == 0 {
		c.Alert.MinConfidence = 80
	}
	if c.Alert.DedupWindow == 0 {
		c.Alert.DedupWindow = 24 * time.Hour
	}
}
