package config

import (
	"time"

	"github.com/spf13/viper"
)

type APICfg struct {
	BaseURL        string `mapstructure:"base_url"`
	WSURL          string `mapstructure:"ws_url"`
	AuthToken      string `mapstructure:"auth_token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SyncCfg struct {
	PageSize            int     `mapstructure:"page_size"`
	BackfillBatchSize   int     `mapstructure:"backfill_batch_size"`
	BackfillMaxEmpty    int     `mapstructure:"backfill_max_empty"`
	BackfillIntervalMs  int     `mapstructure:"backfill_interval_ms"`
	ReadFraction        float64 `mapstructure:"read_fraction"`
	FollowBottomPixels  float64 `mapstructure:"follow_bottom_pixels"`
	BreakerMaxFailures  uint32  `mapstructure:"breaker_max_failures"`
	BreakerOpenSeconds  int     `mapstructure:"breaker_open_seconds"`
}

type AMQPCfg struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type OTLPCfg struct {
	Endpoint string `mapstructure:"endpoint"`
}

type Config struct {
	UserID      int64   `mapstructure:"user_id"`
	Environment string  `mapstructure:"environment"`
	DebugPort   string  `mapstructure:"debug_port"`
	Development bool    `mapstructure:"development"`
	API         APICfg  `mapstructure:"api"`
	Sync        SyncCfg `mapstructure:"sync"`
	AMQP        AMQPCfg `mapstructure:"amqp"`
	OTLP        OTLPCfg `mapstructure:"otlp"`
	// Derived
	APITimeout       time.Duration
	BackfillInterval time.Duration
	BreakerOpen      time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("CHAT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 20
	}
	if cfg.Sync.BackfillBatchSize == 0 {
		cfg.Sync.BackfillBatchSize = cfg.Sync.PageSize
	}
	if cfg.Sync.BackfillMaxEmpty == 0 {
		cfg.Sync.BackfillMaxEmpty = 3
	}
	if cfg.Sync.BackfillIntervalMs == 0 {
		cfg.Sync.BackfillIntervalMs = 200
	}
	if cfg.Sync.ReadFraction == 0 {
		cfg.Sync.ReadFraction = 0.5
	}
	if cfg.Sync.FollowBottomPixels == 0 {
		cfg.Sync.FollowBottomPixels = 120
	}
	if cfg.Sync.BreakerMaxFailures == 0 {
		cfg.Sync.BreakerMaxFailures = 5
	}
	if cfg.Sync.BreakerOpenSeconds == 0 {
		cfg.Sync.BreakerOpenSeconds = 30
	}
	if cfg.DebugPort == "" {
		cfg.DebugPort = "8090"
	}
	cfg.APITimeout = time.Duration(cfg.API.TimeoutSeconds) * time.Second
	cfg.BackfillInterval = time.Duration(cfg.Sync.BackfillIntervalMs) * time.Millisecond
	cfg.BreakerOpen = time.Duration(cfg.Sync.BreakerOpenSeconds) * time.Second
	return &cfg, nil
}
