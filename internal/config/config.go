// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port         int     `yaml:"port"`
	WebhookRPS   float64 `yaml:"webhook_rps"`   // per-IP sustained rate for the webhook route
	WebhookBurst int     `yaml:"webhook_burst"` // per-IP burst for the webhook route
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type GatewayConfig struct {
	MerchantID  string `yaml:"merchant_id"`
	PublicKey   string `yaml:"public_key"`   // widget session credential, opaque here
	BaseURL     string `yaml:"base_url"`     // gateway deployment to talk to
	AccessToken string `yaml:"access_token"` // bearer credential for verification pulls
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty -> in-memory record store
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty -> in-memory dedup store
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // how long a delivery key stays absorbed
}

type ReconcilerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.WebhookRPS <= 0 {
		cfg.Server.WebhookRPS = 10
	}
	if cfg.Server.WebhookBurst <= 0 {
		cfg.Server.WebhookBurst = 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 24 * time.Hour
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}

	// Minimal validation
	if cfg.Gateway.MerchantID == "" {
		return nil, errors.New("gateway.merchant_id is required")
	}
	if cfg.Gateway.BaseURL == "" {
		return nil, errors.New("gateway.base_url is required")
	}
	if cfg.Gateway.AccessToken == "" {
		return nil, errors.New("gateway.access_token is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
