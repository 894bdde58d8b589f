// Package config loads the bridge configuration from an optional YAML file
// and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	IG      IGConfig      `yaml:"ig"`
	Order   OrderConfig   `yaml:"order"`
	Webhook WebhookConfig `yaml:"webhook"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type IGConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	APIKey   string `yaml:"api_key"`
	AccType  string `yaml:"acc_type"`
	// APIURL overrides the gateway host derived from AccType.
	APIURL string `yaml:"api_url"`
}

type OrderConfig struct {
	DefaultCurrency       string `yaml:"default_currency"`
	SessionTTLMinutes     int    `yaml:"session_ttl_minutes"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

type WebhookConfig struct {
	Secret           string `yaml:"secret"`
	DedupeTTLMinutes int    `yaml:"dedupe_ttl_minutes"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 10000},
		IG:     IGConfig{AccType: "DEMO"},
		Order: OrderConfig{
			DefaultCurrency:       "EUR",
			SessionTTLMinutes:     20,
			RequestTimeoutSeconds: 30,
		},
		Webhook: WebhookConfig{DedupeTTLMinutes: 10},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is non-empty), and finally environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: failed to read %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: failed to parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.IG.AccType != "DEMO" && cfg.IG.AccType != "LIVE" {
		cfg.IG.AccType = "DEMO"
	}

	return cfg, nil
}

// Validate checks the settings the server cannot run without. Without a
// webhook secret every authenticated route would refuse all callers, so an
// unset secret is a startup error rather than a silent lockout.
func (c *Config) Validate() error {
	if c.Webhook.Secret == "" {
		return fmt.Errorf("config: webhook secret is not set; set WEBHOOK_SECRET or webhook.secret")
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("IG_USERNAME"); v != "" {
		cfg.IG.Username = v
	}
	if v := os.Getenv("IG_PASSWORD"); v != "" {
		cfg.IG.Password = v
	}
	if v := os.Getenv("IG_API_KEY"); v != "" {
		cfg.IG.APIKey = v
	}
	if v := os.Getenv("IG_ACC_TYPE"); v != "" {
		cfg.IG.AccType = v
	}
	if v := os.Getenv("IG_API_URL"); v != "" {
		cfg.IG.APIURL = v
	}

	if v := os.Getenv("IG_DEFAULT_CURRENCY"); v != "" {
		cfg.Order.DefaultCurrency = v
	}

	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
