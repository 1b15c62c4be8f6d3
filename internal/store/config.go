package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from YAML. Secrets
// (telegram token, database password, broker keys) come from the
// environment, not from this file.
type Config struct {
	Mode string `yaml:"mode"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Name     string `yaml:"name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"database"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
	} `yaml:"redis"`

	Telegram struct {
		Enabled      bool    `yaml:"enabled"`
		AllowedChats []int64 `yaml:"allowed_chats"`
	} `yaml:"telegram"`

	Webhook struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		Path    string `yaml:"path"`
	} `yaml:"webhook"`

	Bars struct {
		BaseURL      string `yaml:"base_url"`
		CacheSeconds int    `yaml:"cache_seconds"`
	} `yaml:"bars"`

	HistorySyncDays int `yaml:"history_sync_days"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return errors.New("database.host and database.name cannot be empty")
	}
	if !c.Telegram.Enabled && !c.Webhook.Enabled {
		return errors.New("at least one signal source (telegram or webhook) must be enabled")
	}
	if c.Webhook.Enabled && c.Webhook.Path == "" {
		return errors.New("webhook.path cannot be empty when the webhook source is enabled")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Webhook.Addr == "" {
		c.Webhook.Addr = ":8080"
	}
	if c.Bars.CacheSeconds == 0 {
		c.Bars.CacheSeconds = 60
	}
	if c.HistorySyncDays == 0 {
		c.HistorySyncDays = 90
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
