package config

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App struct {
		StatusEveryMin int    `toml:"status_every_min"`
		LogLevel       string `toml:"log_level"`
	} `toml:"app"`

	API struct {
		BaseURL string `toml:"base_url"`
	} `toml:"api"`

	Stream struct {
		WsURL          string `toml:"ws_url"`
		HeartbeatSec   int    `toml:"heartbeat_s"`
		ReconnectSec   int    `toml:"reconnect_wait_s"`
		DialRetrySec   int    `toml:"dial_retry_wait_s"`
		ReadTimeoutSec int    `toml:"read_timeout_s"`
	} `toml:"stream"`

	Engine struct {
		RefreshEverySec int `toml:"refresh_every_s"`
		PollEverySec    int `toml:"poll_every_s"`
	} `toml:"engine"`

	Metrics struct {
		Enabled bool   `toml:"enabled"`
		Listen  string `toml:"listen"`
	} `toml:"metrics"`

	Storage struct {
		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`

		Redis struct {
			Enabled bool   `toml:"enabled"`
			Addr    string `toml:"addr"`
			Prefix  string `toml:"prefix"`
		} `toml:"redis"`
	} `toml:"storage"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.StatusEveryMin <= 0 {
		cfg.App.StatusEveryMin = 5
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Stream.HeartbeatSec <= 0 {
		cfg.Stream.HeartbeatSec = 25
	}
	if cfg.Stream.ReconnectSec <= 0 {
		cfg.Stream.ReconnectSec = 3
	}
	if cfg.Stream.DialRetrySec <= 0 {
		cfg.Stream.DialRetrySec = 5
	}
	if cfg.Stream.ReadTimeoutSec <= 0 {
		cfg.Stream.ReadTimeoutSec = 60
	}
	if cfg.Engine.RefreshEverySec <= 0 {
		cfg.Engine.RefreshEverySec = 60
	}
	if cfg.Engine.PollEverySec <= 0 {
		cfg.Engine.PollEverySec = 5
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9109"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "livedesk"
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return errors.New("api.base_url is empty")
	}
	if strings.TrimSpace(cfg.Stream.WsURL) == "" {
		return errors.New("stream.ws_url is empty")
	}
	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}
	if cfg.Storage.SQLite.Enabled && strings.TrimSpace(cfg.Storage.SQLite.Path) == "" {
		return errors.New("storage.sqlite.path empty but enabled")
	}
	return nil
}
