// Package config loads server configuration from an optional TOML file with
// environment variable overrides for deployment-specific settings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full server configuration.
type Config struct {
	Server Server `toml:"server"`
	Store  Store  `toml:"store"`
	Engine Engine `toml:"engine"`
	NATS   NATS   `toml:"nats"`
}

// Server holds HTTP listener settings.
type Server struct {
	Port     string `toml:"port"`
	LogLevel string `toml:"log_level"`
}

// Store holds persistence settings. An empty DatabaseURL selects the
// in-memory store; an empty RedisURL disables the snapshot cache.
type Store struct {
	DatabaseURL string   `toml:"database_url"`
	RedisURL    string   `toml:"redis_url"`
	CacheTTL    Duration `toml:"cache_ttl"`
}

// Engine holds recalculation tuning.
type Engine struct {
	Debounce Duration `toml:"debounce"`
}

// NATS holds event publishing settings. An empty URL disables publishing.
type NATS struct {
	URL     string `toml:"url"`
	Subject string `toml:"subject"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Load reads the config file at path, falling back to defaults when path is
// empty, then applies environment overrides (PORT, DATABASE_URL, REDIS_URL,
// NATS_URL, LOG_LEVEL).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// DefaultConfig returns the built-in defaults: in-memory store, no cache,
// no event publishing.
func DefaultConfig() *Config {
	return &Config{
		Server: Server{
			Port:     "8080",
			LogLevel: "info",
		},
		Store: Store{
			CacheTTL: Duration{30 * time.Second},
		},
		Engine: Engine{
			Debounce: Duration{100 * time.Millisecond},
		},
		NATS: NATS{
			Subject: "draft.events",
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Store.RedisURL = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
}
