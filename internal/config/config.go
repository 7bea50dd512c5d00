package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Log       LogConfig
	Admin     AdminConfig
	Recommend RecommendConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Tracking  TrackingConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type AdminConfig struct {
	Token string
}

type RecommendConfig struct {
	TopN         int
	HistoryLimit int
}

type CacheConfig struct {
	TTL string
}

type RateLimitConfig struct {
	Requests int
	Window   string
}

type TrackingConfig struct {
	PollInterval string
}

func defaults() Config {
	return Config{
		Server:    ServerConfig{Port: 4100},
		Storage:   StorageConfig{DataDir: defaultDataDir()},
		Log:       LogConfig{Level: "info"},
		Recommend: RecommendConfig{TopN: 5, HistoryLimit: 20},
		Cache:     CacheConfig{TTL: "60s"},
		RateLimit: RateLimitConfig{Requests: 120, Window: "1m"},
		Tracking:  TrackingConfig{PollInterval: "500ms"},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/civic/config.json, then environment variables (CIVIC_*),
// which win. Secrets are never read from the config file: they come from the
// environment or the secrets file at $XDG_DATA_HOME/civic/secrets.json.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), fileSecrets{})
}

// secretStore abstracts secret lookup for testing.
type secretStore interface {
	Get(key string) (string, error)
}

func loadWith(b ConfigBackend, secrets secretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	for _, s := range specs {
		if !s.secret || s.extract(cfg) != "" {
			continue
		}
		if v, err := secrets.Get(s.key); err == nil && v != "" {
			s.apply(&cfg, strings.TrimSpace(v))
		}
	}

	for _, d := range []struct{ key, val string }{
		{"cache.ttl", cfg.Cache.TTL},
		{"ratelimit.window", cfg.RateLimit.Window},
		{"tracking.poll_interval", cfg.Tracking.PollInterval},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return Config{}, fmt.Errorf("invalid duration for %s: %w", d.key, err)
		}
	}

	return cfg, nil
}

// RequireAdminToken reports a descriptive error when no admin token is set.
func (c Config) RequireAdminToken() error {
	if c.Admin.Token == "" {
		return fmt.Errorf("missing required config: admin token. " +
			"Set it via environment variable CIVIC_ADMIN_TOKEN or `civic config set-secret admin.token <value>`")
	}
	return nil
}

// CacheTTL returns the parsed cache.ttl. Load has already validated it.
func (c Config) CacheTTL() time.Duration { return mustDuration(c.Cache.TTL) }

// RateLimitWindow returns the parsed ratelimit.window.
func (c Config) RateLimitWindow() time.Duration { return mustDuration(c.RateLimit.Window) }

// PollInterval returns the parsed tracking.poll_interval.
func (c Config) PollInterval() time.Duration { return mustDuration(c.Tracking.PollInterval) }

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
