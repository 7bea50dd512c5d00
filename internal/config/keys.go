package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "CIVIC_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", typ: kString, env: "CIVIC_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "CIVIC_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "admin.token", typ: kString, env: "CIVIC_ADMIN_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Admin.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Admin.Token },
	},
	{
		key: "recommend.top_n", typ: kInt, env: "CIVIC_RECOMMEND_TOP_N",
		apply:   func(cfg *Config, v any) { cfg.Recommend.TopN = v.(int) },
		extract: func(cfg Config) any { return cfg.Recommend.TopN },
	},
	{
		key: "recommend.history_limit", typ: kInt, env: "CIVIC_RECOMMEND_HISTORY_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Recommend.HistoryLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Recommend.HistoryLimit },
	},
	{
		key: "cache.ttl", typ: kString, env: "CIVIC_CACHE_TTL",
		apply:   func(cfg *Config, v any) { cfg.Cache.TTL = v.(string) },
		extract: func(cfg Config) any { return cfg.Cache.TTL },
	},
	{
		key: "ratelimit.requests", typ: kInt, env: "CIVIC_RATELIMIT_REQUESTS",
		apply:   func(cfg *Config, v any) { cfg.RateLimit.Requests = v.(int) },
		extract: func(cfg Config) any { return cfg.RateLimit.Requests },
	},
	{
		key: "ratelimit.window", typ: kString, env: "CIVIC_RATELIMIT_WINDOW",
		apply:   func(cfg *Config, v any) { cfg.RateLimit.Window = v.(string) },
		extract: func(cfg Config) any { return cfg.RateLimit.Window },
	},
	{
		key: "tracking.poll_interval", typ: kString, env: "CIVIC_TRACKING_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Tracking.PollInterval = v.(string) },
		extract: func(cfg Config) any { return cfg.Tracking.PollInterval },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
