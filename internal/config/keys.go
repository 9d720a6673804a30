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
		key: "server.port", typ: kInt, env: "CALLSIGHT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "groq.base_url", typ: kString, env: "CALLSIGHT_GROQ_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Groq.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.BaseURL },
	},
	{
		key: "groq.model", typ: kString, env: "CALLSIGHT_GROQ_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Groq.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.Model },
	},
	{
		key: "groq.api_key", typ: kString, env: "GROQ_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Groq.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.APIKey },
	},
	{
		key: "groq.timeout", typ: kString, env: "CALLSIGHT_GROQ_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Groq.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.Timeout },
	},
	{
		key: "storage.data_dir", typ: kString, env: "CALLSIGHT_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "limits.max_transcript_chars", typ: kInt, env: "CALLSIGHT_MAX_TRANSCRIPT_CHARS",
		apply:   func(cfg *Config, v any) { cfg.Limits.MaxTranscriptChars = v.(int) },
		extract: func(cfg Config) any { return cfg.Limits.MaxTranscriptChars },
	},
	{
		key: "limits.rate_limit_max", typ: kInt, env: "CALLSIGHT_RATE_LIMIT_MAX",
		apply:   func(cfg *Config, v any) { cfg.Limits.RateLimitMax = v.(int) },
		extract: func(cfg Config) any { return cfg.Limits.RateLimitMax },
	},
	{
		key: "limits.rate_limit_window", typ: kString, env: "CALLSIGHT_RATE_LIMIT_WINDOW",
		apply:   func(cfg *Config, v any) { cfg.Limits.RateLimitWindow = v.(string) },
		extract: func(cfg Config) any { return cfg.Limits.RateLimitWindow },
	},
	{
		key: "log.level", typ: kString, env: "CALLSIGHT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
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
		if s.env == "" {
			continue
		}
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
