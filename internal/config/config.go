package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Server  ServerConfig
	Groq    GroqConfig
	Storage StorageConfig
	Limits  LimitsConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type GroqConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout string // Go duration string, e.g. "30s"
}

type StorageConfig struct {
	DataDir string
}

type LimitsConfig struct {
	MaxTranscriptChars int
	RateLimitMax       int
	RateLimitWindow    string // Go duration string, e.g. "5m"
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 5000,
		},
		Groq: GroqConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.1-8b-instant",
			Timeout: "30s",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Limits: LimitsConfig{
			MaxTranscriptChars: 4000,
			RateLimitMax:       20,
			RateLimitWindow:    "5m",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.callsight.app) and the
// Groq API key falls back to macOS Keychain. On Linux the backend is a JSON
// file at $XDG_CONFIG_HOME/callsight/config.json and the key falls back to a
// local secrets file.
//
// Environment variables (CALLSIGHT_*, plus GROQ_API_KEY for the secret)
// override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the API key if still empty.
	if cfg.Groq.APIKey == "" {
		if key, err := kc.Get("callsight", "groq_api_key"); err == nil && key != "" {
			cfg.Groq.APIKey = key
		}
	}

	if cfg.Groq.APIKey == "" {
		msg := "missing required config: Groq API key. " +
			"Set it via environment variable GROQ_API_KEY" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
