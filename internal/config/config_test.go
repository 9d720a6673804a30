package config

import (
	"strings"
	"testing"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend map[string]any

func (b mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (b mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (b mapBackend) SetString(key, val string) error  { b[key] = val; return nil }
func (b mapBackend) SetInt(key string, val int) error { b[key] = val; return nil }
func (b mapBackend) Delete(key string) error          { delete(b, key); return nil }

func TestDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")

	cfg, err := loadWith(mapBackend{}, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Groq.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Groq.BaseURL = %q, want Groq endpoint", cfg.Groq.BaseURL)
	}
	if cfg.Groq.Model != "llama-3.1-8b-instant" {
		t.Errorf("Groq.Model = %q, want %q", cfg.Groq.Model, "llama-3.1-8b-instant")
	}
	if cfg.Groq.Timeout != "30s" {
		t.Errorf("Groq.Timeout = %q, want %q", cfg.Groq.Timeout, "30s")
	}
	if cfg.Limits.MaxTranscriptChars != 4000 {
		t.Errorf("Limits.MaxTranscriptChars = %d, want 4000", cfg.Limits.MaxTranscriptChars)
	}
	if cfg.Limits.RateLimitMax != 20 {
		t.Errorf("Limits.RateLimitMax = %d, want 20", cfg.Limits.RateLimitMax)
	}
}

func TestBackendValuesApplied(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")

	b := mapBackend{
		"server.port": 8080,
		"groq.model":  "llama-3.3-70b-versatile",
	}

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Groq.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Groq.Model = %q, want backend value", cfg.Groq.Model)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("CALLSIGHT_GROQ_MODEL", "env-model")

	b := mapBackend{"groq.model": "backend-model"}

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Groq.Model != "env-model" {
		t.Errorf("Groq.Model = %q, want %q", cfg.Groq.Model, "env-model")
	}
}

func TestKeychainFallbackForAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := loadWith(mapBackend{}, mockKeychain{value: "kc-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Groq.APIKey != "kc-key" {
		t.Errorf("Groq.APIKey = %q, want %q", cfg.Groq.APIKey, "kc-key")
	}
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := loadWith(mapBackend{}, mockKeychain{err: errNotFoundForTest})
	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("error = %q, want it to mention missing required config", err)
	}
}

var errNotFoundForTest = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }

func TestSetKeyRejectsSecret(t *testing.T) {
	if err := SetKey("groq.api_key", "oops"); err == nil {
		t.Fatal("expected error setting secret key via config, got nil")
	}
}

func TestValidKeysExcludeSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if k == "groq.api_key" {
			t.Fatal("ValidKeys includes the secret key")
		}
	}
}
