package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	originalEnv := os.Environ()
	os.Clearenv()
	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range originalEnv {
			if k, v, ok := strings.Cut(kv, "="); ok {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"UploadDir", cfg.UploadDir, "upload-dir"},
		{"TranscriberInterpreter", cfg.TranscriberInterpreter, "python3"},
		{"TranscriberScript", cfg.TranscriberScript, "main.py"},
		{"TranscriberTimeout", cfg.TranscriberTimeout, 15 * time.Minute},
		{"RemoteProvider", cfg.RemoteProvider, ProviderGemini},
		{"RemoteBaseURL", cfg.RemoteBaseURL, "https://generativelanguage.googleapis.com"},
		{"RemoteModel", cfg.RemoteModel, "gemini-2.0-flash"},
		{"RemoteTimeout", cfg.RemoteTimeout, 60 * time.Second},
		{"PreferenceStore", cfg.PreferenceStore, ProviderMemory},
		{"SessionTTL", cfg.SessionTTL, 24 * time.Hour},
		{"StoreProvider", cfg.StoreProvider, ProviderMemory},
		{"QueueProvider", cfg.QueueProvider, ProviderNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRANSCRIBER_INTERPRETER", "/opt/venv/bin/python")
	t.Setenv("TRANSCRIBER_TIMEOUT", "90s")
	t.Setenv("REMOTE_PROVIDER", "openai")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/opt/venv/bin/python", cfg.TranscriberInterpreter)
	assert.Equal(t, 90*time.Second, cfg.TranscriberTimeout)
	assert.Equal(t, ProviderOpenAI, cfg.RemoteProvider)
}

func TestLoadOpenAIDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_PROVIDER", "openai")

	cfg := Load()
	assert.Equal(t, "https://api.openai.com/v1", cfg.RemoteBaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.RemoteModel)

	t.Setenv("REMOTE_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("REMOTE_MODEL", "llama3")

	cfg = Load()
	assert.Equal(t, "http://localhost:11434/v1", cfg.RemoteBaseURL)
	assert.Equal(t, "llama3", cfg.RemoteModel)
}

func validConfig() Config {
	return Config{
		TranscriberScript:  "main.py",
		TranscriberTimeout: time.Minute,
		RemoteProvider:     ProviderGemini,
		RemoteBaseURL:      "https://generativelanguage.googleapis.com",
		RemoteAPIKey:       "key",
		RemoteTimeout:      time.Minute,
		PreferenceStore:    ProviderMemory,
		StoreProvider:      ProviderMemory,
		QueueProvider:      ProviderNone,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "remote disabled needs no key", mutate: func(c *Config) {
			c.RemoteProvider = ProviderNone
			c.RemoteAPIKey = ""
		}},
		{name: "missing api key", mutate: func(c *Config) { c.RemoteAPIKey = "" }, wantField: "REMOTE_API_KEY"},
		{name: "missing base url", mutate: func(c *Config) { c.RemoteBaseURL = "" }, wantField: "REMOTE_BASE_URL"},
		{name: "unknown remote provider", mutate: func(c *Config) { c.RemoteProvider = "claude" }, wantField: "REMOTE_PROVIDER"},
		{name: "missing script", mutate: func(c *Config) { c.TranscriberScript = "" }, wantField: "TRANSCRIBER_SCRIPT"},
		{name: "redis without addr", mutate: func(c *Config) { c.PreferenceStore = ProviderRedis }, wantField: "REDIS_ADDR"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StoreProvider = ProviderPostgres }, wantField: "DB_URL"},
		{name: "nats without url", mutate: func(c *Config) { c.QueueProvider = ProviderNATS }, wantField: "QUEUE_URL"},
		{name: "nats with in-memory job store", mutate: func(c *Config) {
			c.QueueProvider, c.QueueURL = ProviderNATS, "nats://localhost:4222"
		}, wantField: "STORE_PROVIDER"},
		{name: "nats with postgres job store", mutate: func(c *Config) {
			c.QueueProvider, c.QueueURL = ProviderNATS, "nats://localhost:4222"
			c.StoreProvider, c.DBURL = ProviderPostgres, "postgres://localhost/jobs"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}
