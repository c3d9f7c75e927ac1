package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Provider names accepted by the *_PROVIDER / *_STORE variables.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderNone     = "none"
	ProviderMemory   = "memory"
	ProviderRedis    = "redis"
	ProviderPostgres = "postgres"
	ProviderNATS     = "nats"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	// Server
	Port           int           `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"20m"`

	// Uploads
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"104857600"` // 100MB in bytes
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"upload-dir"`

	// External transcriber
	TranscriberInterpreter string        `env:"TRANSCRIBER_INTERPRETER" envDefault:"python3"`
	TranscriberScript      string        `env:"TRANSCRIBER_SCRIPT" envDefault:"main.py"`
	TranscriberWorkDir     string        `env:"TRANSCRIBER_WORKDIR"`
	TranscriberTimeout     time.Duration `env:"TRANSCRIBER_TIMEOUT" envDefault:"15m"`

	// Remote summarizer
	RemoteProvider string        `env:"REMOTE_PROVIDER" envDefault:"gemini"` // "gemini", "openai" or "none"
	RemoteBaseURL  string        `env:"REMOTE_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	RemoteAPIKey   string        `env:"REMOTE_API_KEY"`
	RemoteModel    string        `env:"REMOTE_MODEL" envDefault:"gemini-2.0-flash"`
	RemoteTimeout  time.Duration `env:"REMOTE_TIMEOUT" envDefault:"60s"`

	// Session preferences
	PreferenceStore string        `env:"PREFERENCE_STORE" envDefault:"memory"` // "memory" or "redis"
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Job store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"memory"` // "memory" or "postgres"
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"none"` // "none" or "nats"
	QueueURL      string `env:"QUEUE_URL"`
}

// ConfigurationError reports a missing or inconsistent setting found at startup.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiModel   = "gemini-2.0-flash"
	openAIBaseURL = "https://api.openai.com/v1"
	openAIModel   = "gpt-4o-mini"
)

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	cfg.applyProviderDefaults()
	return cfg
}

// applyProviderDefaults swaps the Gemini endpoint defaults for the OpenAI
// ones when REMOTE_PROVIDER=openai and they were not overridden.
func (c *Config) applyProviderDefaults() {
	if c.RemoteProvider != ProviderOpenAI {
		return
	}
	if c.RemoteBaseURL == geminiBaseURL {
		c.RemoteBaseURL = openAIBaseURL
	}
	if c.RemoteModel == geminiModel {
		c.RemoteModel = openAIModel
	}
}

// Validate checks that every selected provider has what it needs.
func (c Config) Validate() error {
	if c.TranscriberScript == "" {
		return &ConfigurationError{Field: "TRANSCRIBER_SCRIPT", Message: "script path is required"}
	}
	if c.TranscriberTimeout <= 0 {
		return &ConfigurationError{Field: "TRANSCRIBER_TIMEOUT", Message: "must be positive"}
	}

	switch c.RemoteProvider {
	case ProviderNone:
	case ProviderGemini, ProviderOpenAI:
		if c.RemoteAPIKey == "" {
			return &ConfigurationError{Field: "REMOTE_API_KEY", Message: fmt.Sprintf("required when REMOTE_PROVIDER=%s", c.RemoteProvider)}
		}
		if c.RemoteBaseURL == "" {
			return &ConfigurationError{Field: "REMOTE_BASE_URL", Message: fmt.Sprintf("required when REMOTE_PROVIDER=%s", c.RemoteProvider)}
		}
		if c.RemoteTimeout <= 0 {
			return &ConfigurationError{Field: "REMOTE_TIMEOUT", Message: "must be positive"}
		}
	default:
		return &ConfigurationError{Field: "REMOTE_PROVIDER", Message: fmt.Sprintf("invalid value %q (valid: gemini, openai, none)", c.RemoteProvider)}
	}

	switch c.PreferenceStore {
	case ProviderMemory:
	case ProviderRedis:
		if c.RedisAddr == "" {
			return &ConfigurationError{Field: "REDIS_ADDR", Message: "required when PREFERENCE_STORE=redis"}
		}
	default:
		return &ConfigurationError{Field: "PREFERENCE_STORE", Message: fmt.Sprintf("invalid value %q (valid: memory, redis)", c.PreferenceStore)}
	}

	switch c.StoreProvider {
	case ProviderMemory:
	case ProviderPostgres:
		if c.DBURL == "" {
			return &ConfigurationError{Field: "DB_URL", Message: "required when STORE_PROVIDER=postgres"}
		}
	default:
		return &ConfigurationError{Field: "STORE_PROVIDER", Message: fmt.Sprintf("invalid value %q (valid: memory, postgres)", c.StoreProvider)}
	}

	switch c.QueueProvider {
	case ProviderNone:
	case ProviderNATS:
		if c.QueueURL == "" {
			return &ConfigurationError{Field: "QUEUE_URL", Message: "required when QUEUE_PROVIDER=nats"}
		}
		// Gateway and worker are separate processes and must share the job table.
		if c.StoreProvider != ProviderPostgres {
			return &ConfigurationError{Field: "STORE_PROVIDER", Message: "must be postgres when QUEUE_PROVIDER=nats"}
		}
	default:
		return &ConfigurationError{Field: "QUEUE_PROVIDER", Message: fmt.Sprintf("invalid value %q (valid: none, nats)", c.QueueProvider)}
	}
	return nil
}
