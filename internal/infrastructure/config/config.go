// Package config provides Viper-based configuration management for latentqa.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete latentqa configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Session   SessionConfig   `mapstructure:"session"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr        string          `mapstructure:"addr"`
	CORSOrigins []string        `mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig is the per-client token bucket. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// LLMConfig selects the chat completion backend.
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider    string `mapstructure:"provider"`
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	Concurrency int    `mapstructure:"concurrency"`
}

// IndexConfig selects where document vectors live.
type IndexConfig struct {
	Backend  string `mapstructure:"backend"`
	Path     string `mapstructure:"path"`
	Snapshot string `mapstructure:"snapshot"`
	DSN      string `mapstructure:"dsn"`
	Watch    bool   `mapstructure:"watch"`
}

// RetrievalConfig tunes context assembly.
type RetrievalConfig struct {
	TokenLimit    int  `mapstructure:"token_limit"`
	Dedupe        bool `mapstructure:"dedupe"`
	HistoryWindow int  `mapstructure:"history_window"`
}

// SessionConfig bounds conversation memory.
type SessionConfig struct {
	MaxSessions int           `mapstructure:"max_sessions"`
	TTL         time.Duration `mapstructure:"ttl"`
	MaxMessages int           `mapstructure:"max_messages"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	OTel   bool   `mapstructure:"otel"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load reads configuration from defaults, an optional file, LATENTQA_*
// environment variables and, when given, bound command line flags.
// Flag names use dashes in place of dots and underscores, e.g. --server-addr.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("latentqa")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/latentqa")
	}

	v.SetEnvPrefix("LATENTQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if flags != nil {
		for _, key := range v.AllKeys() {
			if f := flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// The hosted default is Groq, which documents this variable.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	}

	applyProviderDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func flagName(key string) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(key)
}

type endpoint struct{ baseURL, model string }

// Endpoints used when a provider is selected without naming them. Groq
// serves no embeddings, so the openai embedding provider points at OpenAI.
var (
	llmDefaults = map[string]endpoint{
		"openai": {"https://api.groq.com/openai/v1", "gemma2-9b-it"},
		"ollama": {"http://localhost:11434", "llama3.2"},
	}
	embeddingDefaults = map[string]endpoint{
		"openai": {"https://api.openai.com/v1", "text-embedding-3-small"},
		"ollama": {"http://localhost:11434", "nomic-embed-text"},
	}
)

func applyProviderDefaults(cfg *Config) {
	if d, ok := llmDefaults[cfg.LLM.Provider]; ok {
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = d.baseURL
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = d.model
		}
	}
	if d, ok := embeddingDefaults[cfg.Embedding.Provider]; ok {
		if cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = d.baseURL
		}
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = d.model
		}
	}
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit.rps", 5.0)
	v.SetDefault("server.rate_limit.burst", 10)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.concurrency", 4)

	v.SetDefault("index.backend", "sqlite")
	v.SetDefault("index.path", "./data")
	v.SetDefault("index.snapshot", "./data/index.json")
	v.SetDefault("index.dsn", "")
	v.SetDefault("index.watch", false)

	v.SetDefault("retrieval.token_limit", 1000)
	v.SetDefault("retrieval.dedupe", false)
	v.SetDefault("retrieval.history_window", 4)

	v.SetDefault("session.max_sessions", 1024)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.max_messages", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.otel", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "latentqa")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	if cfg.Server.Addr == "" {
		return invalid("server.addr is required")
	}
	if cfg.Server.RateLimit.RPS < 0 {
		return invalid("server.rate_limit.rps must not be negative")
	}
	if cfg.Server.RateLimit.RPS > 0 && cfg.Server.RateLimit.Burst <= 0 {
		return invalid("server.rate_limit.burst must be positive when rate limiting is on")
	}

	switch cfg.LLM.Provider {
	case "openai", "ollama":
	default:
		return invalid("unknown llm.provider %q (must be openai or ollama)", cfg.LLM.Provider)
	}

	switch cfg.Embedding.Provider {
	case "openai", "ollama":
	default:
		return invalid("unknown embedding.provider %q (must be ollama or openai)", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Concurrency <= 0 {
		return invalid("embedding.concurrency must be positive")
	}

	switch cfg.Index.Backend {
	case "sqlite":
		if cfg.Index.Path == "" {
			return invalid("index.path is required for the sqlite backend")
		}
	case "memory":
		if cfg.Index.Snapshot == "" {
			return invalid("index.snapshot is required for the memory backend")
		}
	case "pgvector":
		if cfg.Index.DSN == "" {
			return invalid("index.dsn is required for the pgvector backend")
		}
	default:
		return invalid("unknown index.backend %q (must be sqlite, memory or pgvector)", cfg.Index.Backend)
	}

	if cfg.Retrieval.TokenLimit <= 0 {
		return invalid("retrieval.token_limit must be positive")
	}
	if cfg.Retrieval.HistoryWindow < 0 {
		return invalid("retrieval.history_window must not be negative")
	}

	if cfg.Session.MaxSessions <= 0 || cfg.Session.MaxMessages <= 0 || cfg.Session.TTL <= 0 {
		return invalid("session limits must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return invalid("logging.level %q (must be debug, info, warn, or error)", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return invalid("logging.format %q (must be text or json)", cfg.Logging.Format)
	}

	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return invalid("telemetry.sample_ratio must be within [0, 1]")
	}

	return nil
}
