// Package config provides configuration loading for cascadelog.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variable overrides,
// e.g. CASCADELOG_LLM_API_KEY -> llm.api_key.
const envPrefix = "CASCADELOG_"

// Config holds all cascadelog configuration.
type Config struct {
	Cascade  CascadeConfig  `koanf:"cascade"`
	Embedder EmbedderConfig `koanf:"embedder"`
	LLM      LLMConfig      `koanf:"llm"`
	Rules    RulesConfig    `koanf:"rules"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// CascadeConfig holds orchestrator policy.
type CascadeConfig struct {
	// ConfidenceThreshold is the minimum semantic-stage confidence
	// accepted without LLM verification.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
	// Workers bounds concurrent record processing.
	Workers int `koanf:"workers"`
	// BatchTimeoutSeconds bounds a whole batch; 0 disables.
	BatchTimeoutSeconds int `koanf:"batch_timeout_seconds"`
}

// EmbedderConfig holds embedding provider settings.
type EmbedderConfig struct {
	// Provider is "fastembed" (local ONNX) or "openai" (any
	// OpenAI-compatible embedding endpoint, including TEI).
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	CacheDir string `koanf:"cache_dir"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

// LLMConfig holds verification-stage settings.
type LLMConfig struct {
	BaseURL        string   `koanf:"base_url"`
	APIKey         string   `koanf:"api_key"`
	Model          string   `koanf:"model"`
	Temperature    float64  `koanf:"temperature"`
	TimeoutSeconds int      `koanf:"timeout_seconds"`
	// MaxRetries bounds retry attempts after the first call for
	// transient failures (timeout, 429, 5xx).
	MaxRetries int `koanf:"max_retries"`
	// RequestsPerSecond limits outbound call rate. 0 disables.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// AllowedLabels is the closed vocabulary the LLM may answer with.
	// "Unclassified" is always accepted and need not be listed.
	AllowedLabels []string `koanf:"allowed_labels"`
}

// RulesConfig holds pattern-stage settings.
type RulesConfig struct {
	// Path points at a YAML rule file. Empty means built-in rules only.
	Path string `koanf:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// Default returns the built-in configuration. The 0.75 confidence
// cutoff and retry budget of 2 are load-bearing policy values; tests
// depend on them.
func Default() Config {
	return Config{
		Cascade: CascadeConfig{
			ConfidenceThreshold: 0.75,
			Workers:             4,
		},
		Embedder: EmbedderConfig{
			Provider: "fastembed",
			Model:    "BAAI/bge-small-en-v1.5",
			CacheDir: "local_cache",
		},
		LLM: LLMConfig{
			BaseURL:           "https://api.groq.com/openai/v1",
			Model:             "gemma2-9b-it",
			Temperature:       0.5,
			TimeoutSeconds:    30,
			MaxRetries:        2,
			RequestsPerSecond: 2,
			AllowedLabels:     []string{"Workflow Error", "Deprecation Warning"},
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds configuration from defaults, then the YAML file at path
// (if non-empty and present), then CASCADELOG_* environment variables.
// Later sources win.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	// Unmarshal overlays loaded keys onto the defaults; anything the
	// file and environment leave unset keeps its Default() value.
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("config: env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envTransform maps CASCADELOG_LLM_API_KEY to llm.api_key. The first
// underscore after the prefix separates the section; the rest is the
// field name, which may itself contain underscores.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

// Validate checks policy values that would otherwise fail deep inside
// a batch.
func (c Config) Validate() error {
	if c.Cascade.ConfidenceThreshold < 0 || c.Cascade.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: confidence_threshold %v outside [0,1]", c.Cascade.ConfidenceThreshold)
	}
	if c.Cascade.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Cascade.Workers)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("config: max_retries must be >= 0, got %d", c.LLM.MaxRetries)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config: temperature %v outside [0,2]", c.LLM.Temperature)
	}
	switch c.Embedder.Provider {
	case "fastembed", "openai":
	default:
		return fmt.Errorf("config: unknown embedder provider %q", c.Embedder.Provider)
	}
	return nil
}
