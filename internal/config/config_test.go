package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicyValues(t *testing.T) {
	cfg := Default()
	if cfg.Cascade.ConfidenceThreshold != 0.75 {
		t.Fatalf("expected default threshold 0.75, got %v", cfg.Cascade.ConfidenceThreshold)
	}
	if cfg.LLM.MaxRetries != 2 {
		t.Fatalf("expected default retry budget 2, got %d", cfg.LLM.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `cascade:
  confidence_threshold: 0.9
  workers: 2
llm:
  model: llama-3.1-8b-instant
  allowed_labels:
    - Workflow Error
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cascade.ConfidenceThreshold != 0.9 {
		t.Fatalf("expected threshold 0.9, got %v", cfg.Cascade.ConfidenceThreshold)
	}
	if cfg.Cascade.Workers != 2 {
		t.Fatalf("expected 2 workers, got %d", cfg.Cascade.Workers)
	}
	if cfg.LLM.Model != "llama-3.1-8b-instant" {
		t.Fatalf("unexpected model %q", cfg.LLM.Model)
	}
	if len(cfg.LLM.AllowedLabels) != 1 {
		t.Fatalf("expected replaced label list, got %v", cfg.LLM.AllowedLabels)
	}
	// Untouched keys keep defaults.
	if cfg.LLM.MaxRetries != 2 {
		t.Fatalf("expected default retry budget, got %d", cfg.LLM.MaxRetries)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  model: from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("CASCADELOG_LLM_MODEL", "from-env")
	t.Setenv("CASCADELOG_CASCADE_CONFIDENCE_THRESHOLD", "0.5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "from-env" {
		t.Fatalf("expected env to win, got %q", cfg.LLM.Model)
	}
	if cfg.Cascade.ConfidenceThreshold != 0.5 {
		t.Fatalf("expected env threshold 0.5, got %v", cfg.Cascade.ConfidenceThreshold)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cascade.ConfidenceThreshold != 0.75 {
		t.Fatalf("expected defaults, got %v", cfg.Cascade.ConfidenceThreshold)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Cascade.ConfidenceThreshold = 1.5 },
		func(c *Config) { c.Cascade.ConfidenceThreshold = -0.1 },
		func(c *Config) { c.Cascade.Workers = 0 },
		func(c *Config) { c.LLM.MaxRetries = -1 },
		func(c *Config) { c.LLM.Temperature = 3 },
		func(c *Config) { c.Embedder.Provider = "mystery" },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestEnvTransform(t *testing.T) {
	cases := map[string]string{
		"CASCADELOG_LLM_API_KEY":                  "llm.api_key",
		"CASCADELOG_CASCADE_CONFIDENCE_THRESHOLD": "cascade.confidence_threshold",
		"CASCADELOG_SERVER_ADDR":                  "server.addr",
	}
	for in, want := range cases {
		if got := envTransform(in); got != want {
			t.Errorf("envTransform(%q) = %q, want %q", in, got, want)
		}
	}
}
