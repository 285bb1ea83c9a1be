package cascadelog

import (
	"context"

	"github.com/cascadehq/cascadelog/internal/config"
	"github.com/cascadehq/cascadelog/internal/rules"
)

// Embedder produces vector embeddings from text. Supply one via
// WithEmbedder to bypass the built-in providers (useful for tests and
// custom models).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// Completer is the external LLM capability. Supply one via
// WithCompleter to substitute a test double or a different provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Rule is one pattern-stage entry. Source is optional; empty applies
// the rule to every source. Rules are evaluated source-scoped first,
// then global, in declaration order.
type Rule struct {
	Source  string
	Pattern string
	Label   string
}

type options struct {
	cfg       config.Config
	ruleSpecs []rules.Spec
	embedder  Embedder
	completer Completer
}

// Option configures a Classifier.
type Option func(*options)

// WithConfidenceThreshold sets the minimum semantic confidence
// accepted without LLM verification. Default: 0.75.
func WithConfidenceThreshold(t float64) Option {
	return func(o *options) { o.cfg.Cascade.ConfidenceThreshold = t }
}

// WithWorkers bounds concurrent record processing. Default: 4.
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Cascade.Workers = n }
}

// WithRules replaces the built-in pattern rules.
func WithRules(rs []Rule) Option {
	return func(o *options) {
		o.ruleSpecs = make([]rules.Spec, len(rs))
		for i, r := range rs {
			o.ruleSpecs[i] = rules.Spec{Source: r.Source, Pattern: r.Pattern, Label: r.Label}
		}
	}
}

// WithAllowedLabels replaces the label vocabulary the LLM stage may
// answer with. "Unclassified" is always accepted.
func WithAllowedLabels(labels []string) Option {
	return func(o *options) { o.cfg.LLM.AllowedLabels = labels }
}

// WithLLM points the verification stage at an OpenAI-compatible chat
// endpoint (Groq by default when baseURL is empty).
func WithLLM(baseURL, apiKey, model string) Option {
	return func(o *options) {
		if baseURL != "" {
			o.cfg.LLM.BaseURL = baseURL
		}
		o.cfg.LLM.APIKey = apiKey
		if model != "" {
			o.cfg.LLM.Model = model
		}
	}
}

// WithMaxRetries sets the transient-failure retry budget for the LLM
// stage. Default: 2.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.cfg.LLM.MaxRetries = n }
}

// WithEmbeddingModel selects the local fastembed model. Default:
// BAAI/bge-small-en-v1.5.
func WithEmbeddingModel(model string) Option {
	return func(o *options) { o.cfg.Embedder.Model = model }
}

// WithEmbedder supplies a ready embedder, skipping provider
// construction entirely.
func WithEmbedder(e Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithCompleter supplies a ready LLM completer, skipping client
// construction entirely.
func WithCompleter(c Completer) Option {
	return func(o *options) { o.completer = c }
}

func defaultOptions() options {
	return options{
		cfg:       config.Default(),
		ruleSpecs: rules.DefaultSpecs(),
	}
}
