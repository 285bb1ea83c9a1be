// Package embedder produces sentence embeddings for log messages.
//
// Two providers are supported: "fastembed" runs a local ONNX BERT
// model, "openai" calls any OpenAI-compatible embedding endpoint
// (including TEI). Both are constructed once at startup and shared
// read-only across workers.
package embedder

import (
	"context"
	"fmt"

	"github.com/cascadehq/cascadelog/internal/config"
)

// Embedder produces vector embeddings from text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// New creates an Embedder from configuration. Provider construction
// failure (model download/load, bad endpoint) is a startup error; the
// process must not run without a working embedder.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	switch cfg.Provider {
	case "fastembed", "":
		return newFastEmbed(cfg)
	case "openai":
		return newRemote(cfg)
	default:
		return nil, fmt.Errorf("embedder: unknown provider %q", cfg.Provider)
	}
}
