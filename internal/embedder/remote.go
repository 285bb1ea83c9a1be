package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/cascadehq/cascadelog/internal/config"
)

// remoteEmbedder calls an OpenAI-compatible embedding endpoint through
// langchaingo. TEI speaks the same protocol, so a local TEI server
// works with an empty API key.
type remoteEmbedder struct {
	embedder *embeddings.EmbedderImpl
}

func newRemote(cfg config.EmbedderConfig) (*remoteEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedder: base_url required for openai provider")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedder: model required for openai provider")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// langchaingo refuses an empty token even though TEI ignores it.
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("embedder: creating openai client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("embedder: creating embedder: %w", err)
	}
	return &remoteEmbedder{embedder: emb}, nil
}

func (r *remoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedder: remote embed: %w", err)
	}
	return vec, nil
}

func (r *remoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedder: remote embed batch: %w", err)
	}
	return vecs, nil
}

// Close is a no-op; the remote provider holds no local resources.
func (r *remoteEmbedder) Close() error {
	return nil
}
