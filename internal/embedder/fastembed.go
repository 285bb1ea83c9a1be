package embedder

import (
	"context"
	"fmt"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/cascadehq/cascadelog/internal/config"
)

// embedBatchSize is the chunk size handed to the ONNX session per
// inference call.
const embedBatchSize = 256

// modelNames maps friendly model identifiers to fastembed constants.
var modelNames = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

// fastEmbedder runs a local ONNX BERT model via fastembed.
type fastEmbedder struct {
	model *fastembed.FlagEmbedding
}

func newFastEmbed(cfg config.EmbedderConfig) (*fastEmbedder, error) {
	name, ok := modelNames[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("embedder: unsupported fastembed model %q", cfg.Model)
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = "local_cache"
	}

	showProgress := false
	model, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                name,
		CacheDir:             cacheDir,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: initializing fastembed: %w", err)
	}
	return &fastEmbedder{model: model}, nil
}

func (f *fastEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fastEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	vecs, err := f.model.Embed(texts, embedBatchSize)
	if err != nil {
		return nil, fmt.Errorf("embedder: fastembed inference: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder: got %d vectors for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

func (f *fastEmbedder) Close() error {
	if f.model != nil {
		return f.model.Destroy()
	}
	return nil
}
