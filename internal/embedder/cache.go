package embedder

import (
	"context"
	"sync"
)

// maxCachedMessages bounds cache growth under long-running server
// use; crossing it drops the whole map rather than tracking recency.
const maxCachedMessages = 65536

// Cached wraps an Embedder with memoization keyed by exact message
// text. Log batches repeat lines verbatim, so duplicate messages cost
// one inference. Safe for concurrent use; cached vectors are shared
// and must be treated as read-only. Nothing persists across restarts.
type Cached struct {
	inner Embedder

	mu   sync.Mutex
	vecs map[string][]float32
}

// NewCached wraps inner with a fresh memoization cache.
func NewCached(inner Embedder) *Cached {
	return &Cached{inner: inner, vecs: make(map[string][]float32)}
}

// store records a vector, flushing the map first when it is full.
// Caller must hold mu.
func (c *Cached) store(text string, vec []float32) {
	if len(c.vecs) >= maxCachedMessages {
		c.vecs = make(map[string][]float32)
	}
	c.vecs[text] = vec
}

// Embed returns the cached vector for text, computing and storing it
// on first sight.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	if vec, ok := c.vecs[text]; ok {
		c.mu.Unlock()
		return vec, nil
	}
	c.mu.Unlock()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.store(text, vec)
	c.mu.Unlock()
	return vec, nil
}

// EmbedBatch computes vectors for texts, consulting the cache per text
// and running one inner batch call for the misses.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	// Dedupe misses so a batch full of identical lines costs one
	// inference per distinct line.
	var missing []string
	missingAt := make(map[string][]int)
	c.mu.Lock()
	for i, t := range texts {
		if vec, ok := c.vecs[t]; ok {
			out[i] = vec
			continue
		}
		if _, seen := missingAt[t]; !seen {
			missing = append(missing, t)
		}
		missingAt[t] = append(missingAt[t], i)
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for j, vec := range vecs {
		c.store(missing[j], vec)
		for _, i := range missingAt[missing[j]] {
			out[i] = vec
		}
	}
	c.mu.Unlock()
	return out, nil
}

// Len reports the number of memoized messages.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vecs)
}

// Close closes the wrapped embedder.
func (c *Cached) Close() error {
	return c.inner.Close()
}
