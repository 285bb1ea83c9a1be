package semantic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cascadehq/cascadelog/internal/model"
)

// vecEmbedder returns fixed vectors per text; unknown texts error.
type vecEmbedder struct {
	vecs map[string][]float32
	err  error
}

func (v *vecEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v.err != nil {
		return nil, v.err
	}
	vec, ok := v.vecs[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	return vec, nil
}

func (v *vecEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := v.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (v *vecEmbedder) Close() error { return nil }

func newTestStage(t *testing.T, emb *vecEmbedder, refs []Reference) *Stage {
	t.Helper()
	s, err := New(context.Background(), emb, refs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestClassifyPicksNearestCentroid(t *testing.T) {
	emb := &vecEmbedder{vecs: map[string][]float32{
		"deprecation phrase":     {0, 1},
		"error phrase":           {1, 0},
		"this API is deprecated": {0.1, 0.9},
	}}
	s := newTestStage(t, emb, []Reference{
		{Label: "Deprecation Warning", Phrases: []string{"deprecation phrase"}},
		{Label: "Workflow Error", Phrases: []string{"error phrase"}},
	})

	c := s.Classify(context.Background(), model.LogRecord{Source: "app", Message: "this API is deprecated"})
	if c.Label != "Deprecation Warning" {
		t.Fatalf("expected Deprecation Warning, got %q", c.Label)
	}
	if c.Stage != model.StageSemantic {
		t.Fatalf("expected semantic stage, got %v", c.Stage)
	}
	if c.Confidence <= 0.9 || c.Confidence > 1 {
		t.Fatalf("unexpected confidence %v", c.Confidence)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	emb := &vecEmbedder{vecs: map[string][]float32{
		"ref a": {1, 0},
		"ref b": {0, 1},
		"msg":   {0.7, 0.7},
	}}
	s := newTestStage(t, emb, []Reference{
		{Label: "A", Phrases: []string{"ref a"}},
		{Label: "B", Phrases: []string{"ref b"}},
	})

	first := s.Classify(context.Background(), model.LogRecord{Message: "msg"})
	for i := 0; i < 10; i++ {
		c := s.Classify(context.Background(), model.LogRecord{Message: "msg"})
		if c.Label != first.Label || c.Confidence != first.Confidence {
			t.Fatalf("run %d: got %q/%v, want %q/%v", i, c.Label, c.Confidence, first.Label, first.Confidence)
		}
	}
}

func TestClassifyTieBreaksLexicographically(t *testing.T) {
	// Message is equidistant from both centroids.
	emb := &vecEmbedder{vecs: map[string][]float32{
		"ref a": {1, 0},
		"ref b": {0, 1},
		"msg":   {0.5, 0.5},
	}}
	s := newTestStage(t, emb, []Reference{
		{Label: "Zeta", Phrases: []string{"ref a"}},
		{Label: "Alpha", Phrases: []string{"ref b"}},
	})

	c := s.Classify(context.Background(), model.LogRecord{Message: "msg"})
	if c.Label != "Alpha" {
		t.Fatalf("expected lexicographic winner Alpha, got %q", c.Label)
	}
}

func TestClassifyEmptyMessage(t *testing.T) {
	emb := &vecEmbedder{vecs: map[string][]float32{"ref": {1, 0}}}
	s := newTestStage(t, emb, []Reference{{Label: "A", Phrases: []string{"ref"}}})

	c := s.Classify(context.Background(), model.LogRecord{Source: "server"})
	if c.Label != model.Unclassified || c.Confidence != 0 {
		t.Fatalf("expected Unclassified/0, got %q/%v", c.Label, c.Confidence)
	}
}

func TestClassifyEmbedFailureDegrades(t *testing.T) {
	emb := &vecEmbedder{vecs: map[string][]float32{"ref": {1, 0}}}
	s := newTestStage(t, emb, []Reference{{Label: "A", Phrases: []string{"ref"}}})

	emb.err = errors.New("inference blew up")
	c := s.Classify(context.Background(), model.LogRecord{Message: "anything"})
	if c.Label != model.Unclassified || c.Confidence != 0 {
		t.Fatalf("expected Unclassified/0 on embed failure, got %q/%v", c.Label, c.Confidence)
	}
}

func TestClassifyNaNVector(t *testing.T) {
	nan := float32(math.NaN())
	emb := &vecEmbedder{vecs: map[string][]float32{
		"ref": {1, 0},
		"msg": {nan, nan},
	}}
	s := newTestStage(t, emb, []Reference{{Label: "A", Phrases: []string{"ref"}}})

	c := s.Classify(context.Background(), model.LogRecord{Message: "msg"})
	if c.Confidence != 0 {
		t.Fatalf("expected confidence 0 for NaN vector, got %v", c.Confidence)
	}
}

func TestClassifyNegativeSimilarityClipped(t *testing.T) {
	emb := &vecEmbedder{vecs: map[string][]float32{
		"ref": {1, 0},
		"msg": {-1, 0},
	}}
	s := newTestStage(t, emb, []Reference{{Label: "A", Phrases: []string{"ref"}}})

	c := s.Classify(context.Background(), model.LogRecord{Message: "msg"})
	if c.Confidence != 0 {
		t.Fatalf("expected clipped confidence 0, got %v", c.Confidence)
	}
	if c.Label != "A" {
		t.Fatalf("expected best label even at low confidence, got %q", c.Label)
	}
}

func TestNewRequiresReferences(t *testing.T) {
	emb := &vecEmbedder{}
	if _, err := New(context.Background(), emb, nil); err == nil {
		t.Fatal("expected error for empty reference set")
	}
	if _, err := New(context.Background(), emb, []Reference{{Label: "A"}}); err == nil {
		t.Fatal("expected error for label without phrases")
	}
}

func TestMeanVector(t *testing.T) {
	got := meanVector([][]float32{{1, 3}, {3, 5}})
	if got[0] != 2 || got[1] != 4 {
		t.Fatalf("unexpected mean %v", got)
	}
}
