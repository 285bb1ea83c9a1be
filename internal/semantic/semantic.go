// Package semantic implements the embedding stage: score a log
// message against per-label reference centroids by cosine similarity.
package semantic

import (
	"context"
	"fmt"
	"math"

	"github.com/cascadehq/cascadelog/internal/embedder"
	"github.com/cascadehq/cascadelog/internal/model"
)

// tieEpsilon is the similarity margin within which two labels count as
// tied; ties resolve to the lexicographically smaller label so results
// are deterministic.
const tieEpsilon = 1e-4

type centroid struct {
	label string
	vec   []float32
}

// Stage scores records against pre-embedded label centroids. It always
// returns its best guess with a confidence; whether that confidence is
// good enough is the orchestrator's call, not this stage's.
type Stage struct {
	emb       embedder.Embedder
	centroids []centroid
}

// New builds a Stage by embedding every reference phrase and averaging
// them into one centroid per label. An embedding failure here is a
// startup error: the stage is unusable without its centroids.
func New(ctx context.Context, emb embedder.Embedder, refs []Reference) (*Stage, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("semantic: no label references")
	}

	var phrases []string
	for _, r := range refs {
		if r.Label == "" || len(r.Phrases) == 0 {
			return nil, fmt.Errorf("semantic: reference %q needs a label and phrases", r.Label)
		}
		phrases = append(phrases, r.Phrases...)
	}

	vecs, err := emb.EmbedBatch(ctx, phrases)
	if err != nil {
		return nil, fmt.Errorf("semantic: embedding references: %w", err)
	}

	s := &Stage{emb: emb}
	off := 0
	for _, r := range refs {
		s.centroids = append(s.centroids, centroid{
			label: r.Label,
			vec:   meanVector(vecs[off : off+len(r.Phrases)]),
		})
		off += len(r.Phrases)
	}
	return s, nil
}

// Classify embeds the record's message and returns the closest label.
// An empty message short-circuits to Unclassified with confidence 0
// without touching the model. Per-call failures (embedding error, NaN
// vector) also surface as confidence 0 so the orchestrator escalates
// instead of aborting the batch.
func (s *Stage) Classify(ctx context.Context, rec model.LogRecord) model.LabelCandidate {
	if rec.Message == "" {
		return model.LabelCandidate{Label: model.Unclassified, Confidence: 0, Stage: model.StageSemantic}
	}

	vec, err := s.emb.Embed(ctx, rec.Message)
	if err != nil {
		return model.LabelCandidate{Label: model.Unclassified, Confidence: 0, Stage: model.StageSemantic}
	}

	bestLabel, bestSim := s.nearest(vec)
	if math.IsNaN(bestSim) {
		return model.LabelCandidate{Label: model.Unclassified, Confidence: 0, Stage: model.StageSemantic}
	}

	// Cosine similarity lands in [-1,1]; clip to [0,1] for confidence.
	conf := bestSim
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}
	return model.LabelCandidate{Label: bestLabel, Confidence: conf, Stage: model.StageSemantic}
}

// nearest returns the best-scoring label, resolving near-ties
// lexicographically.
func (s *Stage) nearest(vec []float32) (string, float64) {
	best := math.Inf(-1)
	sims := make([]float64, len(s.centroids))
	for i, c := range s.centroids {
		sims[i] = cosineSimilarity(vec, c.vec)
		if sims[i] > best {
			best = sims[i]
		}
	}

	label := ""
	for i, c := range s.centroids {
		if best-sims[i] > tieEpsilon {
			continue
		}
		if label == "" || c.label < label {
			label = c.label
		}
	}
	return label, best
}

// Labels returns the centroid labels in declaration order.
func (s *Stage) Labels() []string {
	out := make([]string, len(s.centroids))
	for i, c := range s.centroids {
		out[i] = c.label
	}
	return out
}

func meanVector(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	out := make([]float32, len(vecs[0]))
	for _, v := range vecs {
		for i := range v {
			out[i] += v[i]
		}
	}
	inv := 1.0 / float32(len(vecs))
	for i := range out {
		out[i] *= inv
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
