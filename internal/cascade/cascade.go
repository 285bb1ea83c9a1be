// Package cascade orchestrates the three classification stages:
// pattern rules, embedding similarity, and LLM verification. Each
// record stops at the first stage confident enough to decide.
package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cascadehq/cascadelog/internal/model"
)

// PatternMatcher is the pattern stage: a miss (ok=false) means "defer
// to the next stage".
type PatternMatcher interface {
	Match(rec model.LogRecord) (model.LabelCandidate, bool)
}

// SemanticClassifier is the embedding stage: always answers with its
// best guess and a confidence for the orchestrator to judge.
type SemanticClassifier interface {
	Classify(ctx context.Context, rec model.LogRecord) model.LabelCandidate
}

// Verifier is the terminal LLM stage: its candidate is always
// accepted; a non-nil error is a per-record annotation, not a failure.
type Verifier interface {
	Classify(ctx context.Context, rec model.LogRecord) (model.LabelCandidate, error)
}

// Config holds orchestrator policy.
type Config struct {
	// ConfidenceThreshold is the minimum semantic confidence accepted
	// without verification.
	ConfidenceThreshold float64
	// Workers bounds concurrent record processing. Values < 1 mean 1.
	Workers int
	// BatchTimeout bounds a whole batch; 0 disables.
	BatchTimeout time.Duration
}

// Cascade routes records through the stages. Stages are stateless with
// respect to records; the model and client handles they own are
// constructed once and shared read-only, so one Cascade serves
// concurrent batches.
type Cascade struct {
	pattern  PatternMatcher
	semantic SemanticClassifier
	verifier Verifier
	cfg      Config
}

// New creates a Cascade over the three stages.
func New(pattern PatternMatcher, semantic SemanticClassifier, verifier Verifier, cfg Config) *Cascade {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Cascade{pattern: pattern, semantic: semantic, verifier: verifier, cfg: cfg}
}

// Classify runs one record through the cascade:
//
//  1. Pattern rules: a hit is accepted outright (confidence 1.0).
//  2. Semantic: accepted when confidence >= the threshold.
//  3. Verification: terminal, accepted unconditionally.
//
// A panicking stage degrades the record to Unclassified with the
// panic recorded as the error annotation; it never escapes to the
// caller.
func (c *Cascade) Classify(ctx context.Context, rec model.LogRecord) (result model.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("stage panicked", "source", rec.Source, "panic", r)
			result = model.ClassificationResult{
				Record: rec,
				Label:  model.Unclassified,
				Stage:  model.StageLLM,
				Err:    fmt.Sprintf("stage panic: %v", r),
			}
		}
	}()

	if cand, ok := c.pattern.Match(rec); ok {
		return model.ClassificationResult{Record: rec, Label: cand.Label, Stage: cand.Stage}
	}

	cand := c.semantic.Classify(ctx, rec)
	if cand.Confidence >= c.cfg.ConfidenceThreshold {
		return model.ClassificationResult{Record: rec, Label: cand.Label, Stage: cand.Stage}
	}
	slog.Debug("semantic confidence below threshold",
		"source", rec.Source, "label", cand.Label, "confidence", cand.Confidence)

	verified, err := c.verifier.Classify(ctx, rec)
	res := model.ClassificationResult{Record: rec, Label: verified.Label, Stage: verified.Stage}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}

// ClassifyBatch classifies records concurrently over a bounded worker
// pool and returns exactly one result per input, in input order. On
// cancellation or batch timeout, workers stop pulling new records and
// every unprocessed record is filled in as Unclassified with the
// context error annotated, so the caller gets partial results instead
// of a hang.
func (c *Cascade) ClassifyBatch(ctx context.Context, records []model.LogRecord) []model.ClassificationResult {
	if len(records) == 0 {
		return nil
	}

	if c.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.BatchTimeout)
		defer cancel()
	}

	results := make([]model.ClassificationResult, len(records))
	done := make([]bool, len(records))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := c.cfg.Workers
	if workers > len(records) {
		workers = len(records)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// Drain without working once the batch is cancelled;
				// the fill loop below annotates what we skip.
				if ctx.Err() != nil {
					continue
				}
				results[idx] = c.Classify(ctx, records[idx])
				done[idx] = true
			}
		}()
	}

feed:
	for i := range records {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	// Reassembly is by index, so completion order never affects output
	// order; this only fills the records cancellation cut off.
	for i := range records {
		if !done[i] {
			results[i] = model.ClassificationResult{
				Record: records[i],
				Label:  model.Unclassified,
				Stage:  model.StageLLM,
				Err:    fmt.Sprintf("batch aborted: %v", ctx.Err()),
			}
		}
	}
	return results
}
