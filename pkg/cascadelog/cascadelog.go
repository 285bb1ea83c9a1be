package cascadelog

import (
	"context"
	"time"

	"github.com/cascadehq/cascadelog/internal/cascade"
	"github.com/cascadehq/cascadelog/internal/embedder"
	"github.com/cascadehq/cascadelog/internal/llm"
	"github.com/cascadehq/cascadelog/internal/model"
	"github.com/cascadehq/cascadelog/internal/rules"
	"github.com/cascadehq/cascadelog/internal/semantic"
)

// Record is one log line to classify.
type Record struct {
	Source  string
	Message string
}

// Result is the final label for one record. Stage reports which
// cascade stage decided ("pattern", "semantic", "llm"). Err carries a
// diagnostic when the record degraded to Unclassified.
type Result struct {
	Source  string
	Message string
	Label   string
	Stage   string
	Err     string
}

// Classifier runs the cascade. Construct once, share across batches;
// it is safe for concurrent use.
type Classifier struct {
	cascade *cascade.Cascade
	emb     Embedder
}

// New builds a Classifier. Rule compilation, centroid embedding, and
// client construction all happen here; any failure is a startup error
// and no Classifier is returned.
func New(ctx context.Context, opts ...Option) (*Classifier, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	table, err := rules.New(o.ruleSpecs)
	if err != nil {
		return nil, err
	}

	var emb Embedder = o.embedder
	if emb == nil {
		built, err := embedder.New(o.cfg.Embedder)
		if err != nil {
			return nil, err
		}
		emb = built
	}
	// Identical log lines are common; memoize embeddings by text.
	emb = embedder.NewCached(emb)

	sem, err := semantic.New(ctx, emb, semantic.DefaultReferences())
	if err != nil {
		emb.Close()
		return nil, err
	}

	completer := o.completer
	if completer == nil {
		client, err := llm.NewClient(o.cfg.LLM)
		if err != nil {
			emb.Close()
			return nil, err
		}
		completer = client
	}
	verifier := llm.NewStage(completer, o.cfg.LLM.AllowedLabels, o.cfg.LLM.MaxRetries)

	c := cascade.New(table, sem, verifier, cascade.Config{
		ConfidenceThreshold: o.cfg.Cascade.ConfidenceThreshold,
		Workers:             o.cfg.Cascade.Workers,
		BatchTimeout:        time.Duration(o.cfg.Cascade.BatchTimeoutSeconds) * time.Second,
	})

	return &Classifier{cascade: c, emb: emb}, nil
}

// Classify runs one record through the cascade.
func (c *Classifier) Classify(ctx context.Context, rec Record) Result {
	res := c.cascade.Classify(ctx, model.LogRecord{Source: rec.Source, Message: rec.Message})
	return toResult(res)
}

// ClassifyBatch classifies records concurrently and returns one result
// per input, in input order.
func (c *Classifier) ClassifyBatch(ctx context.Context, recs []Record) []Result {
	records := make([]model.LogRecord, len(recs))
	for i, r := range recs {
		records[i] = model.LogRecord{Source: r.Source, Message: r.Message}
	}

	results := c.cascade.ClassifyBatch(ctx, records)
	out := make([]Result, len(results))
	for i, res := range results {
		out[i] = toResult(res)
	}
	return out
}

// Close releases the embedding model.
func (c *Classifier) Close() error {
	if c.emb != nil {
		return c.emb.Close()
	}
	return nil
}

func toResult(res model.ClassificationResult) Result {
	return Result{
		Source:  res.Record.Source,
		Message: res.Record.Message,
		Label:   res.Label,
		Stage:   res.Stage.String(),
		Err:     res.Err,
	}
}

// Unclassified is the label used when no stage can decide.
const Unclassified = model.Unclassified
