package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cascadehq/cascadelog/internal/model"
)

// defaultBackoff is the base delay before the first retry; each
// subsequent retry doubles it.
const defaultBackoff = 500 * time.Millisecond

// categoryRE extracts the delimiter-enclosed answer. DOTALL because
// models occasionally wrap the label across lines.
var categoryRE = regexp.MustCompile(`(?s)<category>(.*?)</category>`)

// Stage is the cascade's terminal stage. It prompts the external LLM
// with a closed label vocabulary, parses the delimited answer, and
// coerces anything outside the vocabulary to Unclassified. The
// service's output is untrusted and never passed through uninspected.
type Stage struct {
	client     Completer
	labels     []string          // canonical order, for the prompt
	canonical  map[string]string // lowercased -> canonical
	maxRetries int
	backoff    time.Duration
}

// NewStage builds a verification stage over the given completer.
// allowed is the label vocabulary the model may answer with;
// Unclassified is always accepted. maxRetries bounds retry attempts
// after the first call for transient failures.
func NewStage(client Completer, allowed []string, maxRetries int) *Stage {
	s := &Stage{
		client:     client,
		labels:     allowed,
		canonical:  make(map[string]string, len(allowed)+1),
		maxRetries: maxRetries,
		backoff:    defaultBackoff,
	}
	for _, l := range allowed {
		s.canonical[strings.ToLower(l)] = l
	}
	s.canonical[strings.ToLower(model.Unclassified)] = model.Unclassified
	return s
}

// Classify sends the record's message to the LLM and returns a
// candidate whose label is guaranteed to be in the allowed set. The
// returned error is an annotation for the result, never a batch
// failure: the candidate is always usable.
func (s *Stage) Classify(ctx context.Context, rec model.LogRecord) (model.LabelCandidate, error) {
	prompt := s.buildPrompt(rec.Message)

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			wait := s.backoff * time.Duration(1<<(attempt-1))
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return unclassified(0), fmt.Errorf("llm: %w", ctx.Err())
			case <-t.C:
			}
		}

		raw, err := s.client.Complete(ctx, prompt)
		if err == nil {
			return s.parse(raw), nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return unclassified(0), fmt.Errorf("llm: %w", ctx.Err())
		}
		if !retryable(err) {
			return unclassified(0), fmt.Errorf("llm: permanent failure: %w", err)
		}
	}

	return unclassified(0), fmt.Errorf("llm: retries exhausted: %w", lastErr)
}

// buildPrompt renders the deterministic classification prompt. The
// shape follows the service's original prompt so existing model
// behavior carries over.
func (s *Stage) buildPrompt(message string) string {
	var b strings.Builder
	b.WriteString("Classify the log message into one of these categories: ")
	for i, l := range s.labels {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%d) %s", i+1, l)
	}
	b.WriteString(".\n")
	b.WriteString(`If you can't figure out a category, use "Unclassified".`)
	b.WriteString("\nPut the category inside <category> </category> tags.\n")
	b.WriteString("Log message: ")
	b.WriteString(message)
	return b.String()
}

// parse extracts the delimited answer and enforces the vocabulary.
// Parse failure or an out-of-set answer coerces to Unclassified.
func (s *Stage) parse(raw string) model.LabelCandidate {
	m := categoryRE.FindStringSubmatch(raw)
	if m == nil {
		return unclassified(0)
	}
	answer := strings.TrimSpace(m[1])
	if canon, ok := s.canonical[strings.ToLower(answer)]; ok {
		if canon == model.Unclassified {
			return unclassified(0)
		}
		return model.LabelCandidate{Label: canon, Confidence: 1.0, Stage: model.StageLLM}
	}
	return unclassified(0)
}

func unclassified(conf float64) model.LabelCandidate {
	return model.LabelCandidate{Label: model.Unclassified, Confidence: conf, Stage: model.StageLLM}
}
