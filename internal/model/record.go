package model

// Unclassified is the label assigned when no stage can produce a
// confident answer. It is always a valid terminal outcome.
const Unclassified = "Unclassified"

// LogRecord is the immutable input unit: one log line and the source
// that emitted it. Produced by the CSV reader; never mutated.
type LogRecord struct {
	Source  string
	Message string
}

// Stage identifies which cascade stage produced a candidate or result.
type Stage int

const (
	StagePattern Stage = iota
	StageSemantic
	StageLLM
)

// String returns the stage name as it appears in results and logs.
func (s Stage) String() string {
	switch s {
	case StagePattern:
		return "pattern"
	case StageSemantic:
		return "semantic"
	case StageLLM:
		return "llm"
	default:
		return "unknown"
	}
}

// LabelCandidate is a single stage's answer for one record.
// Confidence is in [0,1]; pattern matches are always 1.0.
type LabelCandidate struct {
	Label      string
	Confidence float64
	Stage      Stage
}

// ClassificationResult is the final per-record output. Err carries a
// diagnostic when the record degraded to Unclassified because of a
// stage failure; it is annotation, not a batch failure.
type ClassificationResult struct {
	Record LogRecord
	Label  string
	Stage  Stage
	Err    string
}
