// Package csvio reads and writes the CSV format the classifier
// exchanges with its callers: rows of (source, log_message) in,
// the same rows plus target_label out.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/cascadehq/cascadelog/internal/model"
)

const (
	sourceColumn  = "source"
	messageColumn = "log_message"
	labelColumn   = "target_label"
)

// ErrMissingColumns reports a CSV without the required source and
// log_message columns. This is a validation error: the batch is
// rejected before any classification runs.
var ErrMissingColumns = errors.New("csv must contain 'source' and 'log_message' columns")

// Batch is a parsed upload: the original rows plus the extracted
// records, column order preserved so output rows mirror input rows.
type Batch struct {
	header  []string
	rows    [][]string
	records []model.LogRecord
	srcIdx  int
	msgIdx  int
}

// Read parses CSV from r and validates the required columns. Rows may
// carry extra columns; they pass through untouched.
func Read(r io.Reader) (*Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvio: parse: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csvio: %w", ErrMissingColumns)
	}

	header := rows[0]
	srcIdx, msgIdx := -1, -1
	for i, col := range header {
		switch col {
		case sourceColumn:
			srcIdx = i
		case messageColumn:
			msgIdx = i
		}
	}
	if srcIdx < 0 || msgIdx < 0 {
		return nil, fmt.Errorf("csvio: %w", ErrMissingColumns)
	}

	b := &Batch{header: header, rows: rows[1:], srcIdx: srcIdx, msgIdx: msgIdx}
	for i, row := range b.rows {
		if len(row) <= srcIdx || len(row) <= msgIdx {
			return nil, fmt.Errorf("csvio: row %d has %d fields, need at least %d", i+1, len(row), max(srcIdx, msgIdx)+1)
		}
		b.records = append(b.records, model.LogRecord{
			Source:  row[srcIdx],
			Message: row[msgIdx],
		})
	}
	return b, nil
}

// Records returns the extracted input records, one per data row, in
// file order.
func (b *Batch) Records() []model.LogRecord {
	return b.records
}

// Len reports the number of data rows.
func (b *Batch) Len() int {
	return len(b.rows)
}

// Write emits the batch with a target_label column appended (or
// overwritten, if the input already had one), one result per row in
// row order.
func (b *Batch) Write(w io.Writer, results []model.ClassificationResult) error {
	if len(results) != len(b.rows) {
		return fmt.Errorf("csvio: %d results for %d rows", len(results), len(b.rows))
	}

	labelIdx := -1
	for i, col := range b.header {
		if col == labelColumn {
			labelIdx = i
		}
	}

	cw := csv.NewWriter(w)

	header := b.header
	if labelIdx < 0 {
		header = append(append([]string(nil), b.header...), labelColumn)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csvio: write header: %w", err)
	}

	for i, row := range b.rows {
		out := append([]string(nil), row...)
		if labelIdx < 0 {
			out = append(out, results[i].Label)
		} else {
			for len(out) <= labelIdx {
				out = append(out, "")
			}
			out[labelIdx] = results[i].Label
		}
		if err := cw.Write(out); err != nil {
			return fmt.Errorf("csvio: write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvio: flush: %w", err)
	}
	return nil
}

// Sample returns the example CSV callers can download to see the
// expected format.
func Sample() string {
	return "source,log_message\n" +
		"server,Error 503: Service unavailable\n" +
		"network,Connection timeout at 192.168.1.1\n" +
		"application,User login failed: invalid credentials\n"
}
