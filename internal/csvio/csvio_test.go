package csvio

import (
	"errors"
	"strings"
	"testing"

	"github.com/cascadehq/cascadelog/internal/model"
)

func TestReadExtractsRecords(t *testing.T) {
	in := "source,log_message\nserver,Error 503\nnetwork,Connection timeout\n"
	b, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", b.Len())
	}
	recs := b.Records()
	if recs[0] != (model.LogRecord{Source: "server", Message: "Error 503"}) {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
	if recs[1].Source != "network" {
		t.Fatalf("unexpected record: %+v", recs[1])
	}
}

func TestReadMissingColumns(t *testing.T) {
	for _, in := range []string{
		"",
		"a,b\n1,2\n",
		"source,message\nserver,hello\n",
		"log_message\nhello\n",
	} {
		_, err := Read(strings.NewReader(in))
		if !errors.Is(err, ErrMissingColumns) {
			t.Fatalf("input %q: expected ErrMissingColumns, got %v", in, err)
		}
	}
}

func TestReadPreservesExtraColumns(t *testing.T) {
	in := "id,source,log_message\n7,server,oops\n"
	b, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := b.Records()[0].Message; got != "oops" {
		t.Fatalf("expected message from log_message column, got %q", got)
	}

	var out strings.Builder
	results := []model.ClassificationResult{{Label: "Error"}}
	if err := b.Write(&out, results); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "id,source,log_message,target_label\n7,server,oops,Error\n"
	if out.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestWriteOverwritesExistingLabelColumn(t *testing.T) {
	in := "source,log_message,target_label\nserver,oops,stale\n"
	b, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var out strings.Builder
	if err := b.Write(&out, []model.ClassificationResult{{Label: "Error"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "source,log_message,target_label\nserver,oops,Error\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestWriteCountMismatch(t *testing.T) {
	b, err := Read(strings.NewReader("source,log_message\nserver,a\nserver,b\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var out strings.Builder
	if err := b.Write(&out, []model.ClassificationResult{{Label: "x"}}); err == nil {
		t.Fatal("expected error for result/row count mismatch")
	}
}

func TestSampleParses(t *testing.T) {
	b, err := Read(strings.NewReader(Sample()))
	if err != nil {
		t.Fatalf("sample CSV does not parse: %v", err)
	}
	if b.Len() != 3 {
		t.Fatalf("expected 3 sample rows, got %d", b.Len())
	}
}
