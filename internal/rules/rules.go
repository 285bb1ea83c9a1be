// Package rules implements the pattern stage: an ordered table of
// regex rules matched against log messages before any model runs.
package rules

import (
	"fmt"
	"os"
	"regexp"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/cascadehq/cascadelog/internal/model"
)

// Spec is one rule as declared in configuration. Source is optional;
// empty means the rule applies to every source.
type Spec struct {
	Source  string `koanf:"source"`
	Pattern string `koanf:"pattern"`
	Label   string `koanf:"label"`
}

type rule struct {
	re    *regexp.Regexp
	label string
}

// Table is the compiled, immutable rule set. Source-scoped rules are
// checked before global rules; declaration order is preserved within
// each group so overlapping patterns resolve deterministically.
type Table struct {
	scoped map[string][]rule
	global []rule
}

// New compiles the given specs into a Table. A malformed pattern or a
// rule without a label is a configuration error: the process must not
// start with a broken table.
func New(specs []Spec) (*Table, error) {
	t := &Table{scoped: make(map[string][]rule)}
	for i, s := range specs {
		if s.Pattern == "" || s.Label == "" {
			return nil, fmt.Errorf("rules: rule %d: pattern and label are required", i)
		}
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rules: rule %d (%q): %w", i, s.Pattern, err)
		}
		r := rule{re: re, label: s.Label}
		if s.Source == "" {
			t.global = append(t.global, r)
		} else {
			t.scoped[s.Source] = append(t.scoped[s.Source], r)
		}
	}
	return t, nil
}

// LoadFile reads a YAML rule file:
//
//	rules:
//	  - source: server        # optional
//	    pattern: 'Error 5\d\d'
//	    label: ServerError
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}

	var specs []Spec
	if err := k.Unmarshal("rules", &specs); err != nil {
		return nil, fmt.Errorf("rules: unmarshal %s: %w", path, err)
	}
	return New(specs)
}

// Match checks the record's message against rules scoped to its source
// first, then global rules. The first matching pattern wins with
// confidence 1.0. A miss returns ok=false: it means "defer to the next
// stage", never an error. An empty message never matches.
func (t *Table) Match(rec model.LogRecord) (model.LabelCandidate, bool) {
	if rec.Message == "" {
		return model.LabelCandidate{}, false
	}
	for _, r := range t.scoped[rec.Source] {
		if r.re.MatchString(rec.Message) {
			return model.LabelCandidate{Label: r.label, Confidence: 1.0, Stage: model.StagePattern}, true
		}
	}
	for _, r := range t.global {
		if r.re.MatchString(rec.Message) {
			return model.LabelCandidate{Label: r.label, Confidence: 1.0, Stage: model.StagePattern}, true
		}
	}
	return model.LabelCandidate{}, false
}

// Len reports the total number of compiled rules.
func (t *Table) Len() int {
	n := len(t.global)
	for _, rs := range t.scoped {
		n += len(rs)
	}
	return n
}
