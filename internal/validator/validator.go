// Package validator checks records against a controlled vocabulary.
//
// Validation is a pure function of (vocabulary, record, options): no I/O, no
// clock, no randomness. Callers that hold a live vocabulary (the ontology
// engine) are responsible for the fail-open policy when none is loaded.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ontology/internal/record"
	"github.com/roach88/ontology/internal/vocab"
)

// Violation is one string leaf whose value is outside its category's allowed set.
type Violation struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

// Options tunes a validation run.
type Options struct {
	// SkipCategories lists category keys that name namespaces rather than
	// enumerated fields. They are never resolved against records.
	SkipCategories []string
}

// Validate resolves every category with a non-empty value list against root
// and returns one Violation per string hit that is not an allowed value.
//
// Sections are visited in vocabulary order, categories in section order and
// hits in walk order, so identical inputs always produce identical output.
// A nil or empty vocabulary yields no violations.
func Validate(v vocab.Vocabulary, root record.Node, opts Options) []Violation {
	violations := []Violation{}
	if root == nil {
		return violations
	}

	for _, sec := range v.Sections {
		for _, cat := range sec.Categories {
			if len(cat.Values) == 0 || slices.Contains(opts.SkipCategories, cat.Key) {
				continue
			}
			for _, hit := range record.Resolve(root, cat.Segments()) {
				s, ok := hit.Value.(record.String)
				if !ok || cat.HasValue(string(s)) {
					continue
				}
				violations = append(violations, Violation{
					Path:    hit.Path,
					Message: Message(string(s), cat),
				})
			}
		}
	}
	return violations
}

// Message formats the human-readable rejection for value under cat.
func Message(value string, cat vocab.Category) string {
	return fmt.Sprintf("'%s' is not in the vocabulary for %s. Allowed: %s",
		value, cat.Key, formatAllowed(cat.Values))
}

// formatAllowed renders the allowed set as ['a', 'b'].
func formatAllowed(values []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(v)
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}
