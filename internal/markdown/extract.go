package markdown

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ontology/internal/vocab"
)

// ErrNoVocabulary means the page has no vocabulary heading or its block is empty.
// Callers skip the page; it says nothing about the vocabulary being empty.
var ErrNoVocabulary = errors.New("no controlled vocabulary block")

// MalformedBlockError means a vocabulary heading was found but its block could
// not be read.
type MalformedBlockError struct {
	Reason string
	Err    error
}

func (e *MalformedBlockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed vocabulary block: %s: %v", e.Reason, e.Err)
	}
	return "malformed vocabulary block: " + e.Reason
}

func (e *MalformedBlockError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is a MalformedBlockError.
func IsMalformed(err error) bool {
	var mbe *MalformedBlockError
	return errors.As(err, &mbe)
}

// SkippedEntry is a block entry that could not be read as a category. The
// rest of the block is still used.
type SkippedEntry struct {
	Key    string
	Line   int
	Reason string
}

// Block is a decoded vocabulary block.
type Block struct {
	Categories []vocab.Category
	Skipped    []SkippedEntry
}

// Extract returns the categories of the page's vocabulary block in block order.
// Entries that are not category mappings are dropped; see ExtractBlock.
func Extract(page string) ([]vocab.Category, error) {
	b, err := ExtractBlock(page)
	return b.Categories, err
}

// ExtractBlock reads the page's vocabulary block.
//
// It returns ErrNoVocabulary when there is no heading or the block is empty,
// and a *MalformedBlockError when the heading has no terminated yaml block,
// the yaml is invalid, or the top level is not a mapping.
func ExtractBlock(page string) (Block, error) {
	headings := locate(page)
	if len(headings) == 0 {
		return Block{}, ErrNoVocabulary
	}
	for _, h := range headings {
		if h.block == nil {
			continue
		}
		if !h.block.terminated {
			return Block{}, &MalformedBlockError{Reason: "unterminated yaml block"}
		}
		return ParseBlock(h.block.body)
	}
	return Block{}, &MalformedBlockError{Reason: "heading is not followed by a yaml block"}
}

// ExtractVocabularyBlock is Extract with every failure collapsed to nil.
func ExtractVocabularyBlock(page string) []vocab.Category {
	cats, err := Extract(page)
	if err != nil {
		return nil
	}
	return cats
}

// Parse decodes a vocabulary yaml body and returns its categories.
func Parse(body string) ([]vocab.Category, error) {
	b, err := ParseBlock(body)
	return b.Categories, err
}

// ParseBlock decodes a vocabulary yaml body. Entry order is preserved.
//
// Each entry maps a category key to {description, values}. A missing or null
// description is "", missing or null values are []. Scalars are taken as
// written, so `values: [1.0, yes]` yields "1.0" and "yes". Entries with an
// empty key, a repeated key, or a body that is not {description, values} are
// listed in Skipped; the first of repeated keys wins.
func ParseBlock(body string) (Block, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		return Block{}, &MalformedBlockError{Reason: "invalid yaml", Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Block{}, ErrNoVocabulary
	}
	root := deref(doc.Content[0])
	if isNull(root) {
		return Block{}, ErrNoVocabulary
	}
	if root.Kind != yaml.MappingNode {
		return Block{}, &MalformedBlockError{Reason: "top level is not a mapping"}
	}
	if len(root.Content) == 0 {
		return Block{}, ErrNoVocabulary
	}

	b := Block{Categories: make([]vocab.Category, 0, len(root.Content)/2)}
	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := deref(root.Content[i]), deref(root.Content[i+1])
		key := keyNode.Value
		skip := func(reason string) {
			b.Skipped = append(b.Skipped, SkippedEntry{Key: key, Line: keyNode.Line, Reason: reason})
		}
		if keyNode.Kind != yaml.ScalarNode || key == "" {
			skip("category key must be a non-empty string")
			continue
		}
		if seen[key] {
			skip("duplicate category")
			continue
		}
		seen[key] = true

		cat, reason := parseEntry(key, valNode)
		if reason != "" {
			skip(reason)
			continue
		}
		b.Categories = append(b.Categories, cat)
	}
	return b, nil
}

// parseEntry returns the category or the reason the entry is unusable.
func parseEntry(key string, n *yaml.Node) (vocab.Category, string) {
	cat := vocab.Category{Key: key, Values: []string{}}
	if n.Kind != yaml.MappingNode {
		return cat, "entry is not a mapping"
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		field, val := deref(n.Content[i]), deref(n.Content[i+1])
		switch field.Value {
		case "description":
			if isNull(val) {
				continue
			}
			if val.Kind != yaml.ScalarNode {
				return cat, "description must be a string"
			}
			cat.Description = val.Value
		case "values":
			if isNull(val) {
				continue
			}
			if val.Kind != yaml.SequenceNode {
				return cat, "values must be a list"
			}
			for _, item := range val.Content {
				item = deref(item)
				if isNull(item) {
					continue
				}
				if item.Kind != yaml.ScalarNode {
					return cat, "values must hold scalars"
				}
				cat.Values = append(cat.Values, item.Value)
			}
		}
	}
	return cat, ""
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
