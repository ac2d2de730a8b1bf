package vocab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Category is one controlled field: a dotted key plus its permitted values.
type Category struct {
	Key         string   `json:"-"`
	Description string   `json:"description"`
	Values      []string `json:"values"`
}

// HasValue reports whether term is one of the allowed values.
func (c Category) HasValue(term string) bool {
	return slices.Contains(c.Values, term)
}

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	out := Category{Key: c.Key, Description: c.Description}
	if c.Values != nil {
		out.Values = slices.Clone(c.Values)
	}
	return out
}

// Segments splits the dotted key into path segments.
// An empty key yields no segments.
func (c Category) Segments() []string {
	if c.Key == "" {
		return nil
	}
	return strings.Split(c.Key, ".")
}

// Section is a named grouping of categories (one wiki page).
type Section struct {
	Name       string
	Categories []Category
}

// Category returns a pointer to the category with the given key.
func (s *Section) Category(key string) (*Category, bool) {
	for i := range s.Categories {
		if s.Categories[i].Key == key {
			return &s.Categories[i], true
		}
	}
	return nil, false
}

// Keys returns the category keys in section order.
func (s Section) Keys() []string {
	keys := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		keys = append(keys, c.Key)
	}
	return keys
}

// SortedCategories returns a copy of the categories ordered by key.
func (s Section) SortedCategories() []Category {
	out := make([]Category, len(s.Categories))
	for i, c := range s.Categories {
		out[i] = c.Clone()
	}
	slices.SortFunc(out, func(a, b Category) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := Section{Name: s.Name, Categories: make([]Category, len(s.Categories))}
	for i, c := range s.Categories {
		out.Categories[i] = c.Clone()
	}
	return out
}

// Vocabulary is the full controlled vocabulary: ordered sections of ordered categories.
//
// The zero value is an empty vocabulary. JSON encoding produces
// {"Section": {"cat.key": {"description": "...", "values": [...]}}} with
// section and category order preserved.
type Vocabulary struct {
	Sections []Section
}

// IsEmpty reports whether the vocabulary holds no categories at all.
func (v Vocabulary) IsEmpty() bool {
	return v.CategoryCount() == 0
}

// CategoryCount returns the number of categories across all sections.
func (v Vocabulary) CategoryCount() int {
	n := 0
	for _, s := range v.Sections {
		n += len(s.Categories)
	}
	return n
}

// SectionNames returns section names in vocabulary order.
func (v Vocabulary) SectionNames() []string {
	names := make([]string, 0, len(v.Sections))
	for _, s := range v.Sections {
		names = append(names, s.Name)
	}
	return names
}

// Section returns a pointer to the named section.
func (v *Vocabulary) Section(name string) (*Section, bool) {
	for i := range v.Sections {
		if v.Sections[i].Name == name {
			return &v.Sections[i], true
		}
	}
	return nil, false
}

// EnsureSection returns the named section, appending an empty one if missing.
func (v *Vocabulary) EnsureSection(name string) *Section {
	if s, ok := v.Section(name); ok {
		return s
	}
	v.Sections = append(v.Sections, Section{Name: name})
	return &v.Sections[len(v.Sections)-1]
}

// SetSection replaces the named section, or appends it when absent.
func (v *Vocabulary) SetSection(sec Section) {
	if s, ok := v.Section(sec.Name); ok {
		*s = sec
		return
	}
	v.Sections = append(v.Sections, sec)
}

// Clone returns a deep copy of the vocabulary.
func (v Vocabulary) Clone() Vocabulary {
	out := Vocabulary{Sections: make([]Section, len(v.Sections))}
	for i, s := range v.Sections {
		out.Sections[i] = s.Clone()
	}
	return out
}

// Validate checks that the vocabulary can be stored: sections and categories
// are named, and no name repeats within its scope.
func (v Vocabulary) Validate() error {
	sections := make(map[string]bool, len(v.Sections))
	for _, s := range v.Sections {
		if s.Name == "" {
			return errors.New("section with empty name")
		}
		if sections[s.Name] {
			return fmt.Errorf("duplicate section %q", s.Name)
		}
		sections[s.Name] = true

		keys := make(map[string]bool, len(s.Categories))
		for _, c := range s.Categories {
			if c.Key == "" {
				return fmt.Errorf("section %q: category with empty key", s.Name)
			}
			if keys[c.Key] {
				return fmt.Errorf("section %q: duplicate category %q", s.Name, c.Key)
			}
			keys[c.Key] = true
		}
	}
	return nil
}

// OrderSections reorders sections: names listed in layout first, in layout
// order, then the remaining sections alphabetically.
func (v *Vocabulary) OrderSections(layout []string) {
	rank := make(map[string]int, len(layout))
	for i, name := range layout {
		if _, seen := rank[name]; !seen {
			rank[name] = i
		}
	}
	slices.SortStableFunc(v.Sections, func(a, b Section) int {
		ra, okA := rank[a.Name]
		rb, okB := rank[b.Name]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})
}

// MarshalJSON encodes the vocabulary as nested objects, preserving order.
func (v Vocabulary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range v.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(s.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal section name %q: %w", s.Name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		body, err := s.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the section as {"cat.key": {...}} in category order.
func (s Section) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal category key %q: %w", c.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		values := c.Values
		if values == nil {
			values = []string{}
		}
		body, err := json.Marshal(struct {
			Description string   `json:"description"`
			Values      []string `json:"values"`
		}{c.Description, values})
		if err != nil {
			return nil, fmt.Errorf("marshal category %q: %w", c.Key, err)
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes nested objects, preserving document order.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}
	var sections []Section
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return fmt.Errorf("vocabulary: %w", err)
		}
		sec := Section{Name: name}
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("section %q: %w", name, err)
		}
		for dec.More() {
			key, err := readKey(dec)
			if err != nil {
				return fmt.Errorf("section %q: %w", name, err)
			}
			var body struct {
				Description string   `json:"description"`
				Values      []string `json:"values"`
			}
			if err := dec.Decode(&body); err != nil {
				return fmt.Errorf("category %q: %w", key, err)
			}
			if body.Values == nil {
				body.Values = []string{}
			}
			sec.Categories = append(sec.Categories, Category{Key: key, Description: body.Description, Values: body.Values})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return fmt.Errorf("section %q: %w", name, err)
		}
		sections = append(sections, sec)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}
	v.Sections = sections
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}
