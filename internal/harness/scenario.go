package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ontology/internal/markdown"
	"github.com/roach88/ontology/internal/vocab"
)

// Scenario defines one ontology contract test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pages seeds the wiki, keyed by page name without extension.
	Pages map[string]string `yaml:"pages,omitempty"`

	// Vocabulary seeds the cache before the flow runs.
	Vocabulary Vocabulary `yaml:"vocabulary,omitempty"`

	// SkipCategories is passed to the validator.
	SkipCategories []string `yaml:"skip_categories,omitempty"`

	// Flow is executed in order. Each step may carry an expectation.
	Flow []Step `yaml:"flow"`

	// Assertions are checked after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Vocabulary is a section -> category mapping that keeps document order.
type Vocabulary struct {
	vocab.Vocabulary
}

// UnmarshalYAML decodes sections in the order they are written. Each section
// body uses the same format as a wiki vocabulary block.
func (v *Vocabulary) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: vocabulary must be a mapping of sections", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		body, err := yaml.Marshal(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("section %s: %w", name, err)
		}
		block, err := markdown.ParseBlock(string(body))
		if err != nil {
			return fmt.Errorf("section %s: %w", name, err)
		}
		if len(block.Skipped) > 0 {
			s := block.Skipped[0]
			return fmt.Errorf("section %s: category %q: %s", name, s.Key, s.Reason)
		}
		v.SetSection(vocab.Section{Name: name, Categories: block.Categories})
	}
	return nil
}

// Step is one engine operation in a scenario flow.
type Step struct {
	// Op is one of sync, propose, review, apply, validate.
	Op string `yaml:"op"`

	// As is the acting user. Defaults to "harness".
	As string `yaml:"as,omitempty"`

	// Proposal fields (propose).
	Type        string `yaml:"type,omitempty"`
	Section     string `yaml:"section,omitempty"`
	Category    string `yaml:"category,omitempty"`
	Term        string `yaml:"term,omitempty"`
	Description string `yaml:"description,omitempty"`

	// Review and apply fields.
	ID       int64  `yaml:"id,omitempty"`
	Decision string `yaml:"decision,omitempty"`
	Comment  string `yaml:"comment,omitempty"`
	Prose    string `yaml:"prose,omitempty"`

	// Record is the document to validate (validate).
	Record any `yaml:"record,omitempty"`

	// Expect is checked against the step outcome. Nil means no check.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// OK is compared exactly when set.
	OK *bool `yaml:"ok,omitempty"`

	// Message must be a substring of the outcome message.
	Message string `yaml:"message,omitempty"`

	// Published is compared exactly when set (apply).
	Published *bool `yaml:"published,omitempty"`

	// Violations lists the expected violations in order (validate). Messages
	// are matched as substrings. An explicit empty list expects none.
	Violations *[]ExpectedViolation `yaml:"violations,omitempty"`
}

// ExpectedViolation matches one validator violation.
type ExpectedViolation struct {
	Path    string `yaml:"path"`
	Message string `yaml:"message,omitempty"`
}

// Assertion validates the final cache, wiki or sync log.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Section  string   `yaml:"section,omitempty"`
	Category string   `yaml:"category,omitempty"`
	Values   []string `yaml:"values,omitempty"`

	Page string `yaml:"page,omitempty"`
	Text string `yaml:"text,omitempty"`

	Status  string `yaml:"status,omitempty"`
	Trigger string `yaml:"trigger,omitempty"`

	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCategoryValues = "category_values"
	AssertCategoryAbsent = "category_absent"
	AssertPageContains   = "page_contains"
	AssertSyncStatus     = "sync_status"
	AssertCommitCount    = "commit_count"
)

// Step operation constants.
const (
	OpSync     = "sync"
	OpPropose  = "propose"
	OpReview   = "review"
	OpApply    = "apply"
	OpValidate = "validate"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(p)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpSync:
	case OpPropose:
		if step.Type == "" {
			return fmt.Errorf("propose requires type")
		}
	case OpReview:
		if step.ID <= 0 {
			return fmt.Errorf("review requires id")
		}
		if step.Decision == "" {
			return fmt.Errorf("review requires decision")
		}
	case OpApply:
		if step.ID <= 0 {
			return fmt.Errorf("apply requires id")
		}
	case OpValidate:
		if step.Record == nil {
			return fmt.Errorf("validate requires record")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertCategoryValues, AssertCategoryAbsent:
		if a.Section == "" || a.Category == "" {
			return fmt.Errorf("%s requires section and category", a.Type)
		}
	case AssertPageContains:
		if a.Page == "" || a.Text == "" {
			return fmt.Errorf("%s requires page and text", a.Type)
		}
	case AssertSyncStatus:
		if a.Status == "" {
			return fmt.Errorf("%s requires status", a.Type)
		}
	case AssertCommitCount:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
