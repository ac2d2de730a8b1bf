package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ontology/internal/ontology"
	"github.com/roach88/ontology/internal/wiki"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s ok=%t %s\n", ev.Step, ev.Op, ev.OK, ev.Message)
		}
	}

	return buf.String()
}

// AssertionContext provides the final state assertions inspect.
type AssertionContext struct {
	Ctx    context.Context
	Store  ontology.Cache
	Source *wiki.MemorySource
}

// assertCategoryValues checks that a cached category holds exactly the
// expected values, in order.
func assertCategoryValues(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	v, err := actx.Store.ReadAll(actx.Ctx)
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	expected := fmt.Sprintf("%s in %s with values %v", a.Category, a.Section, a.Values)

	sec, ok := v.Section(a.Section)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: "section not cached", Trace: trace}
	}
	cat, ok := sec.Category(a.Category)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: "category not cached", Trace: trace}
	}
	if !slices.Equal(cat.Values, a.Values) {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: fmt.Sprintf("values %v", cat.Values), Trace: trace}
	}
	return nil
}

// assertCategoryAbsent checks that a category is not cached.
func assertCategoryAbsent(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	v, err := actx.Store.ReadAll(actx.Ctx)
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	sec, ok := v.Section(a.Section)
	if !ok {
		return nil
	}
	if cat, ok := sec.Category(a.Category); ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s not in %s", a.Category, a.Section),
			Actual:   fmt.Sprintf("cached with values %v", cat.Values),
			Trace:    trace,
		}
	}
	return nil
}

// assertPageContains checks the current wiki text of a page.
func assertPageContains(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	text, ok := actx.Source.Page(a.Page)
	expected := fmt.Sprintf("page %s containing %q", a.Page, a.Text)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: "page not found", Trace: trace}
	}
	if !strings.Contains(text, a.Text) {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: fmt.Sprintf("page text:\n%s", text), Trace: trace}
	}
	return nil
}

// assertSyncStatus checks the newest sync log entry.
func assertSyncStatus(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	last, err := actx.Store.LastSync(actx.Ctx)
	if err != nil {
		return fmt.Errorf("read sync log: %w", err)
	}
	expected := fmt.Sprintf("last sync status %s", a.Status)
	if a.Trigger != "" {
		expected += fmt.Sprintf(" with trigger %s", a.Trigger)
	}
	if last == nil {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: "no sync recorded", Trace: trace}
	}
	if string(last.Status) != a.Status || (a.Trigger != "" && string(last.Trigger) != a.Trigger) {
		return &AssertionError{
			Type:     a.Type,
			Expected: expected,
			Actual:   fmt.Sprintf("status %s with trigger %s", last.Status, last.Trigger),
			Trace:    trace,
		}
	}
	return nil
}

// assertCommitCount checks how many commits reached the wiki.
func assertCommitCount(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	commits := actx.Source.Commits()
	if len(commits) != a.Count {
		msgs := make([]string, len(commits))
		for i, c := range commits {
			msgs[i] = c.Message
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d commits", a.Count),
			Actual:   fmt.Sprintf("%d commits %q", len(commits), msgs),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the final state.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertCategoryValues:
			err = assertCategoryValues(actx, result.Trace, a)
		case AssertCategoryAbsent:
			err = assertCategoryAbsent(actx, result.Trace, a)
		case AssertPageContains:
			err = assertPageContains(actx, result.Trace, a)
		case AssertSyncStatus:
			err = assertSyncStatus(actx, result.Trace, a)
		case AssertCommitCount:
			err = assertCommitCount(actx, result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	return errors
}
