package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/ontology/internal/ontology"
	"github.com/roach88/ontology/internal/record"
	"github.com/roach88/ontology/internal/store/memstore"
	"github.com/roach88/ontology/internal/testutil"
	"github.com/roach88/ontology/internal/validator"
	"github.com/roach88/ontology/internal/vocab"
	"github.com/roach88/ontology/internal/wiki"
)

// defaultActor is used for steps without an "as" user.
const defaultActor = "harness"

// Harness is the scenario execution environment.
// It runs scenarios with a deterministic clock and run IDs.
type Harness struct {
	engine *ontology.Engine
	store  *memstore.Store
	source *wiki.MemorySource
	clock  *testutil.Clock
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store and wiki source.
//
// Execution flow:
// 1. Seed the wiki pages and the cached vocabulary
// 2. Execute flow steps and check their expectations
// 3. Evaluate assertions
// 4. Return result with pass/fail, trace, and errors
//
// An error is returned only when the harness itself cannot proceed.
// Failed expectations and assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	h := &Harness{
		store:  memstore.New(),
		source: wiki.NewMemorySource(scenario.Pages),
		clock:  testutil.NewClock(),
	}
	h.engine = ontology.New(h.store, h.source,
		ontology.WithClock(h.clock.Now),
		ontology.WithRunIDs(testutil.SequentialIDs("run")),
		ontology.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		ontology.WithValidatorOptions(validator.Options{SkipCategories: scenario.SkipCategories}),
	)

	if !scenario.Vocabulary.IsEmpty() {
		seed := vocab.SyncLogEntry{
			RunID:    "seed",
			SyncedAt: h.clock.Now(),
			SyncedBy: defaultActor,
			Trigger:  vocab.TriggerSnapshot,
		}
		if _, err := h.store.ReplaceAll(ctx, scenario.Vocabulary.Vocabulary, seed); err != nil {
			return nil, fmt.Errorf("failed to seed vocabulary: %w", err)
		}
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Ctx:    ctx,
		Store:  h.store,
		Source: h.source,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow runs all flow steps in order and checks their expectations.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		ev, err := h.execute(ctx, step)
		if err != nil {
			return fmt.Errorf("flow step %d (%s): %w", i+1, step.Op, err)
		}
		ev.Step = i + 1
		ev.Op = step.Op
		result.AddTrace(ev)

		if step.Expect != nil {
			for _, msg := range checkExpect(*step.Expect, ev) {
				result.AddError(fmt.Sprintf("flow step %d (%s): %s", i+1, step.Op, msg))
			}
		}
	}
	return nil
}

func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	actor := step.As
	if actor == "" {
		actor = defaultActor
	}

	switch step.Op {
	case OpSync:
		res, err := h.engine.SyncFromWiki(ctx, actor)
		if err != nil {
			return TraceEvent{}, err
		}
		return TraceEvent{OK: res.OK, Message: res.Message}, nil

	case OpPropose:
		p, err := h.engine.CreateProposal(ctx, vocab.NewProposal{
			Type:        vocab.ProposalType(step.Type),
			Section:     step.Section,
			Category:    step.Category,
			Term:        step.Term,
			Description: step.Description,
			ProposedBy:  actor,
		})
		if vocab.IsRuleViolation(err) {
			return TraceEvent{OK: false, Message: err.Error()}, nil
		}
		if err != nil {
			return TraceEvent{}, err
		}
		return TraceEvent{
			OK:         true,
			Message:    fmt.Sprintf("Proposal %d created", p.ID),
			ProposalID: p.ID,
		}, nil

	case OpReview:
		res, err := h.engine.ReviewProposal(ctx, step.ID, vocab.ProposalStatus(step.Decision), actor, step.Comment)
		if err != nil {
			return TraceEvent{}, err
		}
		return TraceEvent{OK: res.OK, Message: res.Message, ProposalID: step.ID}, nil

	case OpApply:
		res, err := h.engine.ApplyProposal(ctx, step.ID, step.Prose)
		if err != nil {
			return TraceEvent{}, err
		}
		return TraceEvent{OK: res.OK, Message: res.Message, ProposalID: step.ID, Published: res.Published}, nil

	case OpValidate:
		rec, err := record.FromAny(step.Record)
		if err != nil {
			return TraceEvent{}, fmt.Errorf("convert record: %w", err)
		}
		violations := h.engine.ValidateRecord(ctx, rec)
		return TraceEvent{
			OK:         len(violations) == 0,
			Message:    fmt.Sprintf("%d violations", len(violations)),
			Violations: violations,
		}, nil
	}
	return TraceEvent{}, fmt.Errorf("unknown op %q", step.Op)
}

// checkExpect compares an expectation against a step outcome and returns one
// message per mismatch.
func checkExpect(exp Expect, ev TraceEvent) []string {
	var errs []string
	if exp.OK != nil && *exp.OK != ev.OK {
		errs = append(errs, fmt.Sprintf("expected ok=%t, got ok=%t (%s)", *exp.OK, ev.OK, ev.Message))
	}
	if exp.Message != "" && !strings.Contains(ev.Message, exp.Message) {
		errs = append(errs, fmt.Sprintf("expected message containing %q, got %q", exp.Message, ev.Message))
	}
	if exp.Published != nil && *exp.Published != ev.Published {
		errs = append(errs, fmt.Sprintf("expected published=%t, got published=%t", *exp.Published, ev.Published))
	}
	if exp.Violations != nil {
		errs = append(errs, matchViolations(*exp.Violations, ev.Violations)...)
	}
	return errs
}

func matchViolations(want []ExpectedViolation, got []validator.Violation) []string {
	if len(want) != len(got) {
		return []string{fmt.Sprintf("expected %d violations, got %d: %v", len(want), len(got), got)}
	}
	var errs []string
	for i := range want {
		if want[i].Path != got[i].Path {
			errs = append(errs, fmt.Sprintf("violation %d: expected path %s, got %s", i, want[i].Path, got[i].Path))
		}
		if want[i].Message != "" && !strings.Contains(got[i].Message, want[i].Message) {
			errs = append(errs, fmt.Sprintf("violation %d: expected message containing %q, got %q", i, want[i].Message, got[i].Message))
		}
	}
	return errs
}
