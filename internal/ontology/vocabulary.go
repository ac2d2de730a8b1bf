package ontology

import (
	"context"
	"fmt"

	"github.com/roach88/ontology/internal/record"
	"github.com/roach88/ontology/internal/validator"
	"github.com/roach88/ontology/internal/vocab"
)

// LoadVocabulary returns the live vocabulary with sections in layout order.
//
// It reads the cache and falls back to the snapshot when the cache is empty
// or unreadable. With neither available the vocabulary is empty. An error is
// returned only when the cache failed and no snapshot could stand in.
func (e *Engine) LoadVocabulary(ctx context.Context) (vocab.Vocabulary, error) {
	v, cacheErr := e.store.ReadAll(ctx)
	if cacheErr == nil && !v.IsEmpty() {
		v.OrderSections(e.layout.Sections())
		return v, nil
	}
	if cacheErr != nil {
		e.logger.Warn("vocabulary cache unavailable", "error", cacheErr)
	}

	if e.snapshot != nil {
		snap, ok, err := e.snapshot.Load(ctx)
		switch {
		case err != nil:
			e.logger.Warn("vocabulary snapshot unavailable", "error", err)
		case ok:
			e.logger.Debug("serving vocabulary from snapshot", "categories", snap.CategoryCount())
			snap.OrderSections(e.layout.Sections())
			return snap, nil
		}
	}

	if cacheErr != nil {
		return vocab.Vocabulary{}, fmt.Errorf("load vocabulary: %w", cacheErr)
	}
	return vocab.Vocabulary{}, nil
}

// Sections returns the names of sections holding vocabulary, in display order.
func (e *Engine) Sections(ctx context.Context) ([]string, error) {
	v, err := e.LoadVocabulary(ctx)
	if err != nil {
		return nil, err
	}
	return v.SectionNames(), nil
}

// Categories returns the categories of section, or none when it is unknown.
func (e *Engine) Categories(ctx context.Context, section string) ([]vocab.Category, error) {
	v, err := e.LoadVocabulary(ctx)
	if err != nil {
		return nil, err
	}
	sec, ok := v.Section(section)
	if !ok {
		return []vocab.Category{}, nil
	}
	return sec.Categories, nil
}

// ValidateRecord checks every enumerated category against rec.
//
// With no vocabulary available it reports no violations (fail open) and
// logs the degradation at WARN.
func (e *Engine) ValidateRecord(ctx context.Context, rec record.Node) []validator.Violation {
	v, err := e.LoadVocabulary(ctx)
	if err != nil || v.IsEmpty() {
		e.logger.Warn("vocabulary unavailable, skipping validation", "error", err)
		e.metrics.ValidationDegraded()
		return []validator.Violation{}
	}

	violations := validator.Validate(v, rec, e.validation)
	e.metrics.ObserveValidation(len(violations))
	if len(violations) > 0 {
		e.logger.Debug("record failed vocabulary validation", "violations", len(violations))
	}
	return violations
}
