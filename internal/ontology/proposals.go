package ontology

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ontology/internal/metrics"
	"github.com/roach88/ontology/internal/prose"
	"github.com/roach88/ontology/internal/vocab"
)

// Draft is generated wiki text for a proposal. On failure OK is false,
// Description keeps the proposal's own description and Prose is empty.
type Draft struct {
	Description string `json:"yaml_description"`
	Prose       string `json:"wiki_prose"`
	OK          bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// Edit carries reviewer changes made before applying a proposal.
type Edit struct {
	// Description replaces the stored description when non-nil.
	Description *string
	// Prose is inserted into the wiki page. Empty means no prose.
	Prose string
}

// CreateProposal records a pending proposal.
//
// Text fields are trimmed and NFC-normalized. Only the shape is checked
// (known type, required fields); duplicates and unknown categories are
// caught when the proposal is applied. Shape failures are *vocab.RuleViolation.
func (e *Engine) CreateProposal(ctx context.Context, np vocab.NewProposal) (vocab.Proposal, error) {
	np = normalizeProposal(np)
	if err := checkShape(np); err != nil {
		return vocab.Proposal{}, err
	}

	p, err := e.store.CreateProposal(ctx, np, e.now())
	if err != nil {
		return vocab.Proposal{}, fmt.Errorf("create proposal: %w", err)
	}
	e.metrics.Proposal(metrics.EventCreated)
	e.logger.Info("proposal created",
		"id", p.ID,
		"type", p.Type,
		"section", p.Section,
		"category", p.Category,
		"term", p.Term,
		"proposed_by", p.ProposedBy)
	return p, nil
}

func normalizeProposal(np vocab.NewProposal) vocab.NewProposal {
	clean := func(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }
	np.Type = vocab.ProposalType(strings.TrimSpace(string(np.Type)))
	np.Section = clean(np.Section)
	np.Category = clean(np.Category)
	np.Term = clean(np.Term)
	np.Description = clean(np.Description)
	np.ProposedBy = clean(np.ProposedBy)
	return np
}

func checkShape(np vocab.NewProposal) error {
	switch {
	case !np.Type.Valid():
		return vocab.Rulef("Unknown proposal type: %s", np.Type)
	case np.Section == "":
		return vocab.Rulef("Section is required")
	case np.Category == "":
		return vocab.Rulef("Category is required")
	case np.Type == vocab.AddTerm && np.Term == "":
		return vocab.Rulef("Term is required")
	case np.ProposedBy == "":
		return vocab.Rulef("Proposer is required")
	}
	return nil
}

// GetProposal returns one proposal or an error wrapping vocab.ErrProposalNotFound.
func (e *Engine) GetProposal(ctx context.Context, id int64) (vocab.Proposal, error) {
	return e.store.GetProposal(ctx, id)
}

// ListProposals returns proposals matching filter, newest first.
func (e *Engine) ListProposals(ctx context.Context, filter vocab.ProposalFilter) ([]vocab.Proposal, error) {
	return e.store.ListProposals(ctx, filter)
}

// ReviewProposal approves or rejects a pending proposal.
//
// An unknown id or a proposal that is no longer pending fails without
// changing anything; the first review's fields are kept.
func (e *Engine) ReviewProposal(ctx context.Context, id int64, decision vocab.ProposalStatus, reviewer, comment string) (Result, error) {
	if !decision.IsDecision() {
		return Result{OK: false, Message: fmt.Sprintf("Invalid decision: %s", decision)}, nil
	}

	p, err := e.store.ReviewProposal(ctx, id, vocab.Review{
		Decision: decision,
		Reviewer: strings.TrimSpace(reviewer),
		Comment:  strings.TrimSpace(comment),
		At:       e.now(),
	})
	switch {
	case errors.Is(err, vocab.ErrProposalNotFound):
		return Result{OK: false, Message: fmt.Sprintf("Proposal %d not found", id)}, nil
	case errors.Is(err, vocab.ErrAlreadyReviewed):
		return Result{OK: false, Message: fmt.Sprintf("Proposal %d already %s", id, p.Status)}, nil
	case err != nil:
		return Result{}, fmt.Errorf("review proposal %d: %w", id, err)
	}

	event := metrics.EventApproved
	if decision == vocab.StatusRejected {
		event = metrics.EventRejected
	}
	e.metrics.Proposal(event)
	e.logger.Info("proposal reviewed", "id", id, "decision", decision, "reviewer", p.ReviewedBy)
	return Result{OK: true, Message: fmt.Sprintf("Proposal %d %s", id, decision)}, nil
}

// UpdateProposalDescription replaces a proposal's description, typically
// with reviewer-edited generated text before applying.
func (e *Engine) UpdateProposalDescription(ctx context.Context, id int64, description string) (Result, error) {
	err := e.store.UpdateProposalDescription(ctx, id, norm.NFC.String(strings.TrimSpace(description)))
	switch {
	case errors.Is(err, vocab.ErrProposalNotFound):
		return Result{OK: false, Message: fmt.Sprintf("Proposal %d not found", id)}, nil
	case err != nil:
		return Result{}, err
	}
	return Result{OK: true, Message: fmt.Sprintf("Proposal %d description updated", id)}, nil
}

// ApplyApprovedProposal applies p to the cache, then publishes the section's
// page with prose inserted.
//
// Business rules are checked against the current vocabulary: add_term needs
// an existing category without the term, add_category needs a new key. A
// rule failure changes nothing. Once the cache is updated the application
// counts as done; a failed push only adds a warning and Published=false.
func (e *Engine) ApplyApprovedProposal(ctx context.Context, p vocab.Proposal, proseText string) (ApplyResult, error) {
	log := e.logger.With("proposal", p.ID, "type", p.Type, "section", p.Section, "category", p.Category)

	if p.Status != vocab.StatusApproved {
		return ApplyResult{OK: false, Message: fmt.Sprintf("Proposal %d is %s, not approved", p.ID, p.Status)}, nil
	}

	v, err := e.LoadVocabulary(ctx)
	if err != nil {
		return ApplyResult{}, err
	}
	if err := applyProposal(&v, p); err != nil {
		e.metrics.Proposal(metrics.EventApplyFailed)
		log.Info("proposal rejected by vocabulary rules", "reason", err)
		return ApplyResult{OK: false, Message: err.Error()}, nil
	}

	by := p.ReviewedBy
	if by == "" {
		by = "system"
	}
	if _, err := e.store.ReplaceAll(ctx, v, vocab.SyncLogEntry{
		RunID:    e.newID(),
		SyncedAt: e.now(),
		SyncedBy: by,
		Trigger:  vocab.TriggerProposal,
	}); err != nil {
		e.metrics.Proposal(metrics.EventApplyFailed)
		log.Error("apply proposal failed", "error", err)
		return ApplyResult{OK: false, Message: fmt.Sprintf("Failed to update cache: %v", err)}, nil
	}
	e.metrics.Proposal(metrics.EventApplied)

	sec, _ := v.Section(p.Section)
	pub := e.publish(ctx, *sec, p, proseText)
	e.metrics.Publish(pub.OK)

	msg := "Applied proposal: " + string(p.Type)
	if !pub.OK {
		log.Warn("wiki publish failed", "reason", pub.Message)
		msg += fmt.Sprintf(" (wiki push warning: %s)", pub.Message)
	} else {
		log.Info("proposal applied", "publish", pub.Message)
	}
	return ApplyResult{OK: true, Message: msg, Published: pub.OK}, nil
}

// applyProposal mutates v. On a rule failure v may be partially changed and
// must be discarded.
func applyProposal(v *vocab.Vocabulary, p vocab.Proposal) error {
	switch p.Type {
	case vocab.AddTerm:
		var cat *vocab.Category
		sec, ok := v.Section(p.Section)
		if ok {
			cat, ok = sec.Category(p.Category)
		}
		if !ok {
			return vocab.Rulef("Category '%s' not found in '%s'", p.Category, p.Section)
		}
		if cat.HasValue(p.Term) {
			return vocab.Rulef("Term '%s' already exists", p.Term)
		}
		cat.Values = append(cat.Values, p.Term)

	case vocab.AddCategory:
		sec := v.EnsureSection(p.Section)
		if _, ok := sec.Category(p.Category); ok {
			return vocab.Rulef("Category '%s' already exists", p.Category)
		}
		sec.Categories = append(sec.Categories, vocab.Category{
			Key:         p.Category,
			Description: p.Description,
			Values:      []string{},
		})

	default:
		return vocab.Rulef("Unknown proposal type: %s", p.Type)
	}
	return nil
}

// ApplyProposal loads proposal id and applies it.
func (e *Engine) ApplyProposal(ctx context.Context, id int64, proseText string) (ApplyResult, error) {
	p, err := e.store.GetProposal(ctx, id)
	if errors.Is(err, vocab.ErrProposalNotFound) {
		return ApplyResult{OK: false, Message: fmt.Sprintf("Proposal %d not found", id)}, nil
	}
	if err != nil {
		return ApplyResult{}, err
	}
	return e.ApplyApprovedProposal(ctx, p, proseText)
}

// ApproveAndApply approves proposal id, applies any edit, then applies it.
//
// The approval is kept even when the application fails.
func (e *Engine) ApproveAndApply(ctx context.Context, id int64, reviewer, comment string, edit Edit) (ApplyResult, error) {
	rev, err := e.ReviewProposal(ctx, id, vocab.StatusApproved, reviewer, comment)
	if err != nil {
		return ApplyResult{}, err
	}
	if !rev.OK {
		return ApplyResult{OK: false, Message: rev.Message}, nil
	}

	if edit.Description != nil {
		res, err := e.UpdateProposalDescription(ctx, id, *edit.Description)
		if err != nil {
			return ApplyResult{}, err
		}
		if !res.OK {
			return ApplyResult{OK: false, Message: res.Message}, nil
		}
	}

	res, err := e.ApplyProposal(ctx, id, edit.Prose)
	if err == nil && !res.OK {
		e.logger.Warn("proposal approved but not applied", "id", id, "reason", res.Message)
	}
	return res, err
}

// DraftWikiText asks the generator for a description line and wiki prose.
//
// The section's current page is passed along for tone when it can be read.
// Any failure degrades to the proposal's own description and no prose.
func (e *Engine) DraftWikiText(ctx context.Context, p vocab.Proposal) Draft {
	fallback := Draft{Description: p.Description}
	if e.writer == nil {
		fallback.Error = prose.ErrNotConfigured.Error()
		return fallback
	}

	text, err := e.writer.Generate(ctx, prose.Request{
		Type:        p.Type,
		Section:     p.Section,
		Category:    p.Category,
		Term:        p.Term,
		Description: p.Description,
		PageContent: e.pageContent(ctx, p.Section),
	})
	if err != nil {
		e.logger.Warn("wiki text generation failed", "proposal", p.ID, "error", err)
		fallback.Error = err.Error()
		return fallback
	}

	d := Draft{Description: strings.TrimSpace(text.Description), Prose: strings.TrimSpace(text.Prose), OK: true}
	if d.Description == "" {
		d.Description = p.Description
	}
	return d
}
