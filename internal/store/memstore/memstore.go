// Package memstore keeps the vocabulary cache, sync log and proposal ledger
// in process memory.
//
// It honours the same contracts as the SQL store: ReplaceAll is
// all-or-nothing, reads return deep copies, and a proposal is reviewed at
// most once. Used for ephemeral deployments and tests.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/ontology/internal/vocab"
)

// Store is an in-memory cache store and proposal ledger.
type Store struct {
	mu        sync.RWMutex
	vocab     vocab.Vocabulary
	log       []vocab.SyncLogEntry
	proposals []vocab.Proposal

	failNext error
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// FailNextReplace makes the next ReplaceAll fail with err after validation.
func (s *Store) FailNextReplace(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// ReplaceAll swaps the whole vocabulary and appends a success entry, or
// leaves the vocabulary untouched and appends a failed entry.
func (s *Store) ReplaceAll(_ context.Context, v vocab.Vocabulary, entry vocab.SyncLogEntry) (vocab.SyncLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Sections = 0
	for _, sec := range v.Sections {
		if len(sec.Categories) > 0 {
			entry.Sections++
		}
	}
	entry.Categories = v.CategoryCount()

	err := v.Validate()
	if err == nil && s.failNext != nil {
		err, s.failNext = s.failNext, nil
	}
	if err != nil {
		entry.Status = vocab.SyncFailed
		entry.Error = err.Error()
		entry = s.appendLocked(entry)
		return entry, fmt.Errorf("replace vocabulary: %w", err)
	}

	next := vocab.Vocabulary{Sections: make([]vocab.Section, 0, len(v.Sections))}
	for _, sec := range v.Sections {
		if len(sec.Categories) > 0 {
			next.Sections = append(next.Sections, sec.Clone())
		}
	}
	s.vocab = next

	entry.Status = vocab.SyncSuccess
	entry.Error = ""
	return s.appendLocked(entry), nil
}

// ReadAll returns a deep copy of the cached vocabulary.
func (s *Store) ReadAll(context.Context) (vocab.Vocabulary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab.Clone(), nil
}

// AppendSyncLog appends entry unchanged apart from its id.
func (s *Store) AppendSyncLog(_ context.Context, entry vocab.SyncLogEntry) (vocab.SyncLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(entry), nil
}

func (s *Store) appendLocked(entry vocab.SyncLogEntry) vocab.SyncLogEntry {
	entry.ID = int64(len(s.log) + 1)
	s.log = append(s.log, entry)
	return entry
}

// LastSync returns the most recent entry of any status, or nil.
func (s *Store) LastSync(context.Context) (*vocab.SyncLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.log) == 0 {
		return nil, nil
	}
	e := s.log[len(s.log)-1]
	return &e, nil
}

// LastSuccessfulSync returns the most recent successful entry for trigger, or nil.
func (s *Store) LastSuccessfulSync(_ context.Context, trigger vocab.SyncTrigger) (*vocab.SyncLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.log) - 1; i >= 0; i-- {
		if e := s.log[i]; e.Succeeded() && e.Trigger == trigger {
			return &e, nil
		}
	}
	return nil, nil
}

// SyncHistory returns up to limit entries, newest first.
func (s *Store) SyncHistory(_ context.Context, limit int) ([]vocab.SyncLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]vocab.SyncLogEntry, 0, min(limit, len(s.log)))
	for i := len(s.log) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.log[i])
	}
	return out, nil
}

// CreateProposal stores a pending proposal and assigns the next id.
func (s *Store) CreateProposal(_ context.Context, np vocab.NewProposal, at time.Time) (vocab.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := vocab.Proposal{
		ID:          int64(len(s.proposals) + 1),
		Type:        np.Type,
		Section:     np.Section,
		Category:    np.Category,
		Term:        np.Term,
		Description: np.Description,
		ProposedBy:  np.ProposedBy,
		ProposedAt:  at.UTC(),
		Status:      vocab.StatusPending,
	}
	s.proposals = append(s.proposals, p)
	return p, nil
}

// GetProposal returns the proposal with id.
func (s *Store) GetProposal(_ context.Context, id int64) (vocab.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.lookupLocked(id)
	if !ok {
		return vocab.Proposal{}, fmt.Errorf("proposal %d: %w", id, vocab.ErrProposalNotFound)
	}
	return clone(*p), nil
}

// ListProposals returns matching proposals, newest first.
func (s *Store) ListProposals(_ context.Context, filter vocab.ProposalFilter) ([]vocab.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]vocab.Proposal, 0)
	for i := len(s.proposals) - 1; i >= 0; i-- {
		p := s.proposals[i]
		if filter.Matches(p) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

// ReviewProposal moves a pending proposal to r.Decision exactly once.
func (s *Store) ReviewProposal(_ context.Context, id int64, r vocab.Review) (vocab.Proposal, error) {
	if !r.Decision.IsDecision() {
		return vocab.Proposal{}, fmt.Errorf("review proposal %d: invalid decision %q", id, r.Decision)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lookupLocked(id)
	if !ok {
		return vocab.Proposal{}, fmt.Errorf("proposal %d: %w", id, vocab.ErrProposalNotFound)
	}
	if p.Status != vocab.StatusPending {
		return clone(*p), fmt.Errorf("proposal %d is %s: %w", id, p.Status, vocab.ErrAlreadyReviewed)
	}

	at := r.At.UTC()
	p.Status = r.Decision
	p.ReviewedBy = r.Reviewer
	p.ReviewedAt = &at
	p.ReviewComment = r.Comment
	return clone(*p), nil
}

// UpdateProposalDescription replaces the description of any proposal.
func (s *Store) UpdateProposalDescription(_ context.Context, id int64, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lookupLocked(id)
	if !ok {
		return fmt.Errorf("proposal %d: %w", id, vocab.ErrProposalNotFound)
	}
	p.Description = description
	return nil
}

// Ids are dense from 1, so lookup is an index.
func (s *Store) lookupLocked(id int64) (*vocab.Proposal, bool) {
	if id < 1 || id > int64(len(s.proposals)) {
		return nil, false
	}
	return &s.proposals[id-1], true
}

func clone(p vocab.Proposal) vocab.Proposal {
	if p.ReviewedAt != nil {
		at := *p.ReviewedAt
		p.ReviewedAt = &at
	}
	return p
}
