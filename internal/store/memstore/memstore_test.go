package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontology/internal/vocab"
)

var testTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func testVocabulary() vocab.Vocabulary {
	return vocab.Vocabulary{Sections: []vocab.Section{
		{Name: "System", Categories: []vocab.Category{
			{Key: "system.domain", Values: []string{"experimental", "computational"}},
		}},
		{Name: "Empty"},
	}}
}

func TestReplaceAll_DropsEmptySectionsAndCounts(t *testing.T) {
	s := New()
	ctx := context.Background()

	entry, err := s.ReplaceAll(ctx, testVocabulary(), vocab.SyncLogEntry{SyncedBy: "alice", Trigger: vocab.TriggerWiki})
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.ID)
	assert.Equal(t, 1, entry.Sections)
	assert.Equal(t, 1, entry.Categories)

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"System"}, got.SectionNames())
}

func TestReadAll_ReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.ReplaceAll(ctx, testVocabulary(), vocab.SyncLogEntry{})
	require.NoError(t, err)

	got, _ := s.ReadAll(ctx)
	got.Sections[0].Categories[0].Values[0] = "mutated"

	again, _ := s.ReadAll(ctx)
	assert.Equal(t, "experimental", again.Sections[0].Categories[0].Values[0])
}

func TestReplaceAll_FailureKeepsCache(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.ReplaceAll(ctx, testVocabulary(), vocab.SyncLogEntry{SyncedBy: "alice", Trigger: vocab.TriggerWiki})
	require.NoError(t, err)

	s.FailNextReplace(errors.New("disk full"))
	logged, err := s.ReplaceAll(ctx, vocab.Vocabulary{Sections: []vocab.Section{
		{Name: "Other", Categories: []vocab.Category{{Key: "other.x"}}},
	}}, vocab.SyncLogEntry{SyncedBy: "bob", Trigger: vocab.TriggerWiki})
	require.Error(t, err)
	assert.Equal(t, vocab.SyncFailed, logged.Status)
	assert.Equal(t, "disk full", logged.Error)

	got, _ := s.ReadAll(ctx)
	assert.Equal(t, []string{"System"}, got.SectionNames())

	last, _ := s.LastSync(ctx)
	assert.Equal(t, "bob", last.SyncedBy)
	ok, _ := s.LastSuccessfulSync(ctx, vocab.TriggerWiki)
	assert.Equal(t, "alice", ok.SyncedBy)

	// The failure is one-shot.
	_, err = s.ReplaceAll(ctx, testVocabulary(), vocab.SyncLogEntry{})
	assert.NoError(t, err)
}

func TestReplaceAll_RejectsInvalidVocabulary(t *testing.T) {
	s := New()
	_, err := s.ReplaceAll(context.Background(), vocab.Vocabulary{Sections: []vocab.Section{
		{Name: "A", Categories: []vocab.Category{{Key: ""}}},
	}}, vocab.SyncLogEntry{})
	assert.Error(t, err)

	history, _ := s.SyncHistory(context.Background(), 10)
	require.Len(t, history, 1)
	assert.Equal(t, vocab.SyncFailed, history[0].Status)
}

func TestProposals_Lifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, err := s.CreateProposal(ctx, vocab.NewProposal{
		Type: vocab.AddTerm, Section: "System", Category: "system.domain", Term: "hybrid", ProposedBy: "ada",
	}, testTime)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, vocab.StatusPending, p.Status)

	reviewed, err := s.ReviewProposal(ctx, p.ID, vocab.Review{Decision: vocab.StatusApproved, Reviewer: "admin", At: testTime})
	require.NoError(t, err)
	assert.Equal(t, vocab.StatusApproved, reviewed.Status)

	again, err := s.ReviewProposal(ctx, p.ID, vocab.Review{Decision: vocab.StatusRejected, Reviewer: "other", At: testTime.Add(time.Hour)})
	assert.ErrorIs(t, err, vocab.ErrAlreadyReviewed)
	assert.Equal(t, "admin", again.ReviewedBy)
	assert.True(t, again.ReviewedAt.Equal(testTime))

	_, err = s.ReviewProposal(ctx, 9, vocab.Review{Decision: vocab.StatusApproved, At: testTime})
	assert.ErrorIs(t, err, vocab.ErrProposalNotFound)

	require.NoError(t, s.UpdateProposalDescription(ctx, p.ID, "edited"))
	got, err := s.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Description)
	assert.ErrorIs(t, s.UpdateProposalDescription(ctx, 0, "x"), vocab.ErrProposalNotFound)
}

func TestListProposals_NewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, by := range []string{"ada", "grace", "ada"} {
		_, err := s.CreateProposal(ctx, vocab.NewProposal{Type: vocab.AddCategory, Section: "X", Category: "x.y", ProposedBy: by}, testTime)
		require.NoError(t, err)
	}

	got, err := s.ListProposals(ctx, vocab.ProposalFilter{ProposedBy: "ada"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)

	none, err := s.ListProposals(ctx, vocab.ProposalFilter{Status: vocab.StatusRejected})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestConcurrentReviewsDecideOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, _ := s.CreateProposal(ctx, vocab.NewProposal{Type: vocab.AddTerm, ProposedBy: "ada"}, testTime)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ReviewProposal(ctx, p.ID, vocab.Review{Decision: vocab.StatusApproved, Reviewer: "r", At: testTime}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
