package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/ontology/internal/vocab"
)

// createTestStore creates a new SQLite store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachBackend runs fn against SQLite and, when ONTOLOGY_TEST_POSTGRES_DSN
// is set, against a freshly truncated Postgres database.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, createTestStore(t))
	})

	dsn := os.Getenv("ONTOLOGY_TEST_POSTGRES_DSN")
	t.Run("postgres", func(t *testing.T) {
		if dsn == "" {
			t.Skip("ONTOLOGY_TEST_POSTGRES_DSN not set")
		}
		ctx := context.Background()
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			t.Fatalf("OpenPostgres() failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		if _, err := s.db.ExecContext(ctx, `TRUNCATE vocabulary_cache, sync_log, proposals RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		fn(t, s)
	})
}

var testTime = time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)

func testEntry(by string) vocab.SyncLogEntry {
	return vocab.SyncLogEntry{
		RunID:    "run-" + by,
		SyncedAt: testTime,
		SyncedBy: by,
		Trigger:  vocab.TriggerWiki,
	}
}

func testVocabulary() vocab.Vocabulary {
	return vocab.Vocabulary{Sections: []vocab.Section{
		{Name: "System", Categories: []vocab.Category{
			{Key: "system.domain", Description: "Scientific domain", Values: []string{"experimental", "computational"}},
			{Key: "system.technique", Description: "", Values: []string{}},
		}},
		{Name: "Context", Categories: []vocab.Category{
			{Key: "context.environment", Description: "Env", Values: []string{"in_situ", "ex_situ"}},
		}},
	}}
}
