package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ontology/internal/vocab"
)

// ReplaceAll swaps the whole cached vocabulary for v and appends a success
// entry to the sync log, in one transaction.
//
// entry supplies RunID, SyncedAt, SyncedBy and Trigger; counts and status are
// filled in here. If any row fails to write, nothing of v becomes visible and
// a failed entry carrying the error is appended instead. The returned entry is
// whichever one was logged.
func (s *Store) ReplaceAll(ctx context.Context, v vocab.Vocabulary, entry vocab.SyncLogEntry) (vocab.SyncLogEntry, error) {
	entry.Sections = countSections(v)
	entry.Categories = v.CategoryCount()
	entry.Status = vocab.SyncSuccess
	entry.Error = ""

	id, err := s.replaceAll(ctx, v, entry)
	if err == nil {
		entry.ID = id
		return entry, nil
	}

	failed := entry
	failed.Status = vocab.SyncFailed
	failed.Error = err.Error()
	logged, logErr := s.AppendSyncLog(ctx, failed)
	if logErr != nil {
		return failed, errors.Join(fmt.Errorf("replace vocabulary: %w", err), logErr)
	}
	return logged, fmt.Errorf("replace vocabulary: %w", err)
}

func (s *Store) replaceAll(ctx context.Context, v vocab.Vocabulary, entry vocab.SyncLogEntry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vocabulary_cache`); err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO vocabulary_cache
		(section, section_pos, category, category_pos, description, allowed_values)
		VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for si, sec := range v.Sections {
		if sec.Name == "" {
			return 0, errors.New("section with empty name")
		}
		for ci, cat := range sec.Categories {
			if cat.Key == "" {
				return 0, fmt.Errorf("section %q: category with empty key", sec.Name)
			}
			values, err := marshalValues(cat.Values)
			if err != nil {
				return 0, fmt.Errorf("category %q: %w", cat.Key, err)
			}
			if _, err := stmt.ExecContext(ctx, sec.Name, si, cat.Key, ci, cat.Description, values); err != nil {
				return 0, fmt.Errorf("write category %q: %w", cat.Key, err)
			}
		}
	}

	id, err := s.insertSyncLog(ctx, tx, entry)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return id, nil
}

// ReadAll returns the cached vocabulary in stored order.
// An empty cache yields an empty vocabulary.
func (s *Store) ReadAll(ctx context.Context) (vocab.Vocabulary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section, category, description, allowed_values
		FROM vocabulary_cache
		ORDER BY section_pos ASC, category_pos ASC
	`)
	if err != nil {
		return vocab.Vocabulary{}, fmt.Errorf("query vocabulary: %w", err)
	}
	defer rows.Close()

	var v vocab.Vocabulary
	for rows.Next() {
		var section, rawValues string
		var cat vocab.Category
		if err := rows.Scan(&section, &cat.Key, &cat.Description, &rawValues); err != nil {
			return vocab.Vocabulary{}, fmt.Errorf("scan vocabulary: %w", err)
		}
		if cat.Values, err = unmarshalValues(rawValues); err != nil {
			return vocab.Vocabulary{}, fmt.Errorf("category %q: %w", cat.Key, err)
		}
		sec := v.EnsureSection(section)
		sec.Categories = append(sec.Categories, cat)
	}

	if err := rows.Err(); err != nil {
		return vocab.Vocabulary{}, fmt.Errorf("iterate vocabulary: %w", err)
	}
	return v, nil
}

// AppendSyncLog inserts an audit entry outside any replace and returns it with its id.
func (s *Store) AppendSyncLog(ctx context.Context, entry vocab.SyncLogEntry) (vocab.SyncLogEntry, error) {
	id, err := s.insertSyncLog(ctx, s.db, entry)
	if err != nil {
		return entry, err
	}
	entry.ID = id
	return entry, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) insertSyncLog(ctx context.Context, q rowQuerier, entry vocab.SyncLogEntry) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO sync_log
		(run_id, synced_at, synced_by, trigger_kind, sections, categories, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		entry.RunID,
		formatTime(entry.SyncedAt),
		entry.SyncedBy,
		string(entry.Trigger),
		entry.Sections,
		entry.Categories,
		string(entry.Status),
		entry.Error,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("write sync log: %w", err)
	}
	return id, nil
}

// LastSync returns the most recent audit entry of any status, or nil.
func (s *Store) LastSync(ctx context.Context) (*vocab.SyncLogEntry, error) {
	return s.querySyncEntry(ctx, `
		SELECT id, run_id, synced_at, synced_by, trigger_kind, sections, categories, status, error
		FROM sync_log
		ORDER BY id DESC
		LIMIT 1
	`)
}

// LastSuccessfulSync returns the most recent successful entry for trigger, or nil.
func (s *Store) LastSuccessfulSync(ctx context.Context, trigger vocab.SyncTrigger) (*vocab.SyncLogEntry, error) {
	return s.querySyncEntry(ctx, `
		SELECT id, run_id, synced_at, synced_by, trigger_kind, sections, categories, status, error
		FROM sync_log
		WHERE trigger_kind = ? AND status = ?
		ORDER BY id DESC
		LIMIT 1
	`, string(trigger), string(vocab.SyncSuccess))
}

// SyncHistory returns up to limit audit entries, newest first.
func (s *Store) SyncHistory(ctx context.Context, limit int) ([]vocab.SyncLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, run_id, synced_at, synced_by, trigger_kind, sections, categories, status, error
		FROM sync_log
		ORDER BY id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("query sync log: %w", err)
	}
	defer rows.Close()

	entries := []vocab.SyncLogEntry{}
	for rows.Next() {
		e, err := scanSyncEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync log: %w", err)
	}
	return entries, nil
}

func (s *Store) querySyncEntry(ctx context.Context, query string, args ...any) (*vocab.SyncLogEntry, error) {
	e, err := scanSyncEntry(s.db.QueryRowContext(ctx, s.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSyncEntry(row scanner) (vocab.SyncLogEntry, error) {
	var e vocab.SyncLogEntry
	var syncedAt, trigger, status string
	err := row.Scan(&e.ID, &e.RunID, &syncedAt, &e.SyncedBy, &trigger, &e.Sections, &e.Categories, &status, &e.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan sync log: %w", err)
	}
	if e.SyncedAt, err = parseTime(syncedAt); err != nil {
		return e, err
	}
	e.Trigger = vocab.SyncTrigger(trigger)
	e.Status = vocab.SyncStatus(status)
	return e, nil
}

func countSections(v vocab.Vocabulary) int {
	n := 0
	for _, s := range v.Sections {
		if len(s.Categories) > 0 {
			n++
		}
	}
	return n
}
