package ontology

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/ontology/internal/markdown"
	"github.com/roach88/ontology/internal/vocab"
	"github.com/roach88/ontology/internal/wiki"
)

// Messages shared with callers that match on them.
const (
	MsgNoVocabulary   = "No vocabulary data found in wiki pages"
	MsgNoSnapshot     = "No vocabulary snapshot found"
	MsgNoSnapshotConf = "No vocabulary snapshot configured"
)

// Reasons a page is skipped during sync.
const (
	skipMissing   = "page missing"
	skipEmpty     = "no vocabulary block"
	skipMalformed = "malformed vocabulary block"
)

// SyncFromWiki rebuilds the cache from the wiki pages.
//
// Every page in the layout is read from a fresh checkout. Pages that are
// missing or have no readable vocabulary block are skipped and listed in the
// message; their sections keep the categories already cached. When no page
// yields vocabulary the sync is rejected and the cache is left as it was.
// Every attempt, successful or not, is appended to the sync log.
func (e *Engine) SyncFromWiki(ctx context.Context, initiator string) (Result, error) {
	start := time.Now()
	entry := vocab.SyncLogEntry{
		RunID:    e.newID(),
		SyncedAt: e.now(),
		SyncedBy: initiator,
		Trigger:  vocab.TriggerWiki,
	}
	log := e.logger.With("run_id", entry.RunID, "initiator", initiator)
	log.Info("wiki sync started", "pages", len(e.layout))

	var (
		fresh   vocab.Vocabulary
		pages   int
		skipped []string
	)
	err := e.source.WithCheckout(ctx, func(co wiki.Checkout) error {
		for _, p := range e.layout {
			sec, reason, err := readSection(log, co, p)
			if err != nil {
				return err
			}
			if reason != "" {
				level := slog.LevelInfo
				if reason == skipMalformed {
					level = slog.LevelWarn
				}
				log.Log(ctx, level, "skipping page", "page", p.Page, "reason", reason)
				skipped = append(skipped, p.Page)
				continue
			}
			fresh.SetSection(sec)
			pages++
		}
		return nil
	})
	if err != nil {
		return e.syncFailed(ctx, log, start, entry, fmt.Sprintf("Wiki sync failed: %v", err))
	}
	if fresh.IsEmpty() {
		return e.syncFailed(ctx, log, start, entry, MsgNoVocabulary)
	}

	cached, err := e.store.ReadAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read cache: %w", err)
	}
	next := fresh.Clone()
	var carried []string
	for _, sec := range cached.Sections {
		if _, ok := next.Section(sec.Name); !ok {
			next.Sections = append(next.Sections, sec)
			carried = append(carried, sec.Name)
		}
	}
	next.OrderSections(e.layout.Sections())

	logged, err := e.store.ReplaceAll(ctx, next, entry)
	if err != nil {
		e.metrics.ObserveSync(false, time.Since(start), 0)
		log.Error("wiki sync failed", "error", err)
		return Result{OK: false, Message: fmt.Sprintf("Wiki sync failed: %v", err)}, nil
	}
	e.metrics.ObserveSync(true, time.Since(start), logged.Categories)

	msg := fmt.Sprintf("Synced %d pages, %d categories", pages, fresh.CategoryCount())
	if len(skipped) > 0 {
		msg += fmt.Sprintf(" (skipped: %s)", strings.Join(skipped, ", "))
	}
	log.Info("wiki sync finished",
		"pages", pages,
		"categories", fresh.CategoryCount(),
		"skipped", skipped,
		"carried_sections", carried,
		"duration", time.Since(start))
	return Result{OK: true, Message: msg}, nil
}

// readSection returns the section defined by page p, or the reason it is skipped.
// Entries dropped from the block are logged.
func readSection(log *slog.Logger, co wiki.Checkout, p wiki.Page) (vocab.Section, string, error) {
	text, ok, err := co.ReadPage(p.Page)
	if err != nil {
		return vocab.Section{}, "", fmt.Errorf("read page %s: %w", p.Page, err)
	}
	if !ok {
		return vocab.Section{}, skipMissing, nil
	}
	block, err := markdown.ExtractBlock(text)
	for _, s := range block.Skipped {
		log.Warn("dropping vocabulary entry", "page", p.Page, "key", s.Key, "line", s.Line, "reason", s.Reason)
	}
	switch {
	case markdown.IsMalformed(err):
		return vocab.Section{}, skipMalformed, nil
	case err != nil, len(block.Categories) == 0:
		return vocab.Section{}, skipEmpty, nil
	}
	return vocab.Section{Name: p.Section, Categories: block.Categories}, "", nil
}

// syncFailed records a rejected sync without touching the cache.
func (e *Engine) syncFailed(ctx context.Context, log *slog.Logger, start time.Time, entry vocab.SyncLogEntry, msg string) (Result, error) {
	e.metrics.ObserveSync(false, time.Since(start), 0)
	log.Warn("wiki sync rejected", "reason", msg)

	entry.Status = vocab.SyncFailed
	entry.Error = msg
	if _, err := e.store.AppendSyncLog(ctx, entry); err != nil {
		return Result{OK: false, Message: msg}, fmt.Errorf("append sync log: %w", err)
	}
	return Result{OK: false, Message: msg}, nil
}

// SyncIfStale runs SyncFromWiki when the last successful wiki sync is older
// than maxAge or absent. ran reports whether a sync happened.
//
// Concurrent callers in this process share one in-flight sync.
func (e *Engine) SyncIfStale(ctx context.Context, initiator string, maxAge time.Duration) (res Result, ran bool, err error) {
	last, err := e.store.LastSuccessfulSync(ctx, vocab.TriggerWiki)
	if err != nil {
		return Result{}, false, fmt.Errorf("read sync log: %w", err)
	}
	if last != nil {
		if age := e.now().Sub(last.SyncedAt); age < maxAge {
			e.logger.Debug("vocabulary is fresh", "age", age, "max_age", maxAge)
			return Result{
				OK:      true,
				Message: fmt.Sprintf("Vocabulary is fresh (last synced %s)", last.SyncedAt.UTC().Format(time.RFC3339)),
			}, false, nil
		}
	}

	v, err, shared := e.syncGroup.Do("wiki", func() (any, error) {
		return e.SyncFromWiki(ctx, initiator)
	})
	if shared {
		e.logger.Debug("joined in-flight wiki sync", "initiator", initiator)
	}
	if err != nil {
		return Result{}, true, err
	}
	return v.(Result), true, nil
}

// SeedFromSnapshot replaces the cache with the snapshot, for first boot or
// when the wiki is unreachable.
func (e *Engine) SeedFromSnapshot(ctx context.Context, initiator string) (Result, error) {
	if e.snapshot == nil {
		return Result{OK: false, Message: MsgNoSnapshotConf}, nil
	}
	v, ok, err := e.snapshot.Load(ctx)
	if err != nil {
		e.logger.Warn("vocabulary snapshot unreadable", "error", err)
		return Result{OK: false, Message: fmt.Sprintf("Snapshot unreadable: %v", err)}, nil
	}
	if !ok || v.IsEmpty() {
		return Result{OK: false, Message: MsgNoSnapshot}, nil
	}
	v.OrderSections(e.layout.Sections())

	logged, err := e.store.ReplaceAll(ctx, v, vocab.SyncLogEntry{
		RunID:    e.newID(),
		SyncedAt: e.now(),
		SyncedBy: initiator,
		Trigger:  vocab.TriggerSnapshot,
	})
	if err != nil {
		e.logger.Error("seed from snapshot failed", "error", err)
		return Result{OK: false, Message: fmt.Sprintf("Failed to update cache: %v", err)}, nil
	}
	e.logger.Info("seeded vocabulary from snapshot", "initiator", initiator, "categories", logged.Categories)
	return Result{OK: true, Message: fmt.Sprintf("Synced %d categories to database", logged.Categories)}, nil
}

// ExportSnapshot writes the cached vocabulary to the snapshot store.
func (e *Engine) ExportSnapshot(ctx context.Context) (Result, error) {
	if e.snapshot == nil {
		return Result{OK: false, Message: MsgNoSnapshotConf}, nil
	}
	v, err := e.store.ReadAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read cache: %w", err)
	}
	if v.IsEmpty() {
		return Result{OK: false, Message: "Vocabulary cache is empty"}, nil
	}
	v.OrderSections(e.layout.Sections())
	if err := e.snapshot.Save(ctx, v); err != nil {
		e.logger.Warn("snapshot export failed", "error", err)
		return Result{OK: false, Message: fmt.Sprintf("Snapshot export failed: %v", err)}, nil
	}
	return Result{OK: true, Message: fmt.Sprintf("Exported %d categories to snapshot", v.CategoryCount())}, nil
}

// PublishSnapshot writes each snapshot section into the vocabulary block of
// its wiki page and pushes the changed pages in one commit. Sections without
// a page, and pages missing from the wiki, are skipped.
func (e *Engine) PublishSnapshot(ctx context.Context) (Result, error) {
	if e.snapshot == nil {
		return Result{OK: false, Message: MsgNoSnapshotConf}, nil
	}
	v, ok, err := e.snapshot.Load(ctx)
	if err != nil {
		e.logger.Warn("vocabulary snapshot unreadable", "error", err)
		return Result{OK: false, Message: fmt.Sprintf("Snapshot unreadable: %v", err)}, nil
	}
	if !ok || v.IsEmpty() {
		return Result{OK: false, Message: MsgNoSnapshot}, nil
	}
	v.OrderSections(e.layout.Sections())

	var (
		changed []string
		skipped []string
		pushed  bool
	)
	err = e.source.WithCheckout(ctx, func(co wiki.Checkout) error {
		for _, sec := range v.Sections {
			page, ok := e.layout.PageFor(sec.Name)
			if !ok {
				skipped = append(skipped, sec.Name)
				continue
			}
			text, ok, err := co.ReadPage(page)
			if err != nil {
				return fmt.Errorf("read page %s: %w", page, err)
			}
			if !ok {
				skipped = append(skipped, sec.Name)
				continue
			}
			updated := markdown.ReplaceBlock(text, sec.Categories)
			if updated == text {
				continue
			}
			if err := co.WritePage(page, updated); err != nil {
				return err
			}
			changed = append(changed, page)
		}
		if len(changed) == 0 {
			return nil
		}
		var perr error
		pushed, perr = co.CommitAndPush(ctx, changed, "Publish vocabulary blocks from snapshot")
		return perr
	})
	if err != nil {
		e.logger.Error("snapshot publish failed", "error", err)
		return Result{OK: false, Message: fmt.Sprintf("Wiki push failed: %v", err)}, nil
	}

	msg := "No changes to push"
	if pushed {
		msg = fmt.Sprintf("Published %d pages to wiki", len(changed))
	}
	if len(skipped) > 0 {
		msg += fmt.Sprintf(" (skipped: %s)", strings.Join(skipped, ", "))
	}
	e.logger.Info("published snapshot to wiki", "pages", changed, "skipped", skipped)
	return Result{OK: true, Message: msg}, nil
}

// LastSync returns the most recent sync log entry of any status, or nil.
func (e *Engine) LastSync(ctx context.Context) (*vocab.SyncLogEntry, error) {
	return e.store.LastSync(ctx)
}

// SyncHistory returns up to limit sync log entries, newest first.
func (e *Engine) SyncHistory(ctx context.Context, limit int) ([]vocab.SyncLogEntry, error) {
	return e.store.SyncHistory(ctx, limit)
}
