// Package store provides SQL-backed durable storage for the ontology engine.
//
// Three collections live here:
//   - vocabulary_cache: the live vocabulary, one row per (section, category)
//   - sync_log: append-only audit of every cache replacement attempt
//   - proposals: the proposal ledger; only review fields and description mutate
//
// # Critical Patterns
//
// Wholesale replace: ReplaceAll deletes and rewrites vocabulary_cache and
// appends its sync_log row in a single transaction. Readers see either the
// old or the new vocabulary, never a mix. A failed replace rolls back and
// logs a failed entry instead.
//
// Review exactly once: ReviewProposal updates WHERE status = 'pending', so
// concurrent or repeated reviews cannot overwrite the first decision.
//
// Deterministic reads: vocabulary rows are read ORDER BY section_pos,
// category_pos; logs and proposals ORDER BY id.
//
// # Backends
//
// SQLite (mattn/go-sqlite3) with WAL, synchronous=NORMAL, busy_timeout=5000
// and a single connection; Postgres through the pgx stdlib driver. Queries
// are written with ? placeholders and rebound to $n for Postgres.
// Timestamps are stored as fixed-width UTC RFC 3339 text in both.
package store
