// Package ontology implements the living ontology engine.
//
// The engine owns no state of its own. It sequences three stores, each
// behind its own interface:
//
//   - the wiki (wiki.Source): long-term source of truth, read in full only
//     by an explicit sync and written only when an applied proposal is
//     published
//   - the cache (Cache): the live vocabulary used for validation, replaced
//     wholesale by sync and by proposal application
//   - the ledger (Ledger): proposals and their single review decision
//
// All cross-store updates go through Engine methods so no component reads a
// stale copy of another.
//
// Sync Flow:
//  1. WithCheckout clones the wiki into a private scratch directory
//  2. Every page in the layout is read and its vocabulary block extracted
//  3. Pages that are missing, empty or malformed are skipped; their section
//     keeps its previously cached categories
//  4. If at least one page produced vocabulary, ReplaceAll swaps the cache
//     and appends a success entry to the sync log in one transaction
//
// Apply Flow:
//  1. Business rules are checked against the current cache
//  2. The mutated vocabulary replaces the cache (TriggerProposal)
//  3. The section's page is re-rendered and pushed; a publish failure is a
//     warning and never rolls back step 2
//
// CRITICAL PATTERNS:
//
// Expected Failures Are Results:
// Operations return (Result, error). Source outages, empty syncs, rule
// violations and review conflicts come back as Result{OK: false} with a
// human-readable message. The error return is reserved for storage failures.
//
// Fail Open, Parse Loud:
// ValidateRecord reports no violations when no vocabulary is available
// (first boot, cache down) and logs at WARN. A malformed page block is a
// different path: it is skipped with its own WARN and listed in the sync
// message.
//
// Approved Is Not Applied:
// A review decision and its application are separate steps. A proposal can
// be approved while its application later fails or never runs; the engine
// records both outcomes and does not couple them.
package ontology
