package vocab

import "time"

// SyncStatus is the outcome recorded for a sync attempt.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncFailed  SyncStatus = "failed"
)

// SyncTrigger names what replaced the cache.
type SyncTrigger string

const (
	TriggerWiki     SyncTrigger = "wiki"
	TriggerProposal SyncTrigger = "proposal"
	TriggerSnapshot SyncTrigger = "snapshot"
)

// SyncLogEntry is an append-only audit record of a cache replacement attempt.
// Entries are never mutated after insert.
type SyncLogEntry struct {
	ID         int64       `json:"id"`
	RunID      string      `json:"run_id"`
	SyncedAt   time.Time   `json:"synced_at"`
	SyncedBy   string      `json:"synced_by"`
	Trigger    SyncTrigger `json:"trigger"`
	Sections   int         `json:"sections"`
	Categories int         `json:"categories"`
	Status     SyncStatus  `json:"status"`
	Error      string      `json:"error,omitempty"`
}

// Succeeded reports whether the entry records a successful sync.
func (e SyncLogEntry) Succeeded() bool {
	return e.Status == SyncSuccess
}
