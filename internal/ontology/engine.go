package ontology

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/ontology/internal/metrics"
	"github.com/roach88/ontology/internal/prose"
	"github.com/roach88/ontology/internal/validator"
	"github.com/roach88/ontology/internal/vocab"
	"github.com/roach88/ontology/internal/wiki"
)

// Cache is the live vocabulary plus its sync log.
//
// Implemented by store.Store (SQLite, Postgres) and memstore.Store.
type Cache interface {
	// ReplaceAll swaps the whole vocabulary and appends entry, both or
	// neither. On failure it appends a failed entry instead.
	ReplaceAll(ctx context.Context, v vocab.Vocabulary, entry vocab.SyncLogEntry) (vocab.SyncLogEntry, error)
	ReadAll(ctx context.Context) (vocab.Vocabulary, error)
	AppendSyncLog(ctx context.Context, entry vocab.SyncLogEntry) (vocab.SyncLogEntry, error)
	LastSync(ctx context.Context) (*vocab.SyncLogEntry, error)
	LastSuccessfulSync(ctx context.Context, trigger vocab.SyncTrigger) (*vocab.SyncLogEntry, error)
	SyncHistory(ctx context.Context, limit int) ([]vocab.SyncLogEntry, error)
}

// Ledger stores proposals.
type Ledger interface {
	CreateProposal(ctx context.Context, np vocab.NewProposal, at time.Time) (vocab.Proposal, error)
	GetProposal(ctx context.Context, id int64) (vocab.Proposal, error)
	ListProposals(ctx context.Context, filter vocab.ProposalFilter) ([]vocab.Proposal, error)
	// ReviewProposal decides a pending proposal exactly once.
	ReviewProposal(ctx context.Context, id int64, r vocab.Review) (vocab.Proposal, error)
	UpdateProposalDescription(ctx context.Context, id int64, description string) error
}

// Store is a Cache and a Ledger sharing one backend.
type Store interface {
	Cache
	Ledger
}

// Snapshot is the last-resort vocabulary copy (snapshot.Store).
type Snapshot interface {
	Load(ctx context.Context) (vocab.Vocabulary, bool, error)
	Save(ctx context.Context, v vocab.Vocabulary) error
}

// Result is the outcome of an operation whose failures are expected.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ApplyResult is the outcome of applying a proposal. Published is false when
// the cache was updated but the wiki push failed.
type ApplyResult struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	Published bool   `json:"published"`
}

// Engine sequences the wiki, the cache and the proposal ledger.
//
// Thread-safety: all methods are safe for concurrent use. Two concurrent
// syncs are not coordinated (last writer wins) except through SyncIfStale,
// which collapses callers in this process into one in-flight sync.
//
// INVARIANTS:
//   - A sync that finds no vocabulary leaves the cache untouched
//   - A section whose page was skipped keeps its cached categories
//   - A publish failure never rolls back an applied cache mutation
type Engine struct {
	store    Store
	source   wiki.Source
	layout   wiki.Layout
	snapshot Snapshot
	writer   prose.Generator

	validation validator.Options
	admins     []string

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string

	syncGroup singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithLayout sets the page to section mapping. Default: wiki.DefaultLayout().
func WithLayout(l wiki.Layout) Option {
	return func(e *Engine) {
		e.layout = l
	}
}

// WithSnapshot sets the fallback snapshot used when the cache is empty.
func WithSnapshot(s Snapshot) Option {
	return func(e *Engine) {
		e.snapshot = s
	}
}

// WithGenerator sets the prose generator used by DraftWikiText.
func WithGenerator(g prose.Generator) Option {
	return func(e *Engine) {
		e.writer = g
	}
}

// WithValidatorOptions sets validation options (skipped categories).
func WithValidatorOptions(opts validator.Options) Option {
	return func(e *Engine) {
		e.validation = opts
	}
}

// WithAdmins sets the usernames allowed to review proposals.
func WithAdmins(admins []string) Option {
	return func(e *Engine) {
		e.admins = admins
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock replaces time.Now for timestamps written to the stores.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRunIDs replaces the sync run id generator (default: random UUIDs).
func WithRunIDs(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

// New creates an Engine over store and source.
func New(store Store, source wiki.Source, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		source: source,
		layout: wiki.DefaultLayout(),
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Layout returns the page to section mapping in use.
func (e *Engine) Layout() wiki.Layout {
	return e.layout
}

// IsAdmin reports whether username may review proposals. Case-insensitive.
func (e *Engine) IsAdmin(username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	for _, a := range e.admins {
		if strings.EqualFold(strings.TrimSpace(a), username) {
			return true
		}
	}
	return false
}
