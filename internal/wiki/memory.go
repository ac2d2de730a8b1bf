package wiki

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/ontology/internal/vocab"
)

// Commit is one push recorded by a MemorySource.
type Commit struct {
	Message string
	Pages   map[string]string
}

// MemorySource is an in-process Source. Each checkout gets a private copy of
// the pages; pushes publish the copy back.
type MemorySource struct {
	mu       sync.Mutex
	pages    map[string]string
	commits  []Commit
	openErr  error
	pushErr  error
	opened   int
	inFlight int
}

// NewMemorySource returns a source holding pages (page name to text).
func NewMemorySource(pages map[string]string) *MemorySource {
	m := &MemorySource{pages: map[string]string{}}
	maps.Copy(m.pages, pages)
	return m
}

// FailOpen makes subsequent checkouts fail as an unreachable remote. nil clears it.
func (m *MemorySource) FailOpen(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// FailPush makes subsequent pushes fail as an unreachable remote. nil clears it.
func (m *MemorySource) FailPush(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushErr = err
}

// SetPage writes a page directly on the remote.
func (m *MemorySource) SetPage(name, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[name] = text
}

// Page reads a page from the remote.
func (m *MemorySource) Page(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.pages[name]
	return text, ok
}

// Commits returns every push so far, oldest first.
func (m *MemorySource) Commits() []Commit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.commits)
}

// Opened is the number of checkouts handed out.
func (m *MemorySource) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// InFlight is the number of checkouts not yet released.
func (m *MemorySource) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// WithCheckout implements Source.
func (m *MemorySource) WithCheckout(ctx context.Context, fn func(Checkout) error) error {
	m.mu.Lock()
	if m.openErr != nil {
		err := m.openErr
		m.mu.Unlock()
		return &vocab.SourceUnavailableError{Op: "clone", Err: err}
	}
	m.opened++
	m.inFlight++
	co := &memCheckout{source: m, pages: maps.Clone(m.pages)}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()
	return fn(co)
}

type memCheckout struct {
	source *MemorySource
	pages  map[string]string
}

func (c *memCheckout) ReadPage(name string) (string, bool, error) {
	text, ok := c.pages[name]
	return text, ok, nil
}

func (c *memCheckout) WritePage(name, text string) error {
	c.pages[name] = text
	return nil
}

func (c *memCheckout) CommitAndPush(ctx context.Context, pages []string, message string) (bool, error) {
	m := c.source
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := map[string]string{}
	for _, p := range pages {
		text, ok := c.pages[p]
		if !ok {
			continue
		}
		if remote, exists := m.pages[p]; !exists || remote != text {
			changed[p] = text
		}
	}
	if len(changed) == 0 {
		return false, nil
	}
	if m.pushErr != nil {
		return false, &vocab.SourceUnavailableError{Op: "push", Err: m.pushErr}
	}

	maps.Copy(m.pages, changed)
	m.commits = append(m.commits, Commit{Message: message, Pages: changed})
	return true, nil
}
