package ontology

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontology/internal/store/memstore"
	"github.com/roach88/ontology/internal/testutil"
	"github.com/roach88/ontology/internal/vocab"
	"github.com/roach88/ontology/internal/wiki"
)

const systemPage = "# System\n\n" +
	"### 2.1 `system.domain`\n\n" +
	"**Values**:\n\n" +
	"    *   `experimental`: Measured in a laboratory.\n" +
	"    *   `computational`: Produced by simulation.\n" +
	"        *   Requires a code reference.\n\n" +
	"## Controlled Vocabulary\n\n" +
	"```yaml\n" +
	"system.domain:\n" +
	"  description: \"Scientific domain\"\n" +
	"  values: [experimental, computational]\n" +
	"```\n"

const contextPage = "# Context\n\n" +
	"Controlled Vocabulary\n" +
	"---------------------\n\n" +
	"```yaml\n" +
	"context.environment:\n" +
	"  description: \"Surrounding medium\"\n" +
	"  values: [gas, liquid]\n" +
	"```\n"

const malformedPage = "# System\n\n## Controlled Vocabulary\n\n```yaml\n- not\n- a mapping\n```\n"

func testPages() map[string]string {
	return map[string]string{
		"System":  systemPage,
		"Context": contextPage,
	}
}

type fixture struct {
	engine *Engine
	store  *memstore.Store
	source *wiki.MemorySource
	clock  *testutil.Clock
}

func newFixture(t *testing.T, pages map[string]string, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		source: wiki.NewMemorySource(pages),
		clock:  testutil.NewClock(),
	}
	base := []Option{
		WithClock(f.clock.Now),
		WithRunIDs(testutil.SequentialIDs("run")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	f.engine = New(f.store, f.source, append(base, opts...)...)
	return f
}

// synced returns a fixture whose cache was filled from testPages.
func synced(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := newFixture(t, testPages(), opts...)
	res, err := f.engine.SyncFromWiki(context.Background(), "setup")
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	return f
}

func (f *fixture) vocabulary(t *testing.T) vocab.Vocabulary {
	t.Helper()
	v, err := f.store.ReadAll(context.Background())
	require.NoError(t, err)
	return v
}

func TestNew_Defaults(t *testing.T) {
	e := New(memstore.New(), wiki.NewMemorySource(nil), WithLogger(nil))
	assert.Equal(t, wiki.DefaultLayout(), e.Layout())
	assert.NotNil(t, e.logger)
	assert.NotEmpty(t, e.newID())
}

func TestIsAdmin(t *testing.T) {
	e := New(memstore.New(), wiki.NewMemorySource(nil), WithAdmins([]string{"Alice", " bob "}))

	assert.True(t, e.IsAdmin("alice"))
	assert.True(t, e.IsAdmin("BOB"))
	assert.False(t, e.IsAdmin("carol"))
	assert.False(t, e.IsAdmin(""))
}
