package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontology/internal/config"
	"github.com/roach88/ontology/internal/ontology"
	"github.com/roach88/ontology/internal/snapshot"
	"github.com/roach88/ontology/internal/store/memstore"
	"github.com/roach88/ontology/internal/testutil"
	"github.com/roach88/ontology/internal/wiki"
)

const systemPage = "# System\n\n" +
	"## Controlled Vocabulary\n\n" +
	"```yaml\n" +
	"system.domain:\n" +
	"  description: \"Scientific domain\"\n" +
	"  values: [experimental, computational]\n" +
	"```\n"

const contextPage = "# Context\n\n" +
	"## Controlled Vocabulary\n\n" +
	"```yaml\n" +
	"context.environment:\n" +
	"  description: \"Surrounding medium\"\n" +
	"  values: [gas, liquid]\n" +
	"```\n"

// cliFixture shares one in-memory store, wiki and snapshot across commands.
type cliFixture struct {
	cfg      *config.Config
	store    *memstore.Store
	source   *wiki.MemorySource
	snapshot *snapshot.Store
	clock    *testutil.Clock
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageMemory
	cfg.Admins = []string{"alice"}
	return &cliFixture{
		cfg:   cfg,
		store: memstore.New(),
		source: wiki.NewMemorySource(map[string]string{
			"System":  systemPage,
			"Context": contextPage,
		}),
		snapshot: snapshot.New(snapshot.NewMemory(), snapshot.DefaultKey),
		clock:    testutil.NewClock(),
	}
}

func (f *cliFixture) open(_ context.Context, _ *RootOptions, _ *cobra.Command) (*Env, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := ontology.New(f.store, f.source,
		ontology.WithClock(f.clock.Now),
		ontology.WithRunIDs(testutil.SequentialIDs("cli")),
		ontology.WithLogger(logger),
		ontology.WithAdmins(f.cfg.Admins),
		ontology.WithSnapshot(f.snapshot),
	)
	return &Env{Config: f.cfg, Engine: engine, Logger: logger, Registry: prometheus.NewRegistry()}, nil
}

// run executes the CLI with args and returns stdout.
func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommandWithOptions(&RootOptions{Open: f.open})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun executes the CLI and fails the test on error.
func (f *cliFixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := f.run(t, args...)
	require.NoError(t, err, out)
	return out
}

// synced returns a fixture whose cache was filled from the wiki.
func synced(t *testing.T) *cliFixture {
	t.Helper()
	f := newCLIFixture(t)
	f.mustRun(t, "sync")
	return f
}
