package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv keeps the developer's environment out of config loading.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"WIKI_REPO_URL", "GITHUB_TOKEN", "ISAAC_ADMINS",
		"ONTOLOGY_STORAGE_DRIVER", "ONTOLOGY_SQLITE_PATH", "ONTOLOGY_POSTGRES_DSN", "PGHOST",
		"ONTOLOGY_SNAPSHOT_DRIVER", "ONTOLOGY_SNAPSHOT_PATH",
	} {
		t.Setenv(name, "")
	}
}

// runWithConfig executes the CLI through OpenEnv with the given config file.
func runWithConfig(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		debug   bool
		warn    bool
	}{
		{"warn", false, false, true},
		{"debug", false, true, true},
		{"error", false, false, false},
		{"error", true, true, true},
		{"bogus", false, false, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/verbose=%t", tt.level, tt.verbose), func(t *testing.T) {
			logger := NewLogger(&bytes.Buffer{}, tt.level, tt.verbose)
			ctx := context.Background()
			assert.Equal(t, tt.debug, logger.Enabled(ctx, -4))
			assert.Equal(t, tt.warn, logger.Enabled(ctx, 4))
		})
	}
}

func TestOpenEnv_SQLitePersistsAcrossCommands(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "ontology.yaml", fmt.Sprintf(`storage:
  driver: sqlite
  sqlite_path: %s
snapshot:
  driver: fs
  path: %s
admins: [alice]
`, filepath.Join(dir, "ontology.db"), filepath.Join(dir, "snapshots")))

	out, err := runWithConfig(t, cfgPath, "propose", "category", "--section", "Context",
		"--category", "context.pressure", "--description", "Ambient pressure", "--as", "carol")
	require.NoError(t, err, out)

	out, err = runWithConfig(t, cfgPath, "proposals", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "context.pressure")

	out, err = runWithConfig(t, cfgPath, "review", "1", "approve", "--as", "bob")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "User 'bob' is not an admin")

	// The snapshot store is configured, so export reports the empty cache.
	out, err = runWithConfig(t, cfgPath, "snapshot", "export")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Vocabulary cache is empty")
}

func TestOpenEnv_SyncWithoutWikiURL(t *testing.T) {
	clearEnv(t)
	cfgPath := writeFile(t, t.TempDir(), "ontology.yaml", "storage:\n  driver: memory\n")

	out, err := runWithConfig(t, cfgPath, "sync")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Wiki sync failed")
	assert.Contains(t, out, "wiki repository url not configured")
}

func TestOpenEnv_ConfigErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := runWithConfig(t, filepath.Join(dir, "missing.yaml"), "vocab", "sections")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to initialize")

	bad := writeFile(t, dir, "bad.yaml", "storage:\n  driver: mongodb\n")
	_, err = runWithConfig(t, bad, "vocab", "sections")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
