package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const domainScenario = `name: check_domain
description: "An unknown domain is a violation"
vocabulary:
  System:
    system.domain:
      description: "Scientific domain"
      values: [experimental, computational]
flow:
  - op: validate
    record: { system: { domain: theoretical } }
    expect:
      ok: false
assertions:
  - type: category_values
    section: System
    category: system.domain
    values: [experimental, computational]
`

const failingScenario = `name: wrong_values
description: "Asserts values the vocabulary does not have"
vocabulary:
  System:
    system.domain:
      values: [experimental]
flow:
  - op: validate
    record: { system: { domain: experimental } }
assertions:
  - type: category_values
    section: System
    category: system.domain
    values: [computational]
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return dir
}

func TestTestCommand_GoldenLifecycle(t *testing.T) {
	f := newCLIFixture(t)
	dir := scenarioDir(t, map[string]string{"check_domain.yaml": domainScenario})

	out := f.mustRun(t, "test", dir)
	assert.Contains(t, out, "✓ check_domain\n")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")

	out = f.mustRun(t, "test", dir, "--update")
	assert.Contains(t, out, "✓ check_domain (golden updated)")
	golden := filepath.Join(dir, "golden", "check_domain.golden")
	require.FileExists(t, golden)

	out = f.mustRun(t, "--format", "json", "test", dir)
	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "match", resp.Data.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, err := f.run(t, "test", dir)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	f := newCLIFixture(t)
	dir := scenarioDir(t, map[string]string{
		"check_domain.yaml": domainScenario,
		"wrong_values.yaml": failingScenario,
	})

	out, err := f.run(t, "test", dir)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ check_domain")
	assert.Contains(t, out, "✗ wrong_values")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")

	out = f.mustRun(t, "test", dir, "--filter", "check_*")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	assert.Equal(t, "No scenarios found.\n", f.mustRun(t, "test", dir, "--filter", "nothing"))
}

func TestTestCommand_CommandErrors(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "test", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	dir := scenarioDir(t, map[string]string{"bad.yaml": "name: bad\ndescription: broken\nflow:\n  - op: explode\n"})
	out, err := f.run(t, "test", dir)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `unknown op "explode"`)

	dir = scenarioDir(t, map[string]string{"check_domain.yaml": domainScenario})
	_, err = f.run(t, "test", dir, "--filter", "[")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
