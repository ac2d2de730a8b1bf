package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync_Text(t *testing.T) {
	f := newCLIFixture(t)

	out := f.mustRun(t, "sync")
	assert.Contains(t, out, "Synced 2 pages, 2 categories")

	last := f.mustRun(t, "last-sync")
	assert.Contains(t, last, "wiki")
	assert.Contains(t, last, "success")
}

func TestSync_JSON(t *testing.T) {
	f := newCLIFixture(t)

	out := f.mustRun(t, "--format", "json", "sync")

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			OK      bool   `json:"ok"`
			Message string `json:"message"`
			Ran     bool   `json:"ran"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.OK)
	assert.True(t, resp.Data.Ran)
	assert.Contains(t, resp.Data.Message, "2 categories")
}

func TestSync_Failure(t *testing.T) {
	f := newCLIFixture(t)
	f.source.FailOpen(errors.New("remote unreachable"))

	out, err := f.run(t, "sync")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_SYNC_FAILED]: Wiki sync failed")
	assert.Contains(t, out, "remote unreachable")

	// The cache stays empty and the failure is logged.
	sections := f.mustRun(t, "vocab", "sections")
	assert.Empty(t, sections)
	assert.Contains(t, f.mustRun(t, "last-sync"), "failed")
}

func TestSync_IfStale(t *testing.T) {
	f := synced(t)

	out := f.mustRun(t, "sync", "--if-stale")
	assert.Contains(t, out, "Vocabulary is fresh")

	out = f.mustRun(t, "sync", "--if-stale", "--max-age", "1ns")
	assert.Contains(t, out, "Synced 2 pages")

	history := f.mustRun(t, "last-sync", "--history", "10")
	assert.Contains(t, history, "SYNCED AT")
	assert.Equal(t, 2, countLines(history)-1, history)
}

func TestLastSync_Empty(t *testing.T) {
	f := newCLIFixture(t)

	assert.Equal(t, "No sync recorded.\n", f.mustRun(t, "last-sync"))
	assert.Equal(t, "No sync recorded.\n", f.mustRun(t, "last-sync", "--history", "3"))
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
