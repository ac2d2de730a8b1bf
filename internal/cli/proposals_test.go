package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabCommands(t *testing.T) {
	f := synced(t)

	assert.Equal(t, "Context\nSystem\n", f.mustRun(t, "vocab", "sections"))
	assert.Equal(t, "system.domain: experimental, computational\n", f.mustRun(t, "vocab", "categories", "System"))
	assert.Empty(t, f.mustRun(t, "vocab", "categories", "Sample"))

	show := f.mustRun(t, "vocab", "show")
	assert.Contains(t, show, "# Context\n")
	assert.Contains(t, show, "# System\n")
	assert.Contains(t, show, "system.domain:")

	out := f.mustRun(t, "--format", "json", "vocab", "categories", "Context")
	var resp struct {
		Data []categoryView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []categoryView{{
		Key:         "context.environment",
		Description: "Surrounding medium",
		Values:      []string{"gas", "liquid"},
	}}, resp.Data)
}

func TestProposalLifecycle(t *testing.T) {
	f := synced(t)

	out := f.mustRun(t, "propose", "term", "--section", "System", "--category", "system.domain",
		"--term", "hybrid", "--description", "Mixed methods", "--as", "carol")
	assert.Equal(t, "Created proposal #1 add_term: system.domain hybrid (pending)\n", out)

	list := f.mustRun(t, "proposals", "list", "--status", "pending")
	assert.Contains(t, list, "add_term")
	assert.Contains(t, list, "carol")

	// Only configured admins review.
	out, err := f.run(t, "review", "1", "approve", "--as", "carol")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_FORBIDDEN]: User 'carol' is not an admin")

	assert.Equal(t, "Proposal 1 approved\n", f.mustRun(t, "review", "1", "approve", "--as", "Alice", "--comment", "ok"))

	out, err = f.run(t, "review", "1", "reject", "--as", "alice")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Proposal 1 already approved")

	out = f.mustRun(t, "apply", "1", "--as", "alice", "--prose", "Hybrid studies combine both.")
	assert.Contains(t, out, "Applied proposal: add_term")
	assert.NotContains(t, out, "warning")

	assert.Equal(t, "system.domain: experimental, computational, hybrid\n", f.mustRun(t, "vocab", "categories", "System"))
	page, ok := f.source.Page("System")
	require.True(t, ok)
	assert.Contains(t, page, "hybrid")
	assert.Contains(t, page, "Hybrid studies combine both.")

	show := f.mustRun(t, "proposals", "show", "1")
	assert.Contains(t, show, "#1 add_term: system.domain hybrid")
	assert.Contains(t, show, "status:      approved")
	assert.Contains(t, show, "comment:     ok")

	assert.Contains(t, f.mustRun(t, "last-sync"), "proposal")
}

func TestPropose_RuleViolation(t *testing.T) {
	f := synced(t)

	out, err := f.run(t, "propose", "term", "--section", "System", "--category", "system.domain", "--as", "carol")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_RULE]: Term is required")
	assert.Equal(t, "No proposals found.\n", f.mustRun(t, "proposals", "list"))
}

func TestReview_ApplyInOneStep(t *testing.T) {
	f := synced(t)
	f.mustRun(t, "propose", "category", "--section", "Context", "--category", "context.pressure",
		"--description", "Ambient pressure", "--as", "carol")

	out := f.mustRun(t, "review", "1", "approve", "--as", "alice", "--apply",
		"--description", "Ambient pressure regime")
	assert.Contains(t, out, "Applied proposal: add_category")

	cats := f.mustRun(t, "--format", "json", "vocab", "categories", "Context")
	assert.Contains(t, cats, "context.pressure")
	assert.Contains(t, cats, "Ambient pressure regime")
}

func TestReview_ApplyRequiresApprove(t *testing.T) {
	f := synced(t)

	_, err := f.run(t, "review", "1", "reject", "--as", "alice", "--apply")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApply_Failures(t *testing.T) {
	f := synced(t)
	f.mustRun(t, "propose", "term", "--section", "System", "--category", "system.domain",
		"--term", "experimental", "--as", "carol")

	out, err := f.run(t, "apply", "1", "--as", "alice")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Proposal 1 is pending, not approved")

	f.mustRun(t, "review", "1", "approve", "--as", "alice")
	out, err = f.run(t, "apply", "1", "--as", "alice")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_RULE]")

	out, err = f.run(t, "apply", "7", "--as", "alice")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Proposal 7 not found")

	_, err = f.run(t, "apply", "x", "--as", "alice")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApply_PushFailureIsWarning(t *testing.T) {
	f := synced(t)
	f.mustRun(t, "propose", "term", "--section", "System", "--category", "system.domain",
		"--term", "hybrid", "--as", "carol")
	f.mustRun(t, "review", "1", "approve", "--as", "alice")
	f.source.FailPush(errors.New("permission denied"))

	out := f.mustRun(t, "apply", "1", "--as", "alice")
	assert.Contains(t, out, "wiki push warning")
	assert.Contains(t, out, "warning: the wiki page was not updated")
	assert.Contains(t, f.mustRun(t, "vocab", "categories", "System"), "hybrid")
}

func TestDraft_WithoutGenerator(t *testing.T) {
	f := synced(t)
	f.mustRun(t, "propose", "term", "--section", "System", "--category", "system.domain",
		"--term", "hybrid", "--description", "Mixed methods", "--as", "carol")

	out := f.mustRun(t, "draft", "1")
	assert.Contains(t, out, "description: Mixed methods")
	assert.Contains(t, out, "warning: generation failed")

	// --draft falls back to no prose and still applies.
	f.mustRun(t, "review", "1", "approve", "--as", "alice")
	assert.Contains(t, f.mustRun(t, "apply", "1", "--as", "alice", "--draft"), "Applied proposal")
}

func TestProposals_Show(t *testing.T) {
	f := synced(t)

	out, err := f.run(t, "proposals", "show", "99")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOT_FOUND]: Proposal 99 not found")

	_, err = f.run(t, "proposals", "show", "abc")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = f.run(t, "proposals", "list", "--status", "merged")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
