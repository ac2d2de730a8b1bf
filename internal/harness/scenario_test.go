package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/propose_and_apply.yaml")
	require.NoError(t, err)

	assert.Equal(t, "propose_and_apply", s.Name)
	assert.Contains(t, s.Pages, "System")
	assert.Contains(t, s.Pages, "Context")
	require.Len(t, s.Flow, 12)
	assert.Equal(t, OpSync, s.Flow[0].Op)
	assert.Equal(t, "alice", s.Flow[0].As)
	require.NotNil(t, s.Flow[3].Expect)
	require.NotNil(t, s.Flow[3].Expect.Published)
	assert.True(t, *s.Flow[3].Expect.Published)
	require.NotNil(t, s.Flow[11].Expect.Violations)
	assert.Empty(t, *s.Flow[11].Expect.Violations)
	assert.Len(t, s.Assertions, 5)
}

func TestParseScenario_VocabularyKeepsOrder(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: order
description: "sections keep document order"
vocabulary:
  Sample:
    sample.state:
      values: [solid]
  Context:
    context.environment:
      description: "Surrounding medium"
      values: [gas, liquid]
    context.pressure:
      values: []
flow:
  - op: sync
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Sample", "Context"}, s.Vocabulary.SectionNames())
	ctx, ok := s.Vocabulary.Section("Context")
	require.True(t, ok)
	require.Len(t, ctx.Categories, 2)
	assert.Equal(t, "context.environment", ctx.Categories[0].Key)
	assert.Equal(t, "Surrounding medium", ctx.Categories[0].Description)
	assert.Equal(t, []string{"gas", "liquid"}, ctx.Categories[0].Values)
	assert.Equal(t, "context.pressure", ctx.Categories[1].Key)
}

func TestParseScenario_RecordDecodesToGenericValues(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: record
description: "records are plain yaml"
flow:
  - op: validate
    record:
      context:
        - environment: gas
        - pressure: 3
`))
	require.NoError(t, err)

	rec, ok := s.Flow[0].Record.(map[string]any)
	require.True(t, ok, "got %T", s.Flow[0].Record)
	list, ok := rec["context"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nflow: [{op: sync}]\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nflow: [{op: sync}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nflow: [{op: sync}]\n",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: x\ndescription: y\nflow: []\n",
			wantErr: "flow list is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: x\ndescription: y\nflow: [{op: delete}]\n",
			wantErr: `flow[0]: unknown op "delete"`,
		},
		{
			name:    "review without decision",
			yaml:    "name: x\ndescription: y\nflow: [{op: review, id: 1}]\n",
			wantErr: "review requires decision",
		},
		{
			name:    "apply without id",
			yaml:    "name: x\ndescription: y\nflow: [{op: apply}]\n",
			wantErr: "apply requires id",
		},
		{
			name:    "validate without record",
			yaml:    "name: x\ndescription: y\nflow: [{op: validate}]\n",
			wantErr: "validate requires record",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: y\nflow: [{op: sync}]\nassertions: [{type: final_state}]\n",
			wantErr: `assertions[0]: unknown assertion type "final_state"`,
		},
		{
			name:    "page_contains without text",
			yaml:    "name: x\ndescription: y\nflow: [{op: sync}]\nassertions: [{type: page_contains, page: System}]\n",
			wantErr: "page_contains requires page and text",
		},
		{
			name:    "malformed vocabulary",
			yaml:    "name: x\ndescription: y\nvocabulary: [System]\nflow: [{op: sync}]\n",
			wantErr: "vocabulary must be a mapping of sections",
		},
		{
			name:    "vocabulary section not a mapping",
			yaml:    "name: x\ndescription: y\nvocabulary:\n  System: [a, b]\nflow: [{op: sync}]\n",
			wantErr: "section System",
		},
		{
			name:    "vocabulary entry not a mapping",
			yaml:    "name: x\ndescription: y\nvocabulary:\n  System:\n    version: 2\nflow: [{op: sync}]\n",
			wantErr: `section System: category "version": entry is not a mapping`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"proposal_rules",
		"propose_and_apply",
		"sync_without_vocabulary",
		"validate_domain",
	}, names)
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	body := []byte("name: same\ndescription: d\nflow: [{op: sync}]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), body, 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `b.yaml: scenario name "same" already used by a.yaml`)
}

func TestLoadDir_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}
