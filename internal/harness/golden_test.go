package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestTraceSnapshot_Marshal(t *testing.T) {
	data, err := TraceSnapshot{
		ScenarioName: "tiny",
		Pass:         true,
		Trace:        []TraceEvent{{Step: 1, Op: OpSync, OK: true, Message: "Synced 1 pages, 1 categories"}},
	}.Marshal()
	require.NoError(t, err)

	expected := `{
  "scenario_name": "tiny",
  "pass": true,
  "trace": [
    {
      "step": 1,
      "op": "sync",
      "ok": true,
      "message": "Synced 1 pages, 1 categories"
    }
  ]
}
`
	assert.Equal(t, expected, string(data))
}
