package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ontology", cmd.Use)
	assert.Contains(t, cmd.Long, "Controlled Vocabulary")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"sync"},
		{"validate"},
		{"vocab", "sections"},
		{"vocab", "categories"},
		{"vocab", "show"},
		{"propose", "term"},
		{"propose", "category"},
		{"proposals", "list"},
		{"proposals", "show"},
		{"review"},
		{"apply"},
		{"draft"},
		{"snapshot", "export"},
		{"snapshot", "seed"},
		{"snapshot", "publish"},
		{"last-sync"},
		{"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	levelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, levelFlag)
	assert.Equal(t, "warn", levelFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		path     []string
		flag     string
		defValue string
	}{
		{[]string{"sync"}, "if-stale", "false"},
		{[]string{"sync"}, "as", "cli"},
		{[]string{"validate"}, "concurrency", "4"},
		{[]string{"propose", "term"}, "term", ""},
		{[]string{"proposals", "list"}, "status", ""},
		{[]string{"review"}, "apply", "false"},
		{[]string{"apply"}, "draft", "false"},
		{[]string{"last-sync"}, "history", "0"},
		{[]string{"test"}, "update", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			sub, _, err := cmd.Find(tt.path)
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f, "%v --%s", tt.path, tt.flag)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}

	category, _, err := cmd.Find([]string{"propose", "category"})
	require.NoError(t, err)
	assert.Nil(t, category.Flags().Lookup("term"))
}

func TestRootCommand_RejectsInvalidGlobals(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "--format", "xml", "sync")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)

	_, err = f.run(t, "--log-level", "trace", "sync")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid log level "trace"`)
}
