package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"appshell/exithook"
	"appshell/reportstore"
	"appshell/runner"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&rootOptions{exitHooks: exithook.New(nil)})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func enableSQLiteReports(t *testing.T) {
	t.Helper()
	t.Setenv("APPSHELL_REPORT_SQLITE_ENABLED", "true")
	t.Setenv("APPSHELL_REPORT_SQLITE_PATH", filepath.Join(t.TempDir(), "reports.db"))
}

func findCommand(root *cobra.Command, name string) *cobra.Command {
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestRootCommandStructure(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "appshell", root.Use)

	for _, name := range []string{"command", "serve", "cgi", "reports", "config"} {
		assert.NotNil(t, findCommand(root, name), "missing command: %s", name)
	}
	for _, flag := range []string{"config", "json", "no-color", "quiet", "debug"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag: %s", flag)
	}

	reports := findCommand(root, "reports")
	require.NotNil(t, reports)
	assert.NotNil(t, findCommand(reports, "list"))
	assert.NotNil(t, findCommand(reports, "show"))
}

func TestCommand_Echo(t *testing.T) {
	stdout, stderr, err := executeRoot(t, "command", "echo", "hello", "--not-a-flag")

	require.NoError(t, err)
	assert.Equal(t, "hello --not-a-flag\n", stdout)
	assert.Contains(t, stderr, "run: end")
	assert.Contains(t, stderr, "total")
}

func TestCommand_DebugLogsReport(t *testing.T) {
	_, stderr, err := executeRoot(t, "--debug", "--quiet", "command", "echo")

	require.NoError(t, err)
	assert.Contains(t, stderr, `{"lapTimer":{"laps":{"bootstrap: start":0`)
	assert.Contains(t, stderr, `"totalLaps":5`)
}

func TestCommand_FailureIsHandledAndReturned(t *testing.T) {
	_, stderr, err := executeRoot(t, "--quiet", "command", "fail", "disk", "full")

	require.EqualError(t, err, "disk full")
	assert.Contains(t, stderr, "Error captured")
}

func TestCommand_Unknown(t *testing.T) {
	_, _, err := executeRoot(t, "--quiet", "command", "nope")
	assert.ErrorIs(t, err, runner.ErrUnknownCommand)
}

func TestCommand_RequiresName(t *testing.T) {
	_, _, err := executeRoot(t, "command")
	assert.Error(t, err)
}

func TestCommand_List(t *testing.T) {
	stdout, _, err := executeRoot(t, "command", "--list")

	require.NoError(t, err)
	assert.Contains(t, stdout, "echo")
	assert.Contains(t, stdout, "sleep")
}

func TestReports_RoundTrip(t *testing.T) {
	enableSQLiteReports(t)

	_, _, err := executeRoot(t, "--quiet", "command", "echo", "stored")
	require.NoError(t, err)

	stdout, _, err := executeRoot(t, "--json", "reports", "list")
	require.NoError(t, err)

	var records []reportstore.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "command", records[0].Kind)
	assert.Equal(t, 5, records[0].TotalLaps)
	require.Len(t, records[0].Laps, 5)
	assert.Equal(t, "bootstrap: start", records[0].Laps[0].Key)
	assert.Equal(t, "shutdown", records[0].Laps[4].Key)

	stdout, _, err = executeRoot(t, "--quiet", "reports", "show", records[0].RunID, "--yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "run_id: "+records[0].RunID)
	assert.Contains(t, stdout, "run: end")

	stdout, _, err = executeRoot(t, "--quiet", "reports", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, records[0].RunID)
}

func TestReports_ShowMissing(t *testing.T) {
	enableSQLiteReports(t)

	_, _, err := executeRoot(t, "--quiet", "reports", "show", "missing")
	assert.ErrorIs(t, err, reportstore.ErrNotFound)
}

func TestReports_NoStore(t *testing.T) {
	_, _, err := executeRoot(t, "reports", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no report store enabled")
}

func TestConfigShow(t *testing.T) {
	stdout, _, err := executeRoot(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, stdout, "# source: defaults and environment")
	assert.Contains(t, stdout, "environment: production")
	assert.NotContains(t, stdout, "password")
}

func TestConfigHosts(t *testing.T) {
	t.Setenv("APPSHELL_ALLOWED_HOSTS", "a.test, b.test")

	stdout, _, err := executeRoot(t, "config", "hosts")
	require.NoError(t, err)
	assert.Equal(t, "a.test\nb.test\n", stdout)

	stdout, _, err = executeRoot(t, "--json", "config", "hosts")
	require.NoError(t, err)
	assert.JSONEq(t, `["a.test","b.test"]`, stdout)
}
