package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProject creates a minimal project layout and returns its root.
func newTestProject(t *testing.T, statusYAML string) string {
	t.Helper()
	os.Unsetenv("SPRINTLOOP_STATUS_PATH")
	os.Unsetenv("SPRINTLOOP_CONFIG_PATH")

	root := t.TempDir()
	artifacts := filepath.Join(root, "docs", "sprint-artifacts")
	require.NoError(t, os.MkdirAll(artifacts, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(artifacts, "sprint-status.yaml"), []byte(statusYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "epics.md"), []byte("# Epics\n"), 0644))
	return root
}

// run executes the CLI with args and returns the styled output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	projectDir := newTestProject(t, `development_status:
  0-1-homepage: backlog
  0-2-navigation: backlog
  0-3-footer: done
`)

	out, err := run(t, "status", "--project", projectDir)

	require.NoError(t, err)
	assert.Contains(t, out, "backlog")
	assert.Contains(t, out, "2")
	assert.Contains(t, out, "done")
}

func TestStatusCommand_ListsBlocked(t *testing.T) {
	projectDir := newTestProject(t, "development_status:\n  0-2-navigation: blocked\n")

	out, err := run(t, "status", "--project", projectDir)

	require.NoError(t, err)
	assert.Contains(t, out, "0-2-navigation needs manual attention")
}

func TestNextCommand(t *testing.T) {
	projectDir := newTestProject(t, `development_status:
  0-1-homepage: in-progress
  0-2-navigation: backlog
`)

	out, err := run(t, "next", "--project", projectDir)

	require.NoError(t, err)
	// Backlog outranks in-progress in the selection order.
	assert.Contains(t, out, "0-2-navigation")
	assert.Contains(t, out, "create")
}

func TestNextCommand_EpicFilter(t *testing.T) {
	projectDir := newTestProject(t, `development_status:
  0-1-homepage: backlog
  1-1-login: backlog
`)

	out, err := run(t, "next", "--project", projectDir, "--epic", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "1-1-login")
	assert.NotContains(t, out, "0-1-homepage")
}

func TestNextCommand_NothingActionable(t *testing.T) {
	projectDir := newTestProject(t, "development_status:\n  0-1-homepage: done\n")

	out, err := run(t, "next", "--project", projectDir)

	require.NoError(t, err)
	assert.Contains(t, out, "no actionable stories")
}

func TestPhaseCommand_RejectsInvalidStoryKey(t *testing.T) {
	projectDir := newTestProject(t, "development_status: {}\n")

	_, err := run(t, "create", "not_a_key", "--project", projectDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid story key")
}

func TestPhaseCommand_UnknownStory(t *testing.T) {
	projectDir := newTestProject(t, "development_status:\n  0-1-homepage: backlog\n")

	_, err := run(t, "create", "9-9-missing", "--project", projectDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "story not found")
}

func TestCommand_MissingProject(t *testing.T) {
	_, err := run(t, "status", "--project", filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "project root does not exist")
}

func TestExitError(t *testing.T) {
	err := NewExitError(2)
	assert.Equal(t, "exit status 2", err.Error())

	code, ok := IsExitError(err)
	assert.True(t, ok)
	assert.Equal(t, 2, code)

	_, ok = IsExitError(nil)
	assert.False(t, ok)
}
