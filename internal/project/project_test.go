package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProject creates a minimal valid project layout with the status document
// under docs/sprint-artifacts/.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	artifacts := filepath.Join(root, "docs", "sprint-artifacts")
	require.NoError(t, os.MkdirAll(artifacts, 0755))
	write(t, filepath.Join(artifacts, "sprint-status.yaml"), "development_status:\n  0-1-homepage: backlog\n")
	write(t, filepath.Join(root, "docs", "epics.md"), "# Epics\n")

	return root
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolve(t *testing.T) {
	root := newProject(t)

	paths, err := Resolve(root)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "docs", "sprint-artifacts", "sprint-status.yaml"), paths.SprintStatus)
	assert.Equal(t, filepath.Join(root, "docs", "sprint-artifacts"), paths.StoriesDir)
	assert.Equal(t, filepath.Join(root, "docs", "epics.md"), paths.EpicsFile)
	assert.Empty(t, paths.ArchitectureFile)
}

func TestResolve_RootLevelLayout(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "sprint-status.yaml"), "development_status: {}\n")
	write(t, filepath.Join(root, "epics.md"), "# Epics\n")

	paths, err := Resolve(root)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sprint-status.yaml"), paths.SprintStatus)
	assert.Equal(t, root, paths.StoriesDir)
}

func TestResolve_FindsArchitectureFile(t *testing.T) {
	root := newProject(t)
	write(t, filepath.Join(root, "ARCHITECTURE.md"), "# Arch\n")

	paths, err := Resolve(root)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ARCHITECTURE.md"), paths.ArchitectureFile)
}

func TestResolve_MissingRoot(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "does-not-exist"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "project root does not exist")
}

func TestResolve_MissingStatusFile(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "epics.md"), "# Epics\n")

	_, err := Resolve(root)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sprint-status.yaml")
}

func TestResolve_MissingEpicsFile(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "sprint-status.yaml"), "development_status: {}\n")

	_, err := Resolve(root)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "epics.md")
}

func TestBuildContext(t *testing.T) {
	root := newProject(t)
	write(t, filepath.Join(root, "README.md"), "# Demo project\n")

	paths, err := Resolve(root)
	require.NoError(t, err)

	context, err := paths.BuildContext()

	require.NoError(t, err)
	assert.Contains(t, context, "=== SPRINT STATUS ===")
	assert.Contains(t, context, "0-1-homepage")
	assert.Contains(t, context, "=== EPICS ===")
	assert.Contains(t, context, "=== PROJECT README ===")
	assert.NotContains(t, context, "=== ARCHITECTURE ===")
}

func TestSaveStory(t *testing.T) {
	paths, err := Resolve(newProject(t))
	require.NoError(t, err)

	saved, err := paths.SaveStory("0-1-homepage", "# Story\n")

	require.NoError(t, err)
	assert.Equal(t, paths.StoryPath("0-1-homepage"), saved)
	assert.Equal(t, "# Story\n", paths.ReadStory("0-1-homepage"))
}

func TestSaveStory_BacksUpExisting(t *testing.T) {
	paths, err := Resolve(newProject(t))
	require.NoError(t, err)

	_, err = paths.SaveStory("0-1-homepage", "first\n")
	require.NoError(t, err)
	_, err = paths.SaveStory("0-1-homepage", "second\n")
	require.NoError(t, err)

	assert.Equal(t, "second\n", paths.ReadStory("0-1-homepage"))

	backups, err := filepath.Glob(paths.StoryPath("0-1-homepage") + ".bak.*")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestSaveReview(t *testing.T) {
	paths, err := Resolve(newProject(t))
	require.NoError(t, err)

	saved, err := paths.SaveReview("0-1-homepage", "# Review\n")

	require.NoError(t, err)
	assert.Equal(t, paths.ReviewPath("0-1-homepage"), saved)

	content, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "# Review\n", string(content))
}

func TestReadStory_Missing(t *testing.T) {
	paths, err := Resolve(newProject(t))
	require.NoError(t, err)

	assert.Empty(t, paths.ReadStory("9-9-nonexistent"))
}
