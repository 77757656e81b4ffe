package status

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStatusFile creates a sprint-status.yaml under the canonical path in
// tmpDir and returns the full path.
func writeStatusFile(t *testing.T, tmpDir, content string) string {
	t.Helper()

	statusDir := filepath.Join(tmpDir, "docs", "sprint-artifacts")
	require.NoError(t, os.MkdirAll(statusDir, 0755))

	statusPath := filepath.Join(statusDir, "sprint-status.yaml")
	require.NoError(t, os.WriteFile(statusPath, []byte(content), 0644))
	return statusPath
}

const sampleStatus = `development_status:
  0-1-homepage: backlog
  0-2-navigation: ready-for-dev
  1-1-auth: in-progress
  1-2-sessions: review
  1-10-logout: ready-for-dev
`

func TestIsStoryKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"0-1-homepage", true},
		{"12-34-some-long-slug", true},
		{"epic-1", false},
		{"0-1", false},
		{"notes", false},
		{"0-1-", false},
		{"-1-1-x", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStoryKey(tt.key))
		})
	}
}

func TestResolvePath_EnvOverride(t *testing.T) {
	t.Setenv("SPRINTLOOP_STATUS_PATH", "/explicit/override.yaml")

	assert.Equal(t, "/explicit/override.yaml", ResolvePath("/some/base", "ignored"))
}

func TestResolvePath_Discovery(t *testing.T) {
	tmpDir := t.TempDir()
	statusPath := writeStatusFile(t, tmpDir, sampleStatus)

	assert.Equal(t, statusPath, ResolvePath(tmpDir, ""))
}

func TestResolvePath_LegacyFallback(t *testing.T) {
	tmpDir := t.TempDir()
	legacyPath := filepath.Join(tmpDir, "sprint-status.yaml")
	require.NoError(t, os.WriteFile(legacyPath, []byte(sampleStatus), 0644))

	assert.Equal(t, legacyPath, ResolvePath(tmpDir, ""))
}

func TestStore_Load(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)

	store := NewStore(tmpDir)
	record, err := store.Load()

	require.NoError(t, err)
	assert.Len(t, record.DevelopmentStatus, 5)
	assert.Equal(t, StatusBacklog, record.DevelopmentStatus["0-1-homepage"])
	assert.Equal(t, StatusReview, record.DevelopmentStatus["1-2-sessions"])
}

func TestStore_Load_MissingFile(t *testing.T) {
	store := NewStore(t.TempDir())

	record, err := store.Load()

	assert.Error(t, err)
	assert.Nil(t, record)
}

func TestStore_Load_CorruptDocument(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, "development_status:\n  - not\n    a: map\n")

	store := NewStore(tmpDir)
	record, err := store.Load()

	require.Error(t, err)
	assert.Nil(t, record, "a corrupt document must never be read as an empty record")

	var corruption *CorruptionError
	require.ErrorAs(t, err, &corruption)
	assert.Contains(t, corruption.Path, "sprint-status.yaml")
}

func TestStore_FindNext(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	key, ok, err := store.FindNext(StatusReadyForDev)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0-2-navigation", key)

	// Idempotent with no intervening writes.
	again, ok, err := store.FindNext(StatusReadyForDev)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, key, again)
}

func TestStore_FindNext_NoMatch(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	_, ok, err := store.FindNext(StatusBlocked)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_FindNext_IgnoresNonStoryKeys(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, "development_status:\n  epic-1-note: backlog\n  0-3-contact: backlog\n")
	store := NewStore(tmpDir)

	key, ok, err := store.FindNext(StatusBacklog)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0-3-contact", key)
}

func TestStore_StoriesByStatus_NumericOrder(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	keys, err := store.StoriesByStatus(StatusReadyForDev)

	require.NoError(t, err)
	// 1-2 would sort after 1-10 lexicographically; numeric order is required.
	assert.Equal(t, []string{"0-2-navigation", "1-10-logout"}, keys)
}

func TestStore_EpicStories(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	keys, err := store.EpicStories("1")

	require.NoError(t, err)
	assert.Equal(t, []string{"1-1-auth", "1-2-sessions", "1-10-logout"}, keys)
}

func TestStore_Summary(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	counts, err := store.Summary()

	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusBacklog])
	assert.Equal(t, 2, counts[StatusReadyForDev])
	assert.Equal(t, 1, counts[StatusInProgress])
	assert.Equal(t, 1, counts[StatusReview])
}

func TestStore_Update(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	err := store.Update("0-1-homepage", StatusReadyForDev)
	require.NoError(t, err)

	record, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, StatusReadyForDev, record.DevelopmentStatus["0-1-homepage"])

	// Every other key is untouched.
	assert.Equal(t, StatusInProgress, record.DevelopmentStatus["1-1-auth"])
	assert.Equal(t, StatusReview, record.DevelopmentStatus["1-2-sessions"])
	assert.Len(t, record.DevelopmentStatus, 5)
}

func TestStore_Update_InvalidStatus(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	err := store.Update("0-1-homepage", Status("shipped"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestStore_Update_UnknownStory(t *testing.T) {
	tmpDir := t.TempDir()
	writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	err := store.Update("9-9-missing", StatusDone)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "story not found")
}

func TestStore_Update_PreservesForeignSections(t *testing.T) {
	tmpDir := t.TempDir()
	content := `generated: 2026-08-01
development_status:
  0-1-homepage: backlog
notes:
  - keep me
`
	writeStatusFile(t, tmpDir, content)
	store := NewStore(tmpDir)

	require.NoError(t, store.Update("0-1-homepage", StatusDone))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "generated:")
	assert.Contains(t, string(data), "keep me")
}

func TestStore_Update_NoTempFileLeft(t *testing.T) {
	tmpDir := t.TempDir()
	statusPath := writeStatusFile(t, tmpDir, sampleStatus)
	store := NewStore(tmpDir)

	require.NoError(t, store.Update("0-1-homepage", StatusDone))

	entries, err := os.ReadDir(filepath.Dir(statusPath))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "temp file left behind: %s", entry.Name())
	}
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusBacklog.IsValid())
	assert.True(t, StatusBlocked.IsValid())
	assert.False(t, Status("shipped").IsValid())
	assert.False(t, Status("").IsValid())
}
