package status

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultStatusPath is the canonical location of sprint-status.yaml relative
// to the project root.
const DefaultStatusPath = "docs/sprint-artifacts/sprint-status.yaml"

// LegacyStatusPath is the fallback location at the project root.
const LegacyStatusPath = "sprint-status.yaml"

// statusPaths lists the locations searched (in priority order) when
// auto-discovering the status document.
var statusPaths = []string{
	DefaultStatusPath,
	LegacyStatusPath,
}

// ResolvePath discovers the sprint-status.yaml location for a project.
//
// Resolution order:
//  1. SPRINTLOOP_STATUS_PATH environment variable (used as-is if set)
//  2. Explicit statusPath parameter (if non-empty)
//  3. Auto-discovery: docs/sprint-artifacts path, then project root
//  4. Falls back to the canonical path (errors on read if absent)
func ResolvePath(basePath, statusPath string) string {
	if envPath := os.Getenv("SPRINTLOOP_STATUS_PATH"); envPath != "" {
		return envPath
	}

	if statusPath != "" {
		return statusPath
	}

	for _, p := range statusPaths {
		fullPath := filepath.Join(basePath, p)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath
		}
	}

	return filepath.Join(basePath, DefaultStatusPath)
}

// Store reads and writes the sprint-status document.
//
// Every query re-reads the document from disk; the Store holds no cache, so
// edits made between loop iterations (including manual corrections) are
// always observed. Use [NewStore] for auto-discovery or [NewStoreWithPath]
// for an explicit file path.
type Store struct {
	path string
}

// NewStore creates a Store that auto-discovers the status document under
// basePath. Pass an empty string to use the current working directory.
func NewStore(basePath string) *Store {
	return &Store{path: ResolvePath(basePath, "")}
}

// NewStoreWithPath creates a Store using the given status file path.
// The SPRINTLOOP_STATUS_PATH environment variable still takes priority.
func NewStoreWithPath(basePath, statusPath string) *Store {
	return &Store{path: ResolvePath(basePath, statusPath)}
}

// Path returns the resolved status document path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the complete status document.
//
// A missing file is an ordinary error. A file that exists but does not parse
// is a [*CorruptionError]; Load never substitutes an empty record for a
// corrupt one.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sprint status: %w", err)
	}

	var record Record
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, &CorruptionError{Path: s.path, Err: err}
	}

	if record.DevelopmentStatus == nil {
		record.DevelopmentStatus = map[string]Status{}
	}

	return &record, nil
}

// FindNext returns the first story key currently at want, restricted to keys
// matching the story-key grammar. Ordering is numeric by epic, then by story
// number, then lexicographic, so repeated calls with no intervening writes
// return the same key. The second result is false when no story matches.
func (s *Store) FindNext(want Status) (string, bool, error) {
	keys, err := s.StoriesByStatus(want)
	if err != nil {
		return "", false, err
	}
	if len(keys) == 0 {
		return "", false, nil
	}
	return keys[0], true, nil
}

// StoriesByStatus returns all story keys at want, in stable story order.
func (s *Store) StoriesByStatus(want Status) ([]string, error) {
	record, err := s.Load()
	if err != nil {
		return nil, err
	}

	var keys []string
	for key, st := range record.DevelopmentStatus {
		if st == want && IsStoryKey(key) {
			keys = append(keys, key)
		}
	}

	sortStoryKeys(keys)
	return keys, nil
}

// EpicStories returns all story keys belonging to an epic, in story order.
func (s *Store) EpicStories(epic string) ([]string, error) {
	record, err := s.Load()
	if err != nil {
		return nil, err
	}

	prefix := epic + "-"
	var keys []string
	for key := range record.DevelopmentStatus {
		if IsStoryKey(key) && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sortStoryKeys(keys)
	return keys, nil
}

// Summary returns the count of stories per status. Keys that do not match
// the story-key grammar are excluded.
func (s *Store) Summary() (map[Status]int, error) {
	record, err := s.Load()
	if err != nil {
		return nil, err
	}

	counts := make(map[Status]int)
	for key, st := range record.DevelopmentStatus {
		if IsStoryKey(key) {
			counts[st]++
		}
	}

	return counts, nil
}

// Update sets a new status for a story and verifies the write took effect.
//
// The write replaces the whole document atomically: marshal, write to a
// temporary file next to the target, then rename. A crash mid-write never
// leaves a half-written document. After the rename the document is re-read
// and compared; a mismatch is a [*VerificationError].
//
// Update does not guard against concurrent writers; the verification exists
// to catch local write failures only.
func (s *Store) Update(key string, newStatus Status) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("invalid status: %s", newStatus)
	}

	record, err := s.Load()
	if err != nil {
		return err
	}

	if _, ok := record.DevelopmentStatus[key]; !ok {
		return fmt.Errorf("story not found: %s", key)
	}

	record.DevelopmentStatus[key] = newStatus

	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal sprint status: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write sprint status: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write sprint status: %w", err)
	}

	// Read back and confirm the write took effect.
	verify, err := s.Load()
	if err != nil {
		return fmt.Errorf("failed to verify sprint status update: %w", err)
	}
	if got := verify.DevelopmentStatus[key]; got != newStatus {
		return &VerificationError{Key: key, Want: newStatus, Got: got}
	}

	return nil
}

// sortStoryKeys orders keys numerically by epic, then by story number, then
// lexicographically by the full key. Numeric ordering keeps 7-2 ahead of
// 7-10 where a plain string sort would not.
func sortStoryKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		ei, si := storyKeyNumbers(keys[i])
		ej, sj := storyKeyNumbers(keys[j])
		if ei != ej {
			return ei < ej
		}
		if si != sj {
			return si < sj
		}
		return keys[i] < keys[j]
	})
}

// storyKeyNumbers extracts the epic and story numbers from a story key.
// Callers only pass keys that already matched the grammar.
func storyKeyNumbers(key string) (epic, story int) {
	parts := strings.SplitN(key, "-", 3)
	if len(parts) < 2 {
		return 0, 0
	}
	epic, _ = strconv.Atoi(parts[0])
	story, _ = strconv.Atoi(parts[1])
	return epic, story
}
