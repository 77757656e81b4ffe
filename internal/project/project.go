// Package project resolves and validates the on-disk layout of a sprint
// project: the sprint status document, the stories directory, the epics file,
// and optional architecture notes.
//
// Key types:
//   - [Paths] holds the resolved file locations
//   - [Resolve] validates a project root and produces Paths
//
// Story and review artifacts live next to the status document so that a
// project remains self-contained and inspectable with plain tools.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths holds the resolved locations of a project's sprint artifacts.
type Paths struct {
	// Root is the absolute project root directory.
	Root string

	// SprintStatus is the sprint status YAML document.
	SprintStatus string

	// StoriesDir is the directory holding story markdown files. It is the
	// directory containing the status document.
	StoriesDir string

	// EpicsFile is the epic breakdown markdown file.
	EpicsFile string

	// ArchitectureFile is the optional architecture notes file, empty when
	// the project has none.
	ArchitectureFile string
}

// Resolve validates a project root and locates its sprint artifacts.
//
// The status document is searched at docs/sprint-artifacts/sprint-status.yaml
// and then at the project root; epics.md at docs/epics.md and then the root.
// Both are required. Architecture notes are optional.
func Resolve(root string) (Paths, error) {
	abs, err := filepath.Abs(expandHome(root))
	if err != nil {
		return Paths{}, fmt.Errorf("failed to resolve project root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return Paths{}, fmt.Errorf("project root does not exist: %s", abs)
	}

	paths := Paths{Root: abs}

	for _, candidate := range []string{
		filepath.Join(abs, "docs", "sprint-artifacts", "sprint-status.yaml"),
		filepath.Join(abs, "sprint-status.yaml"),
	} {
		if fileExists(candidate) {
			paths.SprintStatus = candidate
			paths.StoriesDir = filepath.Dir(candidate)
			break
		}
	}
	if paths.SprintStatus == "" {
		return Paths{}, fmt.Errorf("cannot find sprint-status.yaml in %s: expected at docs/sprint-artifacts/ or project root", abs)
	}

	for _, candidate := range []string{
		filepath.Join(abs, "docs", "epics.md"),
		filepath.Join(abs, "epics.md"),
	} {
		if fileExists(candidate) {
			paths.EpicsFile = candidate
			break
		}
	}
	if paths.EpicsFile == "" {
		return Paths{}, fmt.Errorf("cannot find epics.md in %s", abs)
	}

	for _, candidate := range []string{
		filepath.Join(abs, "ARCHITECTURE_REALITY.md"),
		filepath.Join(abs, "ARCHITECTURE.md"),
		filepath.Join(abs, "docs", "architecture.md"),
	} {
		if fileExists(candidate) {
			paths.ArchitectureFile = candidate
			break
		}
	}

	return paths, nil
}

// StoryPath returns the path of a story's markdown file.
func (p Paths) StoryPath(storyKey string) string {
	return filepath.Join(p.StoriesDir, storyKey+".md")
}

// ReviewPath returns the path of a story's review file.
func (p Paths) ReviewPath(storyKey string) string {
	return filepath.Join(p.StoriesDir, "reviews", storyKey+"-review.md")
}

// BuildContext assembles the context blob piped to the story creator: the
// sprint status, the epics file, and, when present, architecture notes and
// the project README.
func (p Paths) BuildContext() (string, error) {
	var parts []string

	status, err := os.ReadFile(p.SprintStatus)
	if err != nil {
		return "", fmt.Errorf("failed to read sprint status: %w", err)
	}
	parts = append(parts, "=== SPRINT STATUS ===", string(status), "")

	epics, err := os.ReadFile(p.EpicsFile)
	if err != nil {
		return "", fmt.Errorf("failed to read epics file: %w", err)
	}
	parts = append(parts, "=== EPICS ===", string(epics), "")

	if p.ArchitectureFile != "" {
		if arch, err := os.ReadFile(p.ArchitectureFile); err == nil {
			parts = append(parts, "=== ARCHITECTURE ===", string(arch), "")
		}
	}

	if readme, err := os.ReadFile(filepath.Join(p.Root, "README.md")); err == nil {
		parts = append(parts, "=== PROJECT README ===", string(readme), "")
	}

	return strings.Join(parts, "\n"), nil
}

// ReadStory returns the story file's content, empty when the file is absent.
func (p Paths) ReadStory(storyKey string) string {
	content, err := os.ReadFile(p.StoryPath(storyKey))
	if err != nil {
		return ""
	}
	return string(content)
}

// SaveStory writes story content to the stories directory. An existing story
// file is renamed to a timestamped .bak rather than overwritten.
func (p Paths) SaveStory(storyKey, content string) (string, error) {
	path := p.StoryPath(storyKey)

	if fileExists(path) {
		backup := fmt.Sprintf("%s.bak.%d", path, time.Now().Unix())
		if err := os.Rename(path, backup); err != nil {
			return "", fmt.Errorf("failed to back up existing story file: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write story file: %w", err)
	}

	return path, nil
}

// SaveReview writes review content under <stories>/reviews/, creating the
// directory on first use.
func (p Paths) SaveReview(storyKey, content string) (string, error) {
	path := p.ReviewPath(storyKey)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create reviews directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write review file: %w", err)
	}

	return path, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
