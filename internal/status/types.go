// Package status owns the persisted sprint-status document that tracks every
// story through its lifecycle.
//
// The document is a single YAML file with a development_status section mapping
// story keys to lifecycle states. It is the single source of truth for the
// orchestrator: nothing caches it across loop iterations, so manual edits
// between iterations are picked up on the next read.
//
// Key types:
//   - [Store] - load, query and update the document
//   - [Status] - lifecycle state of one story
//   - [CorruptionError] - the document exists but cannot be parsed
//   - [VerificationError] - an update did not survive a read-back
package status

import "regexp"

// Status is the lifecycle state of a story.
type Status string

// Lifecycle states recognized by the orchestrator. The document may carry
// other values (forward compatibility); they are preserved on rewrite but
// never selected for work.
const (
	StatusBacklog     Status = "backlog"
	StatusReadyForDev Status = "ready-for-dev"
	StatusInProgress  Status = "in-progress"
	StatusReview      Status = "review"
	StatusDone        Status = "done"
	StatusBlocked     Status = "blocked"
)

// validStatuses is the set of states the orchestrator will write.
var validStatuses = map[Status]bool{
	StatusBacklog:     true,
	StatusReadyForDev: true,
	StatusInProgress:  true,
	StatusReview:      true,
	StatusDone:        true,
	StatusBlocked:     true,
}

// IsValid reports whether s is one of the recognized lifecycle states.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the status as its on-disk string value.
func (s Status) String() string {
	return string(s)
}

// storyKeyPattern matches the {epic}-{story}-{slug} grammar, e.g. "0-1-homepage".
var storyKeyPattern = regexp.MustCompile(`^[0-9]+-[0-9]+-[a-zA-Z0-9-]+$`)

// IsStoryKey reports whether key matches the story-key grammar.
// The development_status section may contain epic-level or note entries;
// only keys matching the grammar are treated as stories.
func IsStoryKey(key string) bool {
	return storyKeyPattern.MatchString(key)
}

// Record is the parsed sprint-status document.
//
// DevelopmentStatus holds the story map. Extra preserves any sibling YAML
// sections verbatim so that rewriting the document never destroys data the
// orchestrator does not understand.
type Record struct {
	DevelopmentStatus map[string]Status `yaml:"development_status"`

	Extra map[string]any `yaml:",inline"`
}

// Get returns the status for key, and whether the key exists.
func (r *Record) Get(key string) (Status, bool) {
	s, ok := r.DevelopmentStatus[key]
	return s, ok
}
