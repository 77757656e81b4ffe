// Package router maps story status to the pipeline phase that advances it.
//
// The router is the single decision point for "what happens to a story in
// this state": backlog stories get created, ready-for-dev and in-progress
// stories get developed, review stories get reviewed. It also fixes the
// priority order in which the loop scans statuses when picking its next
// story.
//
// Key items:
//   - [PhaseFor] - status → phase name, with sentinel errors for terminal states
//   - [SelectionOrder] - the scan order for next-story selection
package router

import (
	"errors"

	"sprintloop/internal/config"
	"sprintloop/internal/status"
)

// Sentinel errors for phase routing.
var (
	// ErrStoryComplete indicates the story has status "done" and no phase is
	// needed. Callers should skip the story rather than treat this as a
	// failure condition.
	ErrStoryComplete = errors.New("story is complete, no phase needed")

	// ErrStoryBlocked indicates the story was quarantined after repeated
	// failures. Blocked stories need manual intervention and are never
	// selected by the loop.
	ErrStoryBlocked = errors.New("story is blocked, manual intervention required")

	// ErrUnknownStatus indicates the status value is not recognized, which
	// likely means a typo in the sprint status document.
	ErrUnknownStatus = errors.New("unknown status value")
)

// SelectionOrder is the priority order the loop scans when picking the next
// story: unstarted work first, then work waiting on a verdict, then work
// bounced back by review. Within one status, story-key order decides.
var SelectionOrder = []status.Status{
	status.StatusBacklog,
	status.StatusReadyForDev,
	status.StatusReview,
	status.StatusInProgress,
}

// statusPhase maps actionable statuses to the phase that advances them.
var statusPhase = map[status.Status]string{
	status.StatusBacklog:     config.PhaseCreate,
	status.StatusReadyForDev: config.PhaseDevelop,
	status.StatusInProgress:  config.PhaseDevelop,
	status.StatusReview:      config.PhaseReview,
}

// PhaseFor returns the phase name that advances a story in the given status.
//
// The mapping is:
//   - backlog -> create
//   - ready-for-dev, in-progress -> develop
//   - review -> review
//   - done -> [ErrStoryComplete]
//   - blocked -> [ErrStoryBlocked]
//
// Returns [ErrUnknownStatus] for unrecognized status values.
func PhaseFor(s status.Status) (string, error) {
	switch s {
	case status.StatusDone:
		return "", ErrStoryComplete
	case status.StatusBlocked:
		return "", ErrStoryBlocked
	}

	phase, ok := statusPhase[s]
	if !ok {
		return "", ErrUnknownStatus
	}
	return phase, nil
}
