// Package loop drives the autonomous story pipeline.
//
// Each iteration performs exactly one action: pick the highest-priority
// actionable story, run the phase its status calls for, and persist the
// resulting transition. The status document is re-read from disk every
// iteration, so the loop survives crashes and picks up manual edits; the
// document is the only state that matters.
//
// Key types:
//   - [Loop] - the iteration engine
//   - [Options] - per-run settings (epic filter, bounds, confirmation)
//   - [Stats] - what a run accomplished
//
// Failure policy: a phase failure never changes the story's status. The same
// story failing repeatedly is quarantined to blocked so one broken story
// cannot stall the sprint, with an exponential delay between retries. Status
// document corruption aborts the run; the loop never writes over a document
// it cannot read.
package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"sprintloop/internal/config"
	"sprintloop/internal/output"
	"sprintloop/internal/phase"
	"sprintloop/internal/router"
	"sprintloop/internal/status"
)

// Sentinel errors for abnormal loop termination.
var (
	// ErrIterationCeiling means the iteration bound was reached with work
	// still pending. A healthy sprint finishes by running out of actionable
	// stories; hitting the ceiling suggests a livelock and is an anomaly.
	ErrIterationCeiling = errors.New("iteration ceiling reached with work still pending")

	// ErrDeadlineReached means the configured wall-clock bound expired.
	ErrDeadlineReached = errors.New("loop wall-clock bound reached")

	// ErrAborted means the operator declined to continue at a confirmation
	// prompt.
	ErrAborted = errors.New("aborted by operator")
)

// Options are per-run loop settings.
type Options struct {
	// Epic restricts selection to stories of one epic, e.g. "3". Empty
	// selects from the whole sprint.
	Epic string

	// MaxIterations overrides the configured iteration ceiling when positive.
	MaxIterations int

	// MaxDuration overrides the configured wall-clock bound when positive.
	MaxDuration time.Duration

	// Confirm is called before each phase run in attended mode. Returning
	// false stops the run with [ErrAborted]. Nil means unattended.
	Confirm func(storyKey, phaseName string) bool
}

// Stats summarizes one loop run.
type Stats struct {
	// Iterations is the number of iterations executed.
	Iterations int

	// Transitions is the number of successful status transitions.
	Transitions int

	// Failures is the number of phase failures.
	Failures int

	// Blocked lists stories quarantined during this run.
	Blocked []string
}

// Loop is the autonomous iteration engine.
type Loop struct {
	cfg      *config.Config
	store    *status.Store
	handlers map[string]phase.Handler
	printer  *output.Printer
	opts     Options

	// sleep is the delay function between retries of a failing story.
	// Injectable for tests.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Loop. The handlers map is keyed by phase name and must cover
// every phase the router can select.
func New(cfg *config.Config, store *status.Store, handlers map[string]phase.Handler, printer *output.Printer, opts Options) *Loop {
	return &Loop{
		cfg:      cfg,
		store:    store,
		handlers: handlers,
		printer:  printer,
		opts:     opts,
		sleep:    sleepContext,
	}
}

// Run executes iterations until no actionable story remains, a bound is hit,
// or the run aborts. A run that simply finds no more work returns a nil
// error; bounds and aborts return the matching sentinel.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	maxIterations := l.opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = l.cfg.Loop.MaxIterations
	}
	maxDuration := l.opts.MaxDuration
	if maxDuration <= 0 {
		maxDuration = l.cfg.Loop.MaxDuration()
	}

	var deadline time.Time
	if maxDuration > 0 {
		deadline = time.Now().Add(maxDuration)
	}

	bo := newRetryBackoff()

	var stats Stats
	failKey := ""
	failCount := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return stats, ErrDeadlineReached
		}
		key, current, found, err := l.selectNext()
		if err != nil {
			return stats, err
		}
		if !found {
			l.printer.Muted("no actionable stories remain")
			return stats, nil
		}
		if stats.Iterations >= maxIterations {
			return stats, ErrIterationCeiling
		}

		phaseName, err := router.PhaseFor(current)
		if err != nil {
			// Selection only yields actionable statuses.
			return stats, fmt.Errorf("cannot route story %s: %w", key, err)
		}

		if l.opts.Confirm != nil && !l.opts.Confirm(key, phaseName) {
			return stats, ErrAborted
		}

		stats.Iterations++
		l.printer.Header("[%d] %s: %s (%s)", stats.Iterations, key, phaseName, current)

		handler, ok := l.handlers[phaseName]
		if !ok {
			return stats, fmt.Errorf("no handler for phase %s", phaseName)
		}

		outcome, err := handler.Run(ctx, key)
		if err != nil {
			var corruption *status.CorruptionError
			if errors.As(err, &corruption) {
				return stats, err
			}

			stats.Failures++
			l.printer.Error("%s failed: %v", key, err)

			if key != failKey {
				failKey = key
				failCount = 0
				bo.Reset()
			}
			failCount++

			if failCount >= l.cfg.Loop.MaxConsecutiveFailures {
				if blockErr := l.store.Update(key, status.StatusBlocked); blockErr != nil {
					return stats, fmt.Errorf("failed to block story %s: %w", key, blockErr)
				}
				stats.Blocked = append(stats.Blocked, key)
				l.printer.Warn("%s blocked after %d consecutive failures", key, failCount)
				failKey = ""
				failCount = 0
				bo.Reset()
				continue
			}

			l.sleep(ctx, bo.NextBackOff())
			continue
		}

		if err := l.store.Update(key, outcome.NextStatus); err != nil {
			return stats, err
		}

		stats.Transitions++
		l.printer.Transition(key, string(current), string(outcome.NextStatus))
		if outcome.Summary != "" {
			l.printer.Muted("  %s", outcome.Summary)
		}

		if key == failKey {
			failKey = ""
			failCount = 0
		}
		bo.Reset()
	}
}

// selectNext scans the selection order and returns the first actionable
// story, honoring the epic filter.
func (l *Loop) selectNext() (string, status.Status, bool, error) {
	for _, st := range router.SelectionOrder {
		keys, err := l.store.StoriesByStatus(st)
		if err != nil {
			return "", "", false, err
		}
		for _, key := range keys {
			if l.opts.Epic != "" && !strings.HasPrefix(key, l.opts.Epic+"-") {
				continue
			}
			return key, st, true, nil
		}
	}
	return "", "", false, nil
}

// newRetryBackoff builds the delay schedule between retries of a failing
// story. There is no elapsed-time cutoff; the consecutive-failure quarantine
// bounds retries instead.
func newRetryBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
