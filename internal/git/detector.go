package git

import "context"

// Report summarizes the repository delta across one development invocation.
type Report struct {
	// NewPaths counts changed paths present after the invocation that were
	// not changed before it.
	NewPaths int

	// NewCommits counts commits reachable from the new HEAD but not the old.
	NewCommits int

	// Degraded is true when commit history could not be inspected and only
	// uncommitted changes were counted.
	Degraded bool
}

// WorkDone reports whether the invocation produced any observable work.
func (r Report) WorkDone() bool {
	return r.NewPaths+r.NewCommits > 0
}

// Detector confirms that a development step actually changed the repository.
//
// An external agent can exit zero while doing nothing at all; the only
// reliable signal that work happened is a git-visible delta. The detector
// takes a snapshot before the invocation and compares after, so changes that
// pre-existed the invocation are never counted.
type Detector struct {
	git  *Git
	repo string

	beforePaths map[string]bool
	beforeHead  string
	degraded    bool
}

// NewDetector creates a Detector for the given repository.
func NewDetector(g *Git, repo string) *Detector {
	return &Detector{git: g, repo: repo}
}

// Begin captures the pre-invocation snapshot. A repository without commit
// history degrades to uncommitted-change counting; Begin only fails when the
// working tree itself cannot be inspected.
func (d *Detector) Begin(ctx context.Context) error {
	paths, err := d.git.ChangedPaths(ctx, d.repo)
	if err != nil {
		return err
	}
	d.beforePaths = paths

	head, err := d.git.Head(ctx, d.repo)
	if err != nil {
		d.degraded = true
		d.beforeHead = ""
	} else {
		d.beforeHead = head
	}

	return nil
}

// Confirm compares the current repository state against the Begin snapshot.
// History introspection failures downgrade to uncommitted-only counting
// rather than failing the phase.
func (d *Detector) Confirm(ctx context.Context) (Report, error) {
	afterPaths, err := d.git.ChangedPaths(ctx, d.repo)
	if err != nil {
		return Report{}, err
	}

	report := Report{Degraded: d.degraded}
	for path := range afterPaths {
		if !d.beforePaths[path] {
			report.NewPaths++
		}
	}

	if d.beforeHead == "" {
		report.Degraded = true
		return report, nil
	}

	afterHead, err := d.git.Head(ctx, d.repo)
	if err != nil {
		report.Degraded = true
		return report, nil
	}
	if afterHead != d.beforeHead {
		count, err := d.git.CommitsBetween(ctx, d.repo, d.beforeHead, afterHead)
		if err != nil {
			report.Degraded = true
			return report, nil
		}
		report.NewCommits = count
	}

	return report, nil
}
