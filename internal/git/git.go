// Package git provides the version-control introspection the pipeline needs:
// working-tree snapshots, commit counting between revisions, and code-only
// diffs for review.
//
// Only two primitives are required of the backend: "list of changed paths"
// and "commit count between two revision pointers". Everything here shells
// out to the git CLI; no repository state is cached.
package git

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoDiff indicates no reviewable diff could be obtained: the comparison
// branch is unreachable, the diff command failed, or the diff contains no
// code changes. Review treats this as a failure rather than a clean pass.
var ErrNoDiff = errors.New("no reviewable diff available")

// diffExclusions keeps review focused on code by excluding documentation
// and generated config from the diff.
var diffExclusions = []string{
	":!*.md",
	":!*.yaml",
	":!*.yml",
	":!*.bak",
	":!docs/*",
}

// Git runs git commands against a repository.
type Git struct {
	gitPath string
}

// New creates a Git instance, verifying the git binary is available.
func New(ctx context.Context) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, gitPath, "version")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}

	return &Git{gitPath: gitPath}, nil
}

func (g *Git) run(ctx context.Context, repo string, args ...string) (string, error) {
	full := append([]string{"-C", repo}, args...)
	cmd := exec.CommandContext(ctx, g.gitPath, full...)
	out, err := cmd.Output()
	return string(out), err
}

// ChangedPaths returns the set of modified, added, deleted, renamed and
// untracked paths in the working tree, parsed from porcelain status output.
func (g *Git) ChangedPaths(ctx context.Context, repo string) (map[string]bool, error) {
	out, err := g.run(ctx, repo, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status failed in %s: %w", repo, err)
	}

	paths := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 {
			continue
		}
		// Porcelain format: XY <path>, with "R  old -> new" for renames.
		path := line[3:]
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		paths[path] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse git status: %w", err)
	}

	return paths, nil
}

// Head returns the current HEAD commit hash. Repositories with no commit
// history return an error; callers degrade to uncommitted-change counting.
func (g *Git) Head(ctx context.Context, repo string) (string, error) {
	out, err := g.run(ctx, repo, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("no HEAD in %s: %w", repo, err)
	}
	return strings.TrimSpace(out), nil
}

// CommitsBetween counts commits reachable from after but not from before.
func (g *Git) CommitsBetween(ctx context.Context, repo, before, after string) (int, error) {
	if !isValidRef(before) || !isValidRef(after) {
		return 0, fmt.Errorf("invalid revision pointer: %q..%q", before, after)
	}

	out, err := g.run(ctx, repo, "rev-list", "--count", before+".."+after)
	if err != nil {
		return 0, fmt.Errorf("git rev-list failed in %s: %w", repo, err)
	}

	count, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", out, err)
	}
	return count, nil
}

// DefaultBranch discovers the default branch from the origin HEAD symbolic
// ref, falling back to "main" when there is no remote tracking information.
func (g *Git) DefaultBranch(ctx context.Context, repo string) string {
	out, err := g.run(ctx, repo, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err != nil {
		return "main"
	}
	branch := strings.TrimPrefix(strings.TrimSpace(out), "refs/remotes/origin/")
	if branch == "" {
		return "main"
	}
	return branch
}

// Diff returns the code-only diff (stat header plus full diff) between the
// working tree and base. The remote branch origin/<base> is preferred so the
// comparison works while checked out on base itself; when the remote ref is
// missing the local branch is used. Returns [ErrNoDiff] when no comparison
// is possible or the diff contains no code changes.
func (g *Git) Diff(ctx context.Context, repo, base string) (string, error) {
	if base == "" {
		base = g.DefaultBranch(ctx, repo)
	}
	if !validBranchName(base) {
		return "", fmt.Errorf("%w: invalid branch name %q", ErrNoDiff, base)
	}

	diff, err := g.diffAgainst(ctx, repo, "origin/"+base)
	if err != nil {
		diff, err = g.diffAgainst(ctx, repo, base)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDiff, err)
	}

	if strings.TrimSpace(diff) == "" {
		return "", fmt.Errorf("%w: no code changes against %s", ErrNoDiff, base)
	}
	return diff, nil
}

func (g *Git) diffAgainst(ctx context.Context, repo, ref string) (string, error) {
	statArgs := append([]string{"diff", ref, "--stat", "--"}, diffExclusions...)
	stat, err := g.run(ctx, repo, statArgs...)
	if err != nil {
		return "", fmt.Errorf("diff against %s failed: %w", ref, err)
	}

	diffArgs := append([]string{"diff", ref, "--"}, diffExclusions...)
	diff, err := g.run(ctx, repo, diffArgs...)
	if err != nil {
		return "", fmt.Errorf("diff against %s failed: %w", ref, err)
	}

	return strings.TrimSpace(stat + "\n\n" + diff), nil
}

// branchNamePattern permits the usual branch characters while rejecting a
// leading hyphen, which git would interpret as a flag.
var branchNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._/][a-zA-Z0-9._/-]*$`)

func validBranchName(branch string) bool {
	return branch != "" && branchNamePattern.MatchString(branch)
}

// isValidRef reports whether ref is safe to pass to git on the command line.
// Shell metacharacters and flag-like values are rejected.
func isValidRef(ref string) bool {
	if ref == "" || len(ref) > 64 || ref[0] == '-' {
		return false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') &&
			(c < 'a' || c > 'z') &&
			(c < 'A' || c > 'Z') &&
			c != '-' && c != '_' && c != '/' && c != '~' && c != '^' && c != '.' {
			return false
		}
	}
	return true
}
