// Package review converts free-text adversarial review output into a
// structured, severity-ranked issue list.
//
// The reviewer is asked to emit findings with a leading severity token from
// a fixed vocabulary (CRITICAL, HIGH, MEDIUM, LOW). The parser extracts
// those findings, deduplicates repeats, and falls back to a conservative
// whole-text scan when no structured finding can be extracted. Parsing is
// total: any input, including empty strings and binary garbage, yields a
// (possibly empty) issue list and never an error.
package review

import (
	"fmt"
	"strings"
)

// Severity ranks a review finding by urgency.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// severityRank orders severities by urgency; lower is more urgent.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the urgency rank of s; unknown severities rank last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Issue is one finding extracted from a review. Issues are ephemeral: they
// drive a single status transition and are never persisted as structured
// data (the raw review markdown is what gets saved).
type Issue struct {
	Severity Severity

	// File is the referenced path, empty when the finding names no file.
	File string

	// Line is the referenced line number, 0 when absent. Ranges keep their
	// first line.
	Line int

	// Description is the finding's first line.
	Description string

	// SuggestedFix is the extracted fix suggestion, empty when absent.
	SuggestedFix string

	// Context is the full finding text, capped for reporting.
	Context string
}

// HasCritical reports whether any issue is CRITICAL severity. This is the
// aggregate signal that blocks a story from reaching done.
func HasCritical(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// CountBySeverity returns the number of issues per severity.
func CountBySeverity(issues []Issue) map[Severity]int {
	counts := make(map[Severity]int)
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}

// Summary renders a short one-line tally like "1 CRITICAL, 2 MEDIUM".
func Summary(issues []Issue) string {
	if len(issues) == 0 {
		return "no issues"
	}

	counts := CountBySeverity(issues)
	var parts []string
	for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	return strings.Join(parts, ", ")
}
