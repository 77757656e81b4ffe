package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleCriticalFinding(t *testing.T) {
	parser := NewParser()

	issues := parser.Parse("CRITICAL: SQL injection in auth.py line 12")

	require.Len(t, issues, 1)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
	assert.Equal(t, "auth.py", issues[0].File)
	assert.Equal(t, 12, issues[0].Line)
	assert.Contains(t, issues[0].Description, "SQL injection")
	assert.True(t, HasCritical(issues))
}

func TestParse_BoldMarkers(t *testing.T) {
	parser := NewParser()
	text := `## Review Findings

- **CRITICAL**: Auth bypass in ` + "`handlers/login.go`" + ` line 44. Fix: validate the session token.
- **LOW**: Typo in error message.
`

	issues := parser.Parse(text)

	require.Len(t, issues, 2)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
	assert.Equal(t, "handlers/login.go", issues[0].File)
	assert.Equal(t, 44, issues[0].Line)
	assert.Contains(t, issues[0].SuggestedFix, "validate the session token")
	assert.Equal(t, SeverityLow, issues[1].Severity)
}

func TestParse_BracketMarkers(t *testing.T) {
	parser := NewParser()
	text := "[HIGH] Race condition in worker pool (pool.go, line 91)\n[MEDIUM] Missing timeout on HTTP client\n"

	issues := parser.Parse(text)

	require.Len(t, issues, 2)
	assert.Equal(t, SeverityHigh, issues[0].Severity)
	assert.Equal(t, "pool.go", issues[0].File)
	assert.Equal(t, 91, issues[0].Line)
	assert.Equal(t, SeverityMedium, issues[1].Severity)
	assert.False(t, HasCritical(issues))
}

func TestParse_NoCriticalWithMediumFindings(t *testing.T) {
	parser := NewParser()
	text := `no critical issues found, 2 MEDIUM issues:
- MEDIUM: missing test coverage for the retry path in client.go
- MEDIUM: unclear variable naming in utils.go line 7
`

	issues := parser.Parse(text)

	require.Len(t, issues, 2)
	assert.False(t, HasCritical(issues))
	for _, issue := range issues {
		assert.Equal(t, SeverityMedium, issue.Severity)
	}
}

func TestParse_DeduplicatesRepeatedFindings(t *testing.T) {
	parser := NewParser()

	// Reviewers repeat themselves across summary and detail sections.
	text := `## Summary
CRITICAL: SQL injection in auth.py line 12

## Details
CRITICAL: SQL injection in auth.py line 12
The query concatenates user input directly.
`

	issues := parser.Parse(text)

	require.Len(t, issues, 1)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
}

func TestParse_FallbackOnUnstructuredCritical(t *testing.T) {
	parser := NewParser()

	issues := parser.Parse("This change has a CRITICAL security hole somewhere in the session handling.")

	require.Len(t, issues, 1)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
	assert.True(t, HasCritical(issues))
}

func TestParse_FallbackSuppressedByNegation(t *testing.T) {
	parser := NewParser()

	tests := []string{
		"No critical issues found.",
		"The change looks solid, zero critical problems.",
		"Clean implementation without critical defects.",
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			issues := parser.Parse(text)
			assert.Empty(t, issues)
		})
	}
}

func TestParse_IgnoresCodeBlocks(t *testing.T) {
	parser := NewParser()
	text := "All good here.\n```\nCRITICAL: this is example output, not a finding\n```\nno critical issues found\n"

	issues := parser.Parse(text)

	assert.Empty(t, issues)
}

func TestParse_TotalOverGarbage(t *testing.T) {
	parser := NewParser()

	inputs := []string{
		"",
		"\x00\x01\x02\xff",
		strings.Repeat("a", 1000),
		"## heading only\n\n",
	}

	for _, input := range inputs {
		assert.NotPanics(t, func() { parser.Parse(input) })
	}
}

func TestParse_CapsHugeInput(t *testing.T) {
	parser := &Parser{MaxInputBytes: 64}

	// The finding sits beyond the cap and must be ignored.
	text := strings.Repeat("x", 100) + "\nCRITICAL: hidden issue"

	issues := parser.Parse(text)

	assert.Empty(t, issues)
}

func TestParse_LineAbsent(t *testing.T) {
	parser := NewParser()

	issues := parser.Parse("HIGH: dead code in legacy.go should be removed")

	require.Len(t, issues, 1)
	assert.Equal(t, "legacy.go", issues[0].File)
	assert.Equal(t, 0, issues[0].Line)
}

func TestSeverity_Rank(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, Severity("bogus").Rank(), SeverityLow.Rank())
}

func TestSummary(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityCritical},
		{Severity: SeverityMedium},
		{Severity: SeverityMedium},
	}

	assert.Equal(t, "1 CRITICAL, 2 MEDIUM", Summary(issues))
	assert.Equal(t, "no issues", Summary(nil))
}
