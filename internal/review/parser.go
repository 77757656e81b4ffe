package review

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxInputBytes caps the text handed to the regex scanner. Reviews
// beyond the cap are truncated, which bounds worst-case parsing time on
// pathological payloads.
const DefaultMaxInputBytes = 1 << 20

// maxContextBytes caps the per-issue context snippet.
const maxContextBytes = 500

// markerPattern locates severity markers in the three formats reviewers
// emit: "**CRITICAL**: ...", a line-leading (optionally bulleted)
// "CRITICAL: ...", and "[CRITICAL] ...". Each finding runs from its marker
// to the next marker or section heading.
var markerPattern = regexp.MustCompile(
	`(?mi)\*\*(CRITICAL|HIGH|MEDIUM|LOW):?\*\*:?` +
		`|^[ \t]*(?:[-*]\s*)?(CRITICAL|HIGH|MEDIUM|LOW)[:\s]` +
		`|\[(CRITICAL|HIGH|MEDIUM|LOW)\]:?`)

// headingPattern ends a finding at the next markdown section.
var headingPattern = regexp.MustCompile(`(?m)^##`)

var codeBlockPattern = regexp.MustCompile("```[\\s\\S]*?```")

// fileRefPatterns extract a file path and optional line number from a
// finding, most specific first.
var fileRefPatterns = []*regexp.Regexp{
	// `file.py` line 42 or `file.py`:42
	regexp.MustCompile("[`'\"]([a-zA-Z0-9_/.-]+\\.[a-zA-Z]+)[`'\"]?[:,]?\\s*(?:line\\s*)?([0-9]+)?"),
	// (file.py, line 42) or (file.py:42)
	regexp.MustCompile(`\(([a-zA-Z0-9_/.-]+\.[a-zA-Z]+),?\s*(?:line\s*)?:?([0-9]+)?\)`),
	// in/at file.py line 42
	regexp.MustCompile(`(?i)(?:in|at|file)\s+([a-zA-Z0-9_/.-]+\.[a-zA-Z]+)(?:[:\s]+(?:line\s*)?([0-9]+))?`),
}

var suggestedFixPattern = regexp.MustCompile(`(?i)(?:fix|solution|suggest(?:ed)?|should|instead|replace)[:\s]+(.+)`)

// negationPhrases are the well-known ways a reviewer says "nothing critical
// here". Their presence suppresses the whole-text CRITICAL fallback.
var negationPhrases = []string{
	"no critical",
	"zero critical",
	"0 critical",
	"without critical",
	"not critical",
	"no issues",
}

// Parser extracts structured issues from review text.
type Parser struct {
	// MaxInputBytes overrides the input size cap. Zero uses the default.
	MaxInputBytes int
}

// NewParser creates a Parser with default limits.
func NewParser() *Parser {
	return &Parser{MaxInputBytes: DefaultMaxInputBytes}
}

// Parse extracts a deduplicated, severity-tagged issue list from raw review
// text. It is total over all inputs and never returns an error.
//
// Primary strategy: scan for severity-marked finding blocks and extract
// severity, file, line, description and suggested fix from each. Fallback,
// used only when the primary strategy finds nothing: if the text contains a
// literal CRITICAL token and no recognized negation phrase, synthesize one
// generic CRITICAL issue. The fallback deliberately prefers a false positive
// (an extra development round) over a false negative (broken work marked
// done).
func (p *Parser) Parse(raw string) []Issue {
	capped := p.cap(raw)
	content := codeBlockPattern.ReplaceAllString(capped, "")

	issues := p.parseStructured(content)
	if len(issues) > 0 {
		return issues
	}

	if p.criticalMentioned(content) {
		return []Issue{{
			Severity:    SeverityCritical,
			Description: "review reported a critical finding that could not be parsed into structured issues",
			Context:     capString(strings.TrimSpace(content), maxContextBytes),
		}}
	}

	return nil
}

func (p *Parser) cap(raw string) string {
	limit := p.MaxInputBytes
	if limit <= 0 {
		limit = DefaultMaxInputBytes
	}
	if len(raw) > limit {
		return raw[:limit]
	}
	return raw
}

func (p *Parser) parseStructured(content string) []Issue {
	markers := markerPattern.FindAllStringSubmatchIndex(content, -1)
	if len(markers) == 0 {
		return nil
	}

	var issues []Issue
	seen := make(map[string]bool)

	for i, marker := range markers {
		severity := markerSeverity(content, marker)

		bodyStart := marker[1]
		bodyEnd := len(content)
		if i+1 < len(markers) {
			bodyEnd = markers[i+1][0]
		}
		if h := headingPattern.FindStringIndex(content[bodyStart:bodyEnd]); h != nil {
			bodyEnd = bodyStart + h[0]
		}

		body := strings.TrimSpace(content[bodyStart:bodyEnd])
		description := firstNonEmptyLine(body)
		if description == "" {
			continue
		}

		file, line := extractFileRef(body)

		issue := Issue{
			Severity:     severity,
			File:         file,
			Line:         line,
			Description:  description,
			SuggestedFix: extractSuggestedFix(body),
			Context:      capString(body, maxContextBytes),
		}

		key := dedupKey(issue)
		if seen[key] {
			continue
		}
		seen[key] = true

		issues = append(issues, issue)
	}

	return issues
}

// criticalMentioned reports whether the text contains a CRITICAL token that
// is not part of a known negation phrase.
func (p *Parser) criticalMentioned(content string) bool {
	lower := strings.ToLower(content)
	if !strings.Contains(lower, "critical") {
		return false
	}
	for _, phrase := range negationPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

func markerSeverity(content string, marker []int) Severity {
	// The marker pattern has three alternatives; exactly one capture group
	// is set per match.
	for group := 1; group <= 3; group++ {
		start, end := marker[2*group], marker[2*group+1]
		if start >= 0 {
			return Severity(strings.ToUpper(content[start:end]))
		}
	}
	return SeverityLow
}

func firstNonEmptyLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*# \t"))
		line = strings.TrimSpace(strings.Trim(line, "*"))
		if line != "" {
			return line
		}
	}
	return ""
}

func extractFileRef(body string) (string, int) {
	for _, pattern := range fileRefPatterns {
		match := pattern.FindStringSubmatch(body)
		if match == nil {
			continue
		}
		file := match[1]
		line := 0
		if len(match) > 2 && match[2] != "" {
			line, _ = strconv.Atoi(match[2])
		}
		return file, line
	}
	return "", 0
}

func extractSuggestedFix(body string) string {
	match := suggestedFixPattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	fix := match[1]
	if i := strings.IndexByte(fix, '\n'); i >= 0 {
		fix = fix[:i]
	}
	return strings.TrimSpace(fix)
}

// dedupKey collapses repeats of the same defect. Reviewers often restate a
// finding in a summary section and again in detail; the (file, line,
// normalized description prefix) triple catches that.
func dedupKey(issue Issue) string {
	desc := strings.ToLower(issue.Description)
	desc = strings.Join(strings.Fields(desc), " ")
	desc = capString(desc, 30)
	return issue.File + ":" + strconv.Itoa(issue.Line) + ":" + desc
}

func capString(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
