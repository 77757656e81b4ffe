// Package config provides configuration loading and management for sprintloop.
//
// Configuration is loaded using Viper, supporting YAML config files and
// environment variable overrides. The package provides sensible defaults that
// work out of the box against the `llm` CLI, with the ability to customize
// phase prompts, models, timeouts, loop bounds, and output formatting.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [PhaseConfig] defines a single phase's tool invocation
//
// Configuration priority (highest to lowest):
//  1. Environment variables (SPRINTLOOP_ prefix)
//  2. Config file specified by SPRINTLOOP_CONFIG_PATH or --config
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/sprintloop/sprintloop.yaml
//     - macOS: ~/Library/Application Support/sprintloop/sprintloop.yaml
//  4. ./sprintloop.yaml in the project directory
//  5. [DefaultConfig] defaults
package config

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// Phase names recognized in the phases map.
const (
	PhaseCreate  = "create"
	PhaseDevelop = "develop"
	PhaseReview  = "review"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used
// throughout the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// Phases maps phase names to their tool invocation settings.
	// Keys are phase names ("create", "develop", "review").
	Phases map[string]PhaseConfig `mapstructure:"phases"`

	// Tool contains invocation defaults shared by all phases.
	Tool ToolConfig `mapstructure:"tool"`

	// Loop bounds the autonomous loop.
	Loop LoopConfig `mapstructure:"loop"`

	// Output contains terminal output formatting configuration.
	Output OutputConfig `mapstructure:"output"`
}

// PhaseConfig configures the external tool invocation for one phase.
//
// All phases share the same invocation contract: a command, a prompt expanded
// with the story key, an optional system prompt, and context piped on stdin.
// Empty fields fall back to the [ToolConfig] defaults.
type PhaseConfig struct {
	// Command overrides the tool binary for this phase.
	// If empty, Tool.BinaryPath is used.
	Command string `mapstructure:"command"`

	// Model is passed to the tool with -m.
	// If empty, Tool.DefaultModel is used.
	// Examples: "anthropic/claude-sonnet-4-5", "anthropic/claude-opus-4-0"
	Model string `mapstructure:"model"`

	// SystemPrompt is passed to the tool with -s when non-empty.
	SystemPrompt string `mapstructure:"system_prompt"`

	// Prompt is the Go template string for the phase prompt.
	// Example: "Implement story {{.StoryKey}}"
	Prompt string `mapstructure:"prompt"`

	// TimeoutSeconds overrides Tool.TimeoutSeconds when positive.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// Timeout returns the phase's invocation timeout.
func (p PhaseConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ToolConfig contains defaults for external tool invocation.
//
// These settings control how the model CLI binary is invoked.
type ToolConfig struct {
	// BinaryPath is the path to the model CLI binary.
	// Default: "llm" (assumes the tool is in PATH).
	// Can be overridden with the SPRINTLOOP_TOOL_BINARY_PATH environment variable.
	BinaryPath string `mapstructure:"binary_path"`

	// DefaultModel is used for phases that set no model of their own.
	DefaultModel string `mapstructure:"default_model"`

	// TimeoutSeconds is the hard wall-clock bound per invocation.
	// Default: 300
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoopConfig bounds the autonomous loop.
type LoopConfig struct {
	// MaxIterations is the hard iteration ceiling. Reaching it is reported
	// as an anomaly, not a normal finish.
	// Default: 50
	MaxIterations int `mapstructure:"max_iterations"`

	// MaxConsecutiveFailures quarantines a story to blocked after this many
	// consecutive failures on the same story.
	// Default: 3
	MaxConsecutiveFailures int `mapstructure:"max_consecutive_failures"`

	// MaxMinutes bounds total loop wall-clock time. Zero disables the bound.
	MaxMinutes int `mapstructure:"max_minutes"`
}

// MaxDuration returns the loop wall-clock bound, zero when unbounded.
func (l LoopConfig) MaxDuration() time.Duration {
	return time.Duration(l.MaxMinutes) * time.Minute
}

// OutputConfig contains terminal output formatting configuration.
//
// These settings control how tool output is formatted in the terminal.
type OutputConfig struct {
	// TruncateLines is the maximum number of lines to display per output
	// block. Additional lines are hidden with a "... (N more lines)" indicator.
	// Default: 20
	TruncateLines int `mapstructure:"truncate_lines"`

	// TruncateLength is the maximum length of each output line.
	// Longer lines are truncated with "..." suffix.
	// Default: 100
	TruncateLength int `mapstructure:"truncate_length"`

	// Markdown contains markdown rendering configuration.
	Markdown MarkdownConfig `mapstructure:"markdown"`
}

// MarkdownConfig contains configuration for markdown rendering in terminal output.
//
// When enabled, model output is rendered with proper formatting: bold, italic,
// headers, code blocks with syntax highlighting, lists, etc.
type MarkdownConfig struct {
	// Enabled controls whether markdown rendering is active.
	// Default: true
	Enabled bool `mapstructure:"enabled"`

	// Style is the glamour theme to use: "dark", "light", "dracula", "notty".
	// Avoid "auto" as it can cause detection delays on some terminals.
	// Default: "dark"
	Style string `mapstructure:"style"`

	// WordWrap is the column width for text wrapping.
	// Default: 100
	WordWrap int `mapstructure:"word_wrap"`

	// Emoji enables emoji shortcode rendering (e.g., :smile: -> 😄).
	// Default: true
	Emoji bool `mapstructure:"emoji"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The defaults include prompts and system prompts for the create, develop,
// and review phases, the `llm` CLI as the external tool with a stronger
// model for review, and the loop bounds the pipeline was designed around.
// These defaults work out of the box without any configuration file.
func DefaultConfig() *Config {
	return &Config{
		Phases: map[string]PhaseConfig{
			PhaseCreate: {
				Prompt: "Create a comprehensive story file for {{.StoryKey}} based on the context provided. Do not ask questions.",
				SystemPrompt: "You are a story creator producing developer implementation guides. " +
					"Given the sprint status and epics provided as context, write the complete story file for the requested story key: " +
					"header with title and status, user story, acceptance criteria in Given/When/Then form, " +
					"detailed tasks with checkboxes, technical requirements, and testing requirements. " +
					"Output ONLY the markdown content for the story file. No explanations or preamble.",
			},
			PhaseDevelop: {
				Prompt: "Implement story {{.StoryKey}}. Complete all tasks. Run tests after each implementation. " +
					"Commit your work. Do not ask clarifying questions - use best judgment based on existing patterns.",
			},
			PhaseReview: {
				Prompt: "Perform adversarial code review for story: {{.StoryKey}}",
				SystemPrompt: "You are an ADVERSARIAL senior developer performing code review. " +
					"Review the CODE CHANGES section (the git diff), not the story requirements; the story is context for what should have been built. " +
					"Find specific issues in the diff: code quality, missing test coverage, security, performance, unmet acceptance criteria. " +
					"For each issue describe the problem, reference the actual file and line from the diff, suggest the fix, " +
					"and rate severity: CRITICAL, HIGH, MEDIUM, LOW. " +
					"Output a structured review report in markdown.",
				Model: "anthropic/claude-opus-4-0",
			},
		},
		Tool: ToolConfig{
			BinaryPath:     "llm",
			DefaultModel:   "anthropic/claude-sonnet-4-5",
			TimeoutSeconds: 300,
		},
		Loop: LoopConfig{
			MaxIterations:          50,
			MaxConsecutiveFailures: 3,
			MaxMinutes:             0,
		},
		Output: OutputConfig{
			TruncateLines:  20,
			TruncateLength: 100,
			Markdown: MarkdownConfig{
				Enabled:  true,
				Style:    "dark",
				WordWrap: 100,
				Emoji:    true,
			},
		},
	}
}

// Phase returns the effective configuration for a phase with tool defaults
// applied. Unknown phase names return an error.
func (c *Config) Phase(name string) (PhaseConfig, error) {
	phase, ok := c.Phases[name]
	if !ok {
		return PhaseConfig{}, fmt.Errorf("unknown phase: %s", name)
	}

	if phase.Command == "" {
		phase.Command = c.Tool.BinaryPath
	}
	if phase.Model == "" {
		phase.Model = c.Tool.DefaultModel
	}
	if phase.TimeoutSeconds <= 0 {
		phase.TimeoutSeconds = c.Tool.TimeoutSeconds
	}

	return phase, nil
}

// GetPrompt expands the named phase's prompt template for a story key.
func (c *Config) GetPrompt(phaseName, storyKey string) (string, error) {
	phase, err := c.Phase(phaseName)
	if err != nil {
		return "", err
	}

	prompt, err := expandTemplate(phase.Prompt, PromptData{StoryKey: storyKey})
	if err != nil {
		return "", fmt.Errorf("invalid prompt template for phase %s: %w", phaseName, err)
	}

	return prompt, nil
}

// expandTemplate expands a Go template string with the given prompt data.
func expandTemplate(tmplStr string, data PromptData) (string, error) {
	tmpl, err := template.New("prompt").Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// PromptData contains data for phase prompt template expansion.
//
// This struct is passed to Go's text/template when expanding phase prompts.
// Fields are accessible in templates using {{.FieldName}} syntax.
type PromptData struct {
	// StoryKey is the identifier of the story being processed.
	// Access in templates with {{.StoryKey}}.
	StoryKey string
}
