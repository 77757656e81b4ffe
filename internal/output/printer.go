// Package output provides terminal formatting for sprintloop: styled status
// lines for loop progress and glamour-rendered markdown for model output.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"sprintloop/internal/config"
)

// Semantic status colors, adaptive to light and dark terminals.
var (
	colorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	colorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	colorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	colorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	colorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(colorPass)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(colorFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
)

// Status icons.
const (
	iconPass = "✓"
	iconWarn = "⚠"
	iconFail = "✗"
	iconInfo = "ℹ"
)

// Printer writes styled progress and model output to a terminal.
type Printer struct {
	w   io.Writer
	cfg config.OutputConfig
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter(cfg config.OutputConfig) *Printer {
	return NewPrinterWithWriter(os.Stdout, cfg)
}

// NewPrinterWithWriter creates a Printer writing to w.
func NewPrinterWithWriter(w io.Writer, cfg config.OutputConfig) *Printer {
	return &Printer{w: w, cfg: cfg}
}

// Header prints a bold section header.
func (p *Printer) Header(format string, args ...any) {
	fmt.Fprintln(p.w, headerStyle.Render(fmt.Sprintf(format, args...)))
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, passStyle.Render(iconPass+" "+fmt.Sprintf(format, args...)))
}

// Warn prints a yellow warning line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.w, warnStyle.Render(iconWarn+" "+fmt.Sprintf(format, args...)))
}

// Error prints a red failure line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, failStyle.Render(iconFail+" "+fmt.Sprintf(format, args...)))
}

// Info prints a blue informational line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, accentStyle.Render(iconInfo+" "+fmt.Sprintf(format, args...)))
}

// Muted prints a gray secondary line.
func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Transition prints a story status change.
func (p *Printer) Transition(storyKey, from, to string) {
	fmt.Fprintf(p.w, "%s %s: %s -> %s\n",
		passStyle.Render(iconPass),
		accentStyle.Render(storyKey),
		mutedStyle.Render(from),
		passStyle.Render(to))
}

// Markdown renders markdown with glamour and prints it. Rendering failures
// and disabled rendering fall back to the raw text.
func (p *Printer) Markdown(text string) {
	fmt.Fprintln(p.w, p.renderMarkdown(text))
}

// ToolOutput prints (possibly markdown) tool output, truncated per the
// output configuration.
func (p *Printer) ToolOutput(text string) {
	p.Markdown(p.truncate(text))
}

func (p *Printer) renderMarkdown(text string) string {
	if !p.cfg.Markdown.Enabled {
		return text
	}

	style := p.cfg.Markdown.Style
	if style == "" {
		style = "dark"
	}
	wrap := p.cfg.Markdown.WordWrap
	if wrap <= 0 {
		wrap = 100
	}

	opts := []glamour.TermRendererOption{
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	}
	if p.cfg.Markdown.Emoji {
		opts = append(opts, glamour.WithEmoji())
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return text
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return text
	}

	return strings.TrimRight(rendered, "\n")
}

// truncate caps output at TruncateLines lines and TruncateLength columns,
// with an elision note for hidden lines.
func (p *Printer) truncate(text string) string {
	maxLines := p.cfg.TruncateLines
	maxLength := p.cfg.TruncateLength

	lines := strings.Split(text, "\n")

	hidden := 0
	if maxLines > 0 && len(lines) > maxLines {
		hidden = len(lines) - maxLines
		lines = lines[:maxLines]
	}

	if maxLength > 0 {
		for i, line := range lines {
			if len(line) > maxLength {
				lines[i] = line[:maxLength] + "..."
			}
		}
	}

	out := strings.Join(lines, "\n")
	if hidden > 0 {
		out += fmt.Sprintf("\n... (%d more lines)", hidden)
	}
	return out
}
