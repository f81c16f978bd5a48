package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"netero/internal/logging"
)

// DefaultWrap is the word-wrap width for rendered responses.
const DefaultWrap = 80

// MarkdownRenderer renders completion text for the terminal.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer builds a glamour renderer matching the theme. A failed
// setup yields a renderer that passes text through.
func NewMarkdownRenderer(theme Theme, width int) *MarkdownRenderer {
	if width <= 0 {
		width = DefaultWrap
	}
	style := glamour.WithStylePath("light")
	if theme.IsDark {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		logging.BootWarn("markdown renderer unavailable: %v", err)
		return &MarkdownRenderer{}
	}
	return &MarkdownRenderer{renderer: r}
}

// Render returns md rendered for the terminal, or md unchanged when
// rendering fails.
func (m *MarkdownRenderer) Render(md string) string {
	if m == nil || m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		logging.SessionWarn("markdown render failed: %v", err)
		return md
	}
	return strings.Trim(out, "\n")
}

// PlainRenderer returns text unchanged.
type PlainRenderer struct{}

func (PlainRenderer) Render(text string) string { return text }
