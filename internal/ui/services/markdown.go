package services

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer turns model output into terminal text.
type MarkdownRenderer interface {
	Render(markdown string) (string, error)
}

// GlamourRenderer renders markdown with glamour.
type GlamourRenderer struct {
	renderer *glamour.TermRenderer
}

// NewGlamourRenderer creates a renderer wrapping at width columns. A width
// of zero disables wrapping.
func NewGlamourRenderer(width int) (*GlamourRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &GlamourRenderer{renderer: r}, nil
}

// Render renders markdown, trimming the blank lines glamour adds around the
// document.
func (g *GlamourRenderer) Render(markdown string) (string, error) {
	out, err := g.renderer.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// PlainRenderer returns text unchanged. Used when markdown is disabled.
type PlainRenderer struct{}

func (PlainRenderer) Render(markdown string) (string, error) {
	return markdown, nil
}

// RenderMarkdown renders content, falling back to the raw text when the
// renderer fails.
func RenderMarkdown(content string, renderer MarkdownRenderer) string {
	if renderer == nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}
