package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders hover markdown for the terminal. style is a glamour
// standard style name ("dark", "light", "notty"); empty picks one from the
// terminal background. On any renderer error the markdown is returned as is.
func RenderMarkdown(md string, width int, style string) string {
	if width <= 0 {
		width = 80
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}

	return strings.TrimRight(out, "\n")
}
