// Package grid renders statement result rows for the terminal.
package grid

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the terminal styles shared by the grid and the interactive shell.
type Styles struct {
	Header lipgloss.Style
	Gray   lipgloss.Style
	Red    lipgloss.Style
	Green  lipgloss.Style
	Warn   lipgloss.Style
}

// NewStyles creates styles bound to a renderer for w.
// A nil profile leaves colour detection to termenv.
func NewStyles(w io.Writer, profile *termenv.Profile) Styles {
	r := lipgloss.NewRenderer(w)
	if profile != nil {
		r.SetColorProfile(*profile)
	}
	return Styles{
		Header: r.NewStyle().Foreground(lipgloss.Color("13")),
		Gray:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Red:    r.NewStyle().Foreground(lipgloss.Color("9")),
		Green:  r.NewStyle().Foreground(lipgloss.Color("10")),
		Warn:   r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Plain returns styles that render text unchanged.
func Plain() Styles {
	p := termenv.Ascii
	return NewStyles(io.Discard, &p)
}

// Paint styles each line of text separately, so multi-line text is not padded to a block.
func Paint(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
