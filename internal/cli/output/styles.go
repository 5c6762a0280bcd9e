package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header  lipgloss.Style
	Header2 lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Name    lipgloss.Style
}

// NewStyles builds the styles against a lipgloss renderer, which decides
// whether colors are emitted at all.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lr.NewStyle().Bold(true),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
		Key:     lr.NewStyle().Bold(true),
		Name:    lr.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// statusSymbols maps a status to its text-mode marker.
var statusSymbols = map[string]string{
	"success": "✓",
	"skipped": "○",
	"warning": "!",
	"failed":  "✗",
	"running": "…",
}

func (s *Styles) status(status string) lipgloss.Style {
	switch status {
	case "success":
		return s.Success
	case "warning", "skipped":
		return s.Warning
	case "failed":
		return s.Error
	default:
		return s.Muted
	}
}
