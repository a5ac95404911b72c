package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header1   lipgloss.Style
	Header2   lipgloss.Style
	Label     lipgloss.Style
	Instance  lipgloss.Style
	Type      lipgloss.Style
	Level     lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	Highlight lipgloss.Style
}

// NewStyles builds styles for a color profile. termenv.Ascii disables color.
func NewStyles(profile termenv.Profile) *Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)

	return &Styles{
		Header1:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Header2:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Label:     r.NewStyle().Bold(true),
		Instance:  r.NewStyle().Foreground(lipgloss.Color("10")),
		Type:      r.NewStyle().Foreground(lipgloss.Color("13")),
		Level:     r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		Success:   r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Info:      r.NewStyle().Foreground(lipgloss.Color("12")),
		Highlight: r.NewStyle().Reverse(true),
	}
}
