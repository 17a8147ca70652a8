package views

import "github.com/charmbracelet/lipgloss"

// Default palette, overridable from the ui config block.
const (
	DefaultColorPrimary = "63"
	DefaultColorDanger  = "196"
	colorWarning        = "214"
	colorSuccess        = "42"
	colorDim            = "241"
)

// Styles holds every style the console renders with.
type Styles struct {
	Primary lipgloss.Color
	Danger  lipgloss.Color

	Prompt          lipgloss.Style
	PromptAuto      lipgloss.Style
	Dim             lipgloss.Style
	Error           lipgloss.Style
	Warning         lipgloss.Style
	Success         lipgloss.Style
	NoticeTitle     lipgloss.Style
	InfoBox         lipgloss.Style
	WarningBox      lipgloss.Style
	DangerBox       lipgloss.Style
	StatusThinking  lipgloss.Style
	StatusExecuting lipgloss.Style
	StatusDone      lipgloss.Style
	StatusFailed    lipgloss.Style
	Spinner         lipgloss.Style
}

// NewStyles builds the styles from the two configurable colors. Empty
// values select the defaults.
func NewStyles(primary, danger string) Styles {
	if primary == "" {
		primary = DefaultColorPrimary
	}
	if danger == "" {
		danger = DefaultColorDanger
	}
	p := lipgloss.Color(primary)
	d := lipgloss.Color(danger)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return Styles{
		Primary: p,
		Danger:  d,

		Prompt:          lipgloss.NewStyle().Foreground(lipgloss.Color("202")).Bold(true),
		PromptAuto:      lipgloss.NewStyle().Foreground(d).Bold(true),
		Dim:             lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
		Error:           lipgloss.NewStyle().Foreground(d).Bold(true),
		Warning:         lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		Success:         lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		NoticeTitle:     lipgloss.NewStyle().Bold(true),
		InfoBox:         box.BorderForeground(p),
		WarningBox:      box.BorderForeground(lipgloss.Color(colorWarning)),
		DangerBox:       box.BorderForeground(d),
		StatusThinking:  lipgloss.NewStyle().Foreground(p),
		StatusExecuting: lipgloss.NewStyle().Foreground(p),
		StatusDone:      lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		StatusFailed:    lipgloss.NewStyle().Foreground(d),
		Spinner:         lipgloss.NewStyle().Foreground(p),
	}
}
