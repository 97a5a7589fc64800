package ui

import "github.com/charmbracelet/lipgloss"

// Single amber accent over grays. 256-color codes so the palette
// survives terminals without truecolor.
const (
	colorAmber    = "214" // primary accent
	colorAmberDim = "172"
	colorWhite    = "255"
	colorGray     = "245"
	colorDarkGray = "238"
	colorGreen    = "114"
	colorRed      = "196"
	colorYellow   = "220"
)

// Styles carries the lipgloss styles the TUI composes its view from.
type Styles struct {
	Header  lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
	Spark   lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns the amber theme.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAmber)),
		Accent:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAmber)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Spark:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorAmberDim)),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
	}
}

// NoColorStyles strips every style for NO_COLOR and dumb terminals.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Accent:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
		Spark:   lipgloss.NewStyle(),
		Border:  lipgloss.NewStyle(),
	}
}

// GetStyles selects a theme from the color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
