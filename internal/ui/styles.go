package ui

import "github.com/charmbracelet/lipgloss"

// Color palette for the lipgloss styles below.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSecondary = lipgloss.Color("#06B6D4")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorError     = lipgloss.Color("#EF4444")
	ColorMuted     = lipgloss.Color("#6B7280")

	ColorTextDim = lipgloss.Color("#9CA3AF")
)

type styleWrapper struct {
	style lipgloss.Style
}

func (s styleWrapper) Render(str string) string {
	return s.style.Render(str)
}

var (
	Dim     = styleWrapper{lipgloss.NewStyle().Foreground(ColorTextDim)}
	Success = styleWrapper{lipgloss.NewStyle().Foreground(ColorSuccess)}
	Warning = styleWrapper{lipgloss.NewStyle().Foreground(ColorWarning)}
	Error   = styleWrapper{lipgloss.NewStyle().Foreground(ColorError)}
	Primary = styleWrapper{lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)}
)

// FormatStatus formats a status message with an appropriate icon.
func FormatStatus(status, message string) string {
	var icon string
	switch status {
	case "success":
		icon = Success.Render("✓")
	case "error":
		icon = Error.Render("✗")
	case "warning":
		icon = Warning.Render("⚠")
	default:
		icon = Dim.Render("•")
	}
	return icon + " " + message
}
