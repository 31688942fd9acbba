package app

import "github.com/charmbracelet/lipgloss"

var (
	textPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	textMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"}
	borderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	statusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	statusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	statusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	highlightColor     = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(textPrimaryColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(textMutedColor)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(highlightColor).MarginTop(1)
	errorStyle   = lipgloss.NewStyle().Foreground(statusErrorColor)

	enabledBadge  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#000000")).Background(statusSuccessColor)
	disabledBadge = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#000000")).Background(statusWarningColor)

	activeWorkspaceStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(highlightColor)
	workspaceStyle       = lipgloss.NewStyle().Foreground(textPrimaryColor)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderDefaultColor).
			Padding(0, 1)
)
