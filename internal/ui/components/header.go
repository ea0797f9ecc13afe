package components

import (
	"fmt"

	"github.com/Trailblaze-work/loopcast/internal/ui/theme"
	"github.com/charmbracelet/lipgloss"
)

// RenderHeader renders the top header bar.
func RenderHeader(patternTitle, summary string, hidden bool, width int) string {
	title := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Render("> loopcast")

	patternText := lipgloss.NewStyle().
		Foreground(theme.ColorAccent).
		Render("  " + patternTitle)

	line1 := title + patternText

	summaryText := lipgloss.NewStyle().
		Foreground(theme.ColorSecondary).
		PaddingLeft(1).
		Render(summary)

	hiddenText := ""
	if hidden {
		hiddenText = lipgloss.NewStyle().
			Foreground(theme.ColorWarning).
			Render("  hidden (1 pass/s)")
	}

	line2 := summaryText + hiddenText

	border := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(theme.ColorDim).
		Width(width)

	return border.Render(fmt.Sprintf("%s\n%s", line1, line2))
}
