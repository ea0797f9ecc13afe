package preview

import (
	"fmt"
	"strings"

	"github.com/Trailblaze-work/loopcast/internal/renderer"
	"github.com/Trailblaze-work/loopcast/internal/ui/theme"
	"github.com/charmbracelet/lipgloss"
)

// RenderPanel renders the side panel: the pattern's notes, or the live
// parameter snapshot as JSON when showParams is set.
func RenderPanel(p renderer.Params, showParams bool, width int) string {
	pattern, ok := renderer.Lookup(p.Pattern)
	if !ok {
		return theme.StyleExportError.Render(fmt.Sprintf("unknown pattern %q", p.Pattern))
	}

	var parts []string
	if showParams {
		parts = append(parts, theme.StylePanelTitle.Render("Params"), "")
		parts = append(parts, lipgloss.NewStyle().PaddingLeft(1).Render(highlightJSON(p)))
	} else {
		parts = append(parts, theme.StylePanelTitle.Render(pattern.Title), "")
		parts = append(parts, RenderNotes(pattern.Notes, width))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "\n"))
}

// summarize is the one-line parameter summary shown under the header.
func summarize(p renderer.Params) string {
	return fmt.Sprintf("speed %.2f  ·  density %.2f  ·  zoom %.2f  ·  %s %s %s",
		p.Speed, p.Density, p.Zoom, p.Colors[0], p.Colors[1], p.Colors[2])
}
