package components

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Trailblaze-work/loopcast/internal/export"
	"github.com/Trailblaze-work/loopcast/internal/ui/theme"
	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(state export.State, req export.Request, elapsed time.Duration, width int) string {
	stateInfo := lipgloss.NewStyle().
		Foreground(stateColor(state)).
		Bold(true).
		Render(state.String())

	reqInfo := lipgloss.NewStyle().
		Foreground(theme.ColorAccent).
		Render(formatRequest(req))

	loopInfo := lipgloss.NewStyle().
		Foreground(theme.ColorSecondary).
		Render(formatLoop(req.Loop))

	elapsedInfo := lipgloss.NewStyle().
		Foreground(theme.ColorDim).
		Render(formatElapsed(elapsed))

	sep := lipgloss.NewStyle().
		Foreground(theme.ColorDim).
		Render("  │  ")

	content := stateInfo + sep + reqInfo + sep + loopInfo + sep + elapsedInfo

	bar := lipgloss.NewStyle().
		Background(theme.ColorBgAlt).
		Width(width).
		PaddingLeft(1).
		PaddingRight(1)

	return bar.Render(content)
}

// RenderTimeline renders where the animation clock sits within one loop of
// the export duration.
func RenderTimeline(t, duration float64, width int) string {
	if duration <= 0 {
		return ""
	}

	prefix := " ◷ "
	suffix := fmt.Sprintf(" %5.2fs ", math.Mod(math.Max(t, 0), duration))
	barWidth := width - len(prefix) - len(suffix) - 4
	if barWidth < 10 {
		barWidth = 10
	}

	pos := math.Mod(math.Max(t, 0), duration) / duration
	filled := int(pos * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	left := lipgloss.NewStyle().Foreground(theme.ColorDim).Render(prefix)
	activeBar := lipgloss.NewStyle().Foreground(theme.ColorPrimary).Render(bar)
	right := lipgloss.NewStyle().Foreground(theme.ColorDim).Render(suffix)

	return left + activeBar + right
}

func stateColor(s export.State) lipgloss.Color {
	switch s {
	case export.StateCapturing:
		return theme.ColorCapture
	case export.StateEncoding:
		return theme.ColorEncode
	case export.StateDone:
		return theme.ColorSuccess
	case export.StateFailed:
		return theme.ColorError
	default:
		return theme.ColorPrimary
	}
}

func formatRequest(req export.Request) string {
	if req.Kind == export.KindStill {
		return fmt.Sprintf("%s %d×%d", req.Kind, req.Width, req.Height)
	}
	return fmt.Sprintf("%s %d×%d %gs@%dfps", req.Kind, req.Width, req.Height, req.Duration, req.FPS)
}

func formatLoop(l export.LoopMode) string {
	if l == export.LoopPingPong {
		return "ping-pong"
	}
	return "loop"
}

func formatElapsed(d time.Duration) string {
	if d == 0 {
		return "—"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
