package preview

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/Trailblaze-work/loopcast/internal/ui/theme"
)

const (
	notesMargin   = 1
	minNotesWidth = 20
)

var (
	notesMu        sync.Mutex
	notesRenderers = map[int]*glamour.TermRenderer{}
	darkTerminal   = sync.OnceValue(lipgloss.HasDarkBackground)
)

// RenderNotes renders pattern notes wrapped to width columns. Text is
// returned unchanged when rendering fails.
func RenderNotes(text string, width int) string {
	if text == "" {
		return text
	}
	r := notesRenderer(width)
	if r == nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}

// notesRenderer returns the cached renderer for width. The panel is
// re-rendered on every frame, so renderers are built once per width.
func notesRenderer(width int) *glamour.TermRenderer {
	width = max(width, minNotesWidth)

	notesMu.Lock()
	defer notesMu.Unlock()
	if r, ok := notesRenderers[width]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(notesStyle(darkTerminal())),
		glamour.WithWordWrap(width-2*notesMargin),
	)
	if err != nil {
		r = nil
	}
	notesRenderers[width] = r
	return r
}

// notesStyle is glamour's standard style for the terminal background with
// headings, bold text and links in the studio palette.
func notesStyle(dark bool) ansi.StyleConfig {
	cfg := styles.LightStyleConfig
	if dark {
		cfg = styles.DarkStyleConfig
	}
	primary := string(theme.ColorPrimary)
	accent := string(theme.ColorAccent)
	warning := string(theme.ColorWarning)
	margin := uint(notesMargin)

	cfg.Document.Margin = &margin
	cfg.H1.Color = &primary
	cfg.H1.BackgroundColor = nil
	cfg.Heading.Color = &accent
	cfg.Strong.Color = &primary
	cfg.Link.Color = &accent
	cfg.Code.Color = &warning
	return cfg
}
