package browse

import (
	"fmt"
	"io"

	"github.com/Trailblaze-work/loopcast/internal/renderer"
	"github.com/Trailblaze-work/loopcast/internal/ui/theme"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PatternSelected is sent when a pattern is chosen.
type PatternSelected struct {
	Pattern renderer.Pattern
}

// GoBack signals navigation back to the preview.
type GoBack struct{}

// patternItem wraps a Pattern for the list.
type patternItem struct {
	pattern renderer.Pattern
	current bool
}

func (i patternItem) FilterValue() string {
	return i.pattern.Name + " " + i.pattern.Title
}

type patternDelegate struct{}

func (d patternDelegate) Height() int                             { return 2 }
func (d patternDelegate) Spacing() int                            { return 1 }
func (d patternDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d patternDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(patternItem)
	if !ok {
		return
	}

	title := item.pattern.Title
	if item.current {
		title += "  (current)"
	}
	detail := item.pattern.Name

	var nameStyle, detailStyle lipgloss.Style
	prefix := "  "
	if index == m.Index() {
		prefix = "> "
		nameStyle = lipgloss.NewStyle().Foreground(theme.ColorPrimary).Bold(true).PaddingLeft(2)
		detailStyle = lipgloss.NewStyle().Foreground(theme.ColorSecondary).PaddingLeft(4)
	} else {
		nameStyle = lipgloss.NewStyle().Foreground(theme.ColorText).PaddingLeft(2)
		detailStyle = lipgloss.NewStyle().Foreground(theme.ColorDim).PaddingLeft(4)
	}
	fmt.Fprintf(w, "%s\n%s", nameStyle.Render(prefix+title), detailStyle.Render(detail))
}

// PatternListModel picks the pattern drawn on the canvas.
type PatternListModel struct {
	list   list.Model
	width  int
	height int
}

// NewPatternList lists every registered pattern, marking current.
func NewPatternList(current string, width, height int) PatternListModel {
	patterns := renderer.Patterns()
	items := make([]list.Item, len(patterns))
	selected := 0
	for i, p := range patterns {
		items[i] = patternItem{pattern: p, current: p.Name == current}
		if p.Name == current {
			selected = i
		}
	}

	l := list.New(items, patternDelegate{}, width, height-4)
	l.Title = "Patterns"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.StyleListTitle
	l.SetShowHelp(true)
	l.Select(selected)

	return PatternListModel{list: l, width: width, height: height}
}

func (m PatternListModel) Init() tea.Cmd {
	return nil
}

func (m PatternListModel) Update(msg tea.Msg) (PatternListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, theme.DefaultKeyMap.Select):
			if item, ok := m.list.SelectedItem().(patternItem); ok {
				return m, func() tea.Msg { return PatternSelected{Pattern: item.pattern} }
			}
		case key.Matches(msg, theme.DefaultKeyMap.Back):
			return m, func() tea.Msg { return GoBack{} }
		case key.Matches(msg, theme.DefaultKeyMap.Quit):
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m PatternListModel) View() string {
	return m.list.View()
}
