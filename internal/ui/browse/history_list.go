package browse

import (
	"fmt"
	"io"
	"strings"

	"github.com/Trailblaze-work/loopcast/internal/history"
	"github.com/Trailblaze-work/loopcast/internal/ui/theme"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// historyItem wraps a history Entry for the list.
type historyItem struct {
	entry *history.Entry
}

func (i historyItem) FilterValue() string {
	return i.entry.Kind + " " + i.entry.Pattern + " " + i.entry.Status + " " + i.entry.Output
}

type historyDelegate struct{}

func (d historyDelegate) Height() int                             { return 2 }
func (d historyDelegate) Spacing() int                            { return 1 }
func (d historyDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d historyDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(historyItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderEntry(item.entry, index == m.Index()))
}

func renderEntry(e *history.Entry, selected bool) string {
	name := e.Output
	if name == "" {
		name = e.ID[:8]
	}
	details := []string{
		fmt.Sprintf("%s %s", e.Kind, e.Pattern),
		fmt.Sprintf("%d×%d", e.Width, e.Height),
		humanize.Time(e.StartedAt),
	}
	switch e.Status {
	case history.StatusDone:
		details = append(details, fmt.Sprintf("%d frames", e.Frames), humanize.Bytes(uint64(e.Bytes)))
	case history.StatusFailed:
		details = append(details, "failed: "+e.Error)
	default:
		details = append(details, e.Status)
	}
	detail := strings.Join(details, "  ·  ")

	statusColor := theme.ColorText
	if e.Status == history.StatusFailed {
		statusColor = theme.ColorError
	}

	prefix := "  "
	nameStyle := lipgloss.NewStyle().Foreground(statusColor).PaddingLeft(2)
	detailStyle := lipgloss.NewStyle().Foreground(theme.ColorDim).PaddingLeft(4)
	if selected {
		prefix = "> "
		nameStyle = nameStyle.Bold(true)
		if e.Status != history.StatusFailed {
			nameStyle = nameStyle.Foreground(theme.ColorPrimary)
		}
		detailStyle = detailStyle.Foreground(theme.ColorSecondary)
	}
	return nameStyle.Render(prefix+name) + "\n" + detailStyle.Render(detail)
}

// HistoryListModel shows recent exports.
type HistoryListModel struct {
	list    list.Model
	entries []*history.Entry
	width   int
	height  int
}

// NewHistoryList creates a browser over entries, newest first.
func NewHistoryList(entries []*history.Entry, width, height int) HistoryListModel {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e}
	}

	l := list.New(items, historyDelegate{}, width, height-4)
	l.Title = "Recent exports"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.StyleListTitle
	l.SetShowHelp(true)

	return HistoryListModel{list: l, entries: entries, width: width, height: height}
}

func (m HistoryListModel) Init() tea.Cmd {
	return nil
}

func (m HistoryListModel) Update(msg tea.Msg) (HistoryListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
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

func (m HistoryListModel) View() string {
	header := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		PaddingLeft(1).
		Render("> loopcast")

	subtitle := lipgloss.NewStyle().
		Foreground(theme.ColorDim).
		PaddingLeft(1).
		Render(fmt.Sprintf("  %d exports recorded", len(m.entries)))

	return strings.Join([]string{
		header + subtitle,
		"",
		m.list.View(),
	}, "\n")
}
