package ui

import (
	"context"
	"fmt"

	"github.com/Trailblaze-work/loopcast/internal/history"
	"github.com/Trailblaze-work/loopcast/internal/ui/browse"
	"github.com/Trailblaze-work/loopcast/internal/ui/preview"
	tea "github.com/charmbracelet/bubbletea"
)

// Screen identifies the current UI screen.
type Screen int

const (
	ScreenPreview Screen = iota
	ScreenPatterns
	ScreenHistory
)

// HistorySource lists recorded exports.
type HistorySource interface {
	preview.History
	List(ctx context.Context, limit int) ([]*history.Entry, error)
}

// historyLimit caps the recent exports screen.
const historyLimit = 100

// AppModel is the top-level Bubble Tea model.
type AppModel struct {
	screen  Screen
	history HistorySource
	width   int
	height  int

	preview     preview.Model
	patternList browse.PatternListModel
	historyList browse.HistoryListModel

	err error
}

// NewApp creates the studio. hist may be nil, which disables the recent
// exports screen.
func NewApp(cfg preview.Config, hist HistorySource) AppModel {
	if hist != nil {
		cfg.History = hist
	}
	return AppModel{
		screen:  ScreenPreview,
		history: hist,
		preview: preview.New(cfg, 80, 24),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.preview.Init()
}

type historyLoadedMsg struct {
	entries []*history.Entry
	err     error
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		switch m.screen {
		case ScreenPatterns:
			m.patternList, _ = m.patternList.Update(msg)
		case ScreenHistory:
			m.historyList, _ = m.historyList.Update(msg)
		}
		return m, cmd

	case preview.OpenPatterns:
		m.screen = ScreenPatterns
		m.patternList = browse.NewPatternList(m.currentPattern(), m.width, m.height)
		return m, nil

	case preview.OpenHistory:
		if m.history == nil {
			return m, nil
		}
		return m, m.loadHistory()

	case historyLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.screen = ScreenHistory
		m.historyList = browse.NewHistoryList(msg.entries, m.width, m.height)
		return m, nil

	case browse.PatternSelected:
		if err := m.preview.SetPattern(msg.Pattern.Name); err != nil {
			m.err = err
		}
		m.screen = ScreenPreview
		return m, nil

	case browse.GoBack:
		m.screen = ScreenPreview
		return m, nil
	}

	if _, ok := msg.(tea.KeyMsg); ok && m.err != nil {
		return m, tea.Quit
	}

	// Preview ticks and export updates keep flowing while a list is open.
	var previewCmd tea.Cmd
	if _, ok := msg.(tea.KeyMsg); !ok || m.screen == ScreenPreview {
		m.preview, previewCmd = m.preview.Update(msg)
	}

	var cmd tea.Cmd
	switch m.screen {
	case ScreenPatterns:
		m.patternList, cmd = m.patternList.Update(msg)
	case ScreenHistory:
		m.historyList, cmd = m.historyList.Update(msg)
	}
	return m, tea.Batch(previewCmd, cmd)
}

func (m AppModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	switch m.screen {
	case ScreenPatterns:
		return m.patternList.View()
	case ScreenHistory:
		return m.historyList.View()
	}
	return m.preview.View()
}

func (m AppModel) currentPattern() string {
	return m.preview.Pattern()
}

func (m AppModel) loadHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.history.List(context.Background(), historyLimit)
		return historyLoadedMsg{entries: entries, err: err}
	}
}
