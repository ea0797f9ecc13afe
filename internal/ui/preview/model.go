package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Trailblaze-work/loopcast/internal/export"
	"github.com/Trailblaze-work/loopcast/internal/history"
	"github.com/Trailblaze-work/loopcast/internal/renderer"
	"github.com/Trailblaze-work/loopcast/internal/ui/components"
	"github.com/Trailblaze-work/loopcast/internal/ui/theme"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Canvas is the live canvas the preview shows and exports from.
type Canvas interface {
	Snapshot() (*image.RGBA, error)
	Params() renderer.Params
	SetParams(p renderer.Params) error
	SetHidden(hidden bool)
	Hidden() bool
	CurrentTime() float64
}

// Exporter runs exports against the canvas.
type Exporter interface {
	Export(ctx context.Context, req export.Request, onProgress export.ProgressFunc) (*export.Result, error)
	State() export.State
}

// History records finished exports.
type History interface {
	Record(ctx context.Context, e *history.Entry) error
}

// Config wires a preview to its collaborators. History may be nil.
type Config struct {
	Canvas    Canvas
	Exporter  Exporter
	History   History
	OutputDir string
	Request   export.Request
	Refresh   time.Duration
	Logger    *slog.Logger
}

// OpenPatterns asks the app to show the pattern picker.
type OpenPatterns struct{}

// OpenHistory asks the app to show recent exports.
type OpenHistory struct{}

// ParamsChanged is sent after the preview changes the canvas params.
type ParamsChanged struct{}

type frameTick struct{}

type exportProgressMsg float64

type exportDoneMsg struct {
	entry *history.Entry
	err   error
}

// Model is the studio preview screen.
type Model struct {
	cfg      Config
	req      export.Request
	width    int
	height   int
	viewport viewport.Model
	bar      progress.Model

	thumb  string
	clockT float64

	exporting bool
	cancel    context.CancelFunc
	updates   chan tea.Msg
	state     export.State
	percent   float64
	started   time.Time
	elapsed   time.Duration
	message   string
	failed    bool

	showParams bool
	showHelp   bool
}

// New creates a preview model.
func New(cfg Config, width, height int) Model {
	if cfg.Refresh <= 0 {
		cfg.Refresh = 100 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Request.Kind == "" {
		cfg.Request = export.DefaultRequest()
	}
	m := Model{
		cfg:    cfg,
		req:    cfg.Request,
		width:  width,
		height: height,
		bar:    progress.New(progress.WithDefaultGradient()),
	}
	m.layout()
	m.refresh()
	return m
}

func (m *Model) thumbSize() (cols, rows int) {
	cols = min(max(m.width/2-2, 8), 64)
	rows = cols / 2
	if limit := m.height - 9; limit > 0 && rows > limit {
		rows = limit
		cols = rows * 2
	}
	return cols, max(rows, 1)
}

func (m *Model) layout() {
	cols, rows := m.thumbSize()
	m.viewport = viewport.New(max(m.width-cols-4, 20), rows)
	m.viewport.KeyMap.Up.SetKeys("up", "k")
	m.viewport.KeyMap.Down.SetKeys("down", "j")
	m.bar.Width = max(m.width-24, 10)
	m.updatePanel()
}

func (m *Model) updatePanel() {
	m.viewport.SetContent(RenderPanel(m.cfg.Canvas.Params(), m.showParams, m.viewport.Width))
}

func (m *Model) refresh() {
	cols, rows := m.thumbSize()
	img, err := m.cfg.Canvas.Snapshot()
	if err != nil {
		if !errors.Is(err, renderer.ErrNoFrame) {
			m.cfg.Logger.Debug("snapshot failed", "error", err)
		}
		m.thumb = RenderThumbnail(nil, cols, rows)
		return
	}
	m.thumb = RenderThumbnail(img, cols, rows)
	m.clockT = m.cfg.Canvas.CurrentTime()
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.Refresh, func(time.Time) tea.Msg {
		return frameTick{}
	})
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameTick:
		m.refresh()
		if m.exporting {
			m.state = m.cfg.Exporter.State()
			m.elapsed = time.Since(m.started)
		}
		return m, m.tick()

	case exportProgressMsg:
		m.percent = float64(msg)
		return m, waitForUpdate(m.updates)

	case exportDoneMsg:
		m.finishExport(msg)
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		switch {
		case key.Matches(msg, theme.DefaultKeyMap.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case key.Matches(msg, theme.DefaultKeyMap.Back):
			if m.exporting && m.cancel != nil {
				m.cancel()
				m.message = "cancelling…"
			}
			return m, nil

		case key.Matches(msg, theme.DefaultKeyMap.ExportGIF):
			return m.startExport(export.KindGIF)
		case key.Matches(msg, theme.DefaultKeyMap.ExportVideo):
			return m.startExport(export.KindVideo)
		case key.Matches(msg, theme.DefaultKeyMap.ExportStill):
			return m.startExport(export.KindStill)

		case key.Matches(msg, theme.DefaultKeyMap.ToggleLoop):
			if m.req.Loop == export.LoopPingPong {
				m.req.Loop = export.LoopNormal
			} else {
				m.req.Loop = export.LoopPingPong
			}
			return m, nil
		case key.Matches(msg, theme.DefaultKeyMap.ToggleHide):
			m.cfg.Canvas.SetHidden(!m.cfg.Canvas.Hidden())
			return m, nil
		case key.Matches(msg, theme.DefaultKeyMap.TogglePanel):
			m.showParams = !m.showParams
			m.updatePanel()
			m.viewport.GotoTop()
			return m, nil

		case key.Matches(msg, theme.DefaultKeyMap.SpeedUp):
			return m, m.adjustSpeed(0.25)
		case key.Matches(msg, theme.DefaultKeyMap.SpeedDown):
			return m, m.adjustSpeed(-0.25)

		case key.Matches(msg, theme.DefaultKeyMap.Patterns):
			if !m.exporting {
				return m, func() tea.Msg { return OpenPatterns{} }
			}
			return m, nil
		case key.Matches(msg, theme.DefaultKeyMap.History):
			if !m.exporting {
				return m, func() tea.Msg { return OpenHistory{} }
			}
			return m, nil

		case key.Matches(msg, theme.DefaultKeyMap.Help):
			m.showHelp = true
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetPattern switches the canvas pattern and refreshes the panel.
func (m *Model) SetPattern(name string) error {
	p := m.cfg.Canvas.Params()
	p.Pattern = name
	if err := m.cfg.Canvas.SetParams(p); err != nil {
		return err
	}
	m.updatePanel()
	m.viewport.GotoTop()
	return nil
}

func (m *Model) adjustSpeed(delta float64) tea.Cmd {
	p := m.cfg.Canvas.Params()
	p.Speed = min(max(p.Speed+delta, -4), 4)
	if err := m.cfg.Canvas.SetParams(p); err != nil {
		m.message, m.failed = err.Error(), true
		return nil
	}
	m.updatePanel()
	return func() tea.Msg { return ParamsChanged{} }
}

func (m Model) startExport(kind export.Kind) (Model, tea.Cmd) {
	if m.exporting {
		return m, nil
	}
	req := m.req
	req.Kind = kind

	ctx, cancel := context.WithCancel(context.Background())
	m.exporting = true
	m.cancel = cancel
	m.updates = make(chan tea.Msg, 32)
	m.state = export.StateCapturing
	m.percent = 0
	m.started = time.Now()
	m.elapsed = 0
	m.message, m.failed = "", false

	return m, tea.Batch(runExport(ctx, cancel, m.cfg, req, m.updates), waitForUpdate(m.updates))
}

func runExport(ctx context.Context, cancel context.CancelFunc, cfg Config, req export.Request, updates chan<- tea.Msg) tea.Cmd {
	pattern := cfg.Canvas.Params().Pattern
	return func() tea.Msg {
		defer cancel()
		entry := history.Start(req, pattern)
		res, err := cfg.Exporter.Export(ctx, req, func(v float64) {
			select {
			case updates <- exportProgressMsg(v):
			default:
			}
		})
		if err == nil {
			out := filepath.Join(cfg.OutputDir, fmt.Sprintf("loopcast-%s.%s", entry.ID[:8], export.ExtensionFor(res.MIMEType)))
			if err = os.WriteFile(out, res.Data, 0o644); err != nil {
				err = fmt.Errorf("writing %s: %w", out, err)
			} else {
				entry.Output = out
			}
		}
		entry.Finish(res, err)

		if cfg.History != nil && !errors.Is(err, export.ErrBusy) && !errors.Is(err, export.ErrInvalidRequest) {
			if herr := cfg.History.Record(context.Background(), entry); herr != nil {
				cfg.Logger.Warn("recording export failed", "export_id", entry.ID, "error", herr)
			}
		}
		updates <- exportDoneMsg{entry: entry, err: err}
		return nil
	}
}

func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m *Model) finishExport(msg exportDoneMsg) {
	m.exporting = false
	m.cancel = nil
	m.updates = nil
	m.elapsed = time.Since(m.started)

	switch {
	case msg.err == nil:
		m.state = export.StateDone
		m.percent = 1
		m.message, m.failed = fmt.Sprintf("saved %s (%d frames)", msg.entry.Output, msg.entry.Frames), false
	case errors.Is(msg.err, context.Canceled):
		m.state = export.StateFailed
		m.message, m.failed = "export cancelled", true
	default:
		m.state = export.StateFailed
		m.message, m.failed = msg.err.Error(), true
	}
}

func (m Model) View() string {
	if m.showHelp {
		return m.helpView()
	}

	p := m.cfg.Canvas.Params()
	title := p.Pattern
	if pattern, ok := renderer.Lookup(p.Pattern); ok {
		title = pattern.Title
	}

	header := components.RenderHeader(title, summarize(p), m.cfg.Canvas.Hidden(), m.width)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.StyleBorder.Render(m.thumb),
		" ",
		m.viewport.View(),
	)

	var line string
	switch {
	case m.exporting:
		line = " " + m.bar.ViewAs(m.percent)
		if m.message != "" {
			line += "  " + theme.StyleHelp.Render(m.message)
		}
	case m.message != "" && m.failed:
		line = theme.StyleExportError.Render(m.message)
	case m.message != "":
		line = theme.StyleExportOK.Render(m.message)
	default:
		line = theme.StyleHelp.Render(" g gif · v video · s still · l loop · p patterns · ? help")
	}

	timeline := components.RenderTimeline(m.clockT, m.req.Duration, m.width)
	status := components.RenderStatusBar(m.state, m.req, m.elapsed, m.width)

	return header + "\n" + body + "\n" + line + "\n" + timeline + "\n" + status
}

func (m Model) helpView() string {
	help := `
  Export
  ──────
  g          Export GIF
  v          Export video
  s          Export still image
  l          Toggle normal/ping-pong loop
  Esc        Cancel the running export

  Canvas
  ──────
  p          Pick a pattern
  +/-        Adjust speed
  h          Hide/show (throttles the canvas)
  Tab        Toggle notes/params
  ↑/k/↓/j   Scroll the panel

  General
  ───────
  r          Recent exports
  ?          Toggle help
  q          Quit

  Press any key to close help
`
	return theme.StyleBorder.Width(max(m.width-4, 20)).Render(help)
}

// Pattern is the name of the pattern currently on the canvas.
func (m Model) Pattern() string {
	return m.cfg.Canvas.Params().Pattern
}
