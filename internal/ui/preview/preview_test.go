package preview

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Trailblaze-work/loopcast/internal/export"
	"github.com/Trailblaze-work/loopcast/internal/history"
	"github.com/Trailblaze-work/loopcast/internal/renderer"
	"github.com/Trailblaze-work/loopcast/internal/ui/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type stubCanvas struct {
	params renderer.Params
	hidden bool
	img    *image.RGBA
}

func newStubCanvas() *stubCanvas {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := range 32 {
		for x := range 32 {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), B: 200, A: 255})
		}
	}
	return &stubCanvas{params: renderer.DefaultParams(), img: img}
}

func (c *stubCanvas) Snapshot() (*image.RGBA, error) { return c.img, nil }
func (c *stubCanvas) Params() renderer.Params        { return c.params }
func (c *stubCanvas) SetParams(p renderer.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.params = p
	return nil
}
func (c *stubCanvas) SetHidden(h bool)     { c.hidden = h }
func (c *stubCanvas) Hidden() bool         { return c.hidden }
func (c *stubCanvas) CurrentTime() float64 { return 1.25 }

type stubExporter struct {
	block bool
	reqs  []export.Request
}

func (e *stubExporter) Export(ctx context.Context, req export.Request, onProgress export.ProgressFunc) (*export.Result, error) {
	e.reqs = append(e.reqs, req)
	if e.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	onProgress(0.5)
	onProgress(1)
	return &export.Result{Data: []byte("GIF89a"), MIMEType: "image/gif", Frames: 3}, nil
}

func (e *stubExporter) State() export.State { return export.StateCapturing }

type stubHistory struct {
	mu      sync.Mutex
	entries []*history.Entry
}

func (h *stubHistory) Record(_ context.Context, e *history.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, exp *stubExporter) (Model, *stubCanvas, *stubHistory) {
	t.Helper()
	canvas := newStubCanvas()
	hist := &stubHistory{}
	m := New(Config{
		Canvas:    canvas,
		Exporter:  exp,
		History:   hist,
		OutputDir: t.TempDir(),
	}, 100, 40)
	return m, canvas, hist
}

// drain feeds queued export updates back into m until the export finishes.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for m.exporting {
		select {
		case msg := <-m.updates:
			m, _ = m.Update(msg)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for the export to finish")
		}
	}
	return m
}

func TestModel_ExportWritesFileAndRecords(t *testing.T) {
	exp := &stubExporter{}
	m, _, hist := newTestModel(t, exp)

	m, cmd := m.Update(runes("g"))
	if !m.exporting {
		t.Fatal("expected an export to be running")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("expected a batch of run and listen commands, got %T", cmd())
	}
	if msg := batch[0](); msg != nil {
		t.Errorf("run command should deliver through the update channel, got %T", msg)
	}
	m = drain(t, m)

	if m.state != export.StateDone || m.failed {
		t.Errorf("state: got %s (failed=%v), want done", m.state, m.failed)
	}
	if m.percent != 1 {
		t.Errorf("percent: got %v, want 1", m.percent)
	}
	if len(exp.reqs) != 1 || exp.reqs[0].Kind != export.KindGIF {
		t.Fatalf("expected one gif request, got %+v", exp.reqs)
	}

	if len(hist.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(hist.entries))
	}
	entry := hist.entries[0]
	if entry.Status != history.StatusDone || entry.Frames != 3 {
		t.Errorf("entry: got status %q frames %d", entry.Status, entry.Frames)
	}
	if filepath.Ext(entry.Output) != ".gif" {
		t.Errorf("output %q should have a .gif extension", entry.Output)
	}
	data, err := os.ReadFile(entry.Output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "GIF89a" {
		t.Errorf("output contents: got %q", data)
	}
	if !strings.Contains(m.View(), "saved") {
		t.Error("view should report the saved file")
	}
}

func TestModel_SecondExportIgnoredWhileRunning(t *testing.T) {
	exp := &stubExporter{block: true}
	m, _, _ := newTestModel(t, exp)

	m, cmd := m.Update(runes("v"))
	if cmd == nil {
		t.Fatal("expected the first export to start")
	}
	batch := cmd().(tea.BatchMsg)
	go batch[0]()

	if _, cmd := m.Update(runes("g")); cmd != nil {
		t.Error("a second export should not start while one is running")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = drain(t, m)
	if !m.failed || m.message != "export cancelled" {
		t.Errorf("expected a cancelled export, got %q (failed=%v)", m.message, m.failed)
	}
	if m.state != export.StateFailed {
		t.Errorf("state: got %s, want failed", m.state)
	}
}

func TestModel_CancelledExportRecordedAsFailed(t *testing.T) {
	exp := &stubExporter{block: true}
	m, _, hist := newTestModel(t, exp)

	m, cmd := m.Update(runes("s"))
	batch := cmd().(tea.BatchMsg)
	go batch[0]()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(t, m)

	hist.mu.Lock()
	defer hist.mu.Unlock()
	if len(hist.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(hist.entries))
	}
	if got := hist.entries[0]; got.Status != history.StatusFailed || got.Kind != string(export.KindStill) {
		t.Errorf("entry: got %s %s, want failed image", got.Status, got.Kind)
	}
}

func TestModel_Keys(t *testing.T) {
	m, canvas, _ := newTestModel(t, &stubExporter{})

	m, _ = m.Update(runes("l"))
	if m.req.Loop != export.LoopPingPong {
		t.Errorf("loop: got %s, want pingpong", m.req.Loop)
	}
	m, _ = m.Update(runes("l"))
	if m.req.Loop != export.LoopNormal {
		t.Errorf("loop: got %s, want normal", m.req.Loop)
	}

	m, _ = m.Update(runes("h"))
	if !canvas.hidden {
		t.Error("h should hide the canvas")
	}

	m, cmd := m.Update(runes("+"))
	if canvas.params.Speed != 1.25 {
		t.Errorf("speed: got %v, want 1.25", canvas.params.Speed)
	}
	if cmd == nil {
		t.Fatal("expected ParamsChanged")
	}
	if _, ok := cmd().(ParamsChanged); !ok {
		t.Errorf("expected ParamsChanged, got %T", cmd())
	}

	_, cmd = m.Update(runes("p"))
	if cmd == nil {
		t.Fatal("expected OpenPatterns")
	}
	if _, ok := cmd().(OpenPatterns); !ok {
		t.Errorf("expected OpenPatterns, got %T", cmd())
	}
}

func TestModel_SetPattern(t *testing.T) {
	m, canvas, _ := newTestModel(t, &stubExporter{})
	if err := m.SetPattern("spiral"); err != nil {
		t.Fatalf("SetPattern error: %v", err)
	}
	if canvas.params.Pattern != "spiral" {
		t.Errorf("pattern: got %q, want spiral", canvas.params.Pattern)
	}
	if err := m.SetPattern("nope"); err == nil {
		t.Error("expected an error for an unknown pattern")
	}
	if !strings.Contains(m.View(), "Spiral") {
		t.Error("view should show the pattern title")
	}
}

func TestRenderThumbnail(t *testing.T) {
	img := newStubCanvas().img
	got := RenderThumbnail(img, 12, 5)
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(lines))
	}
	for i, line := range lines {
		if n := strings.Count(line, "▀"); n != 12 {
			t.Errorf("row %d: got %d cells, want 12", i, n)
		}
	}

	if got := RenderThumbnail(nil, 4, 2); strings.Contains(got, "▀") {
		t.Error("missing image should render a placeholder")
	}
}

func TestRenderPanel(t *testing.T) {
	p := renderer.DefaultParams()

	notes := RenderPanel(p, false, 80)
	if !strings.Contains(notes, "Aurora") {
		t.Errorf("notes panel should show the pattern title: %q", notes)
	}

	params := RenderPanel(p, true, 80)
	for _, want := range []string{"Params", "speed", "#22d3ee"} {
		if !strings.Contains(params, want) {
			t.Errorf("params panel missing %q", want)
		}
	}

	p.Pattern = "missing"
	if got := RenderPanel(p, false, 80); !strings.Contains(got, "unknown pattern") {
		t.Errorf("expected an unknown pattern message, got %q", got)
	}
}

func TestHighlightJSON_KeepsText(t *testing.T) {
	got := highlightJSON(map[string]any{"zoom": 1.5})
	if !strings.Contains(got, "zoom") || !strings.Contains(got, "1.5") {
		t.Errorf("highlighted JSON lost its text: %q", got)
	}
}

func TestRenderNotes(t *testing.T) {
	if got := RenderNotes("", 40); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}

	notes := "**Aurora** drifts slow bands of color across the canvas. " +
		"Raise the speed for a livelier loop or the density for thinner bands."
	for _, width := range []int{30, 48, 72} {
		got := RenderNotes(notes, width)
		if !strings.Contains(got, "Aurora") || !strings.Contains(got, "bands") {
			t.Errorf("width %d: rendered notes lost their text: %q", width, got)
		}
		for _, line := range strings.Split(got, "\n") {
			if w := lipgloss.Width(line); w > width {
				t.Errorf("width %d: line is %d columns: %q", width, w, line)
			}
		}
	}
}

func TestNotesRenderer_CachedPerWidth(t *testing.T) {
	if notesRenderer(50) != notesRenderer(50) {
		t.Error("same width built a second renderer")
	}
	if notesRenderer(50) == notesRenderer(60) {
		t.Error("different widths share a renderer")
	}
	if notesRenderer(5) != notesRenderer(minNotesWidth) {
		t.Error("narrow widths should clamp to the minimum")
	}
}

func TestNotesStyle_UsesPalette(t *testing.T) {
	for _, dark := range []bool{true, false} {
		cfg := notesStyle(dark)
		if cfg.H1.Color == nil || *cfg.H1.Color != string(theme.ColorPrimary) {
			t.Errorf("dark=%v: h1 color %v, want %s", dark, cfg.H1.Color, theme.ColorPrimary)
		}
		if cfg.Link.Color == nil || *cfg.Link.Color != string(theme.ColorAccent) {
			t.Errorf("dark=%v: link color %v, want %s", dark, cfg.Link.Color, theme.ColorAccent)
		}
		if cfg.Document.Margin == nil || *cfg.Document.Margin != notesMargin {
			t.Errorf("dark=%v: document margin %v, want %d", dark, cfg.Document.Margin, notesMargin)
		}
	}
}
