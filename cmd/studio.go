package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Trailblaze-work/loopcast/internal/export"
	"github.com/Trailblaze-work/loopcast/internal/logging"
	"github.com/Trailblaze-work/loopcast/internal/ui"
	"github.com/Trailblaze-work/loopcast/internal/ui/preview"
)

var (
	studioParams string
	studioOutDir string
	studioSize   int
)

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Preview patterns and export them interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := loadParams(studioParams, "")
		if err != nil {
			return err
		}

		// The TUI owns the terminal, so logs go to a file in the data dir.
		logFile, err := openStudioLog()
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger = logging.New(cfg.LogLevel, cfg.LogFormat, logFile)

		canvas, stopCanvas, err := startCanvas(cmd.Context(), studioSize, studioSize, params)
		if err != nil {
			return err
		}
		defer stopCanvas()

		var hist ui.HistorySource
		store, err := openHistory()
		if err != nil {
			logger.Warn("export history unavailable", "error", err)
		} else {
			defer store.Close()
			hist = store
		}

		req := export.DefaultRequest()
		req.Width = export.ClampSize(studioSize)
		req.Height = req.Width

		app := ui.NewApp(preview.Config{
			Canvas:    canvas,
			Exporter:  newExporter(canvas),
			OutputDir: studioOutDir,
			Request:   req,
			Logger:    logging.WithComponent(logger, "studio"),
		}, hist)

		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	},
}

func init() {
	studioCmd.Flags().StringVar(&studioParams, "params", "", "params JSON file")
	studioCmd.Flags().StringVarP(&studioOutDir, "out-dir", "o", ".", "directory exports are written to")
	studioCmd.Flags().IntVar(&studioSize, "size", export.DefaultRequest().Width, "canvas and export size in pixels")

	rootCmd.AddCommand(studioCmd)
}

func openStudioLog() (*os.File, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(cfg.DataDir, "studio.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}
