package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Trailblaze-work/loopcast/internal/export"
	"github.com/Trailblaze-work/loopcast/internal/history"
	"github.com/Trailblaze-work/loopcast/internal/logging"
)

var (
	exportFormat      string
	exportOutput      string
	exportWidth       int
	exportHeight      int
	exportDuration    float64
	exportFPS         int
	exportQuality     int
	exportLoop        string
	exportPattern     string
	exportParams      string
	exportImageFormat string
	exportJPEGQuality float64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the animation as a GIF, video, or still image",
	Long: "Render the animation headlessly and export it. GIF frames are captured at exact " +
		"points on the animation clock; video is recorded in real time; a still captures " +
		"the current frame.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := export.DefaultRequest()
		req.Kind = export.Kind(exportFormat)
		req.Width = export.ClampSize(exportWidth)
		req.Height = export.ClampSize(exportHeight)
		req.Duration = exportDuration
		req.FPS = exportFPS
		req.Quality = exportQuality
		req.Loop = export.LoopMode(exportLoop)
		req.ImageFormat = export.ImageFormat(exportImageFormat)
		req.JPEGQuality = exportJPEGQuality
		if err := req.Validate(); err != nil {
			return err
		}

		params, err := loadParams(exportParams, exportPattern)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		canvas, stopCanvas, err := startCanvas(ctx, req.Width, req.Height, params)
		if err != nil {
			return err
		}
		defer stopCanvas()

		store, err := openHistory()
		if err != nil {
			logger.Warn("export history unavailable", "error", err)
			store = nil
		} else {
			defer store.Close()
		}

		entry := history.Start(req, params.Pattern)
		elog := logging.WithExportID(logger, entry.ID)

		fmt.Printf("Exporting %s pattern\n", params.Pattern)
		fmt.Printf("  Format: %s\n", describeRequest(req))

		bar := newProgressPrinter(os.Stderr)
		res, err := newExporter(canvas).Export(ctx, req, bar.report)
		bar.finish()

		if err == nil {
			output := exportOutput
			if output == "" {
				output = fmt.Sprintf("loopcast-%s.%s", entry.ID[:8], export.ExtensionFor(res.MIMEType))
			}
			if werr := os.WriteFile(output, res.Data, 0o644); werr != nil {
				err = fmt.Errorf("writing %s: %w", output, werr)
			} else {
				entry.Output = output
			}
		}
		entry.Finish(res, err)

		if store != nil && recordable(err) {
			if rerr := store.Record(context.WithoutCancel(ctx), entry); rerr != nil {
				elog.Warn("recording export failed", "error", rerr)
			}
		}
		if err != nil {
			elog.Error("export failed", "error", err)
			return fmt.Errorf("exporting: %w", err)
		}

		fmt.Printf("  Output: %s\n", entry.Output)
		fmt.Printf("  Done: %d frames, %s in %s\n",
			res.Frames, humanize.Bytes(uint64(len(res.Data))), res.Elapsed.Round(time.Millisecond))
		return nil
	},
}

func init() {
	def := export.DefaultRequest()
	exportCmd.Flags().StringVar(&exportFormat, "format", string(def.Kind), "output format: gif, video, image")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file path (default loopcast-<id>.<ext>)")
	exportCmd.Flags().IntVar(&exportWidth, "width", def.Width, fmt.Sprintf("width in pixels, clamped to %d..%d", export.MinSize, export.MaxSize))
	exportCmd.Flags().IntVar(&exportHeight, "height", def.Height, fmt.Sprintf("height in pixels, clamped to %d..%d", export.MinSize, export.MaxSize))
	exportCmd.Flags().Float64Var(&exportDuration, "duration", def.Duration, "loop duration in seconds")
	exportCmd.Flags().IntVar(&exportFPS, "fps", def.FPS, "frames per second")
	exportCmd.Flags().IntVar(&exportQuality, "quality", def.Quality, "gif quantizer quality: 1 (best) to 20 (fastest)")
	exportCmd.Flags().StringVar(&exportLoop, "loop", string(def.Loop), "loop mode: normal, pingpong")
	exportCmd.Flags().StringVar(&exportPattern, "pattern", "", "pattern to draw (default from params)")
	exportCmd.Flags().StringVar(&exportParams, "params", "", "params JSON file")
	exportCmd.Flags().StringVar(&exportImageFormat, "image-format", string(def.ImageFormat), "still image format: png, jpg")
	exportCmd.Flags().Float64Var(&exportJPEGQuality, "jpeg-quality", def.JPEGQuality, "still JPEG quality: 0 to 1")

	rootCmd.AddCommand(exportCmd)
}

func describeRequest(req export.Request) string {
	if req.Kind == export.KindStill {
		return fmt.Sprintf("%s %s %dx%d", req.Kind, req.ImageFormat, req.Width, req.Height)
	}
	return fmt.Sprintf("%s %dx%d, %gs at %d fps, %s loop", req.Kind, req.Width, req.Height, req.Duration, req.FPS, req.Loop)
}

// progressPrinter redraws a single progress line in place.
type progressPrinter struct {
	w   io.Writer
	bar progress.Model
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{
		w:   w,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (p *progressPrinter) report(v float64) {
	fmt.Fprintf(p.w, "\r  %s", p.bar.ViewAs(v))
}

func (p *progressPrinter) finish() {
	fmt.Fprintln(p.w)
}
