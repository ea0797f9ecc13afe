package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Trailblaze-work/loopcast/internal/api"
	"github.com/Trailblaze-work/loopcast/internal/logging"
)

// Version is reported by the health endpoint.
var Version = "dev"

var (
	serveAddr   string
	serveSize   int
	serveParams string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live canvas and exports over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Addr = serveAddr
		}
		params, err := loadParams(serveParams, "")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		canvas, stopCanvas, err := startCanvas(ctx, serveSize, serveSize, params)
		if err != nil {
			return err
		}
		defer stopCanvas()

		store, err := openHistory()
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()

		srv := api.NewServer(api.ServerConfig{
			Addr:      cfg.Addr,
			Exporter:  newExporter(canvas),
			Canvas:    canvas,
			History:   store,
			Logger:    logging.WithComponent(logger, "api"),
			StartTime: time.Now(),
			Version:   Version,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from LOOPCAST_ADDR)")
	serveCmd.Flags().IntVar(&serveSize, "size", 512, "canvas size in pixels")
	serveCmd.Flags().StringVar(&serveParams, "params", "", "params JSON file")

	rootCmd.AddCommand(serveCmd)
}
