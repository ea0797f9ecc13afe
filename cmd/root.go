package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Trailblaze-work/loopcast/internal/config"
	"github.com/Trailblaze-work/loopcast/internal/logging"
)

var (
	envFile   string
	logLevel  string
	logFormat string
	dataDir   string
	ffmpeg    string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "loopcast",
	Short: "Capture procedural animations as seamless loops",
	Long: "loopcast drives a procedural animation canvas and exports it as a looping GIF, " +
		"a real-time video recording, or a still image. Frame timing is deterministic: " +
		"every GIF frame is rendered at an exact point on the animation clock.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyFlagOverrides(cmd)
		logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		return nil
	},
}

// Execute runs the root command. Ctrl-C cancels the running command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the export history database")
	rootCmd.PersistentFlags().StringVar(&ffmpeg, "ffmpeg", "", `ffmpeg binary for WebM recording, or "off" for Motion-JPEG`)

	// Default command is studio
	rootCmd.RunE = studioCmd.RunE
}

// applyFlagOverrides lets explicitly set flags win over the environment.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("ffmpeg") {
		cfg.FFmpeg = ffmpeg
	}
}
