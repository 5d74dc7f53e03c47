package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sctg-development/photoacoustic-core/internal/config"
)

var (
	serveConfigPath string
	serveVerbose    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the acquisition, processing graph, and broadcast pipeline",
	Long: `Load a config file, build the acquisition driver and processing graph it
describes, and run them until interrupted.

Examples:
  photoacoustic-core serve --config config.yaml
  photoacoustic-core serve -c config.yaml -v`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "config.yaml", "Path to the YAML config file")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runServe(cmd *cobra.Command, args []string) {
	setupLogging(serveVerbose)

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		slog.Error("Failed to load config", "path", serveConfigPath, "error", err)
		os.Exit(1)
	}

	p, err := buildPipeline(cfg, nil)
	if err != nil {
		slog.Error("Failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driverDone := make(chan error, 1)
	go func() { driverDone <- p.driver.Start(ctx) }()

	execDone := make(chan error, 1)
	go func() { execDone <- p.exec.Run(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	statusDone := make(chan struct{})
	go reportStatus(p, statusDone)

	slog.Info("pipeline started",
		"ring_capacity", cfg.Streaming.RingCapacity,
		"target_fps", cfg.Streaming.TargetFPS,
		"sample_rate", cfg.SampleRate)

	select {
	case sig := <-sigChan:
		slog.Info("signal received, stopping pipeline", "signal", sig)
	case err := <-driverDone:
		if err != nil {
			slog.Error("acquisition driver exited with error", "error", err)
		}
	}

	cancel()
	p.stop()
	close(statusDone)
	<-execDone

	slog.Info("exiting")
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func reportStatus(p *pipeline, done chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			stats := p.stream.Stats()
			slog.Info("pipeline status",
				"total_frames", stats.TotalFrames,
				"dropped_frames", stats.DroppedFrames,
				"active_subscribers", stats.ActiveSubscribers,
				"fps", stats.FPS,
				"frames_executed", p.exec.FramesExecuted(),
				"frames_failed", p.exec.FramesFailed())
		case <-done:
			return
		}
	}
}
