package cmd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sctg-development/photoacoustic-core/internal/config"
	"github.com/sctg-development/photoacoustic-core/pkg/source"
)

var (
	benchConfigPath string
	benchDuration   time.Duration
	benchCorrelation float64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the processing graph against a mock source and report throughput",
	Long: `Load a config file's graph definition, drive it with a synthetic mock
source for a fixed duration, and report the frames-per-second actually
achieved end to end.

Examples:
  photoacoustic-core bench --config config.yaml --duration 10s`,
	Args: cobra.NoArgs,
	Run:  runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVarP(&benchConfigPath, "config", "c", "config.yaml", "Path to the YAML config file")
	benchCmd.Flags().DurationVarP(&benchDuration, "duration", "d", 10*time.Second, "How long to run the benchmark")
	benchCmd.Flags().Float64Var(&benchCorrelation, "correlation", 0.8, "Mock source channel correlation [0,1]")
}

func runBench(cmd *cobra.Command, args []string) {
	setupLogging(false)

	cfg, err := config.Load(benchConfigPath)
	if err != nil {
		slog.Error("Failed to load config", "path", benchConfigPath, "error", err)
		os.Exit(1)
	}

	mock := source.MockConfig{
		SampleRate:  uint32(cfg.SampleRate),
		FrequencyHz: cfg.ExcitationFrequencyHz,
		Correlation: benchCorrelation,
	}

	p, err := buildPipeline(cfg, &mock)
	if err != nil {
		slog.Error("Failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), benchDuration)
	defer cancel()

	driverDone := make(chan error, 1)
	go func() { driverDone <- p.driver.Start(ctx) }()

	execDone := make(chan error, 1)
	go func() { execDone <- p.exec.Run(ctx) }()

	start := time.Now()
	<-ctx.Done()
	elapsed := time.Since(start)

	p.stop()
	<-driverDone
	<-execDone

	executed := p.exec.FramesExecuted()
	fps := float64(executed) / elapsed.Seconds()

	slog.Info("benchmark complete",
		"duration", elapsed,
		"frames_executed", executed,
		"frames_failed", p.exec.FramesFailed(),
		"achieved_fps", fps,
		"target_fps", cfg.Streaming.TargetFPS)
}
