package cmd

import (
	"fmt"

	"github.com/sctg-development/photoacoustic-core/internal/config"
	"github.com/sctg-development/photoacoustic-core/pkg/acquisition"
	"github.com/sctg-development/photoacoustic-core/pkg/broadcast"
	"github.com/sctg-development/photoacoustic-core/pkg/computing"
	"github.com/sctg-development/photoacoustic-core/pkg/executor"
	"github.com/sctg-development/photoacoustic-core/pkg/frame"
	"github.com/sctg-development/photoacoustic-core/pkg/graph"
	"github.com/sctg-development/photoacoustic-core/pkg/processing"
	"github.com/sctg-development/photoacoustic-core/pkg/source"
)

// pipeline bundles everything serve and bench both need to run the
// acquisition -> graph -> computing chain: source, input stream,
// processing graph, its stream registry and computing store, and the
// executor that drives them.
type pipeline struct {
	src      source.Source
	stream   *broadcast.SharedStream[frame.Frame]
	driver   *acquisition.Driver
	g        *graph.Graph
	streams  *graph.StreamRegistry
	store    *computing.Store
	exec     *executor.Executor
}

// buildPipeline wires every component declared by cfg. mockOverride, when
// non-nil, forces a MockSource regardless of cfg.Source (used by bench).
func buildPipeline(cfg *config.Config, mockOverride *source.MockConfig) (*pipeline, error) {
	src, err := buildSource(cfg, mockOverride)
	if err != nil {
		return nil, err
	}

	stream := broadcast.New[frame.Frame](cfg.Streaming.RingCapacity)
	driver, err := acquisition.New(src, stream, cfg.Streaming.TargetFPS, cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("building acquisition driver: %w", err)
	}

	store := computing.New(cfg.Averages * 10)
	streams := graph.NewStreamRegistry(cfg.Streaming.RingCapacity)
	deps := processing.Dependencies{Streams: streams, Store: store}

	g, err := graph.Build(cfg.Graph, deps)
	if err != nil {
		return nil, fmt.Errorf("building processing graph: %w", err)
	}

	exec := executor.New(stream, g)

	return &pipeline{
		src:     src,
		stream:  stream,
		driver:  driver,
		g:       g,
		streams: streams,
		store:   store,
		exec:    exec,
	}, nil
}

func buildSource(cfg *config.Config, mockOverride *source.MockConfig) (source.Source, error) {
	if mockOverride != nil {
		return source.NewMockSource(*mockOverride), nil
	}
	if cfg.Source.Mock {
		return source.NewMockSource(source.MockConfig{
			SampleRate:  uint32(cfg.SampleRate),
			FrequencyHz: cfg.ExcitationFrequencyHz,
			Correlation: cfg.Source.Correlation,
		}), nil
	}
	if cfg.Source.FilePath != "" {
		return source.NewFileSource(cfg.Source.FilePath)
	}
	return source.NewMicSource(source.MicConfig{
		SampleRate:       uint32(cfg.SampleRate),
		TargetSampleRate: uint32(cfg.SampleRate),
		FramesPerBuffer:  cfg.WindowSize,
		Channels:         2,
	})
}

// stop tears down the pipeline: signals the acquisition driver and the
// executor to stop (without waiting for either to return), then closes
// every secondary stream, the input stream, and the source.
func (p *pipeline) stop() {
	p.driver.Stop()
	p.exec.Stop()
	p.streams.Close()
	p.stream.Close()
	_ = p.src.Close()
}
