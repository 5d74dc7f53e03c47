// Package executor drives a processing graph from an acquisition stream:
// one goroutine subscribes to the input Frame stream and calls
// graph.Execute synchronously per frame rather than fanning work out
// across goroutines. Nodes within a graph are never parallelized.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sctg-development/photoacoustic-core/pkg/broadcast"
	"github.com/sctg-development/photoacoustic-core/pkg/frame"
	"github.com/sctg-development/photoacoustic-core/pkg/graph"
	"github.com/sctg-development/photoacoustic-core/pkg/processing"
)

// Executor pulls frames from an input SharedStream and drives a Graph
// with them one at a time.
type Executor struct {
	stream *broadcast.SharedStream[frame.Frame]
	g      *graph.Graph

	framesExecuted atomic.Uint64
	framesFailed   atomic.Uint64

	stopOnce sync.Once
	stopChan chan struct{}
	started  atomic.Bool
}

// New builds an Executor over the given input stream and graph. The
// graph must already have passed Validate.
func New(stream *broadcast.SharedStream[frame.Frame], g *graph.Graph) *Executor {
	return &Executor{stream: stream, g: g, stopChan: make(chan struct{})}
}

// Run subscribes to the input stream and drives the graph until ctx is
// canceled, Stop is called, or the stream closes. Node processing errors
// are logged and do not stop the loop; the frame that triggered them is
// simply dropped. On return, every node's Reset is called so record
// nodes flush their tail segment to disk.
func (e *Executor) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return errors.New("executor: already running")
	}
	defer e.g.Reset()

	// Stop() and ctx cancellation both need to unblock a pending
	// NextFrame call, so fold the stop signal into a derived context.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-e.stopChan:
			cancel()
		case <-runCtx.Done():
		}
	}()

	sub := e.stream.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-e.stopChan:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		f, err := sub.NextFrame(runCtx)
		if err != nil {
			var lagged *broadcast.LaggedError
			if errors.As(err, &lagged) {
				slog.Warn("executor: subscriber lagged behind acquisition", "skipped", lagged.N)
				continue
			}
			if errors.Is(err, broadcast.ErrClosed) {
				return nil
			}
			select {
			case <-e.stopChan:
				return nil
			default:
			}
			return err
		}

		if _, err := e.g.Execute(processing.AudioFrameData{Frame: f}); err != nil {
			slog.Warn("executor: graph execution failed, dropping frame", "frame_number", f.FrameNumber, "error", err)
			e.framesFailed.Add(1)
			continue
		}
		e.framesExecuted.Add(1)
	}
}

// Stop requests the loop to terminate after its current frame.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
}

// FramesExecuted returns the count of frames that completed graph
// execution without error.
func (e *Executor) FramesExecuted() uint64 { return e.framesExecuted.Load() }

// FramesFailed returns the count of frames dropped due to a node
// processing error.
func (e *Executor) FramesFailed() uint64 { return e.framesFailed.Load() }
