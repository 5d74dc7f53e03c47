// Package acquisition implements the frame-paced producer that drains an
// audio source and publishes onto a SharedStream at a target rate.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sctg-development/photoacoustic-core/pkg/apperr"
	"github.com/sctg-development/photoacoustic-core/pkg/broadcast"
	"github.com/sctg-development/photoacoustic-core/pkg/frame"
	"github.com/sctg-development/photoacoustic-core/pkg/source"
)

const transientBackoff = 100 * time.Millisecond

// Driver paces reads from a single audio source and publishes assembled
// Frames onto a SharedStream at a target frames-per-second rate. A Driver
// is single-producer of its stream and single-consumer of its source;
// Start must not be called concurrently with itself.
type Driver struct {
	src       source.Source
	stream    *broadcast.SharedStream[frame.Frame]
	targetFPS float64
	frameSize int

	frameNumber atomic.Uint64
	stopOnce    sync.Once
	stopChan    chan struct{}
	started     atomic.Bool
}

// New builds a Driver. targetFPS must be > 0.
func New(src source.Source, stream *broadcast.SharedStream[frame.Frame], targetFPS float64, frameSize int) (*Driver, error) {
	if targetFPS <= 0 {
		return nil, fmt.Errorf("acquisition: targetFPS must be > 0, got %v", targetFPS)
	}
	if frameSize <= 0 {
		return nil, fmt.Errorf("acquisition: frameSize must be > 0, got %d", frameSize)
	}
	return &Driver{
		src:       src,
		stream:    stream,
		targetFPS: targetFPS,
		frameSize: frameSize,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start runs the acquisition loop until the source reaches end of stream,
// Stop is called, ctx is canceled, or the source reports
// apperr.ErrAudioSourceUnavailable (returned wrapped). Any other source
// error is logged and retried after a fixed backoff. It returns nil on
// clean termination (end of stream or stop).
func (d *Driver) Start(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return fmt.Errorf("acquisition: driver already started")
	}

	period := time.Duration(float64(time.Second) / d.targetFPS)
	next := time.Now()

	for {
		select {
		case <-d.stopChan:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		a, b, err := d.src.ReadFrame(d.frameSize)
		if err != nil {
			if errors.Is(err, source.ErrEndOfStream) {
				slog.Info("acquisition: source reached end of stream")
				return nil
			}
			if errors.Is(err, apperr.ErrAudioSourceUnavailable) {
				return fmt.Errorf("acquisition: %w", err)
			}
			slog.Warn("acquisition: transient read error, retrying", "error", err)
			if !d.sleepOrStop(ctx, transientBackoff) {
				return nil
			}
			continue
		}

		fn := d.frameNumber.Add(1)
		f, err := frame.New(a, b, d.src.SampleRate(), fn, time.Now().UnixMilli())
		if err != nil {
			slog.Warn("acquisition: dropping malformed frame", "error", err)
			continue
		}
		d.stream.Publish(f)

		next = next.Add(period)
		sleep := time.Until(next)
		if sleep <= 0 {
			if -sleep > period {
				next = time.Now()
			}
			continue
		}
		if !d.sleepOrStop(ctx, sleep) {
			return nil
		}
	}
}

// sleepOrStop waits for d, the stop signal, or ctx cancellation, whichever
// comes first. It returns false if the caller should terminate the loop.
func (d *Driver) sleepOrStop(ctx context.Context, dur time.Duration) bool {
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-d.stopChan:
		return false
	case <-ctx.Done():
		return false
	}
}

// Stop requests the loop to terminate; it takes effect within one period.
// Safe to call multiple times and from any goroutine.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
}

// FrameNumber returns the most recently assigned monotonic frame counter.
func (d *Driver) FrameNumber() uint64 {
	return d.frameNumber.Load()
}
