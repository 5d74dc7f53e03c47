package acquisition

import (
	"context"
	"testing"
	"time"

	"github.com/sctg-development/photoacoustic-core/pkg/broadcast"
	"github.com/sctg-development/photoacoustic-core/pkg/frame"
	"github.com/sctg-development/photoacoustic-core/pkg/source"
)

func TestDriverPublishesRequestedFrameCount(t *testing.T) {
	src := source.NewMockSource(source.MockConfig{
		SampleRate:  48000,
		FrequencyHz: 1000,
		Correlation: 1,
		MaxFrames:   5,
	})
	stream := broadcast.New[frame.Frame](8)
	d, err := New(src, stream, 1000, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := d.FrameNumber(); got != 5 {
		t.Errorf("FrameNumber: got %d, want 5", got)
	}
	stats := stream.Stats()
	if stats.TotalFrames != 5 {
		t.Errorf("TotalFrames: got %d, want 5", stats.TotalFrames)
	}
}

func TestDriverStopTakesEffect(t *testing.T) {
	src := source.NewMockSource(source.MockConfig{SampleRate: 48000, FrequencyHz: 1000, Correlation: 1})
	stream := broadcast.New[frame.Frame](8)
	d, err := New(src, stream, 200, 32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- d.Start(context.Background())
	}()

	time.Sleep(30 * time.Millisecond)
	d.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned error after Stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop within timeout")
	}
}

func TestNewRejectsInvalidTargetFPS(t *testing.T) {
	src := source.NewMockSource(source.MockConfig{SampleRate: 48000})
	stream := broadcast.New[frame.Frame](4)
	if _, err := New(src, stream, 0, 32); err == nil {
		t.Fatal("expected error for targetFPS=0")
	}
	if _, err := New(src, stream, 100, 0); err == nil {
		t.Fatal("expected error for frameSize=0")
	}
}

func TestFramesCarrySequentialFrameNumbers(t *testing.T) {
	src := source.NewMockSource(source.MockConfig{SampleRate: 48000, FrequencyHz: 1000, Correlation: 1, MaxFrames: 3})
	stream := broadcast.New[frame.Frame](8)
	sub := stream.Subscribe()
	defer sub.Close()

	d, err := New(src, stream, 1000, 32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	for want := uint64(1); want <= 3; want++ {
		f, err := sub.NextFrame(ctx)
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		if f.FrameNumber != want {
			t.Errorf("FrameNumber: got %d, want %d", f.FrameNumber, want)
		}
	}

	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
}
