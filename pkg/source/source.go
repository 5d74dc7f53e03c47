// Package source provides the audio source abstraction consumed by the
// acquisition driver: file playback, live microphone capture, and a
// deterministic mock generator for tests.
package source

import "errors"

// ErrEndOfStream is returned by ReadFrame when a source is exhausted
// (file fully read, device closed) and has no more frames to produce.
// The acquisition driver treats this as a clean, successful termination.
var ErrEndOfStream = errors.New("source: end of stream")

// Source is the capability set every audio source implements.
type Source interface {
	// ReadFrame blocks until frameSize samples are available on both
	// channels, returning them in [-1, 1] normalized float32. Returns
	// ErrEndOfStream when the source is exhausted, or a transient error
	// the acquisition driver should retry after a short backoff.
	ReadFrame(frameSize int) (a, b []float32, err error)

	// SampleRate returns the source's fixed sample rate in Hz.
	SampleRate() uint32

	// Close releases any underlying resources (file handles, audio
	// devices). Safe to call once processing is done.
	Close() error
}
