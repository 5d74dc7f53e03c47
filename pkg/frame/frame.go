// Package frame defines the stereo audio window that flows out of an
// acquisition source and into the processing graph.
package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Frame is an immutable stereo audio window: two equal-length channels of
// 32-bit float samples plus the metadata needed to reconstruct timing.
//
// A Frame is constructed once by the acquisition driver, published to a
// SharedStream, and never mutated afterward; subscribers only ever read it.
type Frame struct {
	ChannelA    []float32
	ChannelB    []float32
	SampleRate  uint32
	FrameNumber uint64
	TimestampMs int64
}

// New builds a Frame, validating the invariant len(a) == len(b) > 0.
func New(a, b []float32, sampleRate uint32, frameNumber uint64, timestampMs int64) (Frame, error) {
	if len(a) == 0 || len(b) == 0 {
		return Frame{}, fmt.Errorf("frame: channels must be non-empty")
	}
	if len(a) != len(b) {
		return Frame{}, fmt.Errorf("frame: channel length mismatch: len(a)=%d len(b)=%d", len(a), len(b))
	}
	return Frame{
		ChannelA:    a,
		ChannelB:    b,
		SampleRate:  sampleRate,
		FrameNumber: frameNumber,
		TimestampMs: timestampMs,
	}, nil
}

// Len returns the number of samples per channel.
func (f Frame) Len() int {
	return len(f.ChannelA)
}

// DurationMs returns the window length in milliseconds.
func (f Frame) DurationMs() float64 {
	if f.SampleRate == 0 {
		return 0
	}
	return float64(f.Len()) * 1000.0 / float64(f.SampleRate)
}

// Validate checks the Frame invariant: equal non-empty channel lengths.
func (f Frame) Validate() error {
	if len(f.ChannelA) == 0 || len(f.ChannelB) == 0 {
		return fmt.Errorf("frame: channels must be non-empty")
	}
	if len(f.ChannelA) != len(f.ChannelB) {
		return fmt.Errorf("frame: channel length mismatch: len(a)=%d len(b)=%d", len(f.ChannelA), len(f.ChannelB))
	}
	return nil
}

// Marshal serializes a Frame to a byte slice using little-endian encoding.
//
// Binary format (24 byte header, tightly packed):
//   - SampleRate (4 bytes, uint32)
//   - FrameNumber (8 bytes, uint64)
//   - TimestampMs (8 bytes, int64)
//   - SampleCount (4 bytes, uint32, shared by both channels)
//   - ChannelA (4 bytes * SampleCount, float32 little-endian)
//   - ChannelB (4 bytes * SampleCount, float32 little-endian)
func (f Frame) Marshal() []byte {
	headerSize := 24
	sampleCount := len(f.ChannelA)
	buf := make([]byte, headerSize+8*sampleCount)

	binary.LittleEndian.PutUint32(buf[0:4], f.SampleRate)
	binary.LittleEndian.PutUint64(buf[4:12], f.FrameNumber)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(f.TimestampMs))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(sampleCount))

	off := headerSize
	for _, s := range f.ChannelA {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(s))
		off += 4
	}
	for _, s := range f.ChannelB {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(s))
		off += 4
	}
	return buf
}

// Unmarshal deserializes a byte slice produced by Marshal into f.
func (f *Frame) Unmarshal(data []byte) error {
	headerSize := 24
	if len(data) < headerSize {
		return fmt.Errorf("frame: buffer too small: got %d bytes, need at least %d", len(data), headerSize)
	}

	sampleRate := binary.LittleEndian.Uint32(data[0:4])
	frameNumber := binary.LittleEndian.Uint64(data[4:12])
	timestampMs := int64(binary.LittleEndian.Uint64(data[12:20]))
	sampleCount := int(binary.LittleEndian.Uint32(data[20:24]))

	need := headerSize + 8*sampleCount
	if len(data) < need {
		return fmt.Errorf("frame: buffer too small for samples: got %d bytes, need %d", len(data), need)
	}

	a := make([]float32, sampleCount)
	b := make([]float32, sampleCount)
	off := headerSize
	for i := range a {
		a[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
	}
	for i := range b {
		b[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
	}

	f.SampleRate = sampleRate
	f.FrameNumber = frameNumber
	f.TimestampMs = timestampMs
	f.ChannelA = a
	f.ChannelB = b
	return nil
}
