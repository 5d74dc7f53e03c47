package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/drgolem/go-portaudio/portaudio"
	soxr "github.com/zaf/resample"
)

// MicConfig configures a live microphone Source.
type MicConfig struct {
	DeviceIndex     int
	Channels        int // must be 1 or 2; mono devices duplicate A into B
	SampleRate      uint32
	FramesPerBuffer int
	// TargetSampleRate, if nonzero and different from SampleRate, resamples
	// the captured audio through a SoXR resampler before queuing.
	TargetSampleRate uint32
}

// MicSource captures live audio through PortAudio's callback mode. The
// callback (running on PortAudio's own thread) decodes each chunk into
// two per-channel queues; ReadFrame drains frameSize samples from both
// once they are available, blocking on a condition variable in between.
// The PortAudio callback is the producer and ReadFrame is the consumer.
type MicSource struct {
	stream     *portaudio.PaStream
	cfg        MicConfig
	outputRate uint32

	mu        sync.Mutex
	cond      *sync.Cond
	queueA    []float32
	queueB    []float32
	warmedUp  bool
	warmupLen int
	closed    bool

	resampler *soxr.Resampler
	resampled bytes.Buffer
}

// NewMicSource opens and starts capturing from the configured device.
func NewMicSource(cfg MicConfig) (*MicSource, error) {
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return nil, fmt.Errorf("source: mic channels must be 1 or 2, got %d", cfg.Channels)
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = 512
	}

	outputRate := cfg.SampleRate
	if cfg.TargetSampleRate != 0 {
		outputRate = cfg.TargetSampleRate
	}

	m := &MicSource{
		cfg:        cfg,
		outputRate: outputRate,
		warmupLen:  0, // set on first ReadFrame call: 2x frame_size
	}
	m.cond = sync.NewCond(&m.mu)

	if cfg.TargetSampleRate != 0 && cfg.TargetSampleRate != cfg.SampleRate {
		resampler, err := soxr.New(
			&m.resampled,
			float64(cfg.SampleRate),
			float64(cfg.TargetSampleRate),
			cfg.Channels,
			soxr.I16,
			soxr.HighQ,
		)
		if err != nil {
			return nil, fmt.Errorf("source: create resampler: %w", err)
		}
		m.resampler = resampler
	}

	stream := &portaudio.PaStream{
		InputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  cfg.DeviceIndex,
			ChannelCount: cfg.Channels,
			SampleFormat: portaudio.SampleFmtInt16,
		},
		SampleRate: float64(cfg.SampleRate),
	}

	if err := stream.OpenCallback(cfg.FramesPerBuffer, m.audioCallback); err != nil {
		return nil, fmt.Errorf("source: open mic stream: %w", err)
	}
	if err := stream.StartStream(); err != nil {
		return nil, fmt.Errorf("source: start mic stream: %w", err)
	}
	m.stream = stream

	slog.Info("mic source started",
		"device_index", cfg.DeviceIndex,
		"channels", cfg.Channels,
		"sample_rate", cfg.SampleRate,
		"output_rate", outputRate,
	)
	return m, nil
}

// audioCallback runs on PortAudio's own thread. It must not block.
func (m *MicSource) audioCallback(
	input, output []byte,
	frameCount uint,
	timeInfo *portaudio.StreamCallbackTimeInfo,
	statusFlags portaudio.StreamCallbackFlags,
) portaudio.StreamCallbackResult {
	raw := input
	if m.resampler != nil {
		if _, err := m.resampler.Write(input); err != nil {
			return portaudio.Continue
		}
		raw = m.resampled.Bytes()
		m.resampled.Reset()
	}

	samplesPerChannel := len(raw) / 2 / m.cfg.Channels
	if samplesPerChannel == 0 {
		return portaudio.Continue
	}

	a := make([]float32, samplesPerChannel)
	b := make([]float32, samplesPerChannel)
	off := 0
	for i := 0; i < samplesPerChannel; i++ {
		va := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
		off += 2
		a[i] = float32(va) / 32768.0
		if m.cfg.Channels == 2 {
			vb := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
			off += 2
			b[i] = float32(vb) / 32768.0
		} else {
			b[i] = a[i]
		}
	}

	m.mu.Lock()
	m.queueA = append(m.queueA, a...)
	m.queueB = append(m.queueB, b...)
	m.cond.Broadcast()
	m.mu.Unlock()

	return portaudio.Continue
}

// SampleRate implements Source.
func (m *MicSource) SampleRate() uint32 {
	return m.outputRate
}

// ReadFrame implements Source. The first call prebuffers 2×frameSize
// samples before releasing the first frame; subsequent calls drain
// frameSize samples as soon as both queues hold enough.
func (m *MicSource) ReadFrame(frameSize int) (a, b []float32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.warmedUp {
		m.warmupLen = 2 * frameSize
		for len(m.queueA) < m.warmupLen && !m.closed {
			m.cond.Wait()
		}
		m.warmedUp = true
	}

	for len(m.queueA) < frameSize || len(m.queueB) < frameSize {
		if m.closed {
			return nil, nil, ErrEndOfStream
		}
		m.cond.Wait()
	}

	a = append([]float32(nil), m.queueA[:frameSize]...)
	b = append([]float32(nil), m.queueB[:frameSize]...)
	m.queueA = m.queueA[frameSize:]
	m.queueB = m.queueB[frameSize:]
	return a, b, nil
}

// Close stops the PortAudio stream and unblocks any pending ReadFrame.
func (m *MicSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()

	if m.resampler != nil {
		m.resampler.Close()
	}
	if m.stream == nil {
		return nil
	}
	if err := m.stream.StopStream(); err != nil {
		return fmt.Errorf("source: stop mic stream: %w", err)
	}
	return m.stream.Close()
}
