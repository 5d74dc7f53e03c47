package source

import (
	"math"
	"math/rand"
)

// MockConfig configures a deterministic MockSource.
type MockConfig struct {
	SampleRate     uint32
	FrequencyHz    float64
	Correlation    float64 // [0, 1]: 1 = channel B identical to A, 0 = independent
	NoiseAmplitude float64 // additive uniform noise amplitude, 0 disables
	Seed           int64   // seed for the noise generator, for reproducible tests
	MaxFrames      uint64  // 0 = unbounded
}

// MockSource generates a configurable sinusoid on both channels for
// deterministic tests, without any real device or file dependency.
type MockSource struct {
	cfg        MockConfig
	rng        *rand.Rand
	phase      float64
	framesDone uint64
}

// NewMockSource builds a MockSource from cfg, clamping Correlation to [0, 1].
func NewMockSource(cfg MockConfig) *MockSource {
	if cfg.Correlation < 0 {
		cfg.Correlation = 0
	}
	if cfg.Correlation > 1 {
		cfg.Correlation = 1
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	return &MockSource{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// SampleRate implements Source.
func (m *MockSource) SampleRate() uint32 {
	return m.cfg.SampleRate
}

// ReadFrame implements Source. Channel B is a blend of channel A's
// waveform and an independent sinusoid, weighted by Correlation; a
// small phase offset stands in for the "independent" component.
func (m *MockSource) ReadFrame(frameSize int) (a, b []float32, err error) {
	if m.cfg.MaxFrames > 0 && m.framesDone >= m.cfg.MaxFrames {
		return nil, nil, ErrEndOfStream
	}

	a = make([]float32, frameSize)
	b = make([]float32, frameSize)

	step := 2 * math.Pi * m.cfg.FrequencyHz / float64(m.cfg.SampleRate)
	for i := 0; i < frameSize; i++ {
		sA := math.Sin(m.phase)
		sIndependent := math.Sin(m.phase + math.Pi/3)
		sB := m.cfg.Correlation*sA + (1-m.cfg.Correlation)*sIndependent

		if m.cfg.NoiseAmplitude > 0 {
			sA += (m.rng.Float64()*2 - 1) * m.cfg.NoiseAmplitude
			sB += (m.rng.Float64()*2 - 1) * m.cfg.NoiseAmplitude
		}

		a[i] = float32(clamp(sA, -1, 1))
		b[i] = float32(clamp(sB, -1, 1))

		m.phase += step
	}

	m.framesDone++
	return a, b, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Close implements Source. MockSource holds no resources.
func (m *MockSource) Close() error {
	return nil
}
