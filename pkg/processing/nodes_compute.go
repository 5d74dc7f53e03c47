package processing

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// hannWindow computes a Hann window:
// w[i] = 0.5 * (1 - cos(2*pi*i / (size-1))).
func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// peakFinderNode computes the magnitude spectrum of its input and records
// the dominant frequency/amplitude pair into the computing store.
type peakFinderNode struct {
	id         string
	windowSize int
	bandLowHz  float64
	bandHighHz float64
	hasBand    bool
	store      ComputingRecorder
}

func newPeakFinderNode(cfg Config, deps Dependencies) (*peakFinderNode, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("peak_finder %q: no computing store provided", cfg.ID)
	}
	windowSize := int(paramFloat(cfg.Parameters, "window_size", 1024))
	low := paramFloat(cfg.Parameters, "band_low_hz", 0)
	high := paramFloat(cfg.Parameters, "band_high_hz", 0)
	return &peakFinderNode{
		id:         cfg.ID,
		windowSize: windowSize,
		bandLowHz:  low,
		bandHighHz: high,
		hasBand:    high > low,
		store:      deps.Store,
	}, nil
}

func (n *peakFinderNode) ID() string       { return n.id }
func (n *peakFinderNode) NodeType() string { return "peak_finder" }

func (n *peakFinderNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindSingleChannel, KindPhotoacousticResult)
}

func (n *peakFinderNode) OutputType() (DataKind, bool) { return "", false }

func (n *peakFinderNode) Process(d Data) (Data, error) {
	samples, ok := SamplesOf(d)
	if !ok {
		return nil, fmt.Errorf("peak_finder %q: unsupported input kind %q", n.id, d.Kind())
	}
	var sampleRate uint32
	var timestampMs int64
	switch v := d.(type) {
	case SingleChannelData:
		sampleRate, timestampMs = v.SampleRate, v.TimestampMs
	case PhotoacousticResultData:
		sampleRate, timestampMs = v.SampleRate, v.TimestampMs
	}

	freq, amp := n.findPeak(samples, sampleRate)
	n.store.RecordPeak(n.id, freq, amp, timestampMs)
	return d, nil
}

func (n *peakFinderNode) findPeak(samples []float32, sampleRate uint32) (frequencyHz, amplitude float64) {
	size := nextPowerOfTwo(max(n.windowSize, len(samples)))
	window := hannWindow(min(len(samples), size))

	buf := make([]complex128, size)
	for i := range samples {
		if i >= size {
			break
		}
		w := 1.0
		if i < len(window) {
			w = window[i]
		}
		buf[i] = complex(float64(samples[i])*w, 0)
	}

	spectrum := fft.FFT(buf)
	binHz := float64(sampleRate) / float64(size)

	bestBin := 1
	bestMag := 0.0
	for i := 1; i <= size/2; i++ {
		hz := float64(i) * binHz
		if n.hasBand && (hz < n.bandLowHz || hz > n.bandHighHz) {
			continue
		}
		mag := cmplxAbs(spectrum[i])
		if mag > bestMag {
			bestMag = mag
			bestBin = i
		}
	}
	return float64(bestBin) * binHz, bestMag
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func (n *peakFinderNode) Reset() {}

func (n *peakFinderNode) SerializeParameters() map[string]any {
	return map[string]any{
		"window_size":  n.windowSize,
		"band_low_hz":  n.bandLowHz,
		"band_high_hz": n.bandHighHz,
	}
}

func (n *peakFinderNode) CloneBox() Node {
	return &peakFinderNode{
		id: n.id, windowSize: n.windowSize, bandLowHz: n.bandLowHz,
		bandHighHz: n.bandHighHz, hasBand: n.hasBand, store: n.store,
	}
}

// computingConcentrationNode evaluates a polynomial over its paired
// peak-finder's latest amplitude reading and records the result as a
// concentration estimate in ppm. Coefficients are declared lowest-degree
// first: index 0 is the constant term.
type computingConcentrationNode struct {
	id           string
	peakFinderID string
	coefficients []float64
	store        ComputingRecorder
}

func newComputingConcentrationNode(cfg Config, deps Dependencies) (*computingConcentrationNode, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("computing_concentration %q: no computing store provided", cfg.ID)
	}
	peakID := paramString(cfg.Parameters, "peak_finder_id", "")
	if peakID == "" {
		return nil, fmt.Errorf("computing_concentration %q: peak_finder_id parameter is required", cfg.ID)
	}
	coeffs := paramFloatSlice(cfg.Parameters, "coefficients")
	if len(coeffs) == 0 {
		coeffs = []float64{0, 1}
	}
	return &computingConcentrationNode{
		id:           cfg.ID,
		peakFinderID: peakID,
		coefficients: coeffs,
		store:        deps.Store,
	}, nil
}

func (n *computingConcentrationNode) ID() string       { return n.id }
func (n *computingConcentrationNode) NodeType() string { return "computing_concentration" }

func (n *computingConcentrationNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindAudioFrame, KindDualChannel, KindSingleChannel, KindPhotoacousticResult)
}

func (n *computingConcentrationNode) OutputType() (DataKind, bool) { return "", false }

func (n *computingConcentrationNode) Process(d Data) (Data, error) {
	_, amplitude, _, _, ok := n.store.Latest(n.peakFinderID)
	if !ok {
		return d, nil
	}
	ppm := evalPolynomial(n.coefficients, amplitude)
	n.store.RecordConcentration(n.peakFinderID, ppm)
	return d, nil
}

func evalPolynomial(coefficients []float64, x float64) float64 {
	result := 0.0
	power := 1.0
	for _, k := range coefficients {
		result += k * power
		power *= x
	}
	return result
}

func (n *computingConcentrationNode) Reset() {}

func (n *computingConcentrationNode) SerializeParameters() map[string]any {
	return map[string]any{
		"peak_finder_id": n.peakFinderID,
		"coefficients":   n.coefficients,
	}
}

func (n *computingConcentrationNode) CloneBox() Node {
	return &computingConcentrationNode{
		id: n.id, peakFinderID: n.peakFinderID,
		coefficients: append([]float64(nil), n.coefficients...), store: n.store,
	}
}
