package processing

import (
	"fmt"
	"math"
)

// biquad is a direct-form-II transposed second-order IIR section,
// coefficients derived from the RBJ audio cookbook formulas. State
// persists across Process calls so a filter node's response is
// continuous across frame boundaries.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func (f *biquad) step(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x + f.z2 - f.a1*y
	f.z2 = f.b2*x - f.a2*y
	return y
}

func (f *biquad) reset() {
	f.z1, f.z2 = 0, 0
}

func newBiquadLowpass(sampleRate, cutoffHz, q float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 - cosw0) / 2
	b1 := 1 - cosw0
	b2 := (1 - cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	return normalizedBiquad(b0, b1, b2, a0, a1, a2)
}

func newBiquadHighpass(sampleRate, cutoffHz, q float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 + cosw0) / 2
	b1 := -(1 + cosw0)
	b2 := (1 + cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	return normalizedBiquad(b0, b1, b2, a0, a1, a2)
}

func newBiquadBandpass(sampleRate, centerHz, bandwidthHz float64) *biquad {
	w0 := 2 * math.Pi * centerHz / sampleRate
	q := centerHz / math.Max(bandwidthHz, 1e-6)
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	return normalizedBiquad(b0, b1, b2, a0, a1, a2)
}

func normalizedBiquad(b0, b1, b2, a0, a1, a2 float64) *biquad {
	return &biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// filterNode applies a lowpass, highpass, or bandpass biquad to a
// single or dual channel payload. In dual mode, target selects which
// channel(s) are processed.
type filterNode struct {
	id         string
	kind       string // lowpass | highpass | bandpass
	sampleRate float64
	cutoffHz   float64
	centerHz   float64
	bandwidth  float64
	q          float64
	target     string // "a", "b", or "both"

	filterA *biquad
	filterB *biquad
}

func newFilterNode(cfg Config) (*filterNode, error) {
	kind := paramString(cfg.Parameters, "filter_type", "lowpass")
	switch kind {
	case "lowpass", "highpass", "bandpass":
	default:
		return nil, fmt.Errorf("filter %q: unknown filter_type %q", cfg.ID, kind)
	}

	n := &filterNode{
		id:         cfg.ID,
		kind:       kind,
		sampleRate: paramFloat(cfg.Parameters, "sample_rate", 48000),
		cutoffHz:   paramFloat(cfg.Parameters, "cutoff_hz", 1000),
		centerHz:   paramFloat(cfg.Parameters, "center_hz", 1000),
		bandwidth:  paramFloat(cfg.Parameters, "bandwidth_hz", 200),
		q:          paramFloat(cfg.Parameters, "q", 0.7071),
		target:     paramString(cfg.Parameters, "target", "both"),
	}
	n.filterA = n.newBiquad()
	n.filterB = n.newBiquad()
	return n, nil
}

func (n *filterNode) newBiquad() *biquad {
	switch n.kind {
	case "highpass":
		return newBiquadHighpass(n.sampleRate, n.cutoffHz, n.q)
	case "bandpass":
		return newBiquadBandpass(n.sampleRate, n.centerHz, n.bandwidth)
	default:
		return newBiquadLowpass(n.sampleRate, n.cutoffHz, n.q)
	}
}

func (n *filterNode) ID() string       { return n.id }
func (n *filterNode) NodeType() string { return "filter" }

func (n *filterNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindSingleChannel, KindDualChannel)
}

func (n *filterNode) OutputType() (DataKind, bool) { return "", false }

func (n *filterNode) Process(d Data) (Data, error) {
	switch v := d.(type) {
	case SingleChannelData:
		out := make([]float32, len(v.Samples))
		for i, s := range v.Samples {
			out[i] = float32(n.filterA.step(float64(s)))
		}
		v.Samples = out
		return v, nil
	case DualChannelData:
		outA := v.A
		outB := v.B
		if n.target == "a" || n.target == "both" {
			outA = make([]float32, len(v.A))
			for i, s := range v.A {
				outA[i] = float32(n.filterA.step(float64(s)))
			}
		}
		if n.target == "b" || n.target == "both" {
			outB = make([]float32, len(v.B))
			for i, s := range v.B {
				outB[i] = float32(n.filterB.step(float64(s)))
			}
		}
		v.A, v.B = outA, outB
		return v, nil
	default:
		return nil, fmt.Errorf("filter %q: unsupported input kind %q", n.id, d.Kind())
	}
}

func (n *filterNode) Reset() {
	n.filterA.reset()
	n.filterB.reset()
}

func (n *filterNode) SerializeParameters() map[string]any {
	return map[string]any{
		"filter_type":  n.kind,
		"cutoff_hz":    n.cutoffHz,
		"center_hz":    n.centerHz,
		"bandwidth_hz": n.bandwidth,
		"q":            n.q,
		"target":       n.target,
	}
}

func (n *filterNode) CloneBox() Node {
	clone := &filterNode{
		id: n.id, kind: n.kind, sampleRate: n.sampleRate,
		cutoffHz: n.cutoffHz, centerHz: n.centerHz, bandwidth: n.bandwidth,
		q: n.q, target: n.target,
	}
	clone.filterA = clone.newBiquad()
	clone.filterB = clone.newBiquad()
	return clone
}
