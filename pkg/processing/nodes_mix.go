package processing

import (
	"fmt"
	"math"
)

// dualChannelOf extracts the two-channel view shared by AudioFrameData
// and DualChannelData, the two input kinds every mixing node accepts.
func dualChannelOf(d Data) (a, b []float32, sampleRate uint32, ts int64, fn uint64, ok bool) {
	switch v := d.(type) {
	case AudioFrameData:
		return v.Frame.ChannelA, v.Frame.ChannelB, v.Frame.SampleRate, v.Frame.TimestampMs, v.Frame.FrameNumber, true
	case DualChannelData:
		return v.A, v.B, v.SampleRate, v.TimestampMs, v.FrameNumber, true
	default:
		return nil, nil, 0, 0, 0, false
	}
}

// channelMixerNode computes out[i] = wA*A[i] + wB*B[i].
type channelMixerNode struct {
	id       string
	weightA  float64
	weightB  float64
}

func newChannelMixerNode(cfg Config) (*channelMixerNode, error) {
	return &channelMixerNode{
		id:      cfg.ID,
		weightA: paramFloat(cfg.Parameters, "weight_a", 0.5),
		weightB: paramFloat(cfg.Parameters, "weight_b", 0.5),
	}, nil
}

func (n *channelMixerNode) ID() string       { return n.id }
func (n *channelMixerNode) NodeType() string { return "channel_mixer" }

func (n *channelMixerNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindAudioFrame, KindDualChannel)
}

func (n *channelMixerNode) OutputType() (DataKind, bool) { return KindSingleChannel, true }

func (n *channelMixerNode) Process(d Data) (Data, error) {
	a, b, rate, ts, fn, ok := dualChannelOf(d)
	if !ok {
		return nil, fmt.Errorf("channel_mixer %q: unsupported input kind %q", n.id, d.Kind())
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = float32(n.weightA*float64(a[i]) + n.weightB*float64(b[i]))
	}
	return SingleChannelData{Samples: out, SampleRate: rate, TimestampMs: ts, FrameNumber: fn}, nil
}

func (n *channelMixerNode) Reset() {}

func (n *channelMixerNode) SerializeParameters() map[string]any {
	return map[string]any{"weight_a": n.weightA, "weight_b": n.weightB}
}

func (n *channelMixerNode) CloneBox() Node {
	return &channelMixerNode{id: n.id, weightA: n.weightA, weightB: n.weightB}
}

// channelSelectorNode emits channel A or B verbatim.
type channelSelectorNode struct {
	id      string
	channel string // "a" or "b"
}

func newChannelSelectorNode(cfg Config) (*channelSelectorNode, error) {
	ch := paramString(cfg.Parameters, "channel", "a")
	if ch != "a" && ch != "b" {
		return nil, fmt.Errorf("channel_selector %q: channel must be \"a\" or \"b\", got %q", cfg.ID, ch)
	}
	return &channelSelectorNode{id: cfg.ID, channel: ch}, nil
}

func (n *channelSelectorNode) ID() string       { return n.id }
func (n *channelSelectorNode) NodeType() string { return "channel_selector" }

func (n *channelSelectorNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindAudioFrame, KindDualChannel)
}

func (n *channelSelectorNode) OutputType() (DataKind, bool) { return KindSingleChannel, true }

func (n *channelSelectorNode) Process(d Data) (Data, error) {
	a, b, rate, ts, fn, ok := dualChannelOf(d)
	if !ok {
		return nil, fmt.Errorf("channel_selector %q: unsupported input kind %q", n.id, d.Kind())
	}
	selected := a
	if n.channel == "b" {
		selected = b
	}
	out := make([]float32, len(selected))
	copy(out, selected)
	return SingleChannelData{Samples: out, SampleRate: rate, TimestampMs: ts, FrameNumber: fn}, nil
}

func (n *channelSelectorNode) Reset() {}

func (n *channelSelectorNode) SerializeParameters() map[string]any {
	return map[string]any{"channel": n.channel}
}

func (n *channelSelectorNode) CloneBox() Node {
	return &channelSelectorNode{id: n.id, channel: n.channel}
}

// differentialNode computes out[i] = A[i] - B[i].
type differentialNode struct {
	id string
}

func newDifferentialNode(cfg Config) *differentialNode {
	return &differentialNode{id: cfg.ID}
}

func (n *differentialNode) ID() string       { return n.id }
func (n *differentialNode) NodeType() string { return "differential" }

func (n *differentialNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindAudioFrame, KindDualChannel)
}

func (n *differentialNode) OutputType() (DataKind, bool) { return KindSingleChannel, true }

func (n *differentialNode) Process(d Data) (Data, error) {
	a, b, rate, ts, fn, ok := dualChannelOf(d)
	if !ok {
		return nil, fmt.Errorf("differential %q: unsupported input kind %q", n.id, d.Kind())
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return SingleChannelData{Samples: out, SampleRate: rate, TimestampMs: ts, FrameNumber: fn}, nil
}

func (n *differentialNode) Reset() {}

func (n *differentialNode) SerializeParameters() map[string]any { return map[string]any{} }

func (n *differentialNode) CloneBox() Node { return &differentialNode{id: n.id} }

// gainNode multiplies every sample by 10^(dB/20). It accepts either a
// single or dual channel payload and preserves the input's shape.
type gainNode struct {
	id       string
	gainDB   float64
	linear   float64
}

func newGainNode(cfg Config) (*gainNode, error) {
	db := paramFloat(cfg.Parameters, "gain_db", 0)
	return &gainNode{
		id:     cfg.ID,
		gainDB: db,
		linear: math.Pow(10, db/20),
	}, nil
}

func (n *gainNode) ID() string       { return n.id }
func (n *gainNode) NodeType() string { return "gain" }

func (n *gainNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindSingleChannel, KindDualChannel)
}

func (n *gainNode) OutputType() (DataKind, bool) { return "", false }

func (n *gainNode) Process(d Data) (Data, error) {
	switch v := d.(type) {
	case SingleChannelData:
		out := make([]float32, len(v.Samples))
		for i, s := range v.Samples {
			out[i] = float32(float64(s) * n.linear)
		}
		v.Samples = out
		return v, nil
	case DualChannelData:
		outA := make([]float32, len(v.A))
		outB := make([]float32, len(v.B))
		for i := range v.A {
			outA[i] = float32(float64(v.A[i]) * n.linear)
		}
		for i := range v.B {
			outB[i] = float32(float64(v.B[i]) * n.linear)
		}
		v.A, v.B = outA, outB
		return v, nil
	default:
		return nil, fmt.Errorf("gain %q: unsupported input kind %q", n.id, d.Kind())
	}
}

func (n *gainNode) Reset() {}

func (n *gainNode) SerializeParameters() map[string]any {
	return map[string]any{"gain_db": n.gainDB}
}

func (n *gainNode) CloneBox() Node {
	return &gainNode{id: n.id, gainDB: n.gainDB, linear: n.linear}
}
