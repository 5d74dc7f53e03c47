package processing

import (
	"math"
	"testing"
)

func TestFilterNodeLowpassAttenuatesHighFrequency(t *testing.T) {
	n, err := newFilterNode(Config{ID: "lp", Parameters: map[string]any{
		"filter_type": "lowpass",
		"sample_rate": 48000.0,
		"cutoff_hz":   500.0,
	}})
	if err != nil {
		t.Fatalf("newFilterNode: %v", err)
	}

	const sampleRate = 48000.0
	const sampleCount = 2048
	in := make([]float32, sampleCount)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 15000 * float64(i) / sampleRate))
	}
	out, err := n.Process(SingleChannelData{Samples: in, SampleRate: sampleRate})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	settled := out.(SingleChannelData).Samples[sampleCount/2:]
	var inRMS, outRMS float64
	for i, s := range in[sampleCount/2:] {
		inRMS += float64(s) * float64(s)
		outRMS += float64(settled[i]) * float64(settled[i])
	}
	if outRMS >= inRMS {
		t.Errorf("expected lowpass to attenuate a 15kHz tone: inRMS=%v outRMS=%v", inRMS, outRMS)
	}
}

func TestFilterNodeRejectsUnknownType(t *testing.T) {
	if _, err := newFilterNode(Config{ID: "f", Parameters: map[string]any{"filter_type": "notch"}}); err == nil {
		t.Fatal("expected error for unknown filter_type")
	}
}

func TestFilterNodeResetClearsState(t *testing.T) {
	n, err := newFilterNode(Config{ID: "f", Parameters: map[string]any{"filter_type": "lowpass"}})
	if err != nil {
		t.Fatalf("newFilterNode: %v", err)
	}
	if _, err := n.Process(SingleChannelData{Samples: []float32{1, 1, 1, 1}}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	n.Reset()
	if n.filterA.z1 != 0 || n.filterA.z2 != 0 {
		t.Errorf("expected filter state cleared after Reset, got z1=%v z2=%v", n.filterA.z1, n.filterA.z2)
	}
}

func TestFilterNodeDualChannelTargetSelection(t *testing.T) {
	n, err := newFilterNode(Config{ID: "f", Parameters: map[string]any{
		"filter_type": "lowpass",
		"target":      "a",
	}})
	if err != nil {
		t.Fatalf("newFilterNode: %v", err)
	}
	in := DualChannelData{A: []float32{1, 1, 1}, B: []float32{1, 1, 1}}
	out, err := n.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	dc := out.(DualChannelData)
	for i := range in.B {
		if dc.B[i] != in.B[i] {
			t.Errorf("channel B should pass through untouched when target=a: got %v, want %v", dc.B[i], in.B[i])
		}
	}
}
