package processing

import "testing"

// S2: channel mixer at weights (0.25, 0.75).
func TestChannelMixerS2(t *testing.T) {
	n, err := newChannelMixerNode(Config{ID: "mixer", Parameters: map[string]any{
		"weight_a": 0.25, "weight_b": 0.75,
	}})
	if err != nil {
		t.Fatalf("newChannelMixerNode: %v", err)
	}

	in := DualChannelData{
		A:          []float32{0, 4, 8, 12},
		B:          []float32{0, 0, 0, 0},
		SampleRate: 48000,
	}
	out, err := n.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	single, ok := out.(SingleChannelData)
	if !ok {
		t.Fatalf("expected SingleChannelData, got %T", out)
	}
	want := []float32{0, 1, 2, 3}
	for i, w := range want {
		if single.Samples[i] != w {
			t.Errorf("Samples[%d]: got %v, want %v", i, single.Samples[i], w)
		}
	}
}

func TestChannelMixerDefaultWeightsAverage(t *testing.T) {
	n, err := newChannelMixerNode(Config{ID: "mixer"})
	if err != nil {
		t.Fatalf("newChannelMixerNode: %v", err)
	}
	in := DualChannelData{A: []float32{1, 3}, B: []float32{3, 1}}
	out, err := n.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	single := out.(SingleChannelData)
	if single.Samples[0] != 2 || single.Samples[1] != 2 {
		t.Errorf("expected (A+B)/2, got %v", single.Samples)
	}
}

func TestDifferentialNode(t *testing.T) {
	n := newDifferentialNode(Config{ID: "diff"})
	in := DualChannelData{
		A: []float32{1.0, -1.0, 1.0, -1.0},
		B: []float32{0.0, 0.0, 0.0, 0.0},
	}
	out, err := n.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	single := out.(SingleChannelData)
	want := []float32{1.0, -1.0, 1.0, -1.0}
	for i, w := range want {
		if single.Samples[i] != w {
			t.Errorf("Samples[%d]: got %v, want %v", i, single.Samples[i], w)
		}
	}
}

func TestGainNodeZeroDBIsBitExact(t *testing.T) {
	n, err := newGainNode(Config{ID: "gain", Parameters: map[string]any{"gain_db": 0.0}})
	if err != nil {
		t.Fatalf("newGainNode: %v", err)
	}
	in := SingleChannelData{Samples: []float32{0.1, -0.2, 0.3}}
	out, err := n.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := out.(SingleChannelData).Samples
	for i := range in.Samples {
		if got[i] != in.Samples[i] {
			t.Errorf("Samples[%d]: got %v, want %v (bit-exact at 0dB)", i, got[i], in.Samples[i])
		}
	}
}

func TestChannelSelectorRejectsInvalidChannel(t *testing.T) {
	if _, err := newChannelSelectorNode(Config{ID: "sel", Parameters: map[string]any{"channel": "c"}}); err == nil {
		t.Fatal("expected error for invalid channel selector parameter")
	}
}
