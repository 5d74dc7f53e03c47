package graph

import (
	"errors"
	"testing"

	"github.com/sctg-development/photoacoustic-core/pkg/apperr"
	"github.com/sctg-development/photoacoustic-core/pkg/computing"
	"github.com/sctg-development/photoacoustic-core/pkg/frame"
	"github.com/sctg-development/photoacoustic-core/pkg/processing"
)

func buildNode(t *testing.T, cfg processing.Config, deps processing.Dependencies) processing.Node {
	t.Helper()
	n, err := processing.NewBuiltin(cfg, deps)
	if err != nil {
		t.Fatalf("NewBuiltin(%q): %v", cfg.NodeType, err)
	}
	return n
}

// S1: sample_rate=48000, frame_size=4, input -> differential -> peak_finder
// -> output. A=[1,-1,1,-1], B=[0,0,0,0]. Differential output equals A;
// the dominant frequency should land at Nyquist with positive amplitude.
func TestGraphExecutesS1Pipeline(t *testing.T) {
	store := computing.New(16)
	g := New()

	if err := g.AddNode(buildNode(t, processing.Config{ID: "in", NodeType: "input"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(in): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "diff", NodeType: "differential"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(diff): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "peak", NodeType: "peak_finder", Parameters: map[string]any{"window_size": 8.0}}, processing.Dependencies{Store: store})); err != nil {
		t.Fatalf("AddNode(peak): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "out", NodeType: "output"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(out): %v", err)
	}

	if err := g.Connect("in", "diff"); err != nil {
		t.Fatalf("Connect(in,diff): %v", err)
	}
	if err := g.Connect("diff", "peak"); err != nil {
		t.Fatalf("Connect(diff,peak): %v", err)
	}
	if err := g.Connect("peak", "out"); err != nil {
		t.Fatalf("Connect(peak,out): %v", err)
	}
	if err := g.SetInputNode("in"); err != nil {
		t.Fatalf("SetInputNode: %v", err)
	}
	if err := g.SetOutputNode("out"); err != nil {
		t.Fatalf("SetOutputNode: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	f := frame.Frame{
		ChannelA:   []float32{1.0, -1.0, 1.0, -1.0},
		ChannelB:   []float32{0.0, 0.0, 0.0, 0.0},
		SampleRate: 48000,
	}
	out, err := g.Execute(processing.AudioFrameData{Frame: f})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	single, ok := out.(processing.SingleChannelData)
	if !ok {
		t.Fatalf("expected SingleChannelData pass-through at output, got %T", out)
	}
	want := []float32{1.0, -1.0, 1.0, -1.0}
	for i, w := range want {
		if single.Samples[i] != w {
			t.Errorf("Samples[%d]: got %v, want %v", i, single.Samples[i], w)
		}
	}

	freq, amp, _, _, ok := store.Latest("peak")
	if !ok {
		t.Fatal("expected peak_finder to have recorded a result")
	}
	if amp <= 0 {
		t.Errorf("expected positive amplitude, got %v", amp)
	}
	if freq != 24000 {
		t.Errorf("frequency: got %v, want 24000 (Nyquist)", freq)
	}

	stats := g.Statistics()
	if stats.TotalExecutions != 1 {
		t.Errorf("TotalExecutions: got %d, want 1", stats.TotalExecutions)
	}
	if stats.PerNode["diff"].FramesProcessed != 1 {
		t.Errorf("diff FramesProcessed: got %d, want 1", stats.PerNode["diff"].FramesProcessed)
	}
}

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	g := New()
	n1 := buildNode(t, processing.Config{ID: "a", NodeType: "input"}, processing.Dependencies{})
	n2 := buildNode(t, processing.Config{ID: "a", NodeType: "output"}, processing.Dependencies{})
	if err := g.AddNode(n1); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	err := g.AddNode(n2)
	var gv *apperr.GraphValidation
	if !errors.As(err, &gv) || gv.Kind != apperr.DuplicateID {
		t.Fatalf("expected DuplicateID error, got %v", err)
	}
}

func TestConnectRejectsUnknownID(t *testing.T) {
	g := New()
	if err := g.AddNode(buildNode(t, processing.Config{ID: "a", NodeType: "input"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	err := g.Connect("a", "missing")
	var gv *apperr.GraphValidation
	if !errors.As(err, &gv) || gv.Kind != apperr.UnknownID {
		t.Fatalf("expected UnknownID error, got %v", err)
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	g := New()
	// gain nodes pass their input type through, so the type check accepts
	// both edges and the cycle is the only defect Validate can report.
	g.nodes["a"] = buildNode(t, processing.Config{ID: "a", NodeType: "gain"}, processing.Dependencies{})
	g.nodes["b"] = buildNode(t, processing.Config{ID: "b", NodeType: "gain"}, processing.Dependencies{})
	g.order = []string{"a", "b"}
	g.stats["a"] = &NodeStats{}
	g.stats["b"] = &NodeStats{}
	g.edges = []edge{{from: "a", to: "b"}, {from: "b", to: "a"}}
	_ = g.SetInputNode("a")
	_ = g.SetOutputNode("b")

	err := g.Validate()
	var gv *apperr.GraphValidation
	if !errors.As(err, &gv) || gv.Kind != apperr.Cycle {
		t.Fatalf("expected Cycle error, got %v", err)
	}
}

func TestValidateDetectsTypeMismatch(t *testing.T) {
	g := New()
	if err := g.AddNode(buildNode(t, processing.Config{ID: "in", NodeType: "input"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(in): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "mix", NodeType: "channel_mixer"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(mix): %v", err)
	}
	// channel_mixer emits KindSingleChannel but peak_finder only accepts
	// KindSingleChannel/KindPhotoacousticResult... use a second mixer to
	// force a genuine mismatch instead, since mixer accepts dual-channel
	// kinds but a mixer's own output (single channel) cannot feed another
	// mixer (which only accepts dual channel/audio frame kinds).
	if err := g.AddNode(buildNode(t, processing.Config{ID: "mix2", NodeType: "channel_mixer"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(mix2): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "out", NodeType: "output"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(out): %v", err)
	}
	if err := g.Connect("in", "mix"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.Connect("mix", "mix2"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.Connect("mix2", "out"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.SetInputNode("in"); err != nil {
		t.Fatalf("SetInputNode: %v", err)
	}
	if err := g.SetOutputNode("out"); err != nil {
		t.Fatalf("SetOutputNode: %v", err)
	}

	err := g.Validate()
	var gv *apperr.GraphValidation
	if !errors.As(err, &gv) || gv.Kind != apperr.TypeMismatch {
		t.Fatalf("expected TypeMismatch error, got %v", err)
	}
}

func TestValidateRequiresInputAndOutputNodes(t *testing.T) {
	g := New()
	if err := g.AddNode(buildNode(t, processing.Config{ID: "a", NodeType: "input"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	err := g.Validate()
	var gv *apperr.GraphValidation
	if !errors.As(err, &gv) || gv.Kind != apperr.MissingInput {
		t.Fatalf("expected MissingInput error, got %v", err)
	}
}

func TestValidateEnforcesSingleFanIn(t *testing.T) {
	g := New()
	if err := g.AddNode(buildNode(t, processing.Config{ID: "in", NodeType: "input"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(in): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "mix", NodeType: "channel_mixer"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(mix): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "out", NodeType: "output"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(out): %v", err)
	}
	if err := g.Connect("in", "mix"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.Connect("in", "out"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	// The next connection gives "out" a second incoming edge (from in and
	// from mix), which violates fan-in=1.
	if err := g.Connect("mix", "out"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.SetInputNode("in"); err != nil {
		t.Fatalf("SetInputNode: %v", err)
	}
	if err := g.SetOutputNode("out"); err != nil {
		t.Fatalf("SetOutputNode: %v", err)
	}

	err := g.Validate()
	var gv *apperr.GraphValidation
	if !errors.As(err, &gv) || gv.Kind != apperr.MissingInput {
		t.Fatalf("expected MissingInput (fan-in violation) error, got %v", err)
	}
}

func TestValidateDetectsNoPathFromInputToOutput(t *testing.T) {
	g := New()
	if err := g.AddNode(buildNode(t, processing.Config{ID: "in", NodeType: "input"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(in): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "mix", NodeType: "channel_mixer"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(mix): %v", err)
	}
	if err := g.AddNode(buildNode(t, processing.Config{ID: "out", NodeType: "output"}, processing.Dependencies{})); err != nil {
		t.Fatalf("AddNode(out): %v", err)
	}
	if err := g.Connect("in", "mix"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.SetInputNode("in"); err != nil {
		t.Fatalf("SetInputNode: %v", err)
	}
	if err := g.SetOutputNode("out"); err != nil {
		t.Fatalf("SetOutputNode: %v", err)
	}

	err := g.Validate()
	var gv *apperr.GraphValidation
	if !errors.As(err, &gv) || gv.Kind != apperr.MissingInput {
		// "out" has zero incoming connections, which the fan-in check
		// catches before the reachability check ever runs.
		t.Fatalf("expected MissingInput error (unreached output has no incoming edge), got %v", err)
	}
}
