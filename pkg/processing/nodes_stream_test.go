package processing

import "testing"

type fakeRegistrar struct {
	published map[string][]Data
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{published: make(map[string][]Data)}
}

func (r *fakeRegistrar) Publish(streamID string, payload Data) {
	r.published[streamID] = append(r.published[streamID], payload)
}

func TestStreamingNodePublishesAndPassesThrough(t *testing.T) {
	reg := newFakeRegistrar()
	n, err := newStreamingNode(Config{ID: "tap", Parameters: map[string]any{"stream_id": "single"}}, Dependencies{Streams: reg})
	if err != nil {
		t.Fatalf("newStreamingNode: %v", err)
	}

	in := SingleChannelData{Samples: []float32{1, 2, 3}}
	out, err := n.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.(SingleChannelData).Samples[1] != 2 {
		t.Fatal("expected input to pass through unchanged")
	}
	if len(reg.published["single"]) != 1 {
		t.Fatalf("expected one publish to stream %q, got %d", "single", len(reg.published["single"]))
	}
}

func TestStreamingNodeRequiresStreamID(t *testing.T) {
	if _, err := newStreamingNode(Config{ID: "tap"}, Dependencies{Streams: newFakeRegistrar()}); err == nil {
		t.Fatal("expected error when stream_id parameter is missing")
	}
}

func TestStreamingNodeRequiresRegistrar(t *testing.T) {
	if _, err := newStreamingNode(Config{ID: "tap", Parameters: map[string]any{"stream_id": "x"}}, Dependencies{}); err == nil {
		t.Fatal("expected error when no stream registrar is provided")
	}
}
