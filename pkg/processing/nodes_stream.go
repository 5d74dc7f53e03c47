package processing

import "fmt"

// streamingNode publishes its input payload onto a secondary SharedStream
// keyed by stream_id, then passes the same payload through unchanged.
// Multiple streaming nodes may coexist, each registered under its own id.
type streamingNode struct {
	id       string
	streamID string
	streams  StreamRegistrar
}

func newStreamingNode(cfg Config, deps Dependencies) (*streamingNode, error) {
	streamID := paramString(cfg.Parameters, "stream_id", "")
	if streamID == "" {
		return nil, fmt.Errorf("streaming %q: stream_id parameter is required", cfg.ID)
	}
	if deps.Streams == nil {
		return nil, fmt.Errorf("streaming %q: no stream registrar provided", cfg.ID)
	}
	return &streamingNode{id: cfg.ID, streamID: streamID, streams: deps.Streams}, nil
}

func (n *streamingNode) ID() string       { return n.id }
func (n *streamingNode) NodeType() string { return "streaming" }

func (n *streamingNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindAudioFrame, KindDualChannel, KindSingleChannel, KindPhotoacousticResult)
}

func (n *streamingNode) OutputType() (DataKind, bool) { return "", false }

func (n *streamingNode) Process(d Data) (Data, error) {
	n.streams.Publish(n.streamID, d)
	return d, nil
}

func (n *streamingNode) Reset() {}

func (n *streamingNode) SerializeParameters() map[string]any {
	return map[string]any{"stream_id": n.streamID}
}

func (n *streamingNode) CloneBox() Node {
	return &streamingNode{id: n.id, streamID: n.streamID, streams: n.streams}
}
