package processing

import "fmt"

// photoacousticOutputNode wraps an AudioFrame, DualChannel or
// SingleChannel payload (channel A of a two-channel payload) as the
// terminal measurement carrier, attaching provenance metadata (node id,
// channels used). The detection threshold and analysis window parameters
// are reported by SerializeParameters only; they are not attached to the
// result's metadata. A PhotoacousticResult input is rejected.
type photoacousticOutputNode struct {
	id              string
	thresholdDB     float64
	analysisWindow  int
}

func newPhotoacousticOutputNode(cfg Config) (*photoacousticOutputNode, error) {
	return &photoacousticOutputNode{
		id:             cfg.ID,
		thresholdDB:    paramFloat(cfg.Parameters, "detection_threshold_db", -60),
		analysisWindow: int(paramFloat(cfg.Parameters, "analysis_window_size", 1024)),
	}, nil
}

func (n *photoacousticOutputNode) ID() string       { return n.id }
func (n *photoacousticOutputNode) NodeType() string { return "photoacoustic_output" }

func (n *photoacousticOutputNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindAudioFrame, KindDualChannel, KindSingleChannel)
}

func (n *photoacousticOutputNode) OutputType() (DataKind, bool) { return KindPhotoacousticResult, true }

func (n *photoacousticOutputNode) Process(d Data) (Data, error) {
	switch v := d.(type) {
	case AudioFrameData:
		return PhotoacousticResultData{
			Signal:      v.Frame.ChannelA,
			SampleRate:  v.Frame.SampleRate,
			TimestampMs: v.Frame.TimestampMs,
			FrameNumber: v.Frame.FrameNumber,
			Metadata: PhotoacousticMetadata{
				OriginalFrame:   v.Frame,
				ProcessingSteps: []string{n.id},
				ChannelsUsed:    "a",
			},
		}, nil
	case DualChannelData:
		return PhotoacousticResultData{
			Signal:      v.A,
			SampleRate:  v.SampleRate,
			TimestampMs: v.TimestampMs,
			FrameNumber: v.FrameNumber,
			Metadata: PhotoacousticMetadata{
				ProcessingSteps: []string{n.id},
				ChannelsUsed:    "a",
			},
		}, nil
	case SingleChannelData:
		return PhotoacousticResultData{
			Signal:      v.Samples,
			SampleRate:  v.SampleRate,
			TimestampMs: v.TimestampMs,
			FrameNumber: v.FrameNumber,
			Metadata: PhotoacousticMetadata{
				ProcessingSteps: []string{n.id},
				ChannelsUsed:    "single",
			},
		}, nil
	default:
		return nil, fmt.Errorf("photoacoustic_output %q: unsupported input kind %q", n.id, d.Kind())
	}
}

func (n *photoacousticOutputNode) Reset() {}

func (n *photoacousticOutputNode) SerializeParameters() map[string]any {
	return map[string]any{
		"detection_threshold_db": n.thresholdDB,
		"analysis_window_size":   n.analysisWindow,
	}
}

func (n *photoacousticOutputNode) CloneBox() Node {
	return &photoacousticOutputNode{id: n.id, thresholdDB: n.thresholdDB, analysisWindow: n.analysisWindow}
}
