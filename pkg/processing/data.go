// Package processing defines the typed payloads and node contract that
// make up a processing graph: the DAG of DSP stages between an
// acquisition driver and a ComputingStore.
package processing

import "github.com/sctg-development/photoacoustic-core/pkg/frame"

// DataKind identifies which ProcessingData variant a value holds. It is
// the closed vocabulary nodes use to declare compatible connections.
type DataKind string

const (
	KindAudioFrame          DataKind = "audio_frame"
	KindDualChannel         DataKind = "dual_channel"
	KindSingleChannel       DataKind = "single_channel"
	KindPhotoacousticResult DataKind = "photoacoustic_result"
)

// Data is the sum type carried between processing nodes. Every
// implementation is a plain struct value, safe to pass between
// sequential node calls without copying slices defensively — nodes must
// not mutate the samples they receive, only return new payloads.
type Data interface {
	Kind() DataKind
}

// AudioFrameData carries a full stereo frame exiting the input node.
type AudioFrameData struct {
	Frame frame.Frame
}

func (AudioFrameData) Kind() DataKind { return KindAudioFrame }

// DualChannelData is an equivalent mid-pipeline shape to AudioFrameData,
// produced by nodes that keep both channels distinct (e.g. a filter
// configured to process both channels).
type DualChannelData struct {
	A, B        []float32
	SampleRate  uint32
	TimestampMs int64
	FrameNumber uint64
}

func (DualChannelData) Kind() DataKind { return KindDualChannel }

// SingleChannelData is the output of mixers, selectors, and the
// differential node: a single collapsed channel.
type SingleChannelData struct {
	Samples     []float32
	SampleRate  uint32
	TimestampMs int64
	FrameNumber uint64
}

func (SingleChannelData) Kind() DataKind { return KindSingleChannel }

// PhotoacousticMetadata records the provenance of a PhotoacousticResult.
type PhotoacousticMetadata struct {
	OriginalFrame   frame.Frame
	ProcessingSteps []string
	ChannelsUsed    string
}

// PhotoacousticResultData is the terminal shape before measurement
// extraction by peak_finder / computing_concentration nodes.
type PhotoacousticResultData struct {
	Signal      []float32
	SampleRate  uint32
	TimestampMs int64
	FrameNumber uint64
	Metadata    PhotoacousticMetadata
}

func (PhotoacousticResultData) Kind() DataKind { return KindPhotoacousticResult }

// SamplesOf extracts the sample payload from whichever Data variant
// carries one, for nodes that accept any of the "audio-bearing" kinds.
// The returned bool is false for shapes with no single-channel view
// (DualChannelData has two channels and returns A).
func SamplesOf(d Data) ([]float32, bool) {
	switch v := d.(type) {
	case SingleChannelData:
		return v.Samples, true
	case PhotoacousticResultData:
		return v.Signal, true
	case DualChannelData:
		return v.A, true
	case AudioFrameData:
		return v.Frame.ChannelA, true
	default:
		return nil, false
	}
}
