package processing

import (
	"testing"

	"github.com/sctg-development/photoacoustic-core/pkg/frame"
)

func TestSamplesOfEachVariant(t *testing.T) {
	cases := []struct {
		name string
		in   Data
		want []float32
	}{
		{"single", SingleChannelData{Samples: []float32{1, 2}}, []float32{1, 2}},
		{"result", PhotoacousticResultData{Signal: []float32{3, 4}}, []float32{3, 4}},
		{"dual", DualChannelData{A: []float32{5, 6}, B: []float32{7, 8}}, []float32{5, 6}},
		{"frame", AudioFrameData{Frame: frame.Frame{ChannelA: []float32{9, 10}}}, []float32{9, 10}},
	}
	for _, c := range cases {
		got, ok := SamplesOf(c.in)
		if !ok {
			t.Errorf("%s: expected ok=true", c.name)
			continue
		}
		for i, w := range c.want {
			if got[i] != w {
				t.Errorf("%s: Samples[%d]: got %v, want %v", c.name, i, got[i], w)
			}
		}
	}
}
