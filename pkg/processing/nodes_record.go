package processing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/youpy/go-wav"

	"github.com/sctg-development/photoacoustic-core/pkg/ringbuffer"
)

// recordedFile tracks one file written by a recordNode so total_limit_kb
// eviction can find the oldest.
type recordedFile struct {
	path      string
	sizeBytes int64
	createdAt time.Time
}

// recordNode writes interleaved 16-bit PCM to a WAV file, pass-through
// for whatever payload it receives.
//
// Because go-wav.NewWriter bakes the declared sample count into the RIFF
// header up front, a segment cannot be streamed to disk incrementally: it
// accumulates in segmentRing, a lock-free ring buffer sized to
// max_size_kb, until Write reports ErrInsufficientSpace, at which point
// the segment is flushed to disk in one wav.NewWriter + Write call and
// the ring resets for the next segment. The ring's all-or-nothing Write
// semantics map directly onto "accumulate until full, then rotate".
type recordNode struct {
	id           string
	basePath     string
	maxSizeBytes int64
	totalLimit   int64
	autoDelete   bool

	channels      int
	sampleRate    uint32
	segmentRing   *ringbuffer.RingBuffer
	segmentLen    int64
	segmentNumber int
	firstSegment  bool
	tracked       []recordedFile
}

func newRecordNode(cfg Config) (*recordNode, error) {
	path := paramString(cfg.Parameters, "path", "")
	if path == "" {
		return nil, fmt.Errorf("record %q: path parameter is required", cfg.ID)
	}
	maxSizeKB := paramFloat(cfg.Parameters, "max_size_kb", 10*1024)
	totalLimitKB := paramFloat(cfg.Parameters, "total_limit_kb", 0)
	maxSizeBytes := int64(maxSizeKB * 1024)

	return &recordNode{
		id:           cfg.ID,
		basePath:     path,
		maxSizeBytes: maxSizeBytes,
		totalLimit:   int64(totalLimitKB * 1024),
		autoDelete:   paramBool(cfg.Parameters, "auto_delete", false),
		segmentRing:  ringbuffer.New(uint64(maxSizeBytes)),
		firstSegment: true,
	}, nil
}

func (n *recordNode) ID() string       { return n.id }
func (n *recordNode) NodeType() string { return "record" }

func (n *recordNode) AcceptsInputTypes() map[DataKind]struct{} {
	return acceptSet(KindAudioFrame, KindDualChannel, KindSingleChannel, KindPhotoacousticResult)
}

func (n *recordNode) OutputType() (DataKind, bool) { return "", false }

func (n *recordNode) Process(d Data) (Data, error) {
	pcm, channels, rate, err := n.pcmOf(d)
	if err != nil {
		// Recording failures never propagate; the pipeline proceeds unchanged.
		slog.Warn("record: failed to extract audio payload", "node_id", n.id, "error", err)
		return d, nil
	}
	n.channels = channels
	n.sampleRate = rate
	n.appendPCM(pcm)
	return d, nil
}

// appendPCM writes pcm into the current segment, rotating first if it
// doesn't fit. A frame too large to fit even in a freshly reset segment
// is dropped; this only happens when max_size_kb is misconfigured below
// a single frame's size.
func (n *recordNode) appendPCM(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	if _, err := n.segmentRing.Write(pcm); err != nil {
		if !errors.Is(err, ringbuffer.ErrInsufficientSpace) {
			slog.Warn("record: ring write failed", "node_id", n.id, "error", err)
			return
		}
		if rerr := n.rotate(); rerr != nil {
			slog.Warn("record: rotation failed", "node_id", n.id, "error", rerr)
		}
		if _, err := n.segmentRing.Write(pcm); err != nil {
			slog.Warn("record: frame exceeds max_size_kb even after rotation, dropping", "node_id", n.id, "error", err)
			return
		}
	}
	n.segmentLen += int64(len(pcm))

	if n.segmentLen >= n.maxSizeBytes {
		if err := n.rotate(); err != nil {
			slog.Warn("record: rotation failed", "node_id", n.id, "error", err)
		}
	}
}

func (n *recordNode) pcmOf(d Data) (pcm []byte, channels int, rate uint32, err error) {
	switch v := d.(type) {
	case AudioFrameData:
		return interleaveInt16(v.Frame.ChannelA, v.Frame.ChannelB), 2, v.Frame.SampleRate, nil
	case DualChannelData:
		return interleaveInt16(v.A, v.B), 2, v.SampleRate, nil
	case SingleChannelData:
		return monoInt16(v.Samples), 1, v.SampleRate, nil
	case PhotoacousticResultData:
		return monoInt16(v.Signal), 1, v.SampleRate, nil
	default:
		return nil, 0, 0, fmt.Errorf("record: unsupported input kind %q", d.Kind())
	}
}

func interleaveInt16(a, b []float32) []byte {
	out := make([]byte, 0, 4*len(a))
	for i := range a {
		out = binary.LittleEndian.AppendUint16(out, uint16(floatToInt16(a[i])))
		out = binary.LittleEndian.AppendUint16(out, uint16(floatToInt16(b[i])))
	}
	return out
}

func monoInt16(samples []float32) []byte {
	out := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(floatToInt16(s)))
	}
	return out
}

func floatToInt16(s float32) int16 {
	v := float64(s) * 32767
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// rotate flushes the current segment to disk and starts a fresh one.
func (n *recordNode) rotate() error {
	if n.segmentLen == 0 {
		return nil
	}

	buf := make([]byte, n.segmentLen)
	read, err := n.segmentRing.Read(buf)
	if err != nil {
		return fmt.Errorf("record %q: drain segment: %w", n.id, err)
	}
	buf = buf[:read]

	path := n.basePath
	if !n.firstSegment {
		ext := filepath.Ext(n.basePath)
		base := strings.TrimSuffix(n.basePath, ext)
		path = fmt.Sprintf("%s_%d%s", base, time.Now().Unix(), ext)
	}

	if n.firstSegment && n.autoDelete {
		_ = os.Remove(path)
	}
	n.firstSegment = false
	n.segmentNumber++

	numSamples := uint32(len(buf) / 2 / n.channels)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("record %q: create file: %w", n.id, err)
	}
	defer f.Close()

	writer := wav.NewWriter(f, numSamples, uint16(n.channels), n.sampleRate, 16)
	if _, err := writer.Write(buf); err != nil {
		return fmt.Errorf("record %q: write wav data: %w", n.id, err)
	}

	// Rotated names carry a seconds-resolution timestamp, so two rotations
	// within the same second overwrite the same file; drop the stale entry
	// so the limit never deletes the file that was just written.
	for i, t := range n.tracked {
		if t.path == path {
			n.tracked = append(n.tracked[:i], n.tracked[i+1:]...)
			break
		}
	}
	n.tracked = append(n.tracked, recordedFile{
		path:      path,
		sizeBytes: int64(len(buf)),
		createdAt: time.Now(),
	})
	n.segmentRing.Reset()
	n.segmentLen = 0

	n.enforceTotalLimit()
	return nil
}

func (n *recordNode) enforceTotalLimit() {
	if n.totalLimit <= 0 {
		return
	}
	sort.Slice(n.tracked, func(i, j int) bool {
		return n.tracked[i].createdAt.Before(n.tracked[j].createdAt)
	})
	var total int64
	for _, f := range n.tracked {
		total += f.sizeBytes
	}
	i := 0
	for total > n.totalLimit && i < len(n.tracked) {
		f := n.tracked[i]
		if err := os.Remove(f.path); err != nil {
			slog.Warn("record: failed to delete rotated file over limit", "node_id", n.id, "path", f.path, "error", err)
		}
		total -= f.sizeBytes
		i++
	}
	n.tracked = n.tracked[i:]
}

// Reset flushes any buffered segment to disk. The graph executor calls
// this during teardown so a record node never loses its tail.
func (n *recordNode) Reset() {
	if err := n.rotate(); err != nil {
		slog.Warn("record: flush on reset failed", "node_id", n.id, "error", err)
	}
}

func (n *recordNode) SerializeParameters() map[string]any {
	return map[string]any{
		"path":           n.basePath,
		"max_size_kb":    float64(n.maxSizeBytes) / 1024,
		"total_limit_kb": float64(n.totalLimit) / 1024,
		"auto_delete":    n.autoDelete,
	}
}

func (n *recordNode) CloneBox() Node {
	return &recordNode{
		id: n.id, basePath: n.basePath, maxSizeBytes: n.maxSizeBytes,
		totalLimit: n.totalLimit, autoDelete: n.autoDelete, firstSegment: true,
		segmentRing: ringbuffer.New(uint64(n.maxSizeBytes)),
	}
}
