package source

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/youpy/go-wav"
)

// FileSource reads a WAV container and normalizes each sample to
// [-1, 1] float32, splitting interleaved samples into two channels.
type FileSource struct {
	file       *os.File
	reader     *wav.Reader
	sampleRate uint32
	channels   int
	fullScale  float64
}

// NewFileSource opens fileName and validates it is a PCM WAV file.
func NewFileSource(fileName string) (*FileSource, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("source: open wav file: %w", err)
	}

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("source: read wav format: %w", err)
	}
	if format.AudioFormat != wav.AudioFormatPCM {
		file.Close()
		return nil, fmt.Errorf("source: unsupported wav format %d (only PCM)", format.AudioFormat)
	}
	if format.NumChannels == 0 {
		file.Close()
		return nil, fmt.Errorf("source: wav file declares zero channels")
	}

	fs := &FileSource{
		file:       file,
		reader:     reader,
		sampleRate: uint32(format.SampleRate),
		channels:   int(format.NumChannels),
		fullScale:  math.Pow(2, float64(format.BitsPerSample-1)),
	}

	slog.Info("file source opened",
		"file", fileName,
		"sample_rate", fs.sampleRate,
		"channels", fs.channels,
		"bits_per_sample", format.BitsPerSample,
	)
	return fs, nil
}

// SampleRate implements Source.
func (fs *FileSource) SampleRate() uint32 {
	return fs.sampleRate
}

// ReadFrame implements Source. Channel B mirrors channel A for mono
// files; files with more than two channels use the first two.
func (fs *FileSource) ReadFrame(frameSize int) (a, b []float32, err error) {
	a = make([]float32, frameSize)
	b = make([]float32, frameSize)

	for i := 0; i < frameSize; i++ {
		samples, err := fs.reader.ReadSamples(1)
		if err == io.EOF {
			return nil, nil, ErrEndOfStream
		}
		if err != nil {
			return nil, nil, fmt.Errorf("source: read wav sample: %w", err)
		}
		if len(samples) == 0 {
			return nil, nil, ErrEndOfStream
		}

		values := samples[0].Values
		va := fs.normalize(int(values[0]))
		vb := va
		if fs.channels > 1 {
			vb = fs.normalize(int(values[1]))
		}
		a[i] = va
		b[i] = vb
	}

	return a, b, nil
}

func (fs *FileSource) normalize(v int) float32 {
	return float32(float64(v) / fs.fullScale)
}

// Close implements Source.
func (fs *FileSource) Close() error {
	if fs.file != nil {
		return fs.file.Close()
	}
	return nil
}
