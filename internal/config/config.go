// Package config loads and validates the YAML configuration surface: the
// audio source, the processing graph definition, and the streaming
// infrastructure knobs, decoded from a single top-level YAML document
// with yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sctg-development/photoacoustic-core/pkg/apperr"
)

// NodeConfig is one entry of the processing graph's node list.
type NodeConfig struct {
	ID         string         `yaml:"id"`
	NodeType   string         `yaml:"node_type"`
	Parameters map[string]any `yaml:"parameters"`
}

// ConnectionConfig is one `{from, to}` edge of the processing graph.
type ConnectionConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// GraphConfig is the processing graph's config surface: nodes,
// connections, and the designated input/output node ids.
type GraphConfig struct {
	Nodes       []NodeConfig       `yaml:"nodes"`
	Connections []ConnectionConfig `yaml:"connections"`
	InputNode   string             `yaml:"input_node"`
	OutputNode  string             `yaml:"output_node"`
}

// SourceConfig is the input audio config surface: unless Mock is set,
// exactly one of DeviceName or FilePath must be set, XOR.
type SourceConfig struct {
	DeviceName string  `yaml:"device_name"`
	FilePath   string  `yaml:"file_path"`
	Mock       bool    `yaml:"mock"`
	Correlation float64 `yaml:"correlation"`
}

// StreamingConfig is the broadcast infrastructure config surface.
type StreamingConfig struct {
	RingCapacity    int     `yaml:"ring_capacity"`
	TargetFPS       float64 `yaml:"target_fps"`
	SubscriberTimeoutSeconds float64 `yaml:"subscriber_timeout_seconds"`
}

// Config is the top-level document decoded from a config YAML file.
type Config struct {
	Source SourceConfig `yaml:"source"`

	ExcitationFrequencyHz float64 `yaml:"excitation_frequency_hz"`
	FilterBandwidthHz     float64 `yaml:"filter_bandwidth_hz"`
	WindowSize            int     `yaml:"window_size"`
	Averages              int     `yaml:"averages"`
	SampleRate            int     `yaml:"sample_rate"`
	SamplePrecision       int     `yaml:"sample_precision"`

	Graph GraphConfig `yaml:"graph"`

	Streaming StreamingConfig `yaml:"streaming"`
}

// Load reads and decodes a YAML config file, then validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperr.IO{Path: path, Cause: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &apperr.Serialization{Cause: fmt.Errorf("decoding %q: %w", path, err)}
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Streaming.RingCapacity <= 0 {
		c.Streaming.RingCapacity = 64
	}
	if c.Streaming.SubscriberTimeoutSeconds <= 0 {
		c.Streaming.SubscriberTimeoutSeconds = 5
	}
	if c.Streaming.TargetFPS <= 0 {
		c.Streaming.TargetFPS = float64(c.SampleRate) / float64(max1(c.WindowSize))
	}
}

func max1(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// Validate checks every constraint the config surface declares:
// device-name/file-path exclusivity, numeric ranges, the power-of-two
// window size, and the graph's node/connection id references (the
// graph's internal shape validation — cycles, type mismatches, fan-in —
// is performed by graph.Graph.Validate once the nodes are constructed).
func (c *Config) Validate() error {
	haveDevice := c.Source.DeviceName != ""
	haveFile := c.Source.FilePath != ""
	if !c.Source.Mock {
		if haveDevice == haveFile {
			return &apperr.ConfigInvalid{Reason: "exactly one of source.device_name or source.file_path must be set"}
		}
	}
	if c.Source.Correlation < 0 || c.Source.Correlation > 1 {
		return &apperr.ConfigInvalid{Reason: fmt.Sprintf("source.correlation must be in [0,1], got %v", c.Source.Correlation)}
	}

	if c.WindowSize < 256 || c.WindowSize > 8192 || !isPowerOfTwo(c.WindowSize) {
		return &apperr.ConfigInvalid{Reason: fmt.Sprintf("window_size must be a power of two in [256,8192], got %d", c.WindowSize)}
	}
	if c.Averages < 1 || c.Averages > 1000 {
		return &apperr.ConfigInvalid{Reason: fmt.Sprintf("averages must be in [1,1000], got %d", c.Averages)}
	}
	if c.SampleRate < 8192 || c.SampleRate > 196608 {
		return &apperr.ConfigInvalid{Reason: fmt.Sprintf("sample_rate must be in [8192,196608], got %d", c.SampleRate)}
	}
	switch c.SamplePrecision {
	case 8, 16, 24, 32:
	default:
		return &apperr.ConfigInvalid{Reason: fmt.Sprintf("sample_precision must be one of {8,16,24,32}, got %d", c.SamplePrecision)}
	}

	if err := c.Graph.validateReferences(); err != nil {
		return err
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (g *GraphConfig) validateReferences() error {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return &apperr.ConfigInvalid{Reason: "graph node with empty id"}
		}
		if _, dup := ids[n.ID]; dup {
			return &apperr.GraphValidation{Kind: apperr.DuplicateID, Detail: n.ID}
		}
		ids[n.ID] = struct{}{}
	}
	for _, c := range g.Connections {
		if _, ok := ids[c.From]; !ok {
			return &apperr.GraphValidation{Kind: apperr.UnknownID, Detail: c.From}
		}
		if _, ok := ids[c.To]; !ok {
			return &apperr.GraphValidation{Kind: apperr.UnknownID, Detail: c.To}
		}
	}
	if g.InputNode == "" {
		return &apperr.GraphValidation{Kind: apperr.MissingInput, Detail: "graph.input_node is not set"}
	}
	if g.OutputNode == "" {
		return &apperr.GraphValidation{Kind: apperr.MissingOutput, Detail: "graph.output_node is not set"}
	}
	if _, ok := ids[g.InputNode]; !ok {
		return &apperr.GraphValidation{Kind: apperr.UnknownID, Detail: g.InputNode}
	}
	if _, ok := ids[g.OutputNode]; !ok {
		return &apperr.GraphValidation{Kind: apperr.UnknownID, Detail: g.OutputNode}
	}
	return nil
}
