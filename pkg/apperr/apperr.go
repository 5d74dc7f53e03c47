// Package apperr defines the closed set of error kinds used across the
// acquisition, graph, and configuration layers, extended with structured
// fields where a bare sentinel loses information a caller needs (which
// node failed, which path, why).
package apperr

import (
	"errors"
	"fmt"
)

// ErrAudioSourceUnavailable indicates the source could not be opened or
// has failed in a way that is not recoverable by retrying.
var ErrAudioSourceUnavailable = errors.New("apperr: audio source unavailable")

// ErrAudioSourceEndOfStream names the end-of-stream kind for callers that
// only depend on apperr. It is a separate value from source.ErrEndOfStream,
// which is what sources return and the acquisition driver checks;
// errors.Is does not match one against the other.
var ErrAudioSourceEndOfStream = errors.New("apperr: audio source end of stream")

// FrameReadTransient wraps a recoverable read failure; the acquisition
// driver retries after a fixed backoff.
type FrameReadTransient struct {
	Cause error
}

func (e *FrameReadTransient) Error() string {
	return fmt.Sprintf("transient frame read error: %v", e.Cause)
}

func (e *FrameReadTransient) Unwrap() error { return e.Cause }

// BufferOverflow is informational: a SharedStream evicted a frame that a
// subscriber had not yet read. It is never returned from Publish; it
// exists so log sites and tests share one vocabulary for the condition.
type BufferOverflow struct {
	StreamName string
	Skipped    uint64
}

func (e *BufferOverflow) Error() string {
	return fmt.Sprintf("buffer overflow on %q: %d frames skipped", e.StreamName, e.Skipped)
}

// NodeProcessing wraps an error returned from a node's process step.
type NodeProcessing struct {
	NodeID string
	Cause  error
}

func (e *NodeProcessing) Error() string {
	return fmt.Sprintf("node %q processing error: %v", e.NodeID, e.Cause)
}

func (e *NodeProcessing) Unwrap() error { return e.Cause }

// GraphValidationKind enumerates the closed set of graph construction
// failures.
type GraphValidationKind string

const (
	DuplicateID         GraphValidationKind = "duplicate_id"
	UnknownID           GraphValidationKind = "unknown_id"
	Cycle               GraphValidationKind = "cycle"
	TypeMismatch        GraphValidationKind = "type_mismatch"
	NoPathInputToOutput GraphValidationKind = "no_path_input_to_output"
	MissingInput        GraphValidationKind = "missing_input"
	MissingOutput       GraphValidationKind = "missing_output"
)

// GraphValidation reports a graph construction or validation failure.
type GraphValidation struct {
	Kind   GraphValidationKind
	Detail string
}

func (e *GraphValidation) Error() string {
	return fmt.Sprintf("graph validation failed (%s): %s", e.Kind, e.Detail)
}

// ConfigInvalid reports a configuration value that failed validation.
type ConfigInvalid struct {
	Reason string
}

func (e *ConfigInvalid) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// IO wraps a filesystem error with the path that triggered it.
type IO struct {
	Path  string
	Cause error
}

func (e *IO) Error() string {
	return fmt.Sprintf("io error on %q: %v", e.Path, e.Cause)
}

func (e *IO) Unwrap() error { return e.Cause }

// Serialization reports a failure encoding or decoding a wire payload.
type Serialization struct {
	Cause error
}

func (e *Serialization) Error() string {
	return fmt.Sprintf("serialization error: %v", e.Cause)
}

func (e *Serialization) Unwrap() error { return e.Cause }
