package graph

import (
	"sync"

	"github.com/sctg-development/photoacoustic-core/pkg/broadcast"
	"github.com/sctg-development/photoacoustic-core/pkg/processing"
)

// StreamRegistry owns the named secondary SharedStreams that streaming
// nodes publish onto, lazily created on first publish or first Subscribe
// call. It implements processing.StreamRegistrar.
type StreamRegistry struct {
	mu       sync.Mutex
	capacity int
	streams  map[string]*broadcast.SharedStream[processing.Data]
}

// NewStreamRegistry creates a registry whose streams are each created
// with the given ring capacity.
func NewStreamRegistry(capacity int) *StreamRegistry {
	return &StreamRegistry{
		capacity: capacity,
		streams:  make(map[string]*broadcast.SharedStream[processing.Data]),
	}
}

func (r *StreamRegistry) streamFor(streamID string) *broadcast.SharedStream[processing.Data] {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[streamID]
	if !ok {
		s = broadcast.New[processing.Data](r.capacity)
		r.streams[streamID] = s
	}
	return s
}

// Publish implements processing.StreamRegistrar.
func (r *StreamRegistry) Publish(streamID string, payload processing.Data) {
	r.streamFor(streamID).Publish(payload)
}

// Subscribe returns a subscription onto the named stream, creating it if
// no streaming node has published to it yet.
func (r *StreamRegistry) Subscribe(streamID string) *broadcast.Subscription[processing.Data] {
	return r.streamFor(streamID).Subscribe()
}

// StreamIDs returns the set of stream ids that have been created so far.
func (r *StreamRegistry) StreamIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.streams))
	for id := range r.streams {
		ids = append(ids, id)
	}
	return ids
}

// Close closes every registered stream.
func (r *StreamRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.streams {
		s.Close()
	}
}
