// Package ringbuffer implements a lock-free single-producer
// single-consumer byte ring buffer, sized to a power of two for cheap
// masked indexing. Write is all-or-nothing: it either accepts the whole
// slice or returns ErrInsufficientSpace without writing any of it, which
// is what lets a caller use rotation-on-overflow instead of partial
// writes to bound how much it accumulates before flushing.
package ringbuffer

import (
	"errors"
	"sync/atomic"
)

// ErrInsufficientSpace is returned by Write when data does not fit in the
// remaining capacity. Write never performs a partial write.
var ErrInsufficientSpace = errors.New("ringbuffer: insufficient space")

// ErrInsufficientData is returned by Read when the buffer is empty.
var ErrInsufficientData = errors.New("ringbuffer: insufficient data")

// RingBuffer is a lock-free single-producer single-consumer byte ring
// buffer.
//
//   - Write must only be called by the producer goroutine.
//   - Read must only be called by the consumer goroutine.
type RingBuffer struct {
	buffer   []byte
	size     uint64 // power of 2
	mask     uint64 // size - 1, for masked indexing
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// New creates a ring buffer with at least the given capacity, rounded up
// to the next power of 2.
func New(size uint64) *RingBuffer {
	size = nextPowerOf2(size)
	return &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
		mask:   size - 1,
	}
}

// Write writes data to the ring buffer. It writes all of len(data) bytes
// or, if that would overflow the buffer's capacity, writes nothing and
// returns ErrInsufficientSpace.
func (rb *RingBuffer) Write(data []byte) (int, error) {
	dataLen := uint64(len(data))
	if dataLen == 0 {
		return 0, nil
	}

	if dataLen > rb.availableWrite() {
		return 0, ErrInsufficientSpace
	}

	writePos := rb.writePos.Load()
	start := writePos & rb.mask
	end := (writePos + dataLen) & rb.mask

	if end > start {
		copy(rb.buffer[start:end], data)
	} else {
		firstChunk := rb.size - start
		copy(rb.buffer[start:], data[:firstChunk])
		copy(rb.buffer[:end], data[firstChunk:])
	}

	rb.writePos.Store(writePos + dataLen)
	return int(dataLen), nil
}

// Read reads up to len(data) bytes from the ring buffer into data. It
// reads as many bytes as are available, up to len(data), and returns
// that count. If the buffer is empty, it returns (0, ErrInsufficientData).
func (rb *RingBuffer) Read(data []byte) (int, error) {
	dataLen := uint64(len(data))
	if dataLen == 0 {
		return 0, nil
	}

	available := rb.availableRead()
	if available == 0 {
		return 0, ErrInsufficientData
	}
	toRead := min(dataLen, available)

	readPos := rb.readPos.Load()
	start := readPos & rb.mask
	end := (readPos + toRead) & rb.mask

	if end > start {
		copy(data[:toRead], rb.buffer[start:end])
	} else {
		firstChunk := rb.size - start
		copy(data[:firstChunk], rb.buffer[start:])
		copy(data[firstChunk:toRead], rb.buffer[:end])
	}

	rb.readPos.Store(readPos + toRead)
	return int(toRead), nil
}

// Reset clears the ring buffer by resetting read and write positions.
func (rb *RingBuffer) Reset() {
	rb.readPos.Store(0)
	rb.writePos.Store(0)
}

func (rb *RingBuffer) availableWrite() uint64 {
	return rb.size - (rb.writePos.Load() - rb.readPos.Load())
}

func (rb *RingBuffer) availableRead() uint64 {
	return rb.writePos.Load() - rb.readPos.Load()
}

// nextPowerOf2 rounds up to the next power of 2.
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
