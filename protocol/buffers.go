package protocol

import "errors"

// BufferSize is the payload capacity of one link buffer (decoded bytes)
const BufferSize = 24

var ErrBufferFull = errors.New("link buffer full")

// bufIndex links buffers inside the link arena
type bufIndex int8

const nilBuf bufIndex = -1

// Buffer is one message slot of the link pool. While a caller composes an
// outbound message it owns the buffer exclusively; after QueueSend the
// link owns it until it has been sent.
type Buffer struct {
	next bufIndex
	pos  int // Write cursor while filling, read cursor while sending
	cnt  int // Bytes left to send, or received length
	data [BufferSize]byte
}

func (b *Buffer) reset() {
	b.next = nilBuf
	b.pos = 0
	b.cnt = 0
}

// Write appends p. A short write returns ErrBufferFull.
func (b *Buffer) Write(p []byte) (int, error) {
	n := copy(b.data[b.pos:], p)
	b.pos += n
	if n < len(p) {
		return n, ErrBufferFull
	}
	return n, nil
}

// WriteByte appends one byte
func (b *Buffer) WriteByte(c byte) error {
	if b.pos >= len(b.data) {
		return ErrBufferFull
	}
	b.data[b.pos] = c
	b.pos++
	return nil
}

// Len returns the number of bytes composed so far
func (b *Buffer) Len() int {
	return b.pos
}

// Bytes returns the bytes composed so far
func (b *Buffer) Bytes() []byte {
	return b.data[:b.pos]
}

// RingBuffer is a bounded byte FIFO. Pushes fail rather than overwrite
// when there is no room.
type RingBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewRingBuffer creates a ring that holds capacity-1 bytes
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// PushByte appends one byte, returning false when full
func (r *RingBuffer) PushByte(b byte) bool {
	next := (r.write + 1) % r.size
	if next == r.read {
		return false
	}
	r.buf[r.write] = b
	r.write = next
	return true
}

// Push appends as much of data as fits and returns the count.
// A count below len(data) means the ring ran out of room.
func (r *RingBuffer) Push(data []byte) int {
	n := 0
	for _, b := range data {
		if !r.PushByte(b) {
			break
		}
		n++
	}
	return n
}

// PopByte removes the oldest byte
func (r *RingBuffer) PopByte() (byte, bool) {
	if r.read == r.write {
		return 0, false
	}
	b := r.buf[r.read]
	r.read = (r.read + 1) % r.size
	return b, true
}

// Available returns the number of bytes waiting to be read
func (r *RingBuffer) Available() int {
	if r.write >= r.read {
		return r.write - r.read
	}
	return r.size - r.read + r.write
}

// Free returns the number of bytes that can still be pushed
func (r *RingBuffer) Free() int {
	return r.size - r.Available() - 1
}

// IsEmpty returns true if the ring is empty
func (r *RingBuffer) IsEmpty() bool {
	return r.read == r.write
}

// Reset clears the ring
func (r *RingBuffer) Reset() {
	r.read = 0
	r.write = 0
}
