package emuaudio

import "sync"

// RingBuffer is a fixed-capacity circular byte buffer shared between one
// producer and one consumer running on independent goroutines. A single
// mutex serializes all reads, writes, and occupancy queries, so cursors and
// the free-space counter always change atomically together.
//
// Read and Write validate their size against occupancy and free space and
// fail without side effects when the caller overruns; lock hold time is
// bounded by the copy itself, keeping the consumer's real-time callback free
// of long stalls.
type RingBuffer struct {
	mu    sync.Mutex
	data  []byte
	size  int // capacity, immutable after NewRingBuffer
	avail int // bytes currently free for writing
	first int // read cursor
	last  int // write cursor
}

// NewRingBuffer allocates a buffer of the given byte capacity. The buffer
// starts empty: Free() == capacity, both cursors at zero.
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	return &RingBuffer{
		data:  make([]byte, capacity),
		size:  capacity,
		avail: capacity,
	}, nil
}

// Reset discards all buffered data, restoring Free() == Capacity() and both
// cursors to zero without reallocating.
//
// Reset takes no lock: it is meant for quiescent re-initialization only, and
// the caller must ensure no concurrent Read or Write is in flight.
func (b *RingBuffer) Reset() {
	b.avail = b.size
	b.first = 0
	b.last = 0
}

// Read copies len(dst) bytes out of the buffer, splitting the copy in two
// when the range wraps past the end of the backing store. It fails with
// ErrBufferUnderrun, copying nothing, if the buffer holds fewer bytes.
func (b *RingBuffer) Read(dst []byte) error {
	size := len(dst)

	b.mu.Lock()
	defer b.mu.Unlock()

	if size > b.size-b.avail {
		return ErrBufferUnderrun
	}

	first := size
	second := 0
	if first > b.size-b.first {
		first = b.size - b.first
		second = size - first
	}

	copy(dst[:first], b.data[b.first:])
	copy(dst[first:], b.data[:second])

	b.first = (b.first + size) % b.size
	b.avail += size

	return nil
}

// Write copies len(src) bytes into the buffer, splitting across the wrap
// boundary as needed. It fails with ErrBufferOverrun, copying nothing, if
// the buffer lacks the free space.
func (b *RingBuffer) Write(src []byte) error {
	size := len(src)

	b.mu.Lock()
	defer b.mu.Unlock()

	if size > b.avail {
		return ErrBufferOverrun
	}

	first := size
	second := 0
	if first > b.size-b.last {
		first = b.size - b.last
		second = size - first
	}

	copy(b.data[b.last:], src[:first])
	copy(b.data[:second], src[first:])

	b.last = (b.last + size) % b.size
	b.avail -= size

	return nil
}

// Occupied returns the number of buffered bytes available for reading. The
// value is a snapshot and may be stale as soon as it returns when the other
// side is active.
func (b *RingBuffer) Occupied() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size - b.avail
}

// Free returns the number of bytes available for writing. Same staleness
// caveat as Occupied.
func (b *RingBuffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.avail
}

// Capacity returns the total byte capacity set at construction.
func (b *RingBuffer) Capacity() int {
	return b.size
}
