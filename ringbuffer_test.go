package emuaudio

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRingBuffer_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -4096} {
		_, err := NewRingBuffer(capacity)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity %d", capacity)
	}
}

func TestRingBuffer_StartsEmpty(t *testing.T) {
	b, err := NewRingBuffer(64)
	require.NoError(t, err)

	assert.Equal(t, 64, b.Capacity())
	assert.Equal(t, 64, b.Free())
	assert.Equal(t, 0, b.Occupied())
}

func TestRingBuffer_RoundTrip(t *testing.T) {
	b, err := NewRingBuffer(32)
	require.NoError(t, err)

	src := []byte("interleaved stereo audio")
	require.NoError(t, b.Write(src))
	assert.Equal(t, len(src), b.Occupied())

	dst := make([]byte, len(src))
	require.NoError(t, b.Read(dst))
	assert.Equal(t, src, dst)
	assert.Equal(t, 0, b.Occupied())
}

// TestRingBuffer_Wraparound forces both cursors past the end of the backing
// store and verifies content and order survive the split copies.
func TestRingBuffer_Wraparound(t *testing.T) {
	b, err := NewRingBuffer(16)
	require.NoError(t, err)

	first := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	require.NoError(t, b.Write(first))

	head := make([]byte, 8)
	require.NoError(t, b.Read(head))
	assert.Equal(t, first[:8], head)

	// 4 bytes buffered, write cursor at 12: this write wraps.
	second := []byte{12, 13, 14, 15, 16, 17, 18, 19, 20, 21}
	require.NoError(t, b.Write(second))
	assert.Equal(t, 14, b.Occupied())
	assert.Equal(t, 2, b.Free())

	rest := make([]byte, 14)
	require.NoError(t, b.Read(rest))
	assert.Equal(t, []byte{8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21}, rest)
}

func TestRingBuffer_CapacityInvariant(t *testing.T) {
	b, err := NewRingBuffer(24)
	require.NoError(t, err)

	scratch := make([]byte, 24)
	steps := []struct {
		write int
		read  int
	}{
		{write: 10}, {write: 14}, {read: 8}, {write: 6}, {read: 20},
		{write: 22}, {read: 1}, {read: 23}, {write: 3}, {read: 3},
	}

	for i, step := range steps {
		if step.write > 0 {
			require.NoError(t, b.Write(scratch[:step.write]), "step %d", i)
		}
		if step.read > 0 {
			require.NoError(t, b.Read(scratch[:step.read]), "step %d", i)
		}
		assert.Equal(t, b.Capacity(), b.Occupied()+b.Free(), "step %d", i)
	}
}

func TestRingBuffer_Overrun(t *testing.T) {
	b, err := NewRingBuffer(8)
	require.NoError(t, err)

	require.NoError(t, b.Write(make([]byte, 5)))
	err = b.Write(make([]byte, 4))
	require.ErrorIs(t, err, ErrBufferOverrun)

	// A failed write changes nothing.
	assert.Equal(t, 5, b.Occupied())
	assert.Equal(t, 3, b.Free())
}

func TestRingBuffer_Underrun(t *testing.T) {
	b, err := NewRingBuffer(8)
	require.NoError(t, err)

	require.NoError(t, b.Write([]byte{1, 2, 3}))
	err = b.Read(make([]byte, 4))
	require.ErrorIs(t, err, ErrBufferUnderrun)

	// A failed read changes nothing: the data is still there.
	dst := make([]byte, 3)
	require.NoError(t, b.Read(dst))
	assert.Equal(t, []byte{1, 2, 3}, dst)
}

func TestRingBuffer_Reset(t *testing.T) {
	b, err := NewRingBuffer(16)
	require.NoError(t, err)

	// Walk the cursors to an arbitrary position first.
	require.NoError(t, b.Write(make([]byte, 12)))
	require.NoError(t, b.Read(make([]byte, 7)))

	b.Reset()
	assert.Equal(t, 16, b.Free())
	assert.Equal(t, 0, b.Occupied())

	// The buffer is fully usable again from offset zero.
	src := []byte("0123456789abcdef")
	require.NoError(t, b.Write(src))
	dst := make([]byte, 16)
	require.NoError(t, b.Read(dst))
	assert.Equal(t, src, dst)

	// Reset on an already-empty buffer is a no-op.
	b.Reset()
	assert.Equal(t, 16, b.Free())
}

// TestRingBuffer_ProducerConsumer streams data between two goroutines with
// occupancy-checked chunked transfers and verifies nothing is torn, lost, or
// reordered.
func TestRingBuffer_ProducerConsumer(t *testing.T) {
	const total = 64 * 1024

	b, err := NewRingBuffer(256)
	require.NoError(t, err)

	payload := make([]byte, total)
	for i := range payload {
		payload[i] = byte(i * 31)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sent := 0
		for sent < total {
			n := b.Free()
			if n == 0 {
				time.Sleep(100 * time.Microsecond)
				continue
			}
			if n > total-sent {
				n = total - sent
			}
			if err := b.Write(payload[sent : sent+n]); err != nil {
				return
			}
			sent += n
		}
	}()

	received := make([]byte, 0, total)
	chunk := make([]byte, 96)
	for len(received) < total {
		n := b.Occupied()
		if n == 0 {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		if n > len(chunk) {
			n = len(chunk)
		}
		if n > total-len(received) {
			n = total - len(received)
		}
		require.NoError(t, b.Read(chunk[:n]))
		received = append(received, chunk[:n]...)
	}
	wg.Wait()

	require.True(t, bytes.Equal(payload, received), "streamed data corrupted")
	assert.Equal(t, 0, b.Occupied())
}
