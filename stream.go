package emuaudio

// Stream adapts a RingBuffer to io.Reader so playback libraries that pull
// from a reader (oto, ebiten/audio) can drain the pipeline directly from
// their device callback.
type Stream struct {
	fifo *RingBuffer
}

// NewStream wraps the given ring buffer. The buffer remains externally owned
// and may still be read directly by callers that manage their own device
// callback.
func NewStream(fifo *RingBuffer) *Stream {
	return &Stream{fifo: fifo}
}

// Read drains whole stereo frames from the ring buffer and zero-fills the
// remainder of p, so a momentarily starved producer plays silence instead of
// stalling the device. It always returns len(p), nil.
//
// Draining in whole frames keeps channel alignment intact across underruns;
// players hand Read buffers sized in whole frames.
func (s *Stream) Read(p []byte) (int, error) {
	n := s.fifo.Occupied()
	if n > len(p) {
		n = len(p)
	}
	n -= n % frameBytes

	if n > 0 {
		if err := s.fifo.Read(p[:n]); err != nil {
			// Another consumer raced us for the data; emit silence.
			n = 0
		}
	}

	clear(p[n:])
	return len(p), nil
}
