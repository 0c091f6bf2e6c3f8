package emuaudio

import (
	"fmt"
	"log/slog"
	"time"
)

// Pipeline bundles the producer-side mixer with the consumer-side stream
// around a shared ring buffer. Use NewPipeline for the common case; the
// pieces can also be assembled by hand when a custom buffer size or a direct
// RingBuffer consumer is needed.
type Pipeline struct {
	// Mixer is the producer-side entry point; call SetRate before Mix.
	Mixer *Mixer

	// Buffer is the shared ring buffer, exposed for occupancy monitoring
	// and for consumers that drain it directly.
	Buffer *RingBuffer

	// Stream drains Buffer as an io.Reader for pull-based players.
	Stream *Stream
}

// NewPipeline wires a complete pipeline for the given device sample rate,
// with the ring buffer sized to hold the requested playback latency of
// stereo int16 audio, rounded down to whole frames.
//
// Latency picks the equilibrium delay: rate control steers occupancy toward
// half the buffer, so audio sits roughly latency/2 behind the emulation.
func NewPipeline(logger *slog.Logger, deviceRate float64, latency time.Duration, opts ...MixerOption) (*Pipeline, error) {
	frames := int(deviceRate * latency.Seconds())
	capacity := frames * frameBytes

	fifo, err := NewRingBuffer(capacity)
	if err != nil {
		return nil, fmt.Errorf("sizing ring buffer for %v at %v Hz: %w", latency, deviceRate, err)
	}

	return &Pipeline{
		Mixer:  NewMixer(logger, deviceRate, fifo, opts...),
		Buffer: fifo,
		Stream: NewStream(fifo),
	}, nil
}

// Close releases the mixer's conversion engine.
func (p *Pipeline) Close() error {
	return p.Mixer.Close()
}
