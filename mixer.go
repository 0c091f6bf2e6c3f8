package emuaudio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"
)

// Mixer converts variable-rate PCM blocks from the emulated machine and
// pushes them into a ring buffer drained by the playback device. It owns the
// conversion engine and retunes the conversion ratio on every block from
// live buffer occupancy.
//
// All methods must be called from the producer goroutine only; the ring
// buffer is the sole structure shared with the consumer.
type Mixer struct {
	log     *slog.Logger
	fifo    *RingBuffer
	metrics *Metrics

	deviceRate   float64
	sourceRate   float64
	nominalRatio float64
	currentRatio float64
	gain         float64
	pollInterval time.Duration

	quality   Quality
	newEngine EngineFactory
	engine    Engine

	outSamples []int16 // conversion scratch, reused across blocks
	outBytes   []byte  // encoding scratch, reused across blocks
}

// MixerOption configures a Mixer at construction.
type MixerOption func(*Mixer)

// WithEngineFactory replaces the default conversion engine factory.
func WithEngineFactory(f EngineFactory) MixerOption {
	return func(m *Mixer) { m.newEngine = f }
}

// WithQuality sets the conversion quality used for engines built by SetRate.
func WithQuality(q Quality) MixerOption {
	return func(m *Mixer) { m.quality = q }
}

// WithRateControlGain overrides DefaultRateControlGain.
func WithRateControlGain(gain float64) MixerOption {
	return func(m *Mixer) { m.gain = gain }
}

// WithPollInterval sets how long Mix sleeps between free-space polls while
// waiting out backpressure.
func WithPollInterval(d time.Duration) MixerOption {
	return func(m *Mixer) { m.pollInterval = d }
}

// WithMetrics wires Prometheus instrumentation into the mixer.
func WithMetrics(mx *Metrics) MixerOption {
	return func(m *Mixer) { m.metrics = mx }
}

// NewMixer creates a mixer feeding the given ring buffer at the fixed device
// sample rate. The buffer is externally owned and shared with the consumer.
// No conversion engine exists until the first successful SetRate call.
//
// A nil logger falls back to slog.Default().
func NewMixer(logger *slog.Logger, deviceRate float64, fifo *RingBuffer, opts ...MixerOption) *Mixer {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mixer{
		log:          logger,
		fifo:         fifo,
		deviceRate:   deviceRate,
		gain:         DefaultRateControlGain,
		pollInterval: defaultPollInterval,
		quality:      DefaultQuality,
		newEngine:    NewSoxrEngine,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.metrics != nil {
		m.metrics.bufferCapacity.Set(float64(fifo.Capacity()))
	}

	return m
}

// SetRate reconfigures the mixer for a new source sample rate: the previous
// engine is closed, the nominal ratio recomputed as deviceRate/sourceRate,
// and a fresh stereo engine built. On failure the mixer is left without an
// engine and Mix drops blocks until a later SetRate succeeds; there is no
// automatic retry.
func (m *Mixer) SetRate(sourceRate float64) error {
	if sourceRate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, sourceRate)
	}

	if m.engine != nil {
		if err := m.engine.Close(); err != nil {
			m.log.Warn("closing previous resampler", "error", err)
		}
		m.engine = nil
	}

	m.sourceRate = sourceRate
	m.nominalRatio = m.deviceRate / sourceRate
	m.currentRatio = m.nominalRatio

	engine, err := m.newEngine(stereoChannels, sourceRate, m.deviceRate, m.quality)
	if err != nil {
		m.log.Error("resampler initialization failed",
			"source_rate", sourceRate,
			"device_rate", m.deviceRate,
			"error", err)
		return fmt.Errorf("initializing resampler: %w", err)
	}
	m.engine = engine

	m.log.Info("resampler initialized",
		"source_rate", sourceRate,
		"device_rate", m.deviceRate)

	return nil
}

// Mix converts one block of interleaved stereo samples and writes the result
// into the ring buffer. When the buffer lacks room for the converted block,
// Mix sleeps in short increments until the consumer has drained enough
// space; this backpressure is what paces emulation speed to playback speed,
// and it does not time out.
//
// A conversion failure produces silence of the expected size rather than
// dropping the block, preserving timing. Blocks are dropped, with an error
// log, only when no engine is configured or the converted block could never
// fit the buffer.
func (m *Mixer) Mix(samples []int16) {
	if m.engine == nil {
		m.log.Error("mix called without a configured resampler")
		m.observeDrop()
		return
	}

	avail := m.fifo.Free()

	// Readjust the conversion ratio from buffer occupancy: scarce free
	// space slows conversion down, abundant free space speeds it up.
	halfSize := m.fifo.Capacity() / 2
	deltaMid := avail - halfSize
	direction := float64(deltaMid) / float64(halfSize)
	adjust := 1.0 + m.gain*direction
	m.currentRatio = m.nominalRatio * adjust

	inLen := (len(samples) / stereoChannels) * stereoChannels
	outLen := int(float64(inLen) * m.currentRatio)
	outLen += outLen & 1 // keep interleaved stereo pairs intact
	if outLen == 0 {
		return
	}

	if outLen*bytesPerSample > m.fifo.Capacity() {
		// The backpressure wait below could never terminate.
		m.log.Error("converted block exceeds buffer capacity",
			"block_bytes", outLen*bytesPerSample,
			"capacity", m.fifo.Capacity())
		m.observeDrop()
		return
	}

	if cap(m.outSamples) < outLen {
		m.outSamples = make([]int16, outLen)
	}
	out := m.outSamples[:outLen]

	_, written, err := m.engine.Process(samples[:inLen], out)
	if err != nil {
		// Emit silence rather than garbage, keep the block's timing.
		clear(out)
		written = outLen
		m.log.Error("resampler process failed", "error", err)
		if m.metrics != nil {
			m.metrics.conversionErrors.Inc()
		}
	}
	out = out[:written]

	size := written * bytesPerSample
	if cap(m.outBytes) < size {
		m.outBytes = make([]byte, size)
	}
	buf := m.outBytes[:size]
	for i, s := range out {
		binary.LittleEndian.PutUint16(buf[i*bytesPerSample:], uint16(s))
	}

	// Backpressure: stall the producer until the consumer frees enough
	// room. Stale readings are fine, the loop re-polls.
	for size > avail {
		if m.metrics != nil {
			m.metrics.backpressureWaits.Inc()
		}
		time.Sleep(m.pollInterval)
		avail = m.fifo.Free()
	}

	if err := m.fifo.Write(buf); err != nil {
		// Only possible if something other than the device also reads.
		m.log.Error("ring buffer write failed", "error", err)
		m.observeDrop()
		return
	}

	if m.metrics != nil {
		m.metrics.blocksTotal.Inc()
		m.metrics.bytesWrittenTotal.Add(float64(size))
		m.metrics.bufferOccupancy.Set(float64(m.fifo.Occupied()))
		m.metrics.conversionRatio.Set(m.currentRatio)
	}
}

// Close releases the conversion engine, if any. The mixer can be reused
// after a subsequent successful SetRate.
func (m *Mixer) Close() error {
	if m.engine == nil {
		return nil
	}
	err := m.engine.Close()
	m.engine = nil
	return err
}

// Ratio returns the conversion ratio applied to the most recent block.
func (m *Mixer) Ratio() float64 {
	return m.currentRatio
}

// NominalRatio returns deviceRate/sourceRate for the configured source rate.
func (m *Mixer) NominalRatio() float64 {
	return m.nominalRatio
}

func (m *Mixer) observeDrop() {
	if m.metrics != nil {
		m.metrics.droppedBlocks.Inc()
	}
}
