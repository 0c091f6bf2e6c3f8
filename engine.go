package emuaudio

import (
	"fmt"
	"math"

	resampler "github.com/tphakala/go-audio-resampler"
)

// Engine is the sealed sample-rate conversion capability consumed by the
// mixer. Implementations convert interleaved int16 PCM between two fixed
// rates decided at construction time.
//
// The engine is owned by exactly one mixer and only ever called from the
// producer goroutine, so implementations need no internal locking.
type Engine interface {
	// Process converts samples from in into out, returning how many input
	// and output samples it used. written never exceeds len(out); streaming
	// engines with filter latency may produce fewer samples than the rate
	// ratio predicts, especially on early calls.
	Process(in, out []int16) (read, written int, err error)

	// Close releases engine resources. Process must not be called after
	// Close.
	Close() error
}

// EngineFactory builds an Engine converting interleaved PCM with the given
// channel count from inRate to outRate.
type EngineFactory func(channels int, inRate, outRate float64, quality Quality) (Engine, error)

// Quality selects the conversion quality level of the underlying engine.
type Quality int

const (
	// QualityQuick uses cubic interpolation. Fastest but lowest quality.
	QualityQuick Quality = iota

	// QualityLow provides basic conversion with ~16-bit quality.
	QualityLow

	// QualityMedium provides good quality suitable for most material.
	QualityMedium

	// QualityHigh provides professional quality with 24-bit precision.
	QualityHigh

	// QualityVeryHigh provides maximum quality with 32-bit precision.
	QualityVeryHigh
)

// DefaultQuality balances fidelity against per-block CPU cost for real-time
// use on the emulation thread.
const DefaultQuality = QualityMedium

// preset maps a Quality onto the conversion library's preset scale.
func (q Quality) preset() resampler.QualityPreset {
	switch q {
	case QualityQuick:
		return resampler.QualityQuick
	case QualityLow:
		return resampler.QualityLow
	case QualityMedium:
		return resampler.QualityMedium
	case QualityHigh:
		return resampler.QualityHigh
	case QualityVeryHigh:
		return resampler.QualityVeryHigh
	default:
		return resampler.QualityMedium
	}
}

// String returns the quality level name.
func (q Quality) String() string {
	switch q {
	case QualityQuick:
		return "quick"
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityVeryHigh:
		return "veryhigh"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// soxrEngine adapts the go-audio-resampler streaming resampler to the Engine
// boundary: interleaved int16 in, planar float64 through the converter,
// clamped interleaved int16 out.
type soxrEngine struct {
	conv     resampler.Resampler
	channels int
	planar   [][]float64 // deinterleave scratch, one slice per channel
}

// NewSoxrEngine is the default EngineFactory, backed by the pure-Go libsoxr
// port. The returned engine converts at the fixed inRate -> outRate ratio;
// callers cap its output through the out slice they pass to Process.
func NewSoxrEngine(channels int, inRate, outRate float64, quality Quality) (Engine, error) {
	conv, err := resampler.New(&resampler.Config{
		InputRate:  inRate,
		OutputRate: outRate,
		Channels:   channels,
		Quality:    resampler.QualitySpec{Preset: quality.preset()},
	})
	if err != nil {
		return nil, fmt.Errorf("creating resampler: %w", err)
	}

	return &soxrEngine{
		conv:     conv,
		channels: channels,
		planar:   make([][]float64, channels),
	}, nil
}

func (e *soxrEngine) Process(in, out []int16) (int, int, error) {
	if e.conv == nil {
		return 0, 0, ErrEngineClosed
	}

	frames := len(in) / e.channels
	for ch := range e.planar {
		if cap(e.planar[ch]) < frames {
			e.planar[ch] = make([]float64, frames)
		}
		e.planar[ch] = e.planar[ch][:frames]
	}
	for i := range frames {
		for ch := range e.channels {
			e.planar[ch][i] = float64(in[i*e.channels+ch]) / maxInt16
		}
	}

	converted, err := e.conv.ProcessMulti(e.planar)
	if err != nil {
		return 0, 0, fmt.Errorf("resampler process: %w", err)
	}

	outFrames := 0
	if len(converted) > 0 {
		outFrames = len(converted[0])
	}
	if maxFrames := len(out) / e.channels; outFrames > maxFrames {
		outFrames = maxFrames
	}
	for i := range outFrames {
		for ch := range e.channels {
			out[i*e.channels+ch] = clampSample(converted[ch][i])
		}
	}

	return frames * e.channels, outFrames * e.channels, nil
}

func (e *soxrEngine) Close() error {
	e.conv = nil
	return nil
}

// clampSample converts a normalized float64 sample to int16 with saturation.
func clampSample(v float64) int16 {
	s := math.Round(v * maxInt16)
	switch {
	case s > maxInt16:
		return math.MaxInt16
	case s < minInt16:
		return math.MinInt16
	}
	return int16(s)
}
