package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	emuaudio "github.com/tphakala/go-emu-audio"
)

const (
	// toneAmplitude keeps the test tone comfortably below full scale.
	toneAmplitude = 0.25 * 32767

	// recordInterval paces the WAV recorder the way a device callback
	// would pace real playback.
	recordInterval = 50 * time.Millisecond

	wavFormatPCM = 1
	wavBitDepth  = 16
)

// toneGenerator synthesizes an interleaved stereo sine, standing in for the
// emulated machine's audio output.
type toneGenerator struct {
	freq  float64
	rate  float64
	phase float64
	block []int16
}

func newToneGenerator(freq, rate float64) *toneGenerator {
	return &toneGenerator{freq: freq, rate: rate}
}

// next returns the following block of the given frame count. The returned
// slice is reused across calls.
func (g *toneGenerator) next(frames int) []int16 {
	need := frames * 2
	if cap(g.block) < need {
		g.block = make([]int16, need)
	}
	block := g.block[:need]

	step := 2 * math.Pi * g.freq / g.rate
	for i := range frames {
		s := int16(toneAmplitude * math.Sin(g.phase))
		block[i*2] = s
		block[i*2+1] = s
		g.phase += step
		if g.phase >= 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
	}

	return block
}

// startPlayback opens the default audio device and begins draining the
// stream. The returned function stops playback and releases the device.
func startPlayback(stream *emuaudio.Stream, cfg config) (func(), error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(cfg.DeviceRate),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(stream)
	player.Play()

	return func() { _ = player.Close() }, nil
}

// recordWAV drains the stream at playback cadence into a WAV file until the
// context is cancelled.
func recordWAV(ctx context.Context, stream *emuaudio.Stream, cfg config) error {
	f, err := os.Create(cfg.Record)
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Record, err)
	}

	enc := wav.NewEncoder(f, int(cfg.DeviceRate), wavBitDepth, 2, wavFormatPCM)

	chunkFrames := int(cfg.DeviceRate * recordInterval.Seconds())
	raw := make([]byte, chunkFrames*4)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: int(cfg.DeviceRate)},
		Data:           make([]int, chunkFrames*2),
		SourceBitDepth: wavBitDepth,
	}

	ticker := time.NewTicker(recordInterval)
	defer ticker.Stop()

	// On a write error keep draining anyway: stopping the consumer would
	// leave the producer stuck in its backpressure wait.
	var writeErr error
	for {
		select {
		case <-ctx.Done():
			if err := enc.Close(); err != nil && writeErr == nil {
				writeErr = fmt.Errorf("finalizing %s: %w", cfg.Record, err)
			}
			if err := f.Close(); err != nil && writeErr == nil {
				writeErr = err
			}
			return writeErr
		case <-ticker.C:
			stream.Read(raw)
			if writeErr != nil {
				continue
			}
			for i := range buf.Data {
				buf.Data[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
			}
			if err := enc.Write(buf); err != nil {
				writeErr = fmt.Errorf("writing %s: %w", cfg.Record, err)
			}
		}
	}
}
