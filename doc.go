// Package emuaudio implements the audio output pipeline of a software
// emulator: it accepts variable-rate PCM blocks from an emulated machine and
// feeds a fixed-rate playback device with continuous stereo audio.
//
// The emulated machine's clock and the audio device's clock are never exactly
// in sync, and the machine's effective sample rate may drift at runtime. The
// pipeline absorbs both with two cooperating pieces:
//
//   - [RingBuffer]: a mutex-guarded, fixed-capacity byte FIFO shared between
//     the emulation goroutine (producer) and the device callback (consumer).
//   - [Mixer]: owns a sample-rate conversion engine and retunes the conversion
//     ratio on every block from live buffer occupancy, so the buffer is held
//     near half full without audible pitch artifacts.
//
// # Quick Start
//
//	pipe, err := emuaudio.NewPipeline(nil, emuaudio.RateDAT, 64*time.Millisecond)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := pipe.Mixer.SetRate(32040); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Emulation goroutine: push interleaved stereo int16 blocks.
//	pipe.Mixer.Mix(samples)
//
//	// Device side: drain through an io.Reader (oto, ebiten/audio, ...).
//	player := otoCtx.NewPlayer(pipe.Stream)
//	player.Play()
//
// # Data Flow
//
//	emulation -> Mixer.Mix -> [rate control] -> Engine.Process -> RingBuffer.Write
//	                                     device callback <- Stream.Read <- RingBuffer.Read
//
// # Rate Control
//
// Mix applies a proportional feedback controller: the conversion ratio is the
// nominal deviceRate/sourceRate scaled by 1 + gain*direction, where direction
// measures how far buffer occupancy sits from the half-full target. The
// default gain of 0.005 keeps the worst-case pitch deviation at half a
// percent, well below audibility, while tracking slow clock drift on either
// side of the buffer.
//
// # Pacing
//
// When the ring buffer lacks room for a converted block, Mix sleeps in short
// increments and re-polls until the consumer has drained enough space. This
// backpressure is what ultimately paces emulation speed to audio playback
// speed; do not replace it with a drop-oldest policy.
//
// # Failure Behavior
//
// Only initialization failures ([NewRingBuffer], [Mixer.SetRate]) surface as
// errors to the caller. Steady-state conversion failures are absorbed: the
// affected block is written as silence and logged, because audio continuity
// outranks fidelity for a single glitched block. A stalled consumer blocks
// the producer indefinitely; that condition is already fatal upstream.
//
// # Sample Format
//
// The pipeline carries interleaved stereo int16 PCM. The ring buffer itself
// is byte-oriented; the mixer writes little-endian samples, matching what
// playback libraries such as oto consume directly.
package emuaudio
