package emuaudio

import "time"

// Sample layout constants. The pipeline carries interleaved stereo int16 PCM.
const (
	stereoChannels = 2
	bytesPerSample = 2
	frameBytes     = stereoChannels * bytesPerSample
)

// int16 PCM conversion bounds.
const (
	maxInt16 = 32767.0
	minInt16 = -32768.0
)

// Rate control defaults.
const (
	// DefaultRateControlGain bounds how strongly buffer occupancy perturbs
	// the conversion ratio per block. 0.005 caps the pitch deviation at
	// half a percent, below the audibility threshold.
	DefaultRateControlGain = 0.005

	// defaultPollInterval is how long Mix sleeps between free-space polls
	// while waiting for the consumer to drain the ring buffer.
	defaultPollInterval = time.Millisecond
)

// Common playback device sample rates.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate, the usual default of desktop
	// audio devices.
	RateDAT = 48000

	// RateHiRes96 is the high-resolution 2x DAT sample rate.
	RateHiRes96 = 96000
)
