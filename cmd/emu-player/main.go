// Command emu-player exercises the emulator audio pipeline end to end: a
// synthetic machine core produces a stereo test tone at a configurable,
// optionally drifting sample rate, the adaptive mixer converts it to the
// device rate, and the result is played through the default audio device or
// recorded to a WAV file.
//
// Usage:
//
//	emu-player                                  # play a 440 Hz tone
//	emu-player -source-rate 32040 -drift 0.0005 # SNES-like core with drift
//	emu-player -record out.wav -duration 10
//	emu-player -config player.toml -metrics :9090
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	emuaudio "github.com/tphakala/go-emu-audio"
)

const (
	// blocksPerSecond is the emulated machine's video frame rate; one audio
	// block is produced per frame, like a libretro core does.
	blocksPerSecond = 60

	// statusLogInterval spaces the periodic occupancy/ratio log lines.
	statusLogInterval = time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	quality, err := parseQuality(cfg.Quality)
	if err != nil {
		return err
	}

	opts := []emuaudio.MixerOption{
		emuaudio.WithQuality(quality),
		emuaudio.WithRateControlGain(cfg.Gain),
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		mx, err := emuaudio.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("setting up metrics: %w", err)
		}
		opts = append(opts, emuaudio.WithMetrics(mx))
		go serveMetrics(cfg.MetricsAddr, reg, logger)
	}

	pipe, err := emuaudio.NewPipeline(logger, cfg.DeviceRate,
		time.Duration(cfg.LatencyMS)*time.Millisecond, opts...)
	if err != nil {
		return err
	}
	defer pipe.Close()

	if err := pipe.Mixer.SetRate(cfg.SourceRate); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Duration*float64(time.Second)))
		defer cancel()
	}

	consumerErr := make(chan error, 1)
	if cfg.Record != "" {
		logger.Info("recording", "file", cfg.Record, "device_rate", cfg.DeviceRate)
		go func() { consumerErr <- recordWAV(ctx, pipe.Stream, cfg) }()
	} else {
		closePlayer, err := startPlayback(pipe.Stream, cfg)
		if err != nil {
			return err
		}
		defer closePlayer()
		go func() { <-ctx.Done(); consumerErr <- nil }()
	}

	produce(ctx, pipe, cfg, logger)

	if err := <-consumerErr; err != nil {
		return err
	}
	logger.Info("player stopped")
	return nil
}

// produce runs the emulation side: one audio block per emulated video frame,
// paced entirely by the mixer's backpressure against the playback device.
func produce(ctx context.Context, pipe *emuaudio.Pipeline, cfg config, logger *slog.Logger) {
	gen := newToneGenerator(cfg.ToneHz, cfg.SourceRate)
	start := time.Now()
	lastStatus := start

	for ctx.Err() == nil {
		// The core's real clock wanders away from its declared rate; the
		// mixer's rate control absorbs the mismatch.
		effective := cfg.SourceRate * (1 + cfg.Drift*time.Since(start).Seconds())
		frames := int(effective / blocksPerSecond)

		pipe.Mixer.Mix(gen.next(frames))

		if time.Since(lastStatus) >= statusLogInterval {
			logger.Info("pipeline status",
				"occupied_bytes", pipe.Buffer.Occupied(),
				"capacity_bytes", pipe.Buffer.Capacity(),
				"ratio", pipe.Mixer.Ratio())
			lastStatus = time.Now()
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}
