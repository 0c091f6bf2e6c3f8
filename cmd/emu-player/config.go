package main

import (
	"flag"
	"fmt"

	"github.com/BurntSushi/toml"
	emuaudio "github.com/tphakala/go-emu-audio"
)

// config collects everything adjustable about the demo player. Values come
// from built-in defaults, then an optional TOML file, then command-line
// flags, each layer overriding the previous one.
type config struct {
	DeviceRate  float64 `toml:"device_rate"`
	SourceRate  float64 `toml:"source_rate"`
	LatencyMS   int     `toml:"latency_ms"`
	Quality     string  `toml:"quality"`
	Gain        float64 `toml:"rate_control_gain"`
	Drift       float64 `toml:"clock_drift"`
	Duration    float64 `toml:"duration_s"`
	ToneHz      float64 `toml:"tone_hz"`
	Record      string  `toml:"record"`
	MetricsAddr string  `toml:"metrics_addr"`
	LogFile     string  `toml:"log_file"`
	JSONLog     bool    `toml:"json_log"`
	Verbose     bool    `toml:"verbose"`
}

func defaultConfig() config {
	return config{
		DeviceRate: emuaudio.RateDAT,
		SourceRate: 32040, // SNES-style core output rate
		LatencyMS:  64,
		Quality:    "medium",
		Gain:       emuaudio.DefaultRateControlGain,
		ToneHz:     440,
	}
}

// newFlagSet binds the player flags to cfg, using cfg's current values as
// flag defaults.
func newFlagSet(cfg *config) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("emu-player", flag.ContinueOnError)

	configPath := fs.String("config", "", "TOML configuration file")
	fs.Float64Var(&cfg.DeviceRate, "device-rate", cfg.DeviceRate, "playback device sample rate in Hz")
	fs.Float64Var(&cfg.SourceRate, "source-rate", cfg.SourceRate, "declared core sample rate in Hz")
	fs.IntVar(&cfg.LatencyMS, "latency", cfg.LatencyMS, "ring buffer size as playback latency in milliseconds")
	fs.StringVar(&cfg.Quality, "quality", cfg.Quality, "conversion quality: quick, low, medium, high, veryhigh")
	fs.Float64Var(&cfg.Gain, "gain", cfg.Gain, "rate control gain")
	fs.Float64Var(&cfg.Drift, "drift", cfg.Drift, "simulated core clock drift per second (e.g. 0.0005)")
	fs.Float64Var(&cfg.Duration, "duration", cfg.Duration, "run time in seconds, 0 runs until interrupted")
	fs.Float64Var(&cfg.ToneHz, "tone", cfg.ToneHz, "test tone frequency in Hz")
	fs.StringVar(&cfg.Record, "record", cfg.Record, "record to WAV file instead of playing")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log to this file with rotation instead of stderr")
	fs.BoolVar(&cfg.JSONLog, "json-log", cfg.JSONLog, "emit JSON structured logs")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	return fs, configPath
}

// loadConfig parses args twice when a config file is named: the first pass
// locates the file, the second re-applies explicit flags on top of it.
func loadConfig(args []string) (config, error) {
	cfg := defaultConfig()
	fs, configPath := newFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if *configPath != "" {
		fileCfg, err := decodeConfigFile(*configPath)
		if err != nil {
			return config{}, err
		}
		cfg = fileCfg
		fs, _ = newFlagSet(&cfg)
		if err := fs.Parse(args); err != nil {
			return config{}, err
		}
	}

	return cfg, validateConfig(cfg)
}

// decodeConfigFile reads a TOML file over the built-in defaults.
func decodeConfigFile(path string) (config, error) {
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return cfg, nil
}

func validateConfig(cfg config) error {
	if cfg.DeviceRate <= 0 {
		return fmt.Errorf("device rate must be positive, got %v", cfg.DeviceRate)
	}
	if cfg.SourceRate <= 0 {
		return fmt.Errorf("source rate must be positive, got %v", cfg.SourceRate)
	}
	if cfg.LatencyMS < 1 {
		return fmt.Errorf("latency must be at least 1 ms, got %d", cfg.LatencyMS)
	}
	if cfg.Gain <= 0 || cfg.Gain >= 1 {
		return fmt.Errorf("rate control gain must be in (0, 1), got %v", cfg.Gain)
	}
	if _, err := parseQuality(cfg.Quality); err != nil {
		return err
	}
	return nil
}

// parseQuality maps a config string onto a conversion quality level.
func parseQuality(s string) (emuaudio.Quality, error) {
	switch s {
	case "quick":
		return emuaudio.QualityQuick, nil
	case "low":
		return emuaudio.QualityLow, nil
	case "medium", "":
		return emuaudio.QualityMedium, nil
	case "high":
		return emuaudio.QualityHigh, nil
	case "veryhigh":
		return emuaudio.QualityVeryHigh, nil
	default:
		return 0, fmt.Errorf("unknown quality %q", s)
	}
}
