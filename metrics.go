package emuaudio

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus instrumentation for one pipeline. Wire it into a
// mixer with WithMetrics; the mixer updates it on every block, so a pipeline
// without metrics pays nothing on the hot path.
type Metrics struct {
	bufferOccupancy   prometheus.Gauge
	bufferCapacity    prometheus.Gauge
	conversionRatio   prometheus.Gauge
	blocksTotal       prometheus.Counter
	bytesWrittenTotal prometheus.Counter
	conversionErrors  prometheus.Counter
	droppedBlocks     prometheus.Counter
	backpressureWaits prometheus.Counter
}

// NewMetrics creates pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		bufferOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emuaudio",
			Subsystem: "buffer",
			Name:      "occupied_bytes",
			Help:      "Bytes currently buffered between producer and playback device",
		}),
		bufferCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emuaudio",
			Subsystem: "buffer",
			Name:      "capacity_bytes",
			Help:      "Total ring buffer capacity in bytes",
		}),
		conversionRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emuaudio",
			Subsystem: "mixer",
			Name:      "conversion_ratio",
			Help:      "Conversion ratio applied to the most recent block",
		}),
		blocksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emuaudio",
			Subsystem: "mixer",
			Name:      "blocks_total",
			Help:      "Blocks converted and written to the ring buffer",
		}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emuaudio",
			Subsystem: "mixer",
			Name:      "bytes_written_total",
			Help:      "Converted bytes written to the ring buffer",
		}),
		conversionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emuaudio",
			Subsystem: "mixer",
			Name:      "conversion_errors_total",
			Help:      "Blocks substituted with silence after a conversion failure",
		}),
		droppedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emuaudio",
			Subsystem: "mixer",
			Name:      "dropped_blocks_total",
			Help:      "Blocks dropped without writing to the ring buffer",
		}),
		backpressureWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emuaudio",
			Subsystem: "mixer",
			Name:      "backpressure_waits_total",
			Help:      "Sleep intervals spent waiting for the consumer to free space",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.bufferOccupancy,
		m.bufferCapacity,
		m.conversionRatio,
		m.blocksTotal,
		m.bytesWrittenTotal,
		m.conversionErrors,
		m.droppedBlocks,
		m.backpressureWaits,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return m, nil
}
