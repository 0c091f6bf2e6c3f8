package emuaudio

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 8)

	// A second pipeline cannot share the same registry unlabelled.
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestMixer_UpdatesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mx, err := NewMetrics(reg)
	require.NoError(t, err)

	fifo, err := NewRingBuffer(4096)
	require.NoError(t, err)

	var engines []*stubEngine
	m := NewMixer(testLogger(), 48000, fifo,
		WithEngineFactory(stubFactory(&engines)),
		WithMetrics(mx))
	require.NoError(t, m.SetRate(48000))

	assert.Equal(t, 4096.0, testutil.ToFloat64(mx.bufferCapacity))

	m.Mix(make([]int16, 200))

	assert.Equal(t, 1.0, testutil.ToFloat64(mx.blocksTotal))
	assert.Equal(t, float64(fifo.Occupied()), testutil.ToFloat64(mx.bytesWrittenTotal))
	assert.Equal(t, float64(fifo.Occupied()), testutil.ToFloat64(mx.bufferOccupancy))
	assert.Equal(t, m.Ratio(), testutil.ToFloat64(mx.conversionRatio))
	assert.Zero(t, testutil.ToFloat64(mx.conversionErrors))

	// A failing conversion counts as an error, not a dropped block.
	engines[0].fail = true
	m.Mix(make([]int16, 200))
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.conversionErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(mx.blocksTotal))
	assert.Zero(t, testutil.ToFloat64(mx.droppedBlocks))

	// A block with no engine configured is dropped.
	require.NoError(t, m.Close())
	m.Mix(make([]int16, 200))
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.droppedBlocks))
}
