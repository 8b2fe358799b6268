package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureKeepsWallTime(t *testing.T) {
	c, err := Measure(func() error {
		time.Sleep(2 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c.Duration, 2*time.Millisecond)
	if !c.Hardware {
		assert.Zero(t, c.Cycles)
		assert.Contains(t, c.String(), "unavailable")
	}
}

func TestMeasurePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Measure(func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestCountersDerived(t *testing.T) {
	var c Counters
	assert.Zero(t, c.IPC())

	c = Counters{Duration: 40 * time.Millisecond, Cycles: 400, Instructions: 1000, LLCMisses: 8, Hardware: true}
	assert.InDelta(t, 2.5, c.IPC(), 1e-12)
	assert.Contains(t, c.String(), "ipc           2.50")

	per := c.PerOp(4)
	assert.Equal(t, 10*time.Millisecond, per.Duration)
	assert.Equal(t, uint64(100), per.Cycles)
	assert.Equal(t, uint64(2), per.LLCMisses)
	assert.True(t, per.Hardware)
	assert.Equal(t, c, c.PerOp(1))
}

func TestMonitorStopWithoutStart(t *testing.T) {
	c := NewMonitor().Stop()
	assert.False(t, c.Hardware)
}
