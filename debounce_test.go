package main

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_RunsOnlyLastTask(t *testing.T) {
	d := NewDebouncer(40 * testTimeUnit)
	var last atomic.Int64
	var runs atomic.Int32

	for i := int64(1); i <= 5; i++ {
		i := i
		d.Trigger(func() {
			runs.Add(1)
			last.Store(i)
		})
		time.Sleep(5 * testTimeUnit)
	}
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return runs.Load() == 1 }, eventuallyTimeout, eventuallyTick)
	time.Sleep(100 * testTimeUnit)

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int64(5), last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_WaitsForQuietWindow(t *testing.T) {
	d := NewDebouncer(100 * testTimeUnit)
	fired := make(chan time.Time, 1)

	start := time.Now()
	d.Trigger(func() { fired <- time.Now() })

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 100*testTimeUnit)
	case <-time.After(eventuallyTimeout):
		t.Fatal("debounced task never ran")
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(30 * testTimeUnit)
	var runs atomic.Int32

	d.Trigger(func() { runs.Add(1) })
	d.Cancel()
	assert.False(t, d.Pending())

	time.Sleep(100 * testTimeUnit)
	assert.Equal(t, int32(0), runs.Load())

	d.Trigger(func() { runs.Add(1) })
	require.Eventually(t, func() bool { return runs.Load() == 1 }, eventuallyTimeout, eventuallyTick)
}

func TestDebouncer_CancelWithoutPendingTask(t *testing.T) {
	d := NewDebouncer(10 * testTimeUnit)
	assert.NotPanics(t, d.Cancel)
	assert.False(t, d.Pending())
}
