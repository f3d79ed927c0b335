package adapter_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/cadence/pkg/adapter"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestDebouncer_OnlyLastActionRuns(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := adapter.NewDebouncer(context.Background(), adapter.DefaultQuietWindow, clock)

	var runs, last atomic.Int32

	for i := 1; i <= 5; i++ {
		d.Schedule(func(context.Context) {
			runs.Add(1)
			last.Store(int32(i))
		})
		clock.Advance(100 * time.Millisecond)
	}

	assert.True(t, d.Pending())

	clock.Advance(399 * time.Millisecond)
	assert.Zero(t, runs.Load(), "quiet window restarts on every schedule")

	clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending())

	clock.Advance(time.Hour)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestDebouncer_Flush(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := adapter.NewDebouncer(context.Background(), adapter.DefaultQuietWindow, clock)

	assert.False(t, d.Flush(context.Background()))

	var runs atomic.Int32
	d.Schedule(func(context.Context) { runs.Add(1) })

	assert.True(t, d.Flush(context.Background()))
	assert.Equal(t, int32(1), runs.Load())

	clock.Advance(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "flushed action does not fire again")
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := adapter.NewDebouncer(context.Background(), adapter.DefaultQuietWindow, clock)

	var runs atomic.Int32
	d.Schedule(func(context.Context) { runs.Add(1) })

	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	clock.Advance(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, runs.Load())
}
