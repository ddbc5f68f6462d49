package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(Config{Tick: 5 * time.Millisecond})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduler_RepeatingTaskFires(t *testing.T) {
	s := newTestScheduler(t)

	var fired atomic.Int32
	handle := s.ScheduleRepeating(10*time.Millisecond, func(ctx context.Context) {
		fired.Add(1)
	})
	require.NotNil(t, handle)

	require.Eventually(t, func() bool {
		return fired.Load() >= 2
	}, time.Second, 5*time.Millisecond, "task should fire repeatedly")
}

func TestScheduler_CancelStopsCallbacks(t *testing.T) {
	s := newTestScheduler(t)

	var fired atomic.Int32
	handle := s.ScheduleRepeating(10*time.Millisecond, func(ctx context.Context) {
		fired.Add(1)
	})

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	handle.Cancel()
	seen := fired.Load()

	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, fired.Load(), seen+1, "no callbacks after cancel besides one possibly in flight")

	// Idempotent.
	handle.Cancel()
}

func TestScheduler_RestartDefersNextRun(t *testing.T) {
	s := newTestScheduler(t)

	var fired atomic.Int32
	handle := s.ScheduleRepeating(50*time.Millisecond, func(ctx context.Context) {
		fired.Add(1)
	})

	// Keep pushing the run out; it must never fire while we do.
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		handle.Restart()
	}
	assert.Equal(t, int32(0), fired.Load())

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, time.Second, 5*time.Millisecond, "task fires once restarts stop")
}

func TestScheduler_RegisterDuplicateName(t *testing.T) {
	s := New(Config{})

	job := &funcJob{name: "sync-flush", fn: func(ctx context.Context) {}}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))

	err := s.Register(job, NewIntervalSchedule(time.Minute))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := New(Config{Tick: 5 * time.Millisecond})

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}
