package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
)

// fakeClock advances manually so durations are deterministic.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(clock *fakeClock) *Tracker {
	n := 0
	return NewTracker(clock.Now, func() string {
		n++
		return "s1"
	})
}

func TestTracker_OpensOnFirstPositiveIncrement(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	assert.Equal(t, StateIdle, tracker.State())

	opened := tracker.RecordWords(50)
	assert.True(t, opened)
	assert.Equal(t, StateActive, tracker.State())

	require.NotNil(t, tracker.Current())
	assert.Equal(t, 50, tracker.Current().WordCount)
	assert.Equal(t, clock.Now(), tracker.Current().StartTime)
	assert.True(t, tracker.Current().IsOpen())
}

func TestTracker_AccruesIntoSameSession(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	tracker.RecordWords(50)
	opened := tracker.RecordWords(80)

	assert.False(t, opened, "no re-entrant session creation while active")
	assert.Equal(t, 130, tracker.Current().WordCount)
}

func TestTracker_IgnoresNonPositiveIncrements(t *testing.T) {
	tracker := newTestTracker(newFakeClock())

	assert.False(t, tracker.RecordWords(0))
	assert.False(t, tracker.RecordWords(-10))
	assert.Equal(t, StateIdle, tracker.State())
}

func TestTracker_EndComputesDurationAndSpeed(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	tracker.RecordWords(120)
	clock.Advance(90 * time.Second)

	s, err := tracker.End()
	require.NoError(t, err)

	// 90s rounds to 2 minutes, 120 words / 2 min = 60 wpm.
	assert.Equal(t, 2, s.Duration)
	assert.Equal(t, 60, s.Speed())
	assert.False(t, s.IsOpen())
	assert.Equal(t, StateIdle, tracker.State())
}

func TestTracker_DurationFlooredAtOneMinute(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	tracker.RecordWords(10)
	clock.Advance(5 * time.Second)

	s, err := tracker.End()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Duration)
	assert.Equal(t, 10, s.Speed())
}

func TestTracker_EndWithoutSession(t *testing.T) {
	tracker := newTestTracker(newFakeClock())

	_, err := tracker.End()
	assert.ErrorIs(t, err, shared.ErrNoActiveSession)
}

func TestTracker_ReopensAfterClose(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	tracker.RecordWords(100)
	clock.Advance(2 * time.Minute)
	_, err := tracker.End()
	require.NoError(t, err)

	opened := tracker.RecordWords(30)
	assert.True(t, opened, "a new session may open immediately after close")
	assert.Equal(t, 30, tracker.Current().WordCount)
}

func TestTracker_CloseIfActive(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	assert.Nil(t, tracker.CloseIfActive(), "closing in idle is a no-op")

	tracker.RecordWords(40)
	clock.Advance(3 * time.Minute)

	s := tracker.CloseIfActive()
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Duration)
	assert.Equal(t, StateIdle, tracker.State())
}

func TestTracker_ExplicitEndScenario(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	// increment(50) with no prior session opens one.
	assert.True(t, tracker.RecordWords(50))
	// increment(80) accrues into the same session.
	assert.False(t, tracker.RecordWords(80))
	assert.Equal(t, 130, tracker.Current().WordCount)

	clock.Advance(130 * time.Second) // ~2.2 min -> 2 min

	s, err := tracker.End()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Duration, 1)
	assert.Equal(t, 65, s.Speed())
}
