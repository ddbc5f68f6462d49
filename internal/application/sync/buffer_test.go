package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuffer_AddAccumulates(t *testing.T) {
	buf := NewBuffer(day("2026-03-10"))

	buf.Add(stats.Delta{WordsWritten: 50})
	buf.Add(stats.Delta{WordsWritten: 30, CharactersCreated: 1})

	got := buf.Snapshot()
	assert.Equal(t, 80, got.WordsWritten)
	assert.Equal(t, 1, got.CharactersCreated)
}

func TestBuffer_SubtractConfirmed_KeepsLateIncrements(t *testing.T) {
	buf := NewBuffer(day("2026-03-10"))

	buf.Add(stats.Delta{WordsWritten: 50})
	buf.Add(stats.Delta{WordsWritten: 30})

	snapshot := buf.Snapshot()
	require.Equal(t, 80, snapshot.WordsWritten)

	// A write lands while the snapshot is in flight.
	buf.Add(stats.Delta{WordsWritten: 20})

	at := day("2026-03-10").Add(12 * time.Hour)
	buf.SubtractConfirmed(snapshot, at)

	remaining := buf.Snapshot()
	assert.Equal(t, 20, remaining.WordsWritten, "only the confirmed snapshot is subtracted")
	assert.Equal(t, at, buf.LastSync())
}

func TestBuffer_SubtractConfirmed_EmptiesWhenNothingCameIn(t *testing.T) {
	buf := NewBuffer(day("2026-03-10"))
	buf.Add(stats.Delta{WordsWritten: 100, PlacesCreated: 2})

	buf.SubtractConfirmed(buf.Snapshot(), time.Now())

	assert.True(t, buf.Snapshot().IsZero())
}

func TestBuffer_Rollover(t *testing.T) {
	today := day("2026-03-10")
	buf := NewBuffer(today)
	buf.Add(stats.Delta{WordsWritten: 500})
	buf.SetSessionStart(today.Add(9 * time.Hour))

	assert.False(t, buf.Rollover(today.Add(23*time.Hour)), "same day is not a rollover")
	assert.Equal(t, 500, buf.Snapshot().WordsWritten)

	assert.True(t, buf.Rollover(today.AddDate(0, 0, 1)))
	assert.True(t, buf.Snapshot().IsZero(), "rollover starts the new day empty")
	assert.True(t, buf.SessionStart().IsZero())
	assert.Equal(t, "2026-03-11", buf.Day())
}

func TestBuffer_RestoreRoundTrip(t *testing.T) {
	buf := NewBuffer(day("2026-03-10"))
	buf.Add(stats.Delta{WordsWritten: 42, EventsCreated: 1})
	buf.SetSessionStart(day("2026-03-10").Add(8 * time.Hour))

	restored := restoreBuffer(buf.state())

	assert.Equal(t, buf.Snapshot(), restored.Snapshot())
	assert.Equal(t, buf.Day(), restored.Day())
	assert.Equal(t, buf.SessionStart(), restored.SessionStart())
}
