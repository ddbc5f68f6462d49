package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", date(2024, 1, 1), date(2024, 1, 1), 0},
		{"next day", date(2024, 1, 1), date(2024, 1, 2), 1},
		{"two days", date(2024, 1, 2), date(2024, 1, 4), 2},
		{"backwards", date(2024, 1, 4), date(2024, 1, 1), -3},
		{"across month", date(2024, 1, 31), date(2024, 2, 1), 1},
		{"across year", date(2023, 12, 31), date(2024, 1, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	early := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(late, early))
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)
	nextDay := time.Date(2024, 3, 16, 0, 0, 1, 0, time.UTC)

	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(evening, nextDay))
}

func TestIsConsecutiveDay(t *testing.T) {
	assert.True(t, IsConsecutiveDay(date(2024, 1, 1), date(2024, 1, 2)))
	assert.False(t, IsConsecutiveDay(date(2024, 1, 1), date(2024, 1, 3)))
	assert.False(t, IsConsecutiveDay(date(2024, 1, 1), date(2024, 1, 1)))
}

func TestStartOfWeek(t *testing.T) {
	// 2024-03-15 is a Friday; week starts Monday 2024-03-11.
	friday := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, date(2024, 3, 11), StartOfWeek(friday))

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, date(2024, 3, 11), StartOfWeek(sunday))
}

func TestSameWeek(t *testing.T) {
	assert.True(t, SameWeek(date(2024, 3, 11), date(2024, 3, 17)))
	assert.False(t, SameWeek(date(2024, 3, 17), date(2024, 3, 18)))
}

func TestDayKeyRoundTrip(t *testing.T) {
	key := DayKey(time.Date(2024, 7, 4, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, "2024-07-04", key)

	parsed, err := ParseDayKey(key)
	assert.NoError(t, err)
	assert.Equal(t, date(2024, 7, 4), parsed)
}

func TestParseDayKeyRejectsGarbage(t *testing.T) {
	_, err := ParseDayKey("not-a-date")
	assert.Error(t, err)
}
