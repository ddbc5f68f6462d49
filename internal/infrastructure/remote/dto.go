// Package remote implements the HTTP client for the remote record store.
// This package handles all communication with the companion backend,
// including stats snapshots, increments, achievements, and sessions.
package remote

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE WRAPPERS
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse represents a generic API response wrapper.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// APIErrorDTO is the error payload returned on 4xx/5xx responses.
type APIErrorDTO struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *APIErrorDTO) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS DTOs
// ══════════════════════════════════════════════════════════════════════════════

// UserStatsDTO is the canonical stats snapshot as returned by the store.
// This is the external representation that needs to be mapped to our
// domain model.
type UserStatsDTO struct {
	WordCount          int     `json:"wordCount"`
	WordCountToday     int     `json:"wordCountToday"`
	WordCountWeek      int     `json:"wordCountWeek"`
	CharacterCount     int     `json:"characterCount"`
	PlaceCount         int     `json:"placeCount"`
	EventCount         int     `json:"eventCount"`
	RaceCount          int     `json:"raceCount"`
	MapCount           int     `json:"mapCount"`
	SessionsCompleted  int     `json:"sessionsCompleted"`
	WordsPerDay        int     `json:"wordsPerDay"`
	DailyGoalReached   bool    `json:"dailyGoalReached"`
	DailyGoalStreak    int     `json:"dailyGoalStreak"`
	WriteStreak        int     `json:"writeStreak"`
	LongestWriteStreak int     `json:"longestWriteStreak"`
	WriteTime          int     `json:"writeTime"`
	WritingSpeed       int     `json:"writingSpeed"`
	DailyWordGoal      int     `json:"dailyWordGoal"`
	Experience         int     `json:"experience"`
	Level              int     `json:"level"`
	LastActiveDate     *string `json:"lastActiveDate,omitempty"`
}

// StatsPatchDTO carries absolute field replacements (PUT semantics).
// Absent fields are left untouched by the store.
type StatsPatchDTO struct {
	WordCountToday     *int    `json:"wordCountToday,omitempty"`
	WordCountWeek      *int    `json:"wordCountWeek,omitempty"`
	WordsPerDay        *int    `json:"wordsPerDay,omitempty"`
	DailyGoalReached   *bool   `json:"dailyGoalReached,omitempty"`
	DailyGoalStreak    *int    `json:"dailyGoalStreak,omitempty"`
	WriteStreak        *int    `json:"writeStreak,omitempty"`
	LongestWriteStreak *int    `json:"longestWriteStreak,omitempty"`
	WritingSpeed       *int    `json:"writingSpeed,omitempty"`
	DailyWordGoal      *int    `json:"dailyWordGoal,omitempty"`
	Experience         *int    `json:"experience,omitempty"`
	Level              *int    `json:"level,omitempty"`
	LastActiveDate     *string `json:"lastActiveDate,omitempty"`
}

// StatsDeltaDTO carries additive increments (POST semantics).
type StatsDeltaDTO struct {
	WordsWritten      int `json:"wordsWritten,omitempty"`
	CharactersCreated int `json:"charactersCreated,omitempty"`
	PlacesCreated     int `json:"placesCreated,omitempty"`
	RacesCreated      int `json:"racesCreated,omitempty"`
	EventsCreated     int `json:"eventsCreated,omitempty"`
	MapsCreated       int `json:"mapsCreated,omitempty"`
	SessionsCompleted int `json:"sessionsCompleted,omitempty"`
	WriteMinutes      int `json:"writeMinutes,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT DTOs
// ══════════════════════════════════════════════════════════════════════════════

// AchievementDTO is the persisted achievement state. Only identity and
// unlock state travel over the wire; titles, thresholds, and XP rewards
// live in the client-side rule table.
type AchievementDTO struct {
	ID         string     `json:"id"`
	Unlocked   bool       `json:"unlocked"`
	Progress   int        `json:"progress"`
	UnlockDate *time.Time `json:"unlockDate,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION DTOs
// ══════════════════════════════════════════════════════════════════════════════

// WritingSessionDTO is a completed writing session.
type WritingSessionDTO struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	WordCount int        `json:"wordCount"`
	Duration  int        `json:"duration"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}
