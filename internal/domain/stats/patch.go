package stats

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// STATS PATCH
// ══════════════════════════════════════════════════════════════════════════════

// StatsPatch описывает абсолютную замену именованных полей статистики
// (семантика PUT). nil-поле означает "не трогать".
type StatsPatch struct {
	WordCountToday     *int
	WordCountWeek      *int
	WordsPerDay        *int
	DailyGoalReached   *bool
	DailyGoalStreak    *int
	WriteStreak        *int
	LongestWriteStreak *int
	WritingSpeed       *int
	DailyWordGoal      *int
	Experience         *int
	Level              *int
	LastActiveDate     *time.Time
}

// IsEmpty возвращает true, если патч не меняет ни одного поля.
func (p StatsPatch) IsEmpty() bool {
	return p == StatsPatch{}
}

// Apply применяет патч к снимку. Используется фейками в тестах и
// read-through кешем для локального отражения подтверждённых изменений.
func (p StatsPatch) Apply(s *UserStats) {
	if p.WordCountToday != nil {
		s.WordCountToday = *p.WordCountToday
	}
	if p.WordCountWeek != nil {
		s.WordCountWeek = *p.WordCountWeek
	}
	if p.WordsPerDay != nil {
		s.WordsPerDay = *p.WordsPerDay
	}
	if p.DailyGoalReached != nil {
		s.DailyGoalReached = *p.DailyGoalReached
	}
	if p.DailyGoalStreak != nil {
		s.DailyGoalStreak = *p.DailyGoalStreak
	}
	if p.WriteStreak != nil {
		s.WriteStreak = *p.WriteStreak
	}
	if p.LongestWriteStreak != nil {
		s.LongestWriteStreak = *p.LongestWriteStreak
	}
	if p.WritingSpeed != nil {
		s.WritingSpeed = *p.WritingSpeed
	}
	if p.DailyWordGoal != nil {
		s.DailyWordGoal = *p.DailyWordGoal
	}
	if p.Experience != nil {
		s.Experience = *p.Experience
	}
	if p.Level != nil {
		s.Level = *p.Level
	}
	if p.LastActiveDate != nil {
		s.LastActiveDate = *p.LastActiveDate
	}
}

// Int возвращает указатель на int для построения патча.
func Int(v int) *int { return &v }

// Bool возвращает указатель на bool для построения патча.
func Bool(v bool) *bool { return &v }

// Time возвращает указатель на time.Time для построения патча.
func Time(v time.Time) *time.Time { return &v }
