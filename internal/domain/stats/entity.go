// Package stats содержит доменную модель статистики писателя.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package stats

import (
	"time"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// StatType представляет тип статистики, на который может ссылаться
// условие достижения.
type StatType string

const (
	// StatWordCount - общее количество написанных слов.
	StatWordCount StatType = "wordCount"
	// StatWordCountToday - слов написано сегодня.
	StatWordCountToday StatType = "wordCountToday"
	// StatWordCountWeek - слов написано за текущую неделю.
	StatWordCountWeek StatType = "wordCountWeek"
	// StatCharacterCount - создано персонажей.
	StatCharacterCount StatType = "characterCount"
	// StatPlaceCount - создано локаций.
	StatPlaceCount StatType = "placeCount"
	// StatEventCount - создано событий.
	StatEventCount StatType = "eventCount"
	// StatRaceCount - создано рас.
	StatRaceCount StatType = "raceCount"
	// StatMapCount - создано карт.
	StatMapCount StatType = "mapCount"
	// StatSessionsCompleted - завершено писательских сессий.
	StatSessionsCompleted StatType = "sessionsCompleted"
	// StatDailyGoalStreak - серия дней с достигнутой дневной целью.
	StatDailyGoalStreak StatType = "dailyGoalStreak"
	// StatWriteStreak - текущая серия активных дней.
	StatWriteStreak StatType = "writeStreak"
	// StatLongestWriteStreak - лучшая серия активных дней.
	StatLongestWriteStreak StatType = "longestWriteStreak"
	// StatWriteTime - суммарное время письма в минутах.
	StatWriteTime StatType = "writeTime"
	// StatExperience - накопленный опыт.
	StatExperience StatType = "experience"
	// StatLevel - текущий уровень.
	StatLevel StatType = "level"
)

// IsValid проверяет, что тип статистики известен.
func (t StatType) IsValid() bool {
	switch t {
	case StatWordCount, StatWordCountToday, StatWordCountWeek,
		StatCharacterCount, StatPlaceCount, StatEventCount, StatRaceCount,
		StatMapCount, StatSessionsCompleted, StatDailyGoalStreak,
		StatWriteStreak, StatLongestWriteStreak, StatWriteTime,
		StatExperience, StatLevel:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER STATS
// ══════════════════════════════════════════════════════════════════════════════

// UserStats - канонический снимок статистики писателя.
// Владелец данных - удалённое хранилище; ядро держит read-through кеш
// и никогда не мутирует снимок напрямую.
type UserStats struct {
	// WordCount - общее количество написанных слов.
	WordCount int

	// WordCountToday - слов написано сегодня (сбрасывается при смене дня).
	WordCountToday int

	// WordCountWeek - слов написано за текущую неделю.
	WordCountWeek int

	// CharacterCount - создано персонажей.
	CharacterCount int

	// PlaceCount - создано локаций.
	PlaceCount int

	// EventCount - создано событий.
	EventCount int

	// RaceCount - создано рас.
	RaceCount int

	// MapCount - создано карт.
	MapCount int

	// SessionsCompleted - завершено писательских сессий.
	SessionsCompleted int

	// WordsPerDay - среднее количество слов в день.
	WordsPerDay int

	// DailyGoalReached - достигнута ли дневная цель сегодня.
	DailyGoalReached bool

	// DailyGoalStreak - серия дней с достигнутой целью.
	DailyGoalStreak int

	// WriteStreak - текущая серия активных дней.
	WriteStreak int

	// LongestWriteStreak - лучшая серия активных дней.
	LongestWriteStreak int

	// WriteTime - суммарное время письма в минутах.
	WriteTime int

	// WritingSpeed - скорость письма (слов в минуту).
	WritingSpeed int

	// DailyWordGoal - дневная цель по словам.
	DailyWordGoal int

	// Experience - накопленный опыт (сумма XP разблокированных достижений).
	Experience int

	// Level - текущий уровень, всегда выводится из Experience.
	Level int

	// LastActiveDate - дата последней активности. Нулевое значение
	// означает первый запуск (дата ещё не сохранялась).
	LastActiveDate time.Time
}

// Value возвращает значение статистики по её типу.
// Для неизвестного типа возвращает 0 - каталог достижений валидируется
// при старте, поэтому сюда неизвестный тип не попадает.
func (s *UserStats) Value(t StatType) int {
	switch t {
	case StatWordCount:
		return s.WordCount
	case StatWordCountToday:
		return s.WordCountToday
	case StatWordCountWeek:
		return s.WordCountWeek
	case StatCharacterCount:
		return s.CharacterCount
	case StatPlaceCount:
		return s.PlaceCount
	case StatEventCount:
		return s.EventCount
	case StatRaceCount:
		return s.RaceCount
	case StatMapCount:
		return s.MapCount
	case StatSessionsCompleted:
		return s.SessionsCompleted
	case StatDailyGoalStreak:
		return s.DailyGoalStreak
	case StatWriteStreak:
		return s.WriteStreak
	case StatLongestWriteStreak:
		return s.LongestWriteStreak
	case StatWriteTime:
		return s.WriteTime
	case StatExperience:
		return s.Experience
	case StatLevel:
		return s.Level
	default:
		return 0
	}
}

// Validate проверяет инвариант: все счётчики неотрицательны.
func (s *UserStats) Validate() error {
	counters := []int{
		s.WordCount, s.WordCountToday, s.WordCountWeek,
		s.CharacterCount, s.PlaceCount, s.EventCount, s.RaceCount, s.MapCount,
		s.SessionsCompleted, s.WordsPerDay, s.DailyGoalStreak,
		s.WriteStreak, s.LongestWriteStreak, s.WriteTime, s.WritingSpeed,
		s.Experience, s.Level,
	}
	for _, c := range counters {
		if c < 0 {
			return shared.ErrNegativeCounter
		}
	}
	return nil
}

// HasLastActiveDate возвращает true, если дата последней активности
// уже сохранялась.
func (s *UserStats) HasLastActiveDate() bool {
	return !s.LastActiveDate.IsZero()
}

// Clone создаёт копию снимка статистики.
func (s *UserStats) Clone() *UserStats {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// DELTA (Инкремент счётчиков)
// ══════════════════════════════════════════════════════════════════════════════

// Delta представляет частичный инкремент счётчиков. Все поля
// интерпретируются как прибавки; отрицательные значения невалидны.
type Delta struct {
	// WordsWritten - написано слов.
	WordsWritten int

	// CharactersCreated - создано персонажей.
	CharactersCreated int

	// PlacesCreated - создано локаций.
	PlacesCreated int

	// RacesCreated - создано рас.
	RacesCreated int

	// EventsCreated - создано событий.
	EventsCreated int

	// MapsCreated - создано карт.
	MapsCreated int

	// SessionsCompleted - завершено сессий.
	SessionsCompleted int

	// WriteMinutes - минут письма.
	WriteMinutes int
}

// Validate проверяет, что дельта не содержит отрицательных значений.
func (d Delta) Validate() error {
	values := []int{
		d.WordsWritten, d.CharactersCreated, d.PlacesCreated,
		d.RacesCreated, d.EventsCreated, d.MapsCreated,
		d.SessionsCompleted, d.WriteMinutes,
	}
	for _, v := range values {
		if v < 0 {
			return shared.ErrNegativeCounter
		}
	}
	return nil
}

// IsZero возвращает true, если дельта пустая.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// HasEntityCreated возвращает true, если дельта содержит создание
// сущности каталога (персонаж, локация, раса, событие, карта).
// Такие дельты считаются ценными и форсируют немедленный флаш.
func (d Delta) HasEntityCreated() bool {
	return d.CharactersCreated > 0 || d.PlacesCreated > 0 ||
		d.RacesCreated > 0 || d.EventsCreated > 0 || d.MapsCreated > 0
}

// Add складывает две дельты.
func (d Delta) Add(other Delta) Delta {
	return Delta{
		WordsWritten:      d.WordsWritten + other.WordsWritten,
		CharactersCreated: d.CharactersCreated + other.CharactersCreated,
		PlacesCreated:     d.PlacesCreated + other.PlacesCreated,
		RacesCreated:      d.RacesCreated + other.RacesCreated,
		EventsCreated:     d.EventsCreated + other.EventsCreated,
		MapsCreated:       d.MapsCreated + other.MapsCreated,
		SessionsCompleted: d.SessionsCompleted + other.SessionsCompleted,
		WriteMinutes:      d.WriteMinutes + other.WriteMinutes,
	}
}

// Subtract вычитает дельту. Используется при подтверждённом флаше:
// из буфера вычитается ровно отправленный снимок, а не весь буфер,
// чтобы не потерять инкременты, пришедшие во время сетевого вызова.
func (d Delta) Subtract(other Delta) Delta {
	return Delta{
		WordsWritten:      d.WordsWritten - other.WordsWritten,
		CharactersCreated: d.CharactersCreated - other.CharactersCreated,
		PlacesCreated:     d.PlacesCreated - other.PlacesCreated,
		RacesCreated:      d.RacesCreated - other.RacesCreated,
		EventsCreated:     d.EventsCreated - other.EventsCreated,
		MapsCreated:       d.MapsCreated - other.MapsCreated,
		SessionsCompleted: d.SessionsCompleted - other.SessionsCompleted,
		WriteMinutes:      d.WriteMinutes - other.WriteMinutes,
	}
}
