// Package session содержит доменную модель писательской сессии и
// трекер её жизненного цикла. Это ядро бизнес-логики - здесь нет
// внешних зависимостей.
package session

import (
	"fmt"
	"math"
	"time"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATE
// ══════════════════════════════════════════════════════════════════════════════

// State представляет состояние трекера сессий.
type State string

const (
	// StateIdle - сессии нет; первый положительный инкремент слов
	// откроет новую.
	StateIdle State = "idle"
	// StateActive - сессия открыта, инкременты накапливаются в неё.
	StateActive State = "active"
)

// ══════════════════════════════════════════════════════════════════════════════
// WRITING SESSION
// ══════════════════════════════════════════════════════════════════════════════

// WritingSession - одна писательская сессия.
//
// Жизненный цикл: создаётся при первом инкременте слов без открытой
// сессии; накапливает wordCount; закрывается по явному завершению,
// при остановке приложения или принудительно на границе флаша.
type WritingSession struct {
	// ID - уникальный идентификатор сессии.
	ID string

	// Date - календарная дата сессии (начало дня).
	Date time.Time

	// WordCount - слов написано за сессию.
	WordCount int

	// Duration - длительность в минутах. Заполняется при закрытии,
	// всегда >= 1 (пол в одну минуту исключает деление на ноль при
	// вычислении скорости).
	Duration int

	// StartTime - момент открытия.
	StartTime time.Time

	// EndTime - момент закрытия (nil, пока сессия открыта).
	EndTime *time.Time
}

// IsOpen возвращает true, пока сессия не закрыта.
func (s *WritingSession) IsOpen() bool {
	return s.EndTime == nil
}

// Speed возвращает скорость письма в словах в минуту.
// Для открытой сессии возвращает 0.
func (s *WritingSession) Speed() int {
	if s.IsOpen() || s.Duration <= 0 {
		return 0
	}
	return int(math.Round(float64(s.WordCount) / float64(s.Duration)))
}

// String возвращает строковое представление сессии для логирования.
func (s *WritingSession) String() string {
	return fmt.Sprintf("WritingSession{ID: %s, Words: %d, Duration: %dm}",
		s.ID, s.WordCount, s.Duration)
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER
// Конечный автомат Idle -> Active -> (closed) -> Idle. Одновременно
// активна максимум одна сессия; повторные инкременты в активном
// состоянии просто накапливаются без создания вложенных сессий.
// ══════════════════════════════════════════════════════════════════════════════

// Tracker управляет жизненным циклом сессий.
type Tracker struct {
	now     func() time.Time
	newID   func() string
	current *WritingSession
}

// NewTracker создаёт трекер. clock и idgen инжектируются для
// детерминированных тестов; nil означает значения по умолчанию.
func NewTracker(clock func() time.Time, idgen func() string) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	if idgen == nil {
		idgen = func() string {
			return fmt.Sprintf("session-%d", time.Now().UnixNano())
		}
	}
	return &Tracker{now: clock, newID: idgen}
}

// State возвращает текущее состояние трекера.
func (t *Tracker) State() State {
	if t.current != nil {
		return StateActive
	}
	return StateIdle
}

// Current возвращает открытую сессию или nil.
func (t *Tracker) Current() *WritingSession {
	return t.current
}

// RecordWords накапливает слова в открытую сессию, открывая её при
// необходимости. Возвращает true, если переход Idle -> Active произошёл
// именно в этом вызове. Неположительные значения игнорируются.
func (t *Tracker) RecordWords(words int) (opened bool) {
	if words <= 0 {
		return false
	}

	if t.current == nil {
		start := t.now()
		t.current = &WritingSession{
			ID:        t.newID(),
			Date:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
			StartTime: start,
		}
		opened = true
	}

	t.current.WordCount += words
	return opened
}

// End закрывает активную сессию: ставит EndTime, вычисляет Duration
// (минимум одна минута) и возвращает сессию. После закрытия трекер
// возвращается в Idle, и следующий инкремент откроет новую сессию.
func (t *Tracker) End() (*WritingSession, error) {
	if t.current == nil {
		return nil, shared.ErrNoActiveSession
	}

	s := t.current
	t.current = nil

	end := t.now()
	s.EndTime = &end

	minutes := int(math.Round(end.Sub(s.StartTime).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	s.Duration = minutes

	return s, nil
}

// CloseIfActive закрывает сессию, если она открыта, и возвращает её.
// Возвращает nil в Idle. Используется при остановке приложения, где
// отсутствие сессии - не ошибка. Принудительного закрытия на границе
// флаша нет: слова и так копятся в буфере непрерывно, а маркер начала
// сессии персистируется и при рестарте просто отбрасывается, так что
// аварийное завершение теряет только запись о сессии, не слова.
func (t *Tracker) CloseIfActive() *WritingSession {
	if t.current == nil {
		return nil
	}
	s, _ := t.End()
	return s
}
