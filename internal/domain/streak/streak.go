// Package streak содержит чистую логику серий активных дней.
// Серия сравнивает календарные даты, а не прошедшие часы: активность
// в 23:59 и в 00:01 следующего дня - это два соседних дня.
package streak

import (
	"time"

	"github.com/devsmkna/bookbuilder-sub000/pkg/timeutil"
)

// Result - результат оценки серии на границе дня.
type Result struct {
	// Streak - новая текущая серия.
	Streak int

	// Longest - новая лучшая серия.
	Longest int

	// ResetDaily - нужно ли сбросить дневные счётчики
	// (wordCountToday, dailyGoalReached).
	ResetDaily bool

	// Initialized - true при первом запуске: сохранённой даты не было,
	// и lastActiveDate нужно инициализировать сегодняшним днём.
	Initialized bool
}

// Evaluate оценивает серию по сохранённой дате последней активности.
// Функция чистая и вызывается один раз за цикл загрузки/синхронизации,
// а не на каждый инкремент - иначе один день засчитывался бы многократно.
//
// Политика (diffDays - разница календарных дат):
//   - нет сохранённой даты: инициализация, серия не меняется;
//   - diffDays == 0: без изменений;
//   - diffDays == 1: серия +1, лучшая серия подтягивается, дневные
//     счётчики сбрасываются;
//   - diffDays > 1: серия обнуляется, дневные счётчики сбрасываются.
func Evaluate(lastActive time.Time, today time.Time, current, longest int) Result {
	if lastActive.IsZero() {
		return Result{
			Streak:      current,
			Longest:     longest,
			Initialized: true,
		}
	}

	diffDays := timeutil.DaysBetween(lastActive, today)

	switch {
	case diffDays == 0:
		return Result{Streak: current, Longest: longest}

	case diffDays == 1:
		newStreak := current + 1
		newLongest := longest
		if newStreak > newLongest {
			newLongest = newStreak
		}
		return Result{Streak: newStreak, Longest: newLongest, ResetDaily: true}

	default:
		// Пропущен хотя бы один день (или дата в будущем после
		// перевода часов) - серия обнуляется.
		return Result{Streak: 0, Longest: longest, ResetDaily: true}
	}
}
