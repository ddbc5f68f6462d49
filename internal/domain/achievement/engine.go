package achievement

import (
	"time"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Result содержит результат оценки достижений.
type Result struct {
	// Updated - полный список достижений после оценки, в порядке
	// таблицы правил.
	Updated []Achievement

	// NewlyUnlocked - достижения, перешедшие из заблокированного
	// состояния в разблокированное именно в этом вызове.
	NewlyUnlocked []Achievement
}

// HasNewlyUnlocked возвращает true, если что-то разблокировалось.
func (r Result) HasNewlyUnlocked() bool {
	return len(r.NewlyUnlocked) > 0
}

// Engine - чистый движок оценки достижений. У него нет состояния:
// результат полностью определяется снимком статистики и текущим
// состоянием достижений, что даёт детерминированное тестирование
// и идемпотентную повторную оценку.
type Engine struct{}

// NewEngine создаёт движок оценки.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate оценивает каждое ещё не разблокированное достижение против
// снимка статистики.
//
// Для заблокированного достижения:
//
//	progress = min(100, floor(value / threshold * 100))
//	unlocked = value >= threshold
//
// Гарантии:
//   - разблокированное достижение никогда не блокируется обратно;
//   - прогресс не убывает, пока достижение заблокировано (дневные
//     счётчики могут просесть после смены дня - прогресс при этом
//     остаётся на достигнутом максимуме);
//   - "newly unlocked" - только переход false -> true в этом вызове;
//   - UnlockDate ставится в now только в момент перехода.
//
// В одном вызове может разблокироваться несколько достижений; порядок -
// порядок таблицы правил, другого не подразумевается.
func (e *Engine) Evaluate(s *stats.UserStats, achievements []Achievement, now time.Time) Result {
	updated := make([]Achievement, len(achievements))
	var newlyUnlocked []Achievement

	for i, a := range achievements {
		if a.Unlocked {
			// Уже разблокировано: состояние заморожено навсегда.
			updated[i] = a
			continue
		}

		value := s.Value(a.Condition.StatType)

		progress := 0
		if a.Condition.Threshold > 0 {
			progress = value * 100 / a.Condition.Threshold
		}
		if progress > 100 {
			progress = 100
		}
		if progress < a.Progress {
			progress = a.Progress
		}
		a.Progress = progress

		if value >= a.Condition.Threshold {
			a.Unlocked = true
			a.Progress = 100
			unlockDate := now
			a.UnlockDate = &unlockDate
			newlyUnlocked = append(newlyUnlocked, a)
		}

		updated[i] = a
	}

	return Result{Updated: updated, NewlyUnlocked: newlyUnlocked}
}
