// Package notification определяет контракт уведомлений о событиях
// прогрессии. Движок никогда не рисует UI напрямую: тосты и прочие
// эффекты живут за этим интерфейсом.
package notification

import (
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/achievement"
)

// Sink получает события прогрессии. Все методы fire-and-forget:
// ядро не потребляет возвращаемых значений и не ждёт подтверждения,
// поэтому реализация не должна блокировать вызывающего надолго.
type Sink interface {
	// AchievementUnlocked вызывается для каждого нового достижения.
	AchievementUnlocked(a achievement.Achievement)

	// LevelUp вызывается при повышении уровня.
	LevelUp(newLevel int)

	// DailyGoalReached вызывается, когда дневная цель достигнута
	// впервые за день.
	DailyGoalReached(goal int)
}

// NopSink - заглушка, молча игнорирующая все события.
type NopSink struct{}

func (NopSink) AchievementUnlocked(achievement.Achievement) {}
func (NopSink) LevelUp(int)                                 {}
func (NopSink) DailyGoalReached(int)                        {}
