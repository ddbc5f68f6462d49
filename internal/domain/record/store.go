// Package record определяет контракт удалённого хранилища записей.
// Хранилище - внешний коллаборатор: его внутренности (схема, миграции)
// за пределами ядра. Реализация HTTP-клиента находится в
// infrastructure/remote; для тестов используются фейки.
package record

import (
	"context"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/achievement"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/session"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
)

// Store определяет операции удалённого хранилища. Хранилище -
// единственный владелец UserStats; все операции записи возвращают
// канонический снимок после применения изменений.
type Store interface {
	// GetStats возвращает канонический снимок статистики.
	// Возвращает shared.ErrStatsNotFound, если записи ещё нет.
	GetStats(ctx context.Context, userID string) (*stats.UserStats, error)

	// PutStats заменяет значения именованных полей (absolute replace).
	// Незаполненные поля патча не затрагиваются.
	PutStats(ctx context.Context, userID string, patch stats.StatsPatch) (*stats.UserStats, error)

	// IncrementStats атомарно прибавляет дельту к счётчикам.
	// Используется координатором синхронизации при флаше буфера.
	IncrementStats(ctx context.Context, userID string, delta stats.Delta) (*stats.UserStats, error)

	// GetAchievements возвращает сохранённое состояние достижений.
	GetAchievements(ctx context.Context, userID string) ([]achievement.Achievement, error)

	// PutAchievements сохраняет состояние достижений.
	PutAchievements(ctx context.Context, userID string, achievements []achievement.Achievement) error

	// CreateWritingSession записывает завершённую сессию. Сервер при
	// этом сам инкрементирует статистику (sessionsCompleted, writeTime),
	// поэтому вызывающий НЕ должен повторно применять ту же дельту
	// локально - вместо этого используется возвращённый снимок.
	// idempotencyKey защищает от двойного учёта при повторе вызова
	// после потерянного подтверждения.
	CreateWritingSession(ctx context.Context, userID string, s session.WritingSession, idempotencyKey string) (*stats.UserStats, error)
}

// Incrementer - узкий интерфейс для координатора синхронизации,
// которому из всего хранилища нужен только атомарный инкремент.
type Incrementer interface {
	IncrementStats(ctx context.Context, userID string, delta stats.Delta) (*stats.UserStats, error)
}
