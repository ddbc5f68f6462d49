package sync

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CAPABILITY INTERFACES
// Определены на стороне потребителя: реализация key-value хранилища
// живёт в infrastructure/persistence (Redis в продакшене, память в
// тестах), планировщик - в infrastructure/scheduler.
// ══════════════════════════════════════════════════════════════════════════════

// KeyValueStore - персистентный локальный кеш. Хранит состояние буфера,
// маркер последней активной даты и дневную цель, ключуя записи по дню,
// чтобы смена дня естественно инвалидировала устаревшие значения.
//
// Get возвращает shared.ErrNotFound при отсутствии ключа. Битое
// содержимое трактуется вызывающим как отсутствие значения (fail open:
// потерять буфер одного дня лучше, чем уронить сессию писателя).
type KeyValueStore interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Scheduler планирует повторяющиеся задачи. Возвращаемый Handle
// обязан быть отменяемым: после Cancel колбэк не вызывается, висячих
// таймеров не остаётся.
type Scheduler interface {
	ScheduleRepeating(interval time.Duration, fn func(ctx context.Context)) Handle
}

// Handle - управление запланированной задачей.
type Handle interface {
	// Cancel останавливает задачу. Идемпотентен.
	Cancel()

	// Restart перезапускает отсчёт интервала с текущего момента.
	Restart()
}
