// Package sync реализует согласование локального аккумулятора с
// удалённым хранилищем записей: буфер инкрементов, координатор флашей
// и персистентность буфера в key-value хранилище.
//
// Модель доставки - at-least-once: после неоднозначного сбоя флаш
// повторяется, и приёмник обязан быть идемпотентным. Exactly-once
// здесь не гарантируется.
package sync

import (
	"sync"
	"time"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
	"github.com/devsmkna/bookbuilder-sub000/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOCAL BUFFER
// Эфемерный аккумулятор. Единственный владелец - координатор
// синхронизации; никакой другой компонент не пишет в буфер напрямую.
// Критическая дисциплина: снимок перед отправкой, вычитание (а не
// обнуление) после подтверждения.
// ══════════════════════════════════════════════════════════════════════════════

// Buffer - локальный буфер инкрементов за текущий день.
type Buffer struct {
	mu sync.Mutex

	delta        stats.Delta
	day          string // маркер "сегодня" (YYYY-MM-DD)
	sessionStart time.Time
	lastSync     time.Time
}

// NewBuffer создаёт пустой буфер для указанного дня.
func NewBuffer(today time.Time) *Buffer {
	return &Buffer{day: timeutil.DayKey(today)}
}

// restoreBuffer восстанавливает буфер из персистентного состояния.
func restoreBuffer(state bufferState) *Buffer {
	return &Buffer{
		delta:        state.Delta,
		day:          state.Day,
		sessionStart: state.SessionStart,
		lastSync:     state.LastSync,
	}
}

// Add применяет дельту к буферу одним атомарным шагом: частичное
// применение невозможно. Невалидные (отрицательные) дельты отвергаются
// ещё аггрегатором, поэтому здесь дельта уже проверена.
func (b *Buffer) Add(d stats.Delta) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delta = b.delta.Add(d)
}

// Snapshot атомарно снимает текущее содержимое буфера. Инкременты,
// пришедшие после снимка, в него не попадают и остаются в буфере до
// следующего цикла.
func (b *Buffer) Snapshot() stats.Delta {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.delta
}

// SubtractConfirmed вычитает подтверждённый снимок из буфера и
// обновляет время последней синхронизации. Вычитается ровно снимок,
// а не весь буфер: инкременты, накопившиеся во время сетевого вызова,
// сохраняются для следующего цикла.
func (b *Buffer) SubtractConfirmed(snapshot stats.Delta, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delta = b.delta.Subtract(snapshot)
	b.lastSync = at
}

// Rollover проверяет смену дня. Если "сегодня" изменилось, буфер
// пересоздаётся пустым под новый день и метод возвращает true.
func (b *Buffer) Rollover(today time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := timeutil.DayKey(today)
	if b.day == key {
		return false
	}

	b.delta = stats.Delta{}
	b.day = key
	b.sessionStart = time.Time{}
	return true
}

// Day возвращает маркер дня буфера.
func (b *Buffer) Day() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.day
}

// LastSync возвращает время последнего подтверждённого флаша.
func (b *Buffer) LastSync() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSync
}

// SetSessionStart запоминает начало открытой сессии, чтобы пережить
// перезапуск процесса внутри одного дня.
func (b *Buffer) SetSessionStart(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionStart = t
}

// SessionStart возвращает сохранённое начало сессии (нулевое время,
// если сессия не открыта).
func (b *Buffer) SessionStart() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionStart
}

// state снимает персистентное состояние буфера.
func (b *Buffer) state() bufferState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bufferState{
		Delta:        b.delta,
		Day:          b.day,
		SessionStart: b.sessionStart,
		LastSync:     b.lastSync,
	}
}

// bufferState - сериализуемое состояние буфера для key-value хранилища.
type bufferState struct {
	Delta        stats.Delta `json:"delta"`
	Day          string      `json:"day"`
	SessionStart time.Time   `json:"session_start"`
	LastSync     time.Time   `json:"last_sync"`
}
