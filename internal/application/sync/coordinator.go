package sync

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/record"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
	"github.com/devsmkna/bookbuilder-sub000/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC COORDINATOR
// Согласует LocalBuffer с удалённым хранилищем по модели eventual
// consistency / at-least-once.
//
// Триггеры флаша:
//   (a) повторяющийся таймер (по умолчанию 60 секунд, перезапускаемый);
//   (b) сразу после ценных инкрементов (создание сущности каталога)
//       с коротким дебаунсом ~100мс для склейки почти одновременных
//       записей;
//   (c) при остановке - best-effort, без повторов.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultInterval - интервал периодического флаша по умолчанию.
const DefaultInterval = 60 * time.Second

// DefaultDebounce - дебаунс немедленного флаша по умолчанию.
const DefaultDebounce = 100 * time.Millisecond

// Config - конфигурация координатора.
type Config struct {
	// UserID - владелец записи в удалённом хранилище.
	UserID string

	// Interval - период таймера флаша (0 = DefaultInterval).
	Interval time.Duration

	// Debounce - дебаунс немедленного флаша (0 = DefaultDebounce).
	Debounce time.Duration

	// Clock - источник времени (nil = time.Now). Инжектируется для
	// детерминированных тестов смены дня.
	Clock func() time.Time

	// Logger - структурный логгер (nil = slog.Default()).
	Logger *slog.Logger
}

// SnapshotHandler получает канонический снимок статистики после
// успешного флаша.
type SnapshotHandler func(ctx context.Context, s *stats.UserStats)

// Coordinator - координатор синхронизации. Единственный владелец
// LocalBuffer: все мутации буфера проходят через Increment.
type Coordinator struct {
	userID   string
	interval time.Duration
	debounce time.Duration
	clock    func() time.Time
	logger   *slog.Logger

	store record.Incrementer
	kv    KeyValueStore
	sched Scheduler

	buffer *Buffer

	mu            stdsync.Mutex
	closed        bool
	flushing      bool
	debounceTimer *time.Timer
	handle        Handle
	onSnapshot    SnapshotHandler
}

// NewCoordinator создаёт координатор и восстанавливает буфер из
// key-value хранилища. Отсутствующее или битое состояние трактуется
// как пустой буфер (fail open); состояние за другой день отбрасывается.
func NewCoordinator(cfg Config, store record.Incrementer, kv KeyValueStore, sched Scheduler) *Coordinator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Coordinator{
		userID:   cfg.UserID,
		interval: cfg.Interval,
		debounce: cfg.Debounce,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		store:    store,
		kv:       kv,
		sched:    sched,
	}

	c.buffer = c.loadBuffer()
	return c
}

// loadBuffer восстанавливает буфер за сегодняшний день.
func (c *Coordinator) loadBuffer() *Buffer {
	today := c.clock()

	var state bufferState
	err := c.kv.Get(context.Background(), c.bufferKey(timeutil.DayKey(today)), &state)
	if err != nil {
		if !shared.IsNotFound(err) {
			c.logger.Warn("persisted buffer unreadable, starting fresh",
				"user_id", c.userID, "error", err)
		}
		return NewBuffer(today)
	}

	buf := restoreBuffer(state)
	if buf.Rollover(today) {
		// Состояние за другой день: начинаем день с нуля.
		return NewBuffer(today)
	}
	return buf
}

// SetSnapshotHandler устанавливает получателя канонических снимков.
// Вызывается до Start.
func (c *Coordinator) SetSnapshotHandler(h SnapshotHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSnapshot = h
}

// Start запускает периодический флаш.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.handle != nil {
		return
	}
	c.handle = c.sched.ScheduleRepeating(c.interval, func(ctx context.Context) {
		c.flush(ctx)
	})
	c.logger.Info("sync coordinator started",
		"user_id", c.userID, "interval", c.interval.String())
}

// Increment применяет дельту к буферу одним атомарным шагом.
// Отрицательные дельты отвергаются валидацией, пустые - no-op.
// Ценные дельты (создание сущностей) планируют немедленный флаш
// с дебаунсом.
func (c *Coordinator) Increment(ctx context.Context, d stats.Delta) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.IsZero() {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return shared.ErrCoordinatorClosed
	}
	c.mu.Unlock()

	c.rolloverIfNeeded()
	c.buffer.Add(d)
	c.persistBuffer(ctx)

	if d.HasEntityCreated() {
		c.scheduleImmediateFlush()
	}
	return nil
}

// MarkSessionStart запоминает начало открытой сессии в буфере.
func (c *Coordinator) MarkSessionStart(ctx context.Context, t time.Time) {
	c.buffer.SetSessionStart(t)
	c.persistBuffer(ctx)
}

// ClearSessionStart сбрасывает отметку начала сессии.
func (c *Coordinator) ClearSessionStart(ctx context.Context) {
	c.buffer.SetSessionStart(time.Time{})
	c.persistBuffer(ctx)
}

// Pending возвращает текущее неотправленное содержимое буфера.
func (c *Coordinator) Pending() stats.Delta {
	return c.buffer.Snapshot()
}

// LastSync возвращает время последнего подтверждённого флаша.
func (c *Coordinator) LastSync() time.Time {
	return c.buffer.LastSync()
}

// SessionStart возвращает сохранённое начало сессии.
func (c *Coordinator) SessionStart() time.Time {
	return c.buffer.SessionStart()
}

// Flush выполняет внеочередной флаш. Транзиентные ошибки удалённого
// хранилища логируются и проглатываются: буфер остаётся нетронутым,
// следующий цикл дошлёт те же суммы. Ошибка возвращается только если
// координатор уже закрыт.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return shared.ErrCoordinatorClosed
	}
	c.mu.Unlock()

	c.flush(ctx)
	return nil
}

// Close останавливает координатор: отменяет таймер и дебаунс и делает
// последний best-effort флаш (без повторов - после остановки их уже
// некому выполнять). Идемпотентен.
func (c *Coordinator) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
	c.mu.Unlock()

	c.teardownFlush(ctx)
	c.logger.Info("sync coordinator closed", "user_id", c.userID)
}

// ─────────────────────────────────────────────────────────────────────────────
// internals
// ─────────────────────────────────────────────────────────────────────────────

// flush - один цикл флаша:
//  1. атомарный снимок буфера;
//  2. пустой снимок - no-op;
//  3. отправка снимка как инкремента;
//  4. успех: из буфера вычитается ровно снимок (инкременты, пришедшие
//     во время сетевого вызова, сохраняются), обновляется lastSyncTime;
//  5. сбой: буфер не трогается, доставка at-least-once.
func (c *Coordinator) flush(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.flushing = false
		c.mu.Unlock()
	}()

	c.rolloverIfNeeded()

	snapshot := c.buffer.Snapshot()
	if snapshot.IsZero() {
		return
	}

	updated, err := c.store.IncrementStats(ctx, c.userID, snapshot)

	// Завершение сетевого вызова: владелец мог быть остановлен,
	// пока запрос был в полёте.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	handler := c.onSnapshot
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("flush failed, buffer retained for next cycle",
			"user_id", c.userID, "error", err)
		return
	}

	c.buffer.SubtractConfirmed(snapshot, c.clock())
	c.persistBuffer(ctx)

	c.logger.Debug("flush confirmed",
		"user_id", c.userID, "words", snapshot.WordsWritten)

	if handler != nil && updated != nil {
		handler(ctx, updated)
	}
}

// teardownFlush - последний флаш при остановке. Выполняется после
// установки closed, поэтому минует обычную проверку; снимок статистики
// получателю уже не доставляется.
func (c *Coordinator) teardownFlush(ctx context.Context) {
	snapshot := c.buffer.Snapshot()
	if snapshot.IsZero() {
		return
	}

	if _, err := c.store.IncrementStats(ctx, c.userID, snapshot); err != nil {
		c.logger.Warn("teardown flush failed, amounts remain in persisted buffer",
			"user_id", c.userID, "error", err)
		return
	}

	c.buffer.SubtractConfirmed(snapshot, c.clock())
	c.persistBuffer(ctx)
}

// scheduleImmediateFlush планирует флаш через дебаунс-окно. Повторный
// вызов в пределах окна переоткрывает его, склеивая близкие записи в
// один запрос.
func (c *Coordinator) scheduleImmediateFlush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if c.debounceTimer != nil {
		c.debounceTimer.Reset(c.debounce)
		return
	}

	c.debounceTimer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		c.debounceTimer = nil
		closed := c.closed
		handle := c.handle
		c.mu.Unlock()
		if closed {
			return
		}
		c.flush(context.Background())
		// Немедленный флаш заменяет очередной тик таймера.
		if handle != nil {
			handle.Restart()
		}
	})
}

// rolloverIfNeeded пересоздаёт буфер при смене дня.
func (c *Coordinator) rolloverIfNeeded() {
	if c.buffer.Rollover(c.clock()) {
		c.logger.Info("day rollover, fresh buffer", "user_id", c.userID, "day", c.buffer.Day())
	}
}

// persistBuffer сохраняет состояние буфера в key-value хранилище.
// Ошибки записи не фатальны: буфер в памяти остаётся источником истины
// до следующего успешного флаша.
func (c *Coordinator) persistBuffer(ctx context.Context) {
	if err := c.kv.Set(ctx, c.bufferKey(c.buffer.Day()), c.buffer.state()); err != nil {
		c.logger.Warn("persist buffer failed", "user_id", c.userID, "error", err)
	}
}

// bufferKey строит дневной ключ буфера: смена дня естественно
// инвалидирует вчерашнюю запись.
func (c *Coordinator) bufferKey(day string) string {
	return fmt.Sprintf("progression:buffer:%s:%s", c.userID, day)
}
