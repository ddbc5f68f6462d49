// Package progression содержит оркестрирующий движок прогрессии
// писателя: агрегация инкрементов, жизненный цикл сессии, оценка
// серий и достижений, пересчёт уровня.
package progression

import (
	"context"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	buffersync "github.com/devsmkna/bookbuilder-sub000/internal/application/sync"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/achievement"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/notification"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/record"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/session"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/streak"
	"github.com/devsmkna/bookbuilder-sub000/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY KINDS
// ══════════════════════════════════════════════════════════════════════════════

// EntityKind - тип созданной сущности мира.
type EntityKind string

const (
	KindCharacter EntityKind = "character"
	KindPlace     EntityKind = "place"
	KindEvent     EntityKind = "event"
	KindRace      EntityKind = "race"
	KindMap       EntityKind = "map"
)

// delta строит дельту статистики для одной созданной сущности.
func (k EntityKind) delta() (stats.Delta, bool) {
	switch k {
	case KindCharacter:
		return stats.Delta{CharactersCreated: 1}, true
	case KindPlace:
		return stats.Delta{PlacesCreated: 1}, true
	case KindEvent:
		return stats.Delta{EventsCreated: 1}, true
	case KindRace:
		return stats.Delta{RacesCreated: 1}, true
	case KindMap:
		return stats.Delta{MapsCreated: 1}, true
	default:
		return stats.Delta{}, false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Config - конфигурация движка прогрессии.
type Config struct {
	// UserID - владелец записи в удалённом хранилище.
	UserID string

	// Clock - источник времени (nil = time.Now).
	Clock func() time.Time

	// NewID - генератор идентификаторов сессий и ключей идемпотентности
	// (nil = uuid.NewString).
	NewID func() string

	// Logger - структурный логгер (nil = slog.Default()).
	Logger *slog.Logger
}

// Engine - движок прогрессии. Создаётся явно в точке сборки приложения;
// никаких синглтонов.
type Engine struct {
	userID string
	clock  func() time.Time
	newID  func() string
	logger *slog.Logger

	store record.Store
	coord *buffersync.Coordinator
	kv    buffersync.KeyValueStore
	sink  notification.Sink

	evaluator *achievement.Engine
	tracker   *session.Tracker

	mu           stdsync.Mutex
	stats        *stats.UserStats
	achievements []achievement.Achievement
}

// NewEngine создаёт движок прогрессии. Каталог достижений валидируется
// здесь: ошибка конфигурации всплывает при сборке, а не при первой
// оценке.
func NewEngine(
	cfg Config,
	store record.Store,
	coord *buffersync.Coordinator,
	kv buffersync.KeyValueStore,
	sink notification.Sink,
) (*Engine, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if sink == nil {
		sink = notification.NopSink{}
	}

	catalog := achievement.Catalog()
	if err := achievement.ValidateCatalog(catalog); err != nil {
		return nil, err
	}

	e := &Engine{
		userID:       cfg.UserID,
		clock:        cfg.Clock,
		newID:        cfg.NewID,
		logger:       cfg.Logger,
		store:        store,
		coord:        coord,
		kv:           kv,
		sink:         sink,
		evaluator:    achievement.NewEngine(),
		tracker:      session.NewTracker(cfg.Clock, cfg.NewID),
		stats:        &stats.UserStats{},
		achievements: catalog,
	}

	coord.SetSnapshotHandler(func(ctx context.Context, s *stats.UserStats) {
		e.ApplySnapshot(ctx, s)
	})
	return e, nil
}

// Load загружает каноническое состояние из удалённого хранилища и
// запускает периодическую синхронизацию. Отсутствие записи не ошибка:
// новый писатель начинает с нуля.
func (e *Engine) Load(ctx context.Context) error {
	current, err := e.store.GetStats(ctx, e.userID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return err
		}
		current = &stats.UserStats{}
	}

	persisted, err := e.store.GetAchievements(ctx, e.userID)
	if err != nil && !shared.IsNotFound(err) {
		return err
	}

	e.mu.Lock()
	e.achievements = mergeCatalog(e.achievements, persisted)
	e.mu.Unlock()

	if start := e.coord.SessionStart(); !start.IsZero() {
		// Открытая сессия не пережила перезапуск процесса. Слова из неё
		// уже учтены буфером, сама сессия теряется.
		e.logger.Warn("stale session start found, discarding",
			"user_id", e.userID, "started_at", start)
		e.coord.ClearSessionStart(ctx)
	}

	e.ApplySnapshot(ctx, current)
	e.coord.Start()

	e.logger.Info("progression engine loaded",
		"user_id", e.userID,
		"level", e.Stats().Level,
		"streak", e.Stats().WriteStreak)
	return nil
}

// RecordWords учитывает n написанных слов. Неположительные значения
// игнорируются. Первый положительный инкремент открывает сессию.
func (e *Engine) RecordWords(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	e.mu.Lock()
	opened := e.tracker.RecordWords(n)
	e.mu.Unlock()

	if opened {
		e.coord.MarkSessionStart(ctx, e.clock())
		e.logger.Debug("writing session opened", "user_id", e.userID)
	}

	if err := e.coord.Increment(ctx, stats.Delta{WordsWritten: n}); err != nil {
		return err
	}

	e.checkDailyGoal(ctx)
	return nil
}

// RecordEntity учитывает создание сущности мира (персонаж, локация,
// событие, раса, карта). Ценный инкремент: координатор планирует
// немедленный флаш.
func (e *Engine) RecordEntity(ctx context.Context, kind EntityKind) error {
	d, ok := kind.delta()
	if !ok {
		return shared.NewDomainError("progression", "RecordEntity",
			shared.ErrValidation, "unknown entity kind: "+string(kind))
	}
	return e.coord.Increment(ctx, d)
}

// EndSession закрывает активную сессию и записывает её в удалённое
// хранилище. Сервер сам инкрементирует sessionsCompleted и writeTime,
// поэтому локально эта дельта не применяется - вместо неё берётся
// возвращённый снимок. Ключ идемпотентности защищает от двойного учёта
// при повторе после потерянного подтверждения.
func (e *Engine) EndSession(ctx context.Context) (*session.WritingSession, error) {
	e.mu.Lock()
	closed, err := e.tracker.End()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.coord.ClearSessionStart(ctx)

	// Слова сессии уходят раньше самой сессии, чтобы снимок после
	// записи сессии уже включал их.
	if err := e.coord.Flush(ctx); err != nil {
		e.logger.Warn("pre-session flush failed", "user_id", e.userID, "error", err)
	}

	updated, err := e.store.CreateWritingSession(ctx, e.userID, *closed, e.newID())
	if err != nil {
		e.logger.Warn("session record failed, progress counters unchanged",
			"user_id", e.userID, "session_id", closed.ID, "error", err)
		return closed, err
	}

	e.logger.Info("writing session recorded",
		"user_id", e.userID,
		"session_id", closed.ID,
		"words", closed.WordCount,
		"minutes", closed.Duration,
		"wpm", closed.Speed())

	e.ApplySnapshot(ctx, updated)
	return closed, nil
}

// SetDailyGoal устанавливает дневную цель по словам. Операция
// инициирована пользователем, поэтому ошибки всплывают к вызывающему.
func (e *Engine) SetDailyGoal(ctx context.Context, goal int) error {
	if goal <= 0 {
		return shared.ErrInvalidDailyGoal
	}

	updated, err := e.store.PutStats(ctx, e.userID, stats.StatsPatch{
		DailyWordGoal: stats.Int(goal),
	})
	if err != nil {
		return err
	}

	if err := e.kv.Set(ctx, e.goalKey(), goal); err != nil {
		e.logger.Warn("persist daily goal failed", "user_id", e.userID, "error", err)
	}

	e.ApplySnapshot(ctx, updated)
	return nil
}

// ApplySnapshot применяет канонический снимок статистики: оценивает
// серию на границе дня, сбрасывает дневные и недельные счётчики,
// переоценивает достижения и выводит уровень из опыта. Вызывается при
// загрузке и после каждого подтверждённого флаша.
func (e *Engine) ApplySnapshot(ctx context.Context, s *stats.UserStats) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := s.Clone()
	now := e.clock()

	if patch := e.rolloverPatch(st, now); !patch.IsEmpty() {
		patch.Apply(st)
		e.putStats(ctx, patch)
	}

	result := e.evaluator.Evaluate(st, e.achievements, now)
	e.achievements = result.Updated

	if result.HasNewlyUnlocked() {
		for _, a := range result.NewlyUnlocked {
			e.logger.Info("achievement unlocked",
				"user_id", e.userID, "achievement_id", a.ID, "xp", a.XP)
			e.sink.AchievementUnlocked(a)
		}
		if err := e.store.PutAchievements(ctx, e.userID, e.achievements); err != nil {
			e.logger.Warn("persist achievements failed", "user_id", e.userID, "error", err)
		}
	}

	// Уровень всегда выводится из опыта, а опыт - только из суммы XP
	// разблокированных достижений.
	xp := achievement.TotalXP(e.achievements)
	level := achievement.LevelForXP(xp)
	if xp != st.Experience || level != st.Level {
		patch := stats.StatsPatch{
			Experience: stats.Int(xp),
			Level:      stats.Int(level),
		}
		prevLevel := st.Level
		patch.Apply(st)
		e.putStats(ctx, patch)
		if level > prevLevel && prevLevel > 0 {
			e.sink.LevelUp(level)
		}
	}

	e.stats = st
}

// Stats возвращает копию кешированного снимка статистики.
func (e *Engine) Stats() *stats.UserStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Clone()
}

// Achievements возвращает копию текущего состояния достижений.
func (e *Engine) Achievements() []achievement.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]achievement.Achievement, len(e.achievements))
	copy(out, e.achievements)
	return out
}

// SessionState возвращает состояние трекера сессии.
func (e *Engine) SessionState() session.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.State()
}

// Teardown останавливает движок: закрывает открытую сессию, делает
// best-effort запись и финальный флаш буфера.
func (e *Engine) Teardown(ctx context.Context) {
	e.mu.Lock()
	closed := e.tracker.CloseIfActive()
	e.mu.Unlock()

	if closed != nil {
		e.coord.ClearSessionStart(ctx)
		if _, err := e.store.CreateWritingSession(ctx, e.userID, *closed, e.newID()); err != nil {
			e.logger.Warn("teardown session record failed",
				"user_id", e.userID, "session_id", closed.ID, "error", err)
		}
	}

	e.coord.Close(ctx)
	e.logger.Info("progression engine stopped", "user_id", e.userID)
}

// ─────────────────────────────────────────────────────────────────────────────
// internals
// ─────────────────────────────────────────────────────────────────────────────

// rolloverPatch строит патч границы дня: серия активных дней, сброс
// дневных счётчиков, сброс недельного счётчика при смене ISO-недели,
// серия дневной цели.
func (e *Engine) rolloverPatch(st *stats.UserStats, now time.Time) stats.StatsPatch {
	res := streak.Evaluate(st.LastActiveDate, now, st.WriteStreak, st.LongestWriteStreak)

	var patch stats.StatsPatch

	if res.Initialized {
		patch.LastActiveDate = stats.Time(timeutil.StartOfDay(now))
		return patch
	}

	if res.Streak != st.WriteStreak || res.Longest != st.LongestWriteStreak {
		patch.WriteStreak = stats.Int(res.Streak)
		patch.LongestWriteStreak = stats.Int(res.Longest)
	}

	if res.ResetDaily {
		patch.WordCountToday = stats.Int(0)
		patch.DailyGoalReached = stats.Bool(false)
		patch.LastActiveDate = stats.Time(timeutil.StartOfDay(now))

		// Серия дневной цели продолжается только без разрыва календаря
		// и только если вчерашняя цель была взята. Пропущенный день
		// рвёт её независимо от последнего результата (res.Streak == 0
		// ровно в этом случае).
		if st.DailyGoalStreak > 0 && (!st.DailyGoalReached || res.Streak == 0) {
			patch.DailyGoalStreak = stats.Int(0)
		}

		if !timeutil.SameWeek(st.LastActiveDate, now) {
			patch.WordCountWeek = stats.Int(0)
		}
	}

	return patch
}

// checkDailyGoal проверяет пересечение дневной цели с учётом ещё не
// отправленных слов из буфера. Уведомление срабатывает один раз на
// переходе, повторные инкременты того же дня её не передёргивают.
func (e *Engine) checkDailyGoal(ctx context.Context) {
	e.mu.Lock()
	st := e.stats
	goal := st.DailyWordGoal
	reached := st.DailyGoalReached
	if goal <= 0 || reached {
		e.mu.Unlock()
		return
	}

	projected := st.WordCountToday + e.coord.Pending().WordsWritten
	if projected < goal {
		e.mu.Unlock()
		return
	}

	patch := stats.StatsPatch{
		DailyGoalReached: stats.Bool(true),
		DailyGoalStreak:  stats.Int(st.DailyGoalStreak + 1),
	}
	patch.Apply(e.stats)
	e.putStats(ctx, patch)
	e.mu.Unlock()

	e.logger.Info("daily word goal reached", "user_id", e.userID, "goal", goal)
	e.sink.DailyGoalReached(goal)
}

// putStats отправляет патч в удалённое хранилище. Фоновая операция:
// транзиентная ошибка логируется, локальное состояние уже обновлено и
// доедет со следующей синхронизацией.
func (e *Engine) putStats(ctx context.Context, patch stats.StatsPatch) {
	if _, err := e.store.PutStats(ctx, e.userID, patch); err != nil {
		e.logger.Warn("put stats failed", "user_id", e.userID, "error", err)
	}
}

// goalKey строит ключ дневной цели в key-value хранилище.
func (e *Engine) goalKey() string {
	return "progression:goal:" + e.userID
}

// mergeCatalog накладывает сохранённое состояние достижений на
// статичный каталог. Правила берутся из каталога (он источник истины
// для порогов и XP), разблокировки и прогресс - из сохранённого
// состояния. Сохранённые ID, которых больше нет в каталоге,
// отбрасываются.
func mergeCatalog(catalog, persisted []achievement.Achievement) []achievement.Achievement {
	if len(persisted) == 0 {
		return catalog
	}

	byID := make(map[string]achievement.Achievement, len(persisted))
	for _, a := range persisted {
		byID[a.ID] = a
	}

	merged := make([]achievement.Achievement, len(catalog))
	for i, rule := range catalog {
		merged[i] = rule
		if saved, ok := byID[rule.ID]; ok {
			merged[i].Unlocked = saved.Unlocked
			merged[i].Progress = saved.Progress
			merged[i].UnlockDate = saved.UnlockDate
		}
	}
	return merged
}
