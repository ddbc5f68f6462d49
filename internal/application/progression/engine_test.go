package progression

import (
	"context"
	"encoding/json"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	buffersync "github.com/devsmkna/bookbuilder-sub000/internal/application/sync"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/achievement"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/session"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
)

// ─────────────────────────────────────────────────────────────────────────────
// fakes
// ─────────────────────────────────────────────────────────────────────────────

// fakeRecordStore emulates the remote record store: it owns the
// canonical stats and applies increments and patches server-side.
type fakeRecordStore struct {
	mu stdsync.Mutex

	stats        *stats.UserStats
	achievements []achievement.Achievement

	sessions        []session.WritingSession
	idempotencyKeys []string
	sessionErr      error
}

func (f *fakeRecordStore) GetStats(context.Context, string) (*stats.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stats == nil {
		return nil, shared.ErrStatsNotFound
	}
	return f.stats.Clone(), nil
}

func (f *fakeRecordStore) PutStats(_ context.Context, _ string, patch stats.StatsPatch) (*stats.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure()
	patch.Apply(f.stats)
	return f.stats.Clone(), nil
}

func (f *fakeRecordStore) IncrementStats(_ context.Context, _ string, d stats.Delta) (*stats.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure()
	applyDelta(f.stats, d)
	return f.stats.Clone(), nil
}

func (f *fakeRecordStore) GetAchievements(context.Context, string) ([]achievement.Achievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.achievements == nil {
		return nil, shared.ErrNotFound
	}
	out := make([]achievement.Achievement, len(f.achievements))
	copy(out, f.achievements)
	return out, nil
}

func (f *fakeRecordStore) PutAchievements(_ context.Context, _ string, achievements []achievement.Achievement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.achievements = make([]achievement.Achievement, len(achievements))
	copy(f.achievements, achievements)
	return nil
}

func (f *fakeRecordStore) CreateWritingSession(_ context.Context, _ string, s session.WritingSession, key string) (*stats.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.ensure()
	f.sessions = append(f.sessions, s)
	f.idempotencyKeys = append(f.idempotencyKeys, key)
	f.stats.SessionsCompleted++
	f.stats.WriteTime += s.Duration
	return f.stats.Clone(), nil
}

func (f *fakeRecordStore) ensure() {
	if f.stats == nil {
		f.stats = &stats.UserStats{}
	}
}

func applyDelta(s *stats.UserStats, d stats.Delta) {
	s.WordCount += d.WordsWritten
	s.WordCountToday += d.WordsWritten
	s.WordCountWeek += d.WordsWritten
	s.CharacterCount += d.CharactersCreated
	s.PlaceCount += d.PlacesCreated
	s.EventCount += d.EventsCreated
	s.RaceCount += d.RacesCreated
	s.MapCount += d.MapsCreated
	s.SessionsCompleted += d.SessionsCompleted
	s.WriteTime += d.WriteMinutes
}

type memKV struct {
	mu   stdsync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return shared.ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (m *memKV) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

type noopHandle struct{}

func (noopHandle) Cancel()  {}
func (noopHandle) Restart() {}

// manualScheduler never fires on its own; tests flush explicitly.
type manualScheduler struct{}

func (manualScheduler) ScheduleRepeating(time.Duration, func(ctx context.Context)) buffersync.Handle {
	return noopHandle{}
}

// recordingSink captures notifications in order.
type recordingSink struct {
	mu       stdsync.Mutex
	unlocked []string
	levelUps []int
	goalsHit []int
}

func (r *recordingSink) AchievementUnlocked(a achievement.Achievement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlocked = append(r.unlocked, a.ID)
}

func (r *recordingSink) LevelUp(level int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levelUps = append(r.levelUps, level)
}

func (r *recordingSink) DailyGoalReached(goal int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goalsHit = append(r.goalsHit, goal)
}

// ─────────────────────────────────────────────────────────────────────────────
// harness
// ─────────────────────────────────────────────────────────────────────────────

type harness struct {
	engine *Engine
	store  *fakeRecordStore
	sink   *recordingSink
	coord  *buffersync.Coordinator

	mu  stdsync.Mutex
	now time.Time
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) advanceTo(t time.Time) {
	h.mu.Lock()
	h.now = t
	h.mu.Unlock()
}

func newHarness(t *testing.T, store *fakeRecordStore) *harness {
	t.Helper()

	h := &harness{
		store: store,
		sink:  &recordingSink{},
		now:   mustDate("2026-03-10").Add(10 * time.Hour),
	}

	kv := newMemKV()
	// Debounce is stretched far beyond the test run so that flushes
	// happen only when a test asks for one.
	h.coord = buffersync.NewCoordinator(buffersync.Config{
		UserID:   "writer-1",
		Debounce: time.Hour,
		Clock:    h.clock,
	}, store, kv, manualScheduler{})

	counter := 0
	newID := func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}

	engine, err := NewEngine(Config{
		UserID: "writer-1",
		Clock:  h.clock,
		NewID:  newID,
	}, store, h.coord, kv, h.sink)
	require.NoError(t, err)

	h.engine = engine
	t.Cleanup(func() { engine.Teardown(context.Background()) })
	return h
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ─────────────────────────────────────────────────────────────────────────────
// tests
// ─────────────────────────────────────────────────────────────────────────────

func TestEngine_LoadFreshWriter(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)

	require.NoError(t, h.engine.Load(context.Background()))

	st := h.engine.Stats()
	assert.Equal(t, 1, st.Level, "level is always derived from experience")
	assert.Equal(t, 0, st.Experience)
	assert.False(t, st.LastActiveDate.IsZero(), "first run initializes the active date")
	assert.Equal(t, 0, st.WriteStreak)
}

func TestEngine_RecordWordsOpensSessionAndBuffers(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)
	require.NoError(t, h.engine.Load(context.Background()))

	require.NoError(t, h.engine.RecordWords(context.Background(), 40))
	require.NoError(t, h.engine.RecordWords(context.Background(), 20))

	assert.Equal(t, session.StateActive, h.engine.SessionState())
	assert.Equal(t, 60, h.coord.Pending().WordsWritten)
	assert.False(t, h.coord.SessionStart().IsZero())

	// Non-positive input is silently ignored.
	require.NoError(t, h.engine.RecordWords(context.Background(), 0))
	require.NoError(t, h.engine.RecordWords(context.Background(), -5))
	assert.Equal(t, 60, h.coord.Pending().WordsWritten)
}

func TestEngine_FlushUnlocksAchievementsAndAccruesXP(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)
	require.NoError(t, h.engine.Load(context.Background()))

	require.NoError(t, h.engine.RecordWords(context.Background(), 150))
	require.NoError(t, h.coord.Flush(context.Background()))

	st := h.engine.Stats()
	assert.Equal(t, 150, st.WordCount)
	assert.Equal(t, 50, st.Experience, "first_words awards 50 XP")
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, []string{"first_words"}, h.sink.unlocked)

	// Re-applying the same snapshot never re-unlocks.
	require.NoError(t, h.coord.Flush(context.Background()))
	h.engine.ApplySnapshot(context.Background(), store.stats.Clone())
	assert.Equal(t, []string{"first_words"}, h.sink.unlocked)
}

func TestEngine_LevelUpNotification(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)
	require.NoError(t, h.engine.Load(context.Background()))

	// 1000 words unlock first_words (50) and storyteller (100):
	// 150 XP crosses the level 2 threshold at 100.
	require.NoError(t, h.engine.RecordWords(context.Background(), 1000))
	require.NoError(t, h.coord.Flush(context.Background()))

	st := h.engine.Stats()
	assert.Equal(t, 150, st.Experience)
	assert.Equal(t, 2, st.Level)
	assert.Equal(t, []int{2}, h.sink.levelUps)
}

func TestEngine_RecordEntity(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)
	require.NoError(t, h.engine.Load(context.Background()))

	require.NoError(t, h.engine.RecordEntity(context.Background(), KindCharacter))
	require.NoError(t, h.coord.Flush(context.Background()))

	st := h.engine.Stats()
	assert.Equal(t, 1, st.CharacterCount)
	assert.Contains(t, h.sink.unlocked, "first_character")

	err := h.engine.RecordEntity(context.Background(), EntityKind("dragon"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestEngine_EndSession(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)
	require.NoError(t, h.engine.Load(context.Background()))

	require.NoError(t, h.engine.RecordWords(context.Background(), 120))
	h.advanceTo(h.clock().Add(90 * time.Second))

	closed, err := h.engine.EndSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 120, closed.WordCount)
	assert.Equal(t, 2, closed.Duration, "90 seconds round up to 2 minutes")
	assert.Equal(t, 60, closed.Speed())
	assert.Equal(t, session.StateIdle, h.engine.SessionState())

	require.Len(t, store.sessions, 1)
	require.Len(t, store.idempotencyKeys, 1)
	assert.NotEmpty(t, store.idempotencyKeys[0])

	// The server owns the session counters; the engine must not apply
	// them a second time locally.
	st := h.engine.Stats()
	assert.Equal(t, 1, st.SessionsCompleted)
	assert.Equal(t, 2, st.WriteTime)
	assert.Contains(t, h.sink.unlocked, "first_session")
}

func TestEngine_EndSessionWithoutActiveSession(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)
	require.NoError(t, h.engine.Load(context.Background()))

	_, err := h.engine.EndSession(context.Background())
	assert.ErrorIs(t, err, shared.ErrNoActiveSession)
}

func TestEngine_StreakAdvancesOnConsecutiveDay(t *testing.T) {
	yesterday := mustDate("2026-03-09")
	store := &fakeRecordStore{stats: &stats.UserStats{
		WordCount:          5000,
		WordCountToday:     800,
		WriteStreak:        5,
		LongestWriteStreak: 5,
		DailyGoalReached:   true,
		DailyGoalStreak:    3,
		LastActiveDate:     yesterday,
	}}
	h := newHarness(t, store)

	require.NoError(t, h.engine.Load(context.Background()))

	st := h.engine.Stats()
	assert.Equal(t, 6, st.WriteStreak)
	assert.Equal(t, 6, st.LongestWriteStreak)
	assert.Equal(t, 0, st.WordCountToday, "daily counters reset on rollover")
	assert.False(t, st.DailyGoalReached)
	assert.Equal(t, 3, st.DailyGoalStreak, "goal streak survives a reached yesterday")
}

func TestEngine_StreakBreaksAfterMissedDays(t *testing.T) {
	tests := []struct {
		name        string
		goalReached bool
	}{
		{"goal missed on last active day", false},
		// A gap breaks the goal streak even when the last active day
		// ended with the goal reached: the days in between did not.
		{"goal reached on last active day", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeRecordStore{stats: &stats.UserStats{
				WriteStreak:        5,
				LongestWriteStreak: 8,
				DailyGoalStreak:    3,
				DailyGoalReached:   tt.goalReached,
				LastActiveDate:     mustDate("2026-03-06"),
			}}
			h := newHarness(t, store)

			require.NoError(t, h.engine.Load(context.Background()))

			st := h.engine.Stats()
			assert.Equal(t, 0, st.WriteStreak)
			assert.Equal(t, 8, st.LongestWriteStreak, "longest streak is never lowered")
			assert.Equal(t, 0, st.DailyGoalStreak, "goal streak breaks with the missed days")
			assert.False(t, st.DailyGoalReached)
		})
	}
}

func TestEngine_WeekRolloverResetsWeeklyCounter(t *testing.T) {
	// 2026-03-08 is a Sunday, 2026-03-10 a Tuesday: new ISO week.
	store := &fakeRecordStore{stats: &stats.UserStats{
		WordCountWeek:  4200,
		LastActiveDate: mustDate("2026-03-08"),
	}}
	h := newHarness(t, store)

	require.NoError(t, h.engine.Load(context.Background()))
	assert.Equal(t, 0, h.engine.Stats().WordCountWeek)
}

func TestEngine_DailyGoal(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)
	require.NoError(t, h.engine.Load(context.Background()))

	assert.ErrorIs(t, h.engine.SetDailyGoal(context.Background(), 0), shared.ErrInvalidDailyGoal)
	assert.ErrorIs(t, h.engine.SetDailyGoal(context.Background(), -100), shared.ErrInvalidDailyGoal)

	require.NoError(t, h.engine.SetDailyGoal(context.Background(), 500))
	assert.Equal(t, 500, h.engine.Stats().DailyWordGoal)

	require.NoError(t, h.engine.RecordWords(context.Background(), 300))
	assert.Empty(t, h.sink.goalsHit)

	require.NoError(t, h.engine.RecordWords(context.Background(), 250))
	assert.Equal(t, []int{500}, h.sink.goalsHit)

	st := h.engine.Stats()
	assert.True(t, st.DailyGoalReached)
	assert.Equal(t, 1, st.DailyGoalStreak)

	// Crossing fires exactly once per day.
	require.NoError(t, h.engine.RecordWords(context.Background(), 400))
	assert.Equal(t, []int{500}, h.sink.goalsHit)
}

func TestEngine_MergesPersistedAchievements(t *testing.T) {
	when := mustDate("2026-02-01")
	store := &fakeRecordStore{
		stats: &stats.UserStats{WordCount: 200, LastActiveDate: mustDate("2026-03-10")},
		achievements: []achievement.Achievement{
			{ID: "first_words", Unlocked: true, Progress: 100, UnlockDate: &when},
			{ID: "retired_rule", Unlocked: true, Progress: 100},
		},
	}
	h := newHarness(t, store)

	require.NoError(t, h.engine.Load(context.Background()))

	assert.Empty(t, h.sink.unlocked, "already unlocked achievements are not re-announced")

	for _, a := range h.engine.Achievements() {
		assert.NotEqual(t, "retired_rule", a.ID, "ids absent from the rule table are dropped")
		if a.ID == "first_words" {
			assert.True(t, a.Unlocked)
			require.NotNil(t, a.UnlockDate)
			assert.True(t, when.Equal(*a.UnlockDate), "original unlock date is preserved")
		}
	}
}

func TestEngine_TeardownClosesSession(t *testing.T) {
	store := &fakeRecordStore{}
	h := newHarness(t, store)
	require.NoError(t, h.engine.Load(context.Background()))

	require.NoError(t, h.engine.RecordWords(context.Background(), 75))
	h.engine.Teardown(context.Background())

	require.Len(t, store.sessions, 1, "open session is recorded on teardown")
	assert.Equal(t, 75, store.sessions[0].WordCount)
	assert.Equal(t, 75, store.stats.WordCount, "buffered words flushed on teardown")
}
