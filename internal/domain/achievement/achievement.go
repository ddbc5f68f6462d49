// Package achievement содержит доменную модель достижений писателя:
// сущность достижения, статический каталог правил и чистый движок
// оценки. Здесь нет скрытого состояния - все функции детерминированы
// относительно своих входов.
package achievement

import (
	"fmt"
	"time"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Category представляет категорию достижения.
type Category string

const (
	// CategoryWriting - достижения за написанные слова.
	CategoryWriting Category = "writing"
	// CategoryWorldbuilding - достижения за создание сущностей мира.
	CategoryWorldbuilding Category = "worldbuilding"
	// CategoryDedication - достижения за регулярность (серии, сессии).
	CategoryDedication Category = "dedication"
)

// Condition - пороговое условие достижения над одной статистикой.
type Condition struct {
	// StatType - тип статистики, на которую смотрит условие.
	StatType stats.StatType

	// Threshold - порог, при достижении которого условие выполнено.
	Threshold int
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ACHIEVEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Achievement - именованная веха с пороговым условием, дающая XP
// при разблокировке.
//
// Инварианты:
//   - Unlocked никогда не переходит из true в false.
//   - Progress монотонно не убывает, пока Unlocked == false.
//   - Progress == 100 тогда и только тогда, когда Unlocked == true.
type Achievement struct {
	// ID - уникальный идентификатор достижения.
	ID string

	// Title - название.
	Title string

	// Description - описание.
	Description string

	// Category - категория.
	Category Category

	// XP - награда опыта, фиксированная.
	XP int

	// Condition - пороговое условие.
	Condition Condition

	// Unlocked - разблокировано ли достижение.
	Unlocked bool

	// Progress - прогресс выполнения условия, 0-100.
	Progress int

	// UnlockDate - момент разблокировки (nil, пока не разблокировано).
	UnlockDate *time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// STATIC RULE CATALOG
// Фиксированная таблица правил. Порядок записей определяет порядок
// обхода при оценке - другого порядка разблокировки не гарантируется.
// ══════════════════════════════════════════════════════════════════════════════

// Catalog возвращает полный каталог достижений в порядке таблицы правил.
// Каждый вызов возвращает свежие копии с Unlocked=false и Progress=0.
func Catalog() []Achievement {
	return []Achievement{
		{ID: "first_words", Title: "Первые слова", Description: "Написать 100 слов", Category: CategoryWriting, XP: 50, Condition: Condition{stats.StatWordCount, 100}},
		{ID: "storyteller", Title: "Рассказчик", Description: "Написать 1 000 слов", Category: CategoryWriting, XP: 100, Condition: Condition{stats.StatWordCount, 1000}},
		{ID: "novelist_apprentice", Title: "Подмастерье романиста", Description: "Написать 10 000 слов", Category: CategoryWriting, XP: 250, Condition: Condition{stats.StatWordCount, 10000}},
		{ID: "wordsmith", Title: "Мастер слова", Description: "Написать 50 000 слов", Category: CategoryWriting, XP: 500, Condition: Condition{stats.StatWordCount, 50000}},
		{ID: "daily_marathon", Title: "Дневной марафон", Description: "2 000 слов за один день", Category: CategoryWriting, XP: 150, Condition: Condition{stats.StatWordCountToday, 2000}},
		{ID: "first_character", Title: "Первый герой", Description: "Создать первого персонажа", Category: CategoryWorldbuilding, XP: 50, Condition: Condition{stats.StatCharacterCount, 1}},
		{ID: "character_ensemble", Title: "Ансамбль", Description: "Создать 10 персонажей", Category: CategoryWorldbuilding, XP: 200, Condition: Condition{stats.StatCharacterCount, 10}},
		{ID: "world_builder", Title: "Строитель мира", Description: "Создать 5 локаций", Category: CategoryWorldbuilding, XP: 150, Condition: Condition{stats.StatPlaceCount, 5}},
		{ID: "race_creator", Title: "Создатель рас", Description: "Создать 3 расы", Category: CategoryWorldbuilding, XP: 100, Condition: Condition{stats.StatRaceCount, 3}},
		{ID: "chronicler", Title: "Летописец", Description: "Создать 10 событий", Category: CategoryWorldbuilding, XP: 150, Condition: Condition{stats.StatEventCount, 10}},
		{ID: "cartographer", Title: "Картограф", Description: "Создать 3 карты", Category: CategoryWorldbuilding, XP: 100, Condition: Condition{stats.StatMapCount, 3}},
		{ID: "first_session", Title: "Первая сессия", Description: "Завершить писательскую сессию", Category: CategoryDedication, XP: 50, Condition: Condition{stats.StatSessionsCompleted, 1}},
		{ID: "devoted", Title: "Преданный делу", Description: "Завершить 25 сессий", Category: CategoryDedication, XP: 200, Condition: Condition{stats.StatSessionsCompleted, 25}},
		{ID: "streak_7", Title: "Неделя огня", Description: "Писать 7 дней подряд", Category: CategoryDedication, XP: 150, Condition: Condition{stats.StatWriteStreak, 7}},
		{ID: "streak_30", Title: "Железная воля", Description: "Писать 30 дней подряд", Category: CategoryDedication, XP: 500, Condition: Condition{stats.StatWriteStreak, 30}},
		{ID: "goal_getter", Title: "Целеустремлённый", Description: "Достигать дневной цели 5 дней подряд", Category: CategoryDedication, XP: 150, Condition: Condition{stats.StatDailyGoalStreak, 5}},
		{ID: "time_invested", Title: "Вложенное время", Description: "10 часов чистого письма", Category: CategoryDedication, XP: 200, Condition: Condition{stats.StatWriteTime, 600}},
	}
}

// ValidateCatalog проверяет каталог правил при старте приложения.
// Ошибка каталога - это ошибка конфигурации: она никогда не должна
// всплывать во время оценки.
func ValidateCatalog(catalog []Achievement) error {
	seen := make(map[string]bool, len(catalog))
	for _, a := range catalog {
		if a.ID == "" {
			return shared.NewDomainError("achievement", "ValidateCatalog",
				shared.ErrConfiguration, "achievement with empty id")
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: id %q", shared.ErrDuplicateAchievementID, a.ID)
		}
		seen[a.ID] = true

		if a.Condition.Threshold <= 0 {
			return fmt.Errorf("%w: id %q has threshold %d",
				shared.ErrInvalidThreshold, a.ID, a.Condition.Threshold)
		}
		if !a.Condition.StatType.IsValid() {
			return fmt.Errorf("%w: id %q references %q",
				shared.ErrInvalidCondition, a.ID, a.Condition.StatType)
		}
		if a.XP < 0 {
			return shared.WrapError("achievement", "ValidateCatalog",
				shared.ErrConfiguration, "xp reward cannot be negative",
				fmt.Errorf("id %q", a.ID))
		}
	}
	return nil
}

// TotalXP возвращает сумму XP разблокированных достижений.
// Опыт накапливается только так и никогда не убывает.
func TotalXP(achievements []Achievement) int {
	total := 0
	for _, a := range achievements {
		if a.Unlocked {
			total += a.XP
		}
	}
	return total
}
