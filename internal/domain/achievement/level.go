package achievement

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL CALCULATOR
// Фиксированная восходящая таблица из 10 уровней. Уровень 1 - пол:
// ниже него опуститься нельзя ни при каком XP.
// ══════════════════════════════════════════════════════════════════════════════

// LevelThreshold - пара (уровень, порог XP).
type LevelThreshold struct {
	Level int
	XP    int
}

// levelTable - таблица порогов. Порядок строго восходящий и по уровню,
// и по XP; это проверяется тестами.
var levelTable = []LevelThreshold{
	{Level: 1, XP: 0},
	{Level: 2, XP: 100},
	{Level: 3, XP: 250},
	{Level: 4, XP: 500},
	{Level: 5, XP: 1000},
	{Level: 6, XP: 1750},
	{Level: 7, XP: 2750},
	{Level: 8, XP: 4000},
	{Level: 9, XP: 5500},
	{Level: 10, XP: 7500},
}

// MaxLevel - максимальный уровень таблицы.
const MaxLevel = 10

// LevelTable возвращает копию таблицы уровней.
func LevelTable() []LevelThreshold {
	table := make([]LevelThreshold, len(levelTable))
	copy(table, levelTable)
	return table
}

// LevelForXP возвращает наибольший уровень, порог которого не превышает
// xp. Для отрицательного xp возвращает 1 (уровень 1 - пол).
func LevelForXP(xp int) int {
	level := 1
	for _, t := range levelTable {
		if xp >= t.XP {
			level = t.Level
		} else {
			break
		}
	}
	return level
}

// XPToNextLevel возвращает, сколько XP осталось до следующего уровня.
// На максимальном уровне возвращает 0.
func XPToNextLevel(xp int) int {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	remaining := levelTable[level].XP - xp
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PercentToNextLevel возвращает прогресс до следующего уровня в
// процентах, ограниченный диапазоном [0, 100]. На максимальном уровне
// всегда 100.
func PercentToNextLevel(xp int) int {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 100
	}

	floor := levelTable[level-1].XP
	ceil := levelTable[level].XP

	percent := (xp - floor) * 100 / (ceil - floor)
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
