package remote

import (
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/achievement"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/session"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
	"github.com/devsmkna/bookbuilder-sub000/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER
// Translates between wire DTOs and domain entities. The domain layer
// never sees JSON tags or wire date formats.
// ══════════════════════════════════════════════════════════════════════════════

// Mapper converts between DTOs and domain types.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// ToDomainStats converts a stats DTO into the domain snapshot.
// A malformed lastActiveDate is treated as absent rather than failing
// the whole snapshot.
func (m *Mapper) ToDomainStats(dto *UserStatsDTO) *stats.UserStats {
	s := &stats.UserStats{
		WordCount:          dto.WordCount,
		WordCountToday:     dto.WordCountToday,
		WordCountWeek:      dto.WordCountWeek,
		CharacterCount:     dto.CharacterCount,
		PlaceCount:         dto.PlaceCount,
		EventCount:         dto.EventCount,
		RaceCount:          dto.RaceCount,
		MapCount:           dto.MapCount,
		SessionsCompleted:  dto.SessionsCompleted,
		WordsPerDay:        dto.WordsPerDay,
		DailyGoalReached:   dto.DailyGoalReached,
		DailyGoalStreak:    dto.DailyGoalStreak,
		WriteStreak:        dto.WriteStreak,
		LongestWriteStreak: dto.LongestWriteStreak,
		WriteTime:          dto.WriteTime,
		WritingSpeed:       dto.WritingSpeed,
		DailyWordGoal:      dto.DailyWordGoal,
		Experience:         dto.Experience,
		Level:              dto.Level,
	}

	if dto.LastActiveDate != nil {
		if d, err := timeutil.ParseDayKey(*dto.LastActiveDate); err == nil {
			s.LastActiveDate = d
		}
	}

	return s
}

// ToPatchDTO converts a domain patch into its wire form.
func (m *Mapper) ToPatchDTO(patch stats.StatsPatch) StatsPatchDTO {
	dto := StatsPatchDTO{
		WordCountToday:     patch.WordCountToday,
		WordCountWeek:      patch.WordCountWeek,
		WordsPerDay:        patch.WordsPerDay,
		DailyGoalReached:   patch.DailyGoalReached,
		DailyGoalStreak:    patch.DailyGoalStreak,
		WriteStreak:        patch.WriteStreak,
		LongestWriteStreak: patch.LongestWriteStreak,
		WritingSpeed:       patch.WritingSpeed,
		DailyWordGoal:      patch.DailyWordGoal,
		Experience:         patch.Experience,
		Level:              patch.Level,
	}

	if patch.LastActiveDate != nil {
		key := timeutil.DayKey(*patch.LastActiveDate)
		dto.LastActiveDate = &key
	}

	return dto
}

// ToDeltaDTO converts a domain delta into its wire form.
func (m *Mapper) ToDeltaDTO(d stats.Delta) StatsDeltaDTO {
	return StatsDeltaDTO{
		WordsWritten:      d.WordsWritten,
		CharactersCreated: d.CharactersCreated,
		PlacesCreated:     d.PlacesCreated,
		RacesCreated:      d.RacesCreated,
		EventsCreated:     d.EventsCreated,
		MapsCreated:       d.MapsCreated,
		SessionsCompleted: d.SessionsCompleted,
		WriteMinutes:      d.WriteMinutes,
	}
}

// ToDomainAchievements merges persisted unlock state into bare
// achievement entities. Rule metadata (title, threshold, XP) is not
// transferred: the caller overlays this state onto the rule table.
func (m *Mapper) ToDomainAchievements(dtos []AchievementDTO) []achievement.Achievement {
	out := make([]achievement.Achievement, 0, len(dtos))
	for _, dto := range dtos {
		a := achievement.Achievement{
			ID:       dto.ID,
			Unlocked: dto.Unlocked,
			Progress: dto.Progress,
		}
		if dto.UnlockDate != nil {
			d := *dto.UnlockDate
			a.UnlockDate = &d
		}
		out = append(out, a)
	}
	return out
}

// ToAchievementDTOs converts achievement state for persistence.
func (m *Mapper) ToAchievementDTOs(achievements []achievement.Achievement) []AchievementDTO {
	out := make([]AchievementDTO, 0, len(achievements))
	for _, a := range achievements {
		dto := AchievementDTO{
			ID:       a.ID,
			Unlocked: a.Unlocked,
			Progress: a.Progress,
		}
		if a.UnlockDate != nil {
			d := *a.UnlockDate
			dto.UnlockDate = &d
		}
		out = append(out, dto)
	}
	return out
}

// ToSessionDTO converts a completed writing session into its wire form.
func (m *Mapper) ToSessionDTO(s session.WritingSession) WritingSessionDTO {
	dto := WritingSessionDTO{
		ID:        s.ID,
		Date:      timeutil.DayKey(s.Date),
		WordCount: s.WordCount,
		Duration:  s.Duration,
		StartTime: s.StartTime.UTC(),
	}
	if s.EndTime != nil {
		end := s.EndTime.UTC()
		dto.EndTime = &end
	}
	return dto
}
