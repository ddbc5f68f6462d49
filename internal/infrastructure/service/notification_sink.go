package service

import (
	"log/slog"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/achievement"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/notification"
)

// LogSink implements notification.Sink by writing structured log
// records. It stands in for a real UI surface (toast, system
// notification); the engine treats all sinks as fire-and-forget.
type LogSink struct {
	logger *slog.Logger
}

var _ notification.Sink = (*LogSink)(nil)

// NewLogSink creates a sink over the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) AchievementUnlocked(a achievement.Achievement) {
	s.logger.Info("notification: achievement unlocked",
		"achievement_id", a.ID,
		"title", a.Title,
		"xp", a.XP,
		"category", string(a.Category))
}

func (s *LogSink) LevelUp(newLevel int) {
	s.logger.Info("notification: level up", "level", newLevel)
}

func (s *LogSink) DailyGoalReached(goal int) {
	s.logger.Info("notification: daily goal reached", "goal", goal)
}
