package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
	"nutritrack/internal/store"
)

// goal ties a streak type to the progress value and target it is judged on.
type goal struct {
	streak  models.StreakType
	name    string
	current func(*models.DailyProgress) float64
	target  func(models.Targets) float64
}

var goals = []goal{
	{
		streak:  models.StreakWaterGoal,
		name:    "water",
		current: func(p *models.DailyProgress) float64 { return float64(p.WaterConsumed) },
		target:  func(t models.Targets) float64 { return float64(t.Water) },
	},
	{
		streak:  models.StreakCalorieGoal,
		name:    "calories",
		current: func(p *models.DailyProgress) float64 { return p.CaloriesConsumed },
		target:  func(t models.Targets) float64 { return t.Calories },
	},
	{
		streak:  models.StreakProteinGoal,
		name:    "protein",
		current: func(p *models.DailyProgress) float64 { return p.ProteinConsumed },
		target:  func(t models.Targets) float64 { return t.Protein },
	},
	{
		streak:  models.StreakExerciseGoal,
		name:    "exercise",
		current: func(p *models.DailyProgress) float64 { return float64(p.ExerciseMinutes) },
		target:  func(t models.Targets) float64 { return float64(t.Exercise) },
	},
}

func (g goal) met(p *models.DailyProgress, t models.Targets) bool {
	target := g.target(t)
	return p != nil && target > 0 && g.current(p) >= target
}

// Tracker judges a day's progress against the user's targets and feeds the
// outcome to the streak engine and the achievement ledger.
type Tracker struct {
	profiles     *ProfileService
	progress     *ProgressService
	streaks      *StreakService
	achievements *AchievementService
	meals        store.MealStore
	logger       *zap.Logger
}

func NewTracker(profiles *ProfileService, progress *ProgressService, streaks *StreakService, achievements *AchievementService, meals store.MealStore, logger *zap.Logger) *Tracker {
	return &Tracker{
		profiles:     profiles,
		progress:     progress,
		streaks:      streaks,
		achievements: achievements,
		meals:        meals,
		logger:       logger,
	}
}

// Check runs after a successful progress write. Goals that are met extend
// their streaks and earn the daily bonus; goals not yet met are left alone
// since the day is still open. Failures are logged only: the write that
// triggered the check has already been persisted.
func (t *Tracker) Check(ctx context.Context, userID uuid.UUID, today time.Time, p *models.DailyProgress) {
	if p == nil {
		return
	}
	targets, err := t.profiles.Targets(ctx, userID)
	if err != nil {
		t.logger.Warn("goal check: load targets", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	for _, g := range goals {
		if !g.met(p, targets) {
			continue
		}
		if _, err := t.streaks.Evaluate(ctx, userID, g.streak, true, today); err != nil {
			t.logger.Warn("goal check: evaluate streak",
				zap.String("user_id", userID.String()), zap.String("streak_type", string(g.streak)), zap.Error(err))
		}
		if _, _, err := t.achievements.GoalAchievementCheck(ctx, userID, g.name, g.current(p), g.target(targets), today); err != nil {
			t.logger.Warn("goal check: daily goal",
				zap.String("user_id", userID.String()), zap.String("goal", g.name), zap.Error(err))
		}
	}
}

// MealLogged marks the daily logging streak for today.
func (t *Tracker) MealLogged(ctx context.Context, userID uuid.UUID, today time.Time) {
	if _, err := t.streaks.Evaluate(ctx, userID, models.StreakDailyLogging, true, today); err != nil {
		t.logger.Warn("goal check: daily logging streak", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// DayResult is the outcome of closing one streak for a day.
type DayResult struct {
	StreakType models.StreakType `json:"streak_type"`
	Achieved   bool              `json:"achieved"`
	Streak     *models.Streak    `json:"streak,omitempty"`
	Skipped    string            `json:"skipped,omitempty"`
}

// CloseDay settles every streak for a finished day. Missed goals reset their
// streaks; this is the only path that does. Streaks already advanced past
// day are skipped.
func (t *Tracker) CloseDay(ctx context.Context, userID uuid.UUID, day time.Time) ([]DayResult, error) {
	day = dates.Day(day)
	targets, err := t.profiles.Targets(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := t.progress.ListRange(ctx, userID, day, day)
	if err != nil {
		return nil, err
	}
	var p *models.DailyProgress
	if len(rows) > 0 {
		p = &rows[0]
	}
	meals, err := t.meals.ListMeals(ctx, userID, day)
	if err != nil {
		return nil, persist("list meals", "meals", err)
	}
	logged := false
	for _, m := range meals {
		if len(m.Items) > 0 {
			logged = true
			break
		}
	}

	outcomes := make([]DayResult, 0, len(goals)+1)
	for _, g := range goals {
		outcomes = append(outcomes, DayResult{StreakType: g.streak, Achieved: g.met(p, targets)})
	}
	outcomes = append(outcomes, DayResult{StreakType: models.StreakDailyLogging, Achieved: logged})

	for i := range outcomes {
		o := &outcomes[i]
		st, err := t.streaks.Evaluate(ctx, userID, o.StreakType, o.Achieved, day)
		if IsValidation(err) {
			o.Skipped = err.Error()
			continue
		}
		if err != nil {
			return nil, err
		}
		o.Streak = st
	}
	t.logger.Info("day closed", zap.String("user_id", userID.String()), zap.String("day", dates.Format(day)))
	return outcomes, nil
}
