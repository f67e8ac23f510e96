package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
	"nutritrack/internal/store"
)

type UnlockStatus string

const (
	Unlocked        UnlockStatus = "unlocked"
	AlreadyUnlocked UnlockStatus = "already_unlocked"
	GoalNotMet      UnlockStatus = "not_met"
)

// UnlockRequest describes an award. Type and Milestone identify it, so a user
// holds at most one achievement per pair. Tag only records what it was for.
type UnlockRequest struct {
	Type        string
	Tag         string
	Name        string
	Description string
	Points      int
	Milestone   *int
}

// Notifier receives newly unlocked achievements.
type Notifier interface {
	Notify(userID uuid.UUID, event any)
}

// AchievementEvent is pushed to the user's realtime connections on unlock.
type AchievementEvent struct {
	Kind        string             `json:"kind"`
	Achievement models.Achievement `json:"achievement"`
	TotalPoints int                `json:"total_points"`
}

type AchievementService struct {
	store    store.AchievementStore
	notifier Notifier
	rules    Rules
	logger   *zap.Logger
}

func NewAchievementService(st store.AchievementStore, notifier Notifier, rules Rules, logger *zap.Logger) *AchievementService {
	return &AchievementService{store: st, notifier: notifier, rules: rules, logger: logger}
}

// Unlock records an achievement at most once per user and identity. Repeating
// an unlock is a no-op reported as AlreadyUnlocked.
func (s *AchievementService) Unlock(ctx context.Context, userID uuid.UUID, req UnlockRequest) (UnlockStatus, *models.Achievement, error) {
	if strings.TrimSpace(req.Type) == "" {
		return "", nil, invalid("achievement_type", "is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", nil, invalid("achievement_name", "is required")
	}
	if req.Points <= 0 {
		return "", nil, invalid("points", "must be positive, got %d", req.Points)
	}

	a := &models.Achievement{
		ID:              uuid.New(),
		UserID:          userID,
		AchievementType: req.Type,
		Tag:             req.Tag,
		AchievementName: req.Name,
		Description:     req.Description,
		Points:          req.Points,
		MilestoneValue:  req.Milestone,
	}
	inserted, err := s.store.InsertAchievement(ctx, a)
	if err != nil {
		return "", nil, persist("unlock achievement", "achievement", err)
	}
	if !inserted {
		return AlreadyUnlocked, nil, nil
	}

	s.logger.Info("achievement unlocked",
		zap.String("user_id", userID.String()),
		zap.String("type", a.AchievementType),
		zap.String("tag", a.Tag),
		zap.Int("points", a.Points),
	)
	if s.notifier != nil {
		total, err := s.store.SumPoints(ctx, userID)
		if err != nil {
			s.logger.Warn("sum points for notification", zap.Error(err))
		}
		s.notifier.Notify(userID, AchievementEvent{Kind: "achievement.unlocked", Achievement: *a, TotalPoints: total})
	}
	return Unlocked, a, nil
}

// goalCodes give each daily goal its own digit in the milestone value.
var goalCodes = map[string]int{"water": 1, "calories": 2, "protein": 3, "exercise": 4}

// dailyGoalMilestone encodes day and goal as YYYYMMDDG, so each goal has its
// own (daily_goal, milestone) pair per day.
func dailyGoalMilestone(goal string, day time.Time) (int, error) {
	code, ok := goalCodes[goal]
	if !ok {
		return 0, invalid("goal", "unknown goal %q", goal)
	}
	return dates.Stamp(day)*10 + code, nil
}

// GoalAchievementCheck awards the daily goal bonus when current reaches a
// positive target. It can be earned once per goal per day.
func (s *AchievementService) GoalAchievementCheck(ctx context.Context, userID uuid.UUID, goal string, current, target float64, today time.Time) (UnlockStatus, *models.Achievement, error) {
	stamp, err := dailyGoalMilestone(goal, today)
	if err != nil {
		return "", nil, err
	}
	if target <= 0 || current < target {
		return GoalNotMet, nil, nil
	}
	return s.Unlock(ctx, userID, UnlockRequest{
		Type:        models.AchievementDailyGoal,
		Tag:         goal,
		Name:        fmt.Sprintf("Daily %s Goal", titleCase(goal)),
		Description: fmt.Sprintf("Reached your %s target on %s", goal, dates.Format(today)),
		Points:      s.rules.DailyGoalPoints,
		Milestone:   &stamp,
	})
}

func (s *AchievementService) List(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	list, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, persist("list achievements", "achievements", err)
	}
	return list, nil
}

func (s *AchievementService) TotalPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	total, err := s.store.SumPoints(ctx, userID)
	if err != nil {
		return 0, persist("sum points", "achievements", err)
	}
	return total, nil
}

type PointsSummary struct {
	TotalPoints       int `json:"total_points"`
	Achievements      int `json:"achievements"`
	Level             int `json:"level"`
	PointsToNextLevel int `json:"points_to_next_level"`
}

// Summary reports the user's level. Levels start at 1 and advance every
// PointsPerLevel points.
func (s *AchievementService) Summary(ctx context.Context, userID uuid.UUID) (*PointsSummary, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, a := range list {
		total += a.Points
	}
	return summarize(total, len(list), s.rules.PointsPerLevel), nil
}

func summarize(total, count, perLevel int) *PointsSummary {
	if perLevel <= 0 {
		perLevel = DefaultRules().PointsPerLevel
	}
	return &PointsSummary{
		TotalPoints:       total,
		Achievements:      count,
		Level:             1 + total/perLevel,
		PointsToNextLevel: perLevel - total%perLevel,
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
