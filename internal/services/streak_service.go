package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
	"nutritrack/internal/store"
)

// Unlocker is the part of the achievement ledger the streak engine needs.
type Unlocker interface {
	Unlock(ctx context.Context, userID uuid.UUID, req UnlockRequest) (UnlockStatus, *models.Achievement, error)
}

type StreakService struct {
	store    store.StreakStore
	unlocker Unlocker
	rules    Rules
	logger   *zap.Logger
}

func NewStreakService(st store.StreakStore, unlocker Unlocker, rules Rules, logger *zap.Logger) *StreakService {
	return &StreakService{store: st, unlocker: unlocker, rules: rules, logger: logger}
}

// Evaluate records whether the user met the goal behind streak type t on
// today. Achieving twice on the same day is a no-op; achieving the day after
// the last activity extends the streak; any other achieved day restarts it at
// 1; a miss resets it to 0. Reaching a milestone unlocks the matching award.
func (s *StreakService) Evaluate(ctx context.Context, userID uuid.UUID, t models.StreakType, achieved bool, today time.Time) (*models.Streak, error) {
	if !t.Valid() {
		return nil, invalid("streak_type", "unknown streak type %q", t)
	}
	today = dates.Day(today)

	st, err := s.store.GetStreak(ctx, userID, t)
	if errors.Is(err, store.ErrNotFound) {
		st = &models.Streak{ID: uuid.New(), UserID: userID, StreakType: t}
		if achieved {
			st.CurrentStreak, st.LongestStreak = 1, 1
			st.LastActivityDate = &today
		}
		if err := s.store.InsertStreak(ctx, st); err != nil {
			return nil, persist("create streak", "streak", err)
		}
		return st, nil
	}
	if err != nil {
		return nil, persist("load streak", "streak", err)
	}

	if st.LastActivityDate != nil && today.Before(dates.Day(*st.LastActivityDate)) {
		return nil, invalid("date", "%s is before the last recorded activity %s", dates.Format(today), dates.Format(*st.LastActivityDate))
	}

	if !advance(st, achieved, today) {
		return st, nil
	}
	if err := s.store.UpdateStreak(ctx, st); err != nil {
		return nil, persist("update streak", "streak", err)
	}

	if achieved && s.rules.isMilestone(st.CurrentStreak) {
		if err := s.unlockMilestone(ctx, userID, t, st.CurrentStreak); err != nil {
			return st, err
		}
	}
	return st, nil
}

// advance applies one day's outcome to st and reports whether it changed.
func advance(st *models.Streak, achieved bool, today time.Time) bool {
	if !achieved {
		if st.CurrentStreak == 0 {
			return false
		}
		st.CurrentStreak = 0
		return true
	}

	last := st.LastActivityDate
	switch {
	case last != nil && dates.Same(*last, today):
		return false
	case last != nil && dates.Same(*last, dates.Yesterday(today)):
		st.CurrentStreak++
	default:
		st.CurrentStreak = 1
	}
	st.LongestStreak = max(st.LongestStreak, st.CurrentStreak)
	st.LastActivityDate = &today
	return true
}

func (s *StreakService) unlockMilestone(ctx context.Context, userID uuid.UUID, t models.StreakType, days int) error {
	label := strings.ReplaceAll(string(t), "_", " ")
	m := days
	status, _, err := s.unlocker.Unlock(ctx, userID, UnlockRequest{
		Type:        models.AchievementStreak,
		Tag:         string(t),
		Name:        fmt.Sprintf("%d-Day %s Streak", days, titleCase(label)),
		Description: fmt.Sprintf("Kept your %s streak going for %d days", label, days),
		Points:      days * s.rules.StreakPointsPerDay,
		Milestone:   &m,
	})
	if err != nil {
		return err
	}
	s.logger.Debug("streak milestone",
		zap.String("user_id", userID.String()),
		zap.String("streak_type", string(t)),
		zap.Int("days", days),
		zap.String("status", string(status)),
	)
	return nil
}

func (s *StreakService) List(ctx context.Context, userID uuid.UUID) ([]models.Streak, error) {
	list, err := s.store.ListStreaks(ctx, userID)
	if err != nil {
		return nil, persist("list streaks", "streaks", err)
	}
	return list, nil
}

func (s *StreakService) Get(ctx context.Context, userID uuid.UUID, t models.StreakType) (*models.Streak, error) {
	if !t.Valid() {
		return nil, invalid("streak_type", "unknown streak type %q", t)
	}
	st, err := s.store.GetStreak(ctx, userID, t)
	if err != nil {
		return nil, persist("load streak", "streak", err)
	}
	return st, nil
}
