// Package store is the record store behind the tracking services. Postgres is
// the store of record in production; Memory backs tests and DB-less runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"nutritrack/internal/models"
)

var ErrNotFound = errors.New("record not found")

type ProgressStore interface {
	// GetOrCreateProgress returns the user's row for day, inserting a zeroed
	// one if absent.
	GetOrCreateProgress(ctx context.Context, userID uuid.UUID, day time.Time) (*models.DailyProgress, error)
	// ApplyProgress applies change to the user's row for day in one atomic
	// write, creating the row first if needed.
	ApplyProgress(ctx context.Context, userID uuid.UUID, day time.Time, change models.ProgressChange) (*models.DailyProgress, error)
	ListProgress(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyProgress, error)
}

type StreakStore interface {
	GetStreak(ctx context.Context, userID uuid.UUID, t models.StreakType) (*models.Streak, error)
	InsertStreak(ctx context.Context, s *models.Streak) error
	UpdateStreak(ctx context.Context, s *models.Streak) error
	ListStreaks(ctx context.Context, userID uuid.UUID) ([]models.Streak, error)
}

type AchievementStore interface {
	// InsertAchievement returns false without writing when the user already
	// holds an achievement with the same type and milestone. Tag is not part
	// of the identity.
	InsertAchievement(ctx context.Context, a *models.Achievement) (bool, error)
	ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error)
	SumPoints(ctx context.Context, userID uuid.UUID) (int, error)
}

type ProfileStore interface {
	GetOrCreateProfile(ctx context.Context, defaults *models.Profile) (*models.Profile, error)
	SaveProfile(ctx context.Context, p *models.Profile) error
}

type FoodStore interface {
	GetFood(ctx context.Context, id uuid.UUID) (*models.Food, error)
	SearchFoods(ctx context.Context, query string, limit int) ([]models.Food, error)
	// UpsertFoods writes all foods or none.
	UpsertFoods(ctx context.Context, foods []models.Food) error
}

type MealStore interface {
	// AddMealItem finds or creates the (user, day, mealType) meal, adds the
	// item's macros to its totals and inserts the item, all in one transaction.
	AddMealItem(ctx context.Context, userID uuid.UUID, day time.Time, mealType models.MealType, item *models.MealItem) (*models.Meal, error)
	GetMealItem(ctx context.Context, userID, itemID uuid.UUID) (*models.MealItem, *models.Meal, error)
	// RemoveMealItem deletes the item and subtracts it from its meal totals in
	// one transaction.
	RemoveMealItem(ctx context.Context, userID, itemID uuid.UUID) (*models.MealItem, error)
	ListMeals(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.Meal, error)
}

type Store interface {
	ProgressStore
	StreakStore
	AchievementStore
	ProfileStore
	FoodStore
	MealStore
}

// dedupKey identifies an achievement for idempotent unlocks.
type dedupKey struct {
	userID    uuid.UUID
	typ       string
	milestone int
}

const noMilestone = -1

func keyOf(a *models.Achievement) dedupKey {
	m := noMilestone
	if a.MilestoneValue != nil {
		m = *a.MilestoneValue
	}
	return dedupKey{userID: a.UserID, typ: a.AchievementType, milestone: m}
}
