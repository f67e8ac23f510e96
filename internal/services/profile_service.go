package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/models"
	"nutritrack/internal/store"
)

var activityLevels = map[string]bool{
	"sedentary":         true,
	"lightly_active":    true,
	"moderately_active": true,
	"very_active":       true,
	"extremely_active":  true,
}

const defaultActivityLevel = "moderately_active"

func DefaultTargets() models.Targets {
	return models.Targets{Calories: 2000, Protein: 150, Carbs: 250, Fat: 67, Water: 8, Exercise: 30}
}

// ProfileUpdate carries the fields a user may change. Nil fields are kept.
type ProfileUpdate struct {
	FirstName     *string
	LastName      *string
	HeightCm      *float64
	WeightKg      *float64
	ActivityLevel *string

	DailyCalorieTarget  *float64
	DailyProteinTarget  *float64
	DailyCarbTarget     *float64
	DailyFatTarget      *float64
	DailyWaterTarget    *int
	DailyExerciseTarget *int
}

type ProfileService struct {
	store    store.ProfileStore
	defaults models.Targets
	logger   *zap.Logger
	cache    *userCache[models.Profile]
}

func NewProfileService(st store.ProfileStore, defaults models.Targets, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: st, defaults: defaults, logger: logger, cache: newUserCache[models.Profile]()}
}

// Get returns the user's profile, creating it with the default targets on first access.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if p, ok := s.cache.get(userID); ok {
		return &p, nil
	}
	d := s.defaults
	p, err := s.store.GetOrCreateProfile(ctx, &models.Profile{
		UserID:              userID,
		ActivityLevel:       defaultActivityLevel,
		DailyCalorieTarget:  d.Calories,
		DailyProteinTarget:  d.Protein,
		DailyCarbTarget:     d.Carbs,
		DailyFatTarget:      d.Fat,
		DailyWaterTarget:    d.Water,
		DailyExerciseTarget: d.Exercise,
	})
	if err != nil {
		return nil, persist("load profile", "profile", err)
	}
	s.cache.set(userID, *p)
	return p, nil
}

func (s *ProfileService) Targets(ctx context.Context, userID uuid.UUID) (models.Targets, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return models.Targets{}, err
	}
	return p.Targets(), nil
}

// Update applies a partial update. Every target given must be positive.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, u ProfileUpdate) (*models.Profile, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.FirstName != nil {
		p.FirstName = emptyToNil(*u.FirstName)
	}
	if u.LastName != nil {
		p.LastName = emptyToNil(*u.LastName)
	}
	if u.HeightCm != nil {
		p.HeightCm = u.HeightCm
	}
	if u.WeightKg != nil {
		p.WeightKg = u.WeightKg
	}
	if u.ActivityLevel != nil {
		p.ActivityLevel = *u.ActivityLevel
	}
	if u.DailyCalorieTarget != nil {
		p.DailyCalorieTarget = *u.DailyCalorieTarget
	}
	if u.DailyProteinTarget != nil {
		p.DailyProteinTarget = *u.DailyProteinTarget
	}
	if u.DailyCarbTarget != nil {
		p.DailyCarbTarget = *u.DailyCarbTarget
	}
	if u.DailyFatTarget != nil {
		p.DailyFatTarget = *u.DailyFatTarget
	}
	if u.DailyWaterTarget != nil {
		p.DailyWaterTarget = *u.DailyWaterTarget
	}
	if u.DailyExerciseTarget != nil {
		p.DailyExerciseTarget = *u.DailyExerciseTarget
	}

	if err := s.store.SaveProfile(ctx, p); err != nil {
		s.cache.invalidate(userID)
		return nil, persist("save profile", "profile", err)
	}
	s.cache.set(userID, *p)
	return p, nil
}

// TargetsUpdate changes only the daily goals.
type TargetsUpdate struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
	Water    *int     `json:"water"`
	Exercise *int     `json:"exercise"`
}

func (s *ProfileService) UpdateTargets(ctx context.Context, userID uuid.UUID, t TargetsUpdate) (*models.Profile, error) {
	if t == (TargetsUpdate{}) {
		return nil, invalid("", "no targets to update")
	}
	return s.Update(ctx, userID, ProfileUpdate{
		DailyCalorieTarget:  t.Calories,
		DailyProteinTarget:  t.Protein,
		DailyCarbTarget:     t.Carbs,
		DailyFatTarget:      t.Fat,
		DailyWaterTarget:    t.Water,
		DailyExerciseTarget: t.Exercise,
	})
}

func (u ProfileUpdate) validate() error {
	floats := []struct {
		name string
		v    *float64
	}{
		{"height_cm", u.HeightCm},
		{"weight_kg", u.WeightKg},
		{"daily_calorie_target", u.DailyCalorieTarget},
		{"daily_protein_target", u.DailyProteinTarget},
		{"daily_carb_target", u.DailyCarbTarget},
		{"daily_fat_target", u.DailyFatTarget},
	}
	for _, f := range floats {
		if f.v != nil && (!finite(*f.v) || *f.v <= 0) {
			return invalid(f.name, "must be positive, got %v", *f.v)
		}
	}
	if u.DailyWaterTarget != nil && *u.DailyWaterTarget <= 0 {
		return invalid("daily_water_target", "must be positive, got %d", *u.DailyWaterTarget)
	}
	if u.DailyExerciseTarget != nil && *u.DailyExerciseTarget <= 0 {
		return invalid("daily_exercise_target", "must be positive, got %d", *u.DailyExerciseTarget)
	}
	if u.ActivityLevel != nil && !activityLevels[*u.ActivityLevel] {
		return invalid("activity_level", "unknown activity level %q", *u.ActivityLevel)
	}
	return nil
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
