package services

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
	"nutritrack/internal/store"
)

const (
	maxNotesLength = 2000
	maxRangeDays   = 366
)

// ProgressService owns the per-day progress rows. Every operation takes the
// caller's calendar day explicitly; there is no way to amend another day.
type ProgressService struct {
	store  store.ProgressStore
	enc    *EncryptionService
	logger *zap.Logger
	today  *userCache[models.DailyProgress]
}

func NewProgressService(st store.ProgressStore, enc *EncryptionService, logger *zap.Logger) *ProgressService {
	return &ProgressService{store: st, enc: enc, logger: logger, today: newUserCache[models.DailyProgress]()}
}

// GetOrCreateToday returns the user's row for today, creating a zeroed row on
// first access. Existing accumulation is never reset.
func (s *ProgressService) GetOrCreateToday(ctx context.Context, userID uuid.UUID, today time.Time) (*models.DailyProgress, error) {
	if p, ok := s.today.get(userID); ok && dates.Same(p.LocalDate, today) {
		return &p, nil
	}
	p, err := s.store.GetOrCreateProgress(ctx, userID, today)
	if err != nil {
		s.today.invalidate(userID)
		return nil, persist("load today's progress", "progress", err)
	}
	if err := s.enc.DecryptProgress(p); err != nil {
		return nil, fmt.Errorf("decrypt notes: %w", err)
	}
	s.today.set(userID, *p)
	return p, nil
}

func (s *ProgressService) AddWater(ctx context.Context, userID uuid.UUID, today time.Time, glasses int) (*models.DailyProgress, error) {
	if glasses <= 0 {
		return nil, invalid("glasses", "must be positive, got %d", glasses)
	}
	return s.apply(ctx, userID, today, models.ProgressChange{WaterDelta: glasses}, "add water")
}

func (s *ProgressService) LogExercise(ctx context.Context, userID uuid.UUID, today time.Time, minutes int) (*models.DailyProgress, error) {
	if minutes <= 0 {
		return nil, invalid("minutes", "must be positive, got %d", minutes)
	}
	return s.apply(ctx, userID, today, models.ProgressChange{ExerciseDelta: minutes}, "log exercise")
}

func (s *ProgressService) LogSteps(ctx context.Context, userID uuid.UUID, today time.Time, steps int) (*models.DailyProgress, error) {
	if steps <= 0 {
		return nil, invalid("steps", "must be positive, got %d", steps)
	}
	return s.apply(ctx, userID, today, models.ProgressChange{StepsDelta: steps}, "log steps")
}

// UpdateWeight overwrites today's weight.
func (s *ProgressService) UpdateWeight(ctx context.Context, userID uuid.UUID, today time.Time, weightKg float64) (*models.DailyProgress, error) {
	if !finite(weightKg) || weightKg <= 0 {
		return nil, invalid("weight_kg", "must be positive, got %v", weightKg)
	}
	return s.apply(ctx, userID, today, models.ProgressChange{WeightKg: &weightKg}, "update weight")
}

// SetMoodAndEnergy updates whichever of the two ratings is given.
func (s *ProgressService) SetMoodAndEnergy(ctx context.Context, userID uuid.UUID, today time.Time, mood, energy *int) (*models.DailyProgress, error) {
	if mood == nil && energy == nil {
		return nil, invalid("", "mood_rating or energy_level is required")
	}
	if mood != nil && (*mood < 1 || *mood > 5) {
		return nil, invalid("mood_rating", "must be between 1 and 5, got %d", *mood)
	}
	if energy != nil && (*energy < 1 || *energy > 5) {
		return nil, invalid("energy_level", "must be between 1 and 5, got %d", *energy)
	}
	return s.apply(ctx, userID, today, models.ProgressChange{MoodRating: mood, EnergyLevel: energy}, "set mood and energy")
}

func (s *ProgressService) SetSleep(ctx context.Context, userID uuid.UUID, today time.Time, hours float64) (*models.DailyProgress, error) {
	if !finite(hours) || hours < 0 || hours > 24 {
		return nil, invalid("sleep_hours", "must be between 0 and 24, got %v", hours)
	}
	return s.apply(ctx, userID, today, models.ProgressChange{SleepHours: &hours}, "set sleep")
}

func (s *ProgressService) SetNotes(ctx context.Context, userID uuid.UUID, today time.Time, notes string) (*models.DailyProgress, error) {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return nil, invalid("notes", "must be at most %d characters", maxNotesLength)
	}
	sealed, err := s.enc.EncryptNotes(notes)
	if err != nil {
		return nil, fmt.Errorf("encrypt notes: %w", err)
	}
	return s.apply(ctx, userID, today, models.ProgressChange{Notes: &sealed}, "set notes")
}

// AppendNutrition adds a logged food's macros to today's totals.
func (s *ProgressService) AppendNutrition(ctx context.Context, userID uuid.UUID, today time.Time, delta models.Nutrition) (*models.DailyProgress, error) {
	if err := validateNutrition(delta); err != nil {
		return nil, err
	}
	return s.apply(ctx, userID, today, models.ProgressChange{Nutrition: delta}, "append nutrition")
}

// SubtractNutrition removes a deleted food's macros from today's totals.
// Totals never go below zero.
func (s *ProgressService) SubtractNutrition(ctx context.Context, userID uuid.UUID, today time.Time, delta models.Nutrition) (*models.DailyProgress, error) {
	if err := validateNutrition(delta); err != nil {
		return nil, err
	}
	neg := models.Nutrition{Calories: -delta.Calories, Protein: -delta.Protein, Carbs: -delta.Carbs, Fat: -delta.Fat}
	return s.apply(ctx, userID, today, models.ProgressChange{Nutrition: neg}, "subtract nutrition")
}

// ListRange returns the user's rows between from and to inclusive, oldest first.
func (s *ProgressService) ListRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyProgress, error) {
	from, to = dates.Day(from), dates.Day(to)
	if to.Before(from) {
		return nil, invalid("end_date", "must not be before start_date")
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, invalid("end_date", "range must be at most %d days", maxRangeDays)
	}
	rows, err := s.store.ListProgress(ctx, userID, from, to)
	if err != nil {
		return nil, persist("list progress", "progress", err)
	}
	for i := range rows {
		if err := s.enc.DecryptProgress(&rows[i]); err != nil {
			return nil, fmt.Errorf("decrypt notes: %w", err)
		}
	}
	return rows, nil
}

func (s *ProgressService) apply(ctx context.Context, userID uuid.UUID, today time.Time, change models.ProgressChange, op string) (*models.DailyProgress, error) {
	p, err := s.store.ApplyProgress(ctx, userID, today, change)
	if err != nil {
		s.today.invalidate(userID)
		s.logger.Warn("progress write failed", zap.String("op", op), zap.String("user_id", userID.String()), zap.Error(err))
		return nil, persist(op, "progress", err)
	}
	if err := s.enc.DecryptProgress(p); err != nil {
		s.today.invalidate(userID)
		return nil, fmt.Errorf("decrypt notes: %w", err)
	}
	s.today.set(userID, *p)
	return p, nil
}

func validateNutrition(n models.Nutrition) error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"calories", n.Calories}, {"protein", n.Protein}, {"carbs", n.Carbs}, {"fat", n.Fat}} {
		if !finite(f.v) || f.v < 0 {
			return invalid(f.name, "must be a non-negative number, got %v", f.v)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Percentages are consumed/target ratios scaled to 0..100.
type Percentages struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Water    float64 `json:"water"`
	Exercise float64 `json:"exercise"`
}

// GetProgressPercentages clamps every ratio to [0, 100]. A zero or negative
// target yields 0.
func GetProgressPercentages(t models.Targets, p *models.DailyProgress) Percentages {
	if p == nil {
		return Percentages{}
	}
	return Percentages{
		Calories: pct(p.CaloriesConsumed, t.Calories),
		Protein:  pct(p.ProteinConsumed, t.Protein),
		Carbs:    pct(p.CarbsConsumed, t.Carbs),
		Fat:      pct(p.FatConsumed, t.Fat),
		Water:    pct(float64(p.WaterConsumed), float64(t.Water)),
		Exercise: pct(float64(p.ExerciseMinutes), float64(t.Exercise)),
	}
}

func pct(consumed, target float64) float64 {
	if target <= 0 || !finite(target) || !finite(consumed) {
		return 0
	}
	v := consumed / target * 100
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
