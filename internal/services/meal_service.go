package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
	"nutritrack/internal/store"
)

const (
	foodSearchLimit = 20
	maxGrams        = 5000
)

// MealStore is what the meal log needs from the store.
type MealStore interface {
	store.FoodStore
	store.MealStore
}

type MealService struct {
	store    MealStore
	progress *ProgressService
	logger   *zap.Logger
}

func NewMealService(st MealStore, progress *ProgressService, logger *zap.Logger) *MealService {
	return &MealService{store: st, progress: progress, logger: logger}
}

// SearchFoods matches verified foods by name or brand. A blank query returns
// no results.
func (s *MealService) SearchFoods(ctx context.Context, query string) ([]models.Food, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Food{}, nil
	}
	foods, err := s.store.SearchFoods(ctx, query, foodSearchLimit)
	if err != nil {
		return nil, persist("search foods", "foods", err)
	}
	return foods, nil
}

// ImportFoods writes a batch of catalog entries. Either all are stored or none.
func (s *MealService) ImportFoods(ctx context.Context, foods []models.Food) error {
	if len(foods) == 0 {
		return invalid("foods", "at least one food is required")
	}
	for i, f := range foods {
		if strings.TrimSpace(f.Name) == "" {
			return invalid("foods", "entry %d: name is required", i)
		}
		for _, v := range []float64{f.CaloriesPer100g, f.ProteinPer100g, f.CarbsPer100g, f.FatPer100g} {
			if !finite(v) || v < 0 {
				return invalid("foods", "entry %d (%s): nutrient values must be non-negative", i, f.Name)
			}
		}
	}
	if err := s.store.UpsertFoods(ctx, foods); err != nil {
		return persist("import foods", "foods", err)
	}
	s.logger.Info("foods imported", zap.Int("count", len(foods)))
	return nil
}

// ItemNutrition scales a food's per-100g values to the logged quantity.
func ItemNutrition(f *models.Food, grams float64) models.Nutrition {
	k := grams / 100
	return models.Nutrition{
		Calories: f.CaloriesPer100g * k,
		Protein:  f.ProteinPer100g * k,
		Carbs:    f.CarbsPer100g * k,
		Fat:      f.FatPer100g * k,
	}
}

// AddMealItem logs grams of a food into today's meal of the given type and
// adds the item's macros to today's progress.
func (s *MealService) AddMealItem(ctx context.Context, userID uuid.UUID, today time.Time, mealType models.MealType, foodID uuid.UUID, grams float64) (*models.Meal, *models.DailyProgress, error) {
	if !mealType.Valid() {
		return nil, nil, invalid("meal_type", "unknown meal type %q", mealType)
	}
	if !finite(grams) || grams <= 0 || grams > maxGrams {
		return nil, nil, invalid("quantity_grams", "must be between 0 and %d, got %v", maxGrams, grams)
	}

	food, err := s.store.GetFood(ctx, foodID)
	if err != nil {
		return nil, nil, persist("load food", "food", err)
	}
	n := ItemNutrition(food, grams)
	meal, err := s.store.AddMealItem(ctx, userID, dates.Day(today), mealType, &models.MealItem{
		FoodID:        food.ID,
		QuantityGrams: grams,
		Calories:      n.Calories,
		Protein:       n.Protein,
		Carbs:         n.Carbs,
		Fat:           n.Fat,
	})
	if err != nil {
		return nil, nil, persist("add meal item", "meal", err)
	}

	p, err := s.progress.AppendNutrition(ctx, userID, today, n)
	if err != nil {
		s.logger.Error("meal item stored but daily totals not updated",
			zap.String("user_id", userID.String()), zap.String("meal_id", meal.ID.String()), zap.Error(err))
		return meal, nil, err
	}
	return meal, p, nil
}

// RemoveMealItem deletes one of the user's items from today's meals and
// subtracts it from today's progress. Items from earlier days are immutable.
func (s *MealService) RemoveMealItem(ctx context.Context, userID uuid.UUID, today time.Time, itemID uuid.UUID) (*models.MealItem, *models.DailyProgress, error) {
	_, meal, err := s.store.GetMealItem(ctx, userID, itemID)
	if err != nil {
		return nil, nil, persist("load meal item", "meal item", err)
	}
	if !dates.Same(meal.MealDate, today) {
		return nil, nil, invalid("meal_item_id", "only items logged today can be removed")
	}

	removed, err := s.store.RemoveMealItem(ctx, userID, itemID)
	if err != nil {
		return nil, nil, persist("remove meal item", "meal item", err)
	}
	p, err := s.progress.SubtractNutrition(ctx, userID, today, models.Nutrition{
		Calories: removed.Calories,
		Protein:  removed.Protein,
		Carbs:    removed.Carbs,
		Fat:      removed.Fat,
	})
	if err != nil {
		s.logger.Error("meal item removed but daily totals not updated",
			zap.String("user_id", userID.String()), zap.String("item_id", itemID.String()), zap.Error(err))
		return removed, nil, err
	}
	return removed, p, nil
}

func (s *MealService) ListMeals(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.Meal, error) {
	meals, err := s.store.ListMeals(ctx, userID, dates.Day(day))
	if err != nil {
		return nil, persist("list meals", "meals", err)
	}
	return meals, nil
}
