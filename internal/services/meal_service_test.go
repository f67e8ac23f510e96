package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutritrack/internal/models"
)

func seedFoods(t *testing.T, f *fixture) (chicken, rice models.Food) {
	t.Helper()
	brand := "Farm Fresh"
	foods := []models.Food{
		{ID: uuid.New(), Name: "Chicken Breast", Brand: &brand, CaloriesPer100g: 165, ProteinPer100g: 31, FatPer100g: 3.6, Verified: true},
		{ID: uuid.New(), Name: "White Rice", CaloriesPer100g: 130, ProteinPer100g: 2.7, CarbsPer100g: 28, FatPer100g: 0.3, Verified: true},
		{ID: uuid.New(), Name: "Mystery Chicken Nuggets", CaloriesPer100g: 300, Verified: false},
	}
	require.NoError(t, f.meals.ImportFoods(context.Background(), foods))
	return foods[0], foods[1]
}

func TestSearchFoods(t *testing.T) {
	f := newFixture(t)
	seedFoods(t, f)
	ctx := context.Background()

	got, err := f.meals.SearchFoods(ctx, "chicken")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chicken Breast", got[0].Name)

	got, err = f.meals.SearchFoods(ctx, "farm")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.meals.SearchFoods(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImportFoodsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, IsValidation(f.meals.ImportFoods(ctx, nil)))
	assert.True(t, IsValidation(f.meals.ImportFoods(ctx, []models.Food{{Name: ""}})))
	assert.True(t, IsValidation(f.meals.ImportFoods(ctx, []models.Food{{Name: "Bad", FatPer100g: -1}})))
}

func TestAddMealItemUpdatesMealAndProgress(t *testing.T) {
	f := newFixture(t)
	chicken, rice := seedFoods(t, f)
	ctx := context.Background()
	today := day(t, "2024-05-01")

	meal, p, err := f.meals.AddMealItem(ctx, f.user, today, models.MealLunch, chicken.ID, 150)
	require.NoError(t, err)
	require.Len(t, meal.Items, 1)
	assert.InDelta(t, 247.5, meal.TotalCalories, 1e-9)
	assert.InDelta(t, 46.5, meal.Items[0].Protein, 1e-9)
	assert.InDelta(t, 247.5, p.CaloriesConsumed, 1e-9)

	meal, p, err = f.meals.AddMealItem(ctx, f.user, today, models.MealLunch, rice.ID, 200)
	require.NoError(t, err)
	assert.Len(t, meal.Items, 2)
	assert.InDelta(t, 507.5, meal.TotalCalories, 1e-9)
	assert.InDelta(t, 56, p.CarbsConsumed, 1e-9)

	meals, err := f.meals.ListMeals(ctx, f.user, today)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, models.MealLunch, meals[0].MealType)
}

func TestAddMealItemValidation(t *testing.T) {
	f := newFixture(t)
	chicken, _ := seedFoods(t, f)
	ctx := context.Background()
	today := day(t, "2024-05-01")

	_, _, err := f.meals.AddMealItem(ctx, f.user, today, models.MealLunch, chicken.ID, 0)
	assert.True(t, IsValidation(err))
	_, _, err = f.meals.AddMealItem(ctx, f.user, today, models.MealType("brunch"), chicken.ID, 100)
	assert.True(t, IsValidation(err))
	_, _, err = f.meals.AddMealItem(ctx, f.user, today, models.MealLunch, uuid.New(), 100)
	assert.True(t, IsNotFound(err))

	meals, err := f.meals.ListMeals(ctx, f.user, today)
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func TestRemoveMealItemSubtracts(t *testing.T) {
	f := newFixture(t)
	chicken, rice := seedFoods(t, f)
	ctx := context.Background()
	today := day(t, "2024-05-01")

	_, _, err := f.meals.AddMealItem(ctx, f.user, today, models.MealDinner, chicken.ID, 100)
	require.NoError(t, err)
	meal, _, err := f.meals.AddMealItem(ctx, f.user, today, models.MealDinner, rice.ID, 100)
	require.NoError(t, err)
	var riceItem models.MealItem
	for _, it := range meal.Items {
		if it.FoodID == rice.ID {
			riceItem = it
		}
	}
	require.NotEqual(t, uuid.Nil, riceItem.ID)

	removed, p, err := f.meals.RemoveMealItem(ctx, f.user, today, riceItem.ID)
	require.NoError(t, err)
	assert.Equal(t, riceItem.ID, removed.ID)
	assert.InDelta(t, 165, p.CaloriesConsumed, 1e-9)
	assert.Zero(t, p.CarbsConsumed)

	meals, err := f.meals.ListMeals(ctx, f.user, today)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Len(t, meals[0].Items, 1)
	assert.InDelta(t, 165, meals[0].TotalCalories, 1e-9)

	_, _, err = f.meals.RemoveMealItem(ctx, f.user, today, riceItem.ID)
	assert.True(t, IsNotFound(err))
}

func TestRemoveMealItemOwnershipAndDay(t *testing.T) {
	f := newFixture(t)
	chicken, _ := seedFoods(t, f)
	ctx := context.Background()
	yesterday := day(t, "2024-05-01")
	today := day(t, "2024-05-02")

	meal, _, err := f.meals.AddMealItem(ctx, f.user, yesterday, models.MealBreakfast, chicken.ID, 100)
	require.NoError(t, err)
	itemID := meal.Items[0].ID

	_, _, err = f.meals.RemoveMealItem(ctx, uuid.New(), yesterday, itemID)
	assert.True(t, IsNotFound(err))

	_, _, err = f.meals.RemoveMealItem(ctx, f.user, today, itemID)
	assert.True(t, IsValidation(err))

	meals, err := f.meals.ListMeals(ctx, f.user, yesterday)
	require.NoError(t, err)
	assert.Len(t, meals[0].Items, 1)
}

func TestItemNutrition(t *testing.T) {
	n := ItemNutrition(&models.Food{CaloriesPer100g: 200, ProteinPer100g: 10, CarbsPer100g: 20, FatPer100g: 5}, 50)
	assert.Equal(t, models.Nutrition{Calories: 100, Protein: 5, Carbs: 10, Fat: 2.5}, n)
}
