package models

import (
	"time"

	"github.com/google/uuid"
)

type DailyProgress struct {
	ID               uuid.UUID `db:"id" json:"id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	LocalDate        time.Time `db:"local_date" json:"local_date"`
	CaloriesConsumed float64   `db:"calories_consumed" json:"calories_consumed"`
	ProteinConsumed  float64   `db:"protein_consumed" json:"protein_consumed"`
	CarbsConsumed    float64   `db:"carbs_consumed" json:"carbs_consumed"`
	FatConsumed      float64   `db:"fat_consumed" json:"fat_consumed"`
	WaterConsumed    int       `db:"water_consumed" json:"water_consumed"`
	CurrentWeightKg  *float64  `db:"current_weight_kg" json:"current_weight_kg,omitempty"`
	StepsTaken       int       `db:"steps_taken" json:"steps_taken"`
	ExerciseMinutes  int       `db:"exercise_minutes" json:"exercise_minutes"`
	MoodRating       *int      `db:"mood_rating" json:"mood_rating,omitempty"`
	EnergyLevel      *int      `db:"energy_level" json:"energy_level,omitempty"`
	SleepHours       *float64  `db:"sleep_hours" json:"sleep_hours,omitempty"`
	Notes            *string   `db:"notes" json:"notes,omitempty"` // Encrypted in DB
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

type StreakType string

const (
	StreakWaterGoal    StreakType = "water_goal"
	StreakCalorieGoal  StreakType = "calorie_goal"
	StreakProteinGoal  StreakType = "protein_goal"
	StreakDailyLogging StreakType = "daily_logging"
	StreakExerciseGoal StreakType = "exercise_goal"
)

var StreakTypes = []StreakType{
	StreakWaterGoal,
	StreakCalorieGoal,
	StreakProteinGoal,
	StreakDailyLogging,
	StreakExerciseGoal,
}

func (t StreakType) Valid() bool {
	for _, s := range StreakTypes {
		if s == t {
			return true
		}
	}
	return false
}

type Streak struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	StreakType       StreakType `db:"streak_type" json:"streak_type"`
	CurrentStreak    int        `db:"current_streak" json:"current_streak"`
	LongestStreak    int        `db:"longest_streak" json:"longest_streak"`
	LastActivityDate *time.Time `db:"last_activity_date" json:"last_activity_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	AchievementStreak    = "streak"
	AchievementDailyGoal = "daily_goal"
)

type Achievement struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	AchievementType string    `db:"achievement_type" json:"achievement_type"`
	Tag             string    `db:"tag" json:"tag"` // streak type or goal type the award refers to
	AchievementName string    `db:"achievement_name" json:"achievement_name"`
	Description     string    `db:"description" json:"description"`
	Points          int       `db:"points" json:"points"`
	MilestoneValue  *int      `db:"milestone_value" json:"milestone_value,omitempty"`
	UnlockedAt      time.Time `db:"unlocked_at" json:"unlocked_at"`
}

type Profile struct {
	UserID              uuid.UUID `db:"user_id" json:"user_id"`
	FirstName           *string   `db:"first_name" json:"first_name,omitempty"`
	LastName            *string   `db:"last_name" json:"last_name,omitempty"`
	HeightCm            *float64  `db:"height_cm" json:"height_cm,omitempty"`
	WeightKg            *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	ActivityLevel       string    `db:"activity_level" json:"activity_level"`
	DailyCalorieTarget  float64   `db:"daily_calorie_target" json:"daily_calorie_target"`
	DailyProteinTarget  float64   `db:"daily_protein_target" json:"daily_protein_target"`
	DailyCarbTarget     float64   `db:"daily_carb_target" json:"daily_carb_target"`
	DailyFatTarget      float64   `db:"daily_fat_target" json:"daily_fat_target"`
	DailyWaterTarget    int       `db:"daily_water_target" json:"daily_water_target"`
	DailyExerciseTarget int       `db:"daily_exercise_target" json:"daily_exercise_target"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

type Food struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Brand           *string   `db:"brand" json:"brand,omitempty"`
	CaloriesPer100g float64   `db:"calories_per_100g" json:"calories_per_100g"`
	ProteinPer100g  float64   `db:"protein_per_100g" json:"protein_per_100g"`
	CarbsPer100g    float64   `db:"carbs_per_100g" json:"carbs_per_100g"`
	FatPer100g      float64   `db:"fat_per_100g" json:"fat_per_100g"`
	Verified        bool      `db:"verified" json:"verified"`
}

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

type Meal struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	MealType      MealType   `db:"meal_type" json:"meal_type"`
	MealDate      time.Time  `db:"meal_date" json:"meal_date"`
	TotalCalories float64    `db:"total_calories" json:"total_calories"`
	TotalProtein  float64    `db:"total_protein" json:"total_protein"`
	TotalCarbs    float64    `db:"total_carbs" json:"total_carbs"`
	TotalFat      float64    `db:"total_fat" json:"total_fat"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	Items         []MealItem `db:"-" json:"meal_items"`
}

type MealItem struct {
	ID            uuid.UUID `db:"id" json:"id"`
	MealID        uuid.UUID `db:"meal_id" json:"meal_id"`
	FoodID        uuid.UUID `db:"food_id" json:"food_id"`
	QuantityGrams float64   `db:"quantity_grams" json:"quantity_grams"`
	Calories      float64   `db:"calories" json:"calories"`
	Protein       float64   `db:"protein" json:"protein"`
	Carbs         float64   `db:"carbs" json:"carbs"`
	Fat           float64   `db:"fat" json:"fat"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Nutrition is a macro delta applied to a day's accumulators.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (n Nutrition) Negative() bool {
	return n.Calories < 0 || n.Protein < 0 || n.Carbs < 0 || n.Fat < 0
}

// Targets are a user's daily goals.
type Targets struct {
	Calories float64 `json:"calories" yaml:"calories"`
	Protein  float64 `json:"protein" yaml:"protein"`
	Carbs    float64 `json:"carbs" yaml:"carbs"`
	Fat      float64 `json:"fat" yaml:"fat"`
	Water    int     `json:"water" yaml:"water"`
	Exercise int     `json:"exercise" yaml:"exercise"`
}

func (p *Profile) Targets() Targets {
	return Targets{
		Calories: p.DailyCalorieTarget,
		Protein:  p.DailyProteinTarget,
		Carbs:    p.DailyCarbTarget,
		Fat:      p.DailyFatTarget,
		Water:    p.DailyWaterTarget,
		Exercise: p.DailyExerciseTarget,
	}
}

// ProgressChange describes one mutation of a day's progress row. Deltas are
// added to the accumulators (floored at zero); non-nil pointers overwrite.
type ProgressChange struct {
	Nutrition     Nutrition
	WaterDelta    int
	StepsDelta    int
	ExerciseDelta int
	WeightKg      *float64
	MoodRating    *int
	EnergyLevel   *int
	SleepHours    *float64
	Notes         *string
}
