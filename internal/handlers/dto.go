package handlers

import (
	"time"

	"github.com/google/uuid"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
)

// Dates go over the wire as YYYY-MM-DD and timestamps as RFC 3339.

type ProgressDTO struct {
	ID               uuid.UUID `json:"id"`
	LocalDate        string    `json:"local_date"`
	CaloriesConsumed float64   `json:"calories_consumed"`
	ProteinConsumed  float64   `json:"protein_consumed"`
	CarbsConsumed    float64   `json:"carbs_consumed"`
	FatConsumed      float64   `json:"fat_consumed"`
	WaterConsumed    int       `json:"water_consumed"`
	CurrentWeightKg  *float64  `json:"current_weight_kg,omitempty"`
	StepsTaken       int       `json:"steps_taken"`
	ExerciseMinutes  int       `json:"exercise_minutes"`
	MoodRating       *int      `json:"mood_rating,omitempty"`
	EnergyLevel      *int      `json:"energy_level,omitempty"`
	SleepHours       *float64  `json:"sleep_hours,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	UpdatedAt        string    `json:"updated_at"`
}

func ToProgressDTO(p *models.DailyProgress) ProgressDTO {
	return ProgressDTO{
		ID:               p.ID,
		LocalDate:        dates.Format(p.LocalDate),
		CaloriesConsumed: p.CaloriesConsumed,
		ProteinConsumed:  p.ProteinConsumed,
		CarbsConsumed:    p.CarbsConsumed,
		FatConsumed:      p.FatConsumed,
		WaterConsumed:    p.WaterConsumed,
		CurrentWeightKg:  p.CurrentWeightKg,
		StepsTaken:       p.StepsTaken,
		ExerciseMinutes:  p.ExerciseMinutes,
		MoodRating:       p.MoodRating,
		EnergyLevel:      p.EnergyLevel,
		SleepHours:       p.SleepHours,
		Notes:            p.Notes,
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
}

func toProgressDTOs(rows []models.DailyProgress) []ProgressDTO {
	out := make([]ProgressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, ToProgressDTO(&rows[i]))
	}
	return out
}

type StreakDTO struct {
	StreakType       models.StreakType `json:"streak_type"`
	CurrentStreak    int               `json:"current_streak"`
	LongestStreak    int               `json:"longest_streak"`
	LastActivityDate *string           `json:"last_activity_date,omitempty"`
}

func ToStreakDTO(s *models.Streak) StreakDTO {
	return StreakDTO{
		StreakType:       s.StreakType,
		CurrentStreak:    s.CurrentStreak,
		LongestStreak:    s.LongestStreak,
		LastActivityDate: dates.FormatPtr(s.LastActivityDate),
	}
}

func toStreakDTOs(list []models.Streak) []StreakDTO {
	out := make([]StreakDTO, 0, len(list))
	for i := range list {
		out = append(out, ToStreakDTO(&list[i]))
	}
	return out
}

type MealDTO struct {
	ID            uuid.UUID         `json:"id"`
	MealType      models.MealType   `json:"meal_type"`
	MealDate      string            `json:"meal_date"`
	TotalCalories float64           `json:"total_calories"`
	TotalProtein  float64           `json:"total_protein"`
	TotalCarbs    float64           `json:"total_carbs"`
	TotalFat      float64           `json:"total_fat"`
	Items         []models.MealItem `json:"meal_items"`
}

func ToMealDTO(m *models.Meal) MealDTO {
	items := m.Items
	if items == nil {
		items = []models.MealItem{}
	}
	return MealDTO{
		ID:            m.ID,
		MealType:      m.MealType,
		MealDate:      dates.Format(m.MealDate),
		TotalCalories: m.TotalCalories,
		TotalProtein:  m.TotalProtein,
		TotalCarbs:    m.TotalCarbs,
		TotalFat:      m.TotalFat,
		Items:         items,
	}
}
