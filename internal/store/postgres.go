package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
)

type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

const progressColumns = `id, user_id, local_date, calories_consumed, protein_consumed, carbs_consumed, fat_consumed,
	water_consumed, current_weight_kg, steps_taken, exercise_minutes, mood_rating, energy_level, sleep_hours, notes,
	created_at, updated_at`

func (s *Postgres) GetOrCreateProgress(ctx context.Context, userID uuid.UUID, day time.Time) (*models.DailyProgress, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	var p models.DailyProgress
	err := s.db.QueryRowxContext(ctx, `INSERT INTO daily_progress (id, user_id, local_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, local_date) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING `+progressColumns, uuid.New(), userID, dates.Day(day)).StructScan(&p)
	if err != nil {
		return nil, fmt.Errorf("get or create progress: %w", err)
	}
	return &p, nil
}

func (s *Postgres) ApplyProgress(ctx context.Context, userID uuid.UUID, day time.Time, c models.ProgressChange) (*models.DailyProgress, error) {
	var p models.DailyProgress
	err := s.db.QueryRowxContext(ctx, `INSERT INTO daily_progress (id, user_id, local_date,
			calories_consumed, protein_consumed, carbs_consumed, fat_consumed,
			water_consumed, steps_taken, exercise_minutes,
			current_weight_kg, mood_rating, energy_level, sleep_hours, notes)
		VALUES ($1, $2, $3,
			GREATEST($4::double precision, 0), GREATEST($5::double precision, 0), GREATEST($6::double precision, 0), GREATEST($7::double precision, 0),
			GREATEST($8::integer, 0), GREATEST($9::integer, 0), GREATEST($10::integer, 0),
			$11::double precision, $12::integer, $13::integer, $14::double precision, $15::text)
		ON CONFLICT (user_id, local_date) DO UPDATE SET
			calories_consumed = GREATEST(daily_progress.calories_consumed + $4::double precision, 0),
			protein_consumed = GREATEST(daily_progress.protein_consumed + $5::double precision, 0),
			carbs_consumed = GREATEST(daily_progress.carbs_consumed + $6::double precision, 0),
			fat_consumed = GREATEST(daily_progress.fat_consumed + $7::double precision, 0),
			water_consumed = GREATEST(daily_progress.water_consumed + $8::integer, 0),
			steps_taken = GREATEST(daily_progress.steps_taken + $9::integer, 0),
			exercise_minutes = GREATEST(daily_progress.exercise_minutes + $10::integer, 0),
			current_weight_kg = COALESCE($11::double precision, daily_progress.current_weight_kg),
			mood_rating = COALESCE($12::integer, daily_progress.mood_rating),
			energy_level = COALESCE($13::integer, daily_progress.energy_level),
			sleep_hours = COALESCE($14::double precision, daily_progress.sleep_hours),
			notes = COALESCE($15::text, daily_progress.notes),
			updated_at = NOW()
		RETURNING `+progressColumns,
		uuid.New(), userID, dates.Day(day),
		c.Nutrition.Calories, c.Nutrition.Protein, c.Nutrition.Carbs, c.Nutrition.Fat,
		c.WaterDelta, c.StepsDelta, c.ExerciseDelta,
		c.WeightKg, c.MoodRating, c.EnergyLevel, c.SleepHours, c.Notes,
	).StructScan(&p)
	if err != nil {
		return nil, fmt.Errorf("apply progress: %w", err)
	}
	return &p, nil
}

func (s *Postgres) ListProgress(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyProgress, error) {
	out := []models.DailyProgress{}
	err := s.db.SelectContext(ctx, &out, `SELECT `+progressColumns+` FROM daily_progress
		WHERE user_id = $1 AND local_date >= $2 AND local_date <= $3
		ORDER BY local_date ASC`, userID, dates.Day(from), dates.Day(to))
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return out, nil
}

const streakColumns = `id, user_id, streak_type, current_streak, longest_streak, last_activity_date, created_at, updated_at`

func (s *Postgres) GetStreak(ctx context.Context, userID uuid.UUID, t models.StreakType) (*models.Streak, error) {
	var st models.Streak
	err := s.db.GetContext(ctx, &st, `SELECT `+streakColumns+` FROM streaks WHERE user_id = $1 AND streak_type = $2`, userID, t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return &st, nil
}

func (s *Postgres) InsertStreak(ctx context.Context, st *models.Streak) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	err := s.db.QueryRowxContext(ctx, `INSERT INTO streaks (id, user_id, streak_type, current_streak, longest_streak, last_activity_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		st.ID, st.UserID, st.StreakType, st.CurrentStreak, st.LongestStreak, st.LastActivityDate,
	).Scan(&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert streak: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateStreak(ctx context.Context, st *models.Streak) error {
	err := s.db.QueryRowxContext(ctx, `UPDATE streaks
		SET current_streak = $1, longest_streak = $2, last_activity_date = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING updated_at`,
		st.CurrentStreak, st.LongestStreak, st.LastActivityDate, st.ID, st.UserID,
	).Scan(&st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

func (s *Postgres) ListStreaks(ctx context.Context, userID uuid.UUID) ([]models.Streak, error) {
	out := []models.Streak{}
	if err := s.db.SelectContext(ctx, &out, `SELECT `+streakColumns+` FROM streaks WHERE user_id = $1 ORDER BY streak_type`, userID); err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	return out, nil
}

const achievementColumns = `id, user_id, achievement_type, tag, achievement_name, description, points, milestone_value, unlocked_at`

func (s *Postgres) InsertAchievement(ctx context.Context, a *models.Achievement) (bool, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := s.db.QueryRowxContext(ctx, `INSERT INTO achievements (id, user_id, achievement_type, tag, achievement_name, description, points, milestone_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, achievement_type, (COALESCE(milestone_value, -1))) DO NOTHING
		RETURNING unlocked_at`,
		a.ID, a.UserID, a.AchievementType, a.Tag, a.AchievementName, a.Description, a.Points, a.MilestoneValue,
	).Scan(&a.UnlockedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert achievement: %w", err)
	}
	return true, nil
}

func (s *Postgres) ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	out := []models.Achievement{}
	if err := s.db.SelectContext(ctx, &out, `SELECT `+achievementColumns+` FROM achievements WHERE user_id = $1 ORDER BY unlocked_at DESC`, userID); err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return out, nil
}

func (s *Postgres) SumPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(points), 0) FROM achievements WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return total, nil
}

const profileColumns = `user_id, first_name, last_name, height_cm, weight_kg, activity_level,
	daily_calorie_target, daily_protein_target, daily_carb_target, daily_fat_target, daily_water_target, daily_exercise_target,
	created_at, updated_at`

func (s *Postgres) GetOrCreateProfile(ctx context.Context, d *models.Profile) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowxContext(ctx, `INSERT INTO profiles (user_id, activity_level,
			daily_calorie_target, daily_protein_target, daily_carb_target, daily_fat_target, daily_water_target, daily_exercise_target)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING `+profileColumns,
		d.UserID, d.ActivityLevel,
		d.DailyCalorieTarget, d.DailyProteinTarget, d.DailyCarbTarget, d.DailyFatTarget, d.DailyWaterTarget, d.DailyExerciseTarget,
	).StructScan(&p)
	if err != nil {
		return nil, fmt.Errorf("get or create profile: %w", err)
	}
	return &p, nil
}

func (s *Postgres) SaveProfile(ctx context.Context, p *models.Profile) error {
	res, err := s.db.NamedExecContext(ctx, `UPDATE profiles SET
			first_name = :first_name, last_name = :last_name, height_cm = :height_cm, weight_kg = :weight_kg,
			activity_level = :activity_level,
			daily_calorie_target = :daily_calorie_target, daily_protein_target = :daily_protein_target,
			daily_carb_target = :daily_carb_target, daily_fat_target = :daily_fat_target,
			daily_water_target = :daily_water_target, daily_exercise_target = :daily_exercise_target,
			updated_at = NOW()
		WHERE user_id = :user_id`, p)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const foodColumns = `id, name, brand, calories_per_100g, protein_per_100g, carbs_per_100g, fat_per_100g, verified`

func (s *Postgres) GetFood(ctx context.Context, id uuid.UUID) (*models.Food, error) {
	var f models.Food
	err := s.db.GetContext(ctx, &f, `SELECT `+foodColumns+` FROM foods WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get food: %w", err)
	}
	return &f, nil
}

func (s *Postgres) SearchFoods(ctx context.Context, query string, limit int) ([]models.Food, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.TrimSpace(query) + "%"
	out := []models.Food{}
	err := s.db.SelectContext(ctx, &out, `SELECT `+foodColumns+` FROM foods
		WHERE verified AND (name ILIKE $1 OR brand ILIKE $1)
		ORDER BY name
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search foods: %w", err)
	}
	return out, nil
}

func (s *Postgres) UpsertFoods(ctx context.Context, foods []models.Food) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin food import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO foods (`+foodColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			calories_per_100g = EXCLUDED.calories_per_100g,
			protein_per_100g = EXCLUDED.protein_per_100g,
			carbs_per_100g = EXCLUDED.carbs_per_100g,
			fat_per_100g = EXCLUDED.fat_per_100g,
			verified = EXCLUDED.verified`)
	if err != nil {
		return fmt.Errorf("prepare food import: %w", err)
	}
	defer stmt.Close()

	for i := range foods {
		f := &foods[i]
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		if _, err := stmt.ExecContext(ctx, f.ID, f.Name, f.Brand, f.CaloriesPer100g, f.ProteinPer100g, f.CarbsPer100g, f.FatPer100g, f.Verified); err != nil {
			return fmt.Errorf("import food %q: %w", f.Name, err)
		}
	}
	return tx.Commit()
}

const mealColumns = `id, user_id, meal_type, meal_date, total_calories, total_protein, total_carbs, total_fat, created_at`
const mealItemColumns = `id, meal_id, food_id, quantity_grams, calories, protein, carbs, fat, created_at`

func (s *Postgres) AddMealItem(ctx context.Context, userID uuid.UUID, day time.Time, mealType models.MealType, item *models.MealItem) (*models.Meal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add meal item: %w", err)
	}
	defer tx.Rollback()

	var meal models.Meal
	err = tx.QueryRowxContext(ctx, `INSERT INTO meals (id, user_id, meal_type, meal_date, total_calories, total_protein, total_carbs, total_fat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, meal_date, meal_type) DO UPDATE SET
			total_calories = meals.total_calories + EXCLUDED.total_calories,
			total_protein = meals.total_protein + EXCLUDED.total_protein,
			total_carbs = meals.total_carbs + EXCLUDED.total_carbs,
			total_fat = meals.total_fat + EXCLUDED.total_fat
		RETURNING `+mealColumns,
		uuid.New(), userID, mealType, dates.Day(day), item.Calories, item.Protein, item.Carbs, item.Fat,
	).StructScan(&meal)
	if err != nil {
		return nil, fmt.Errorf("upsert meal: %w", err)
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.MealID = meal.ID
	err = tx.QueryRowxContext(ctx, `INSERT INTO meal_items (id, meal_id, food_id, quantity_grams, calories, protein, carbs, fat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		item.ID, item.MealID, item.FoodID, item.QuantityGrams, item.Calories, item.Protein, item.Carbs, item.Fat,
	).Scan(&item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert meal item: %w", err)
	}

	meal.Items = []models.MealItem{}
	if err := tx.SelectContext(ctx, &meal.Items, `SELECT `+mealItemColumns+` FROM meal_items WHERE meal_id = $1 ORDER BY created_at`, meal.ID); err != nil {
		return nil, fmt.Errorf("load meal items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add meal item: %w", err)
	}
	return &meal, nil
}

func (s *Postgres) GetMealItem(ctx context.Context, userID, itemID uuid.UUID) (*models.MealItem, *models.Meal, error) {
	var it models.MealItem
	err := s.db.GetContext(ctx, &it, `SELECT `+mealItemColumns+` FROM meal_items WHERE id = $1`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get meal item: %w", err)
	}
	var meal models.Meal
	err = s.db.GetContext(ctx, &meal, `SELECT `+mealColumns+` FROM meals WHERE id = $1 AND user_id = $2`, it.MealID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get meal: %w", err)
	}
	return &it, &meal, nil
}

func (s *Postgres) RemoveMealItem(ctx context.Context, userID, itemID uuid.UUID) (*models.MealItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin remove meal item: %w", err)
	}
	defer tx.Rollback()

	var it models.MealItem
	err = tx.QueryRowxContext(ctx, `DELETE FROM meal_items mi
		USING meals m
		WHERE mi.id = $1 AND mi.meal_id = m.id AND m.user_id = $2
		RETURNING mi.id, mi.meal_id, mi.food_id, mi.quantity_grams, mi.calories, mi.protein, mi.carbs, mi.fat, mi.created_at`,
		itemID, userID).StructScan(&it)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete meal item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE meals SET
			total_calories = GREATEST(total_calories - $1, 0),
			total_protein = GREATEST(total_protein - $2, 0),
			total_carbs = GREATEST(total_carbs - $3, 0),
			total_fat = GREATEST(total_fat - $4, 0)
		WHERE id = $5`, it.Calories, it.Protein, it.Carbs, it.Fat, it.MealID); err != nil {
		return nil, fmt.Errorf("update meal totals: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit remove meal item: %w", err)
	}
	return &it, nil
}

func (s *Postgres) ListMeals(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.Meal, error) {
	meals := []models.Meal{}
	if err := s.db.SelectContext(ctx, &meals, `SELECT `+mealColumns+` FROM meals
		WHERE user_id = $1 AND meal_date = $2
		ORDER BY created_at ASC`, userID, dates.Day(day)); err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}

	var items []models.MealItem
	if err := s.db.SelectContext(ctx, &items, `SELECT mi.id, mi.meal_id, mi.food_id, mi.quantity_grams, mi.calories, mi.protein, mi.carbs, mi.fat, mi.created_at
		FROM meal_items mi
		JOIN meals m ON m.id = mi.meal_id
		WHERE m.user_id = $1 AND m.meal_date = $2
		ORDER BY mi.created_at ASC`, userID, dates.Day(day)); err != nil {
		return nil, fmt.Errorf("list meal items: %w", err)
	}

	byMeal := make(map[uuid.UUID][]models.MealItem, len(meals))
	for _, it := range items {
		byMeal[it.MealID] = append(byMeal[it.MealID], it)
	}
	for i := range meals {
		meals[i].Items = byMeal[meals[i].ID]
		if meals[i].Items == nil {
			meals[i].Items = []models.MealItem{}
		}
	}
	return meals, nil
}
