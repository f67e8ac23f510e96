package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS profiles (
    user_id UUID PRIMARY KEY,
    first_name TEXT,
    last_name TEXT,
    height_cm DOUBLE PRECISION,
    weight_kg DOUBLE PRECISION,
    activity_level TEXT NOT NULL DEFAULT 'moderately_active',
    daily_calorie_target DOUBLE PRECISION NOT NULL DEFAULT 2000,
    daily_protein_target DOUBLE PRECISION NOT NULL DEFAULT 150,
    daily_carb_target DOUBLE PRECISION NOT NULL DEFAULT 250,
    daily_fat_target DOUBLE PRECISION NOT NULL DEFAULT 67,
    daily_water_target INTEGER NOT NULL DEFAULT 8,
    daily_exercise_target INTEGER NOT NULL DEFAULT 30,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS daily_progress (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    local_date DATE NOT NULL,
    calories_consumed DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (calories_consumed >= 0),
    protein_consumed DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (protein_consumed >= 0),
    carbs_consumed DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (carbs_consumed >= 0),
    fat_consumed DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (fat_consumed >= 0),
    water_consumed INTEGER NOT NULL DEFAULT 0 CHECK (water_consumed >= 0),
    current_weight_kg DOUBLE PRECISION CHECK (current_weight_kg > 0),
    steps_taken INTEGER NOT NULL DEFAULT 0 CHECK (steps_taken >= 0),
    exercise_minutes INTEGER NOT NULL DEFAULT 0 CHECK (exercise_minutes >= 0),
    mood_rating INTEGER CHECK (mood_rating BETWEEN 1 AND 5),
    energy_level INTEGER CHECK (energy_level BETWEEN 1 AND 5),
    sleep_hours DOUBLE PRECISION CHECK (sleep_hours BETWEEN 0 AND 24),
    notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(user_id, local_date)
);

CREATE TABLE IF NOT EXISTS streaks (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    streak_type TEXT NOT NULL CHECK (streak_type IN ('water_goal', 'calorie_goal', 'protein_goal', 'daily_logging', 'exercise_goal')),
    current_streak INTEGER NOT NULL DEFAULT 0 CHECK (current_streak >= 0),
    longest_streak INTEGER NOT NULL DEFAULT 0 CHECK (longest_streak >= current_streak),
    last_activity_date DATE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(user_id, streak_type)
);

CREATE TABLE IF NOT EXISTS achievements (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    achievement_type TEXT NOT NULL,
    tag TEXT NOT NULL DEFAULT '',
    achievement_name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    points INTEGER NOT NULL CHECK (points > 0),
    milestone_value INTEGER,
    unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

DROP INDEX IF EXISTS achievements_unlock_once;
CREATE UNIQUE INDEX IF NOT EXISTS achievements_type_milestone_once
    ON achievements (user_id, achievement_type, (COALESCE(milestone_value, -1)));

CREATE TABLE IF NOT EXISTS foods (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    brand TEXT,
    calories_per_100g DOUBLE PRECISION NOT NULL DEFAULT 0,
    protein_per_100g DOUBLE PRECISION NOT NULL DEFAULT 0,
    carbs_per_100g DOUBLE PRECISION NOT NULL DEFAULT 0,
    fat_per_100g DOUBLE PRECISION NOT NULL DEFAULT 0,
    verified BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS meals (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    meal_type TEXT NOT NULL CHECK (meal_type IN ('breakfast', 'lunch', 'dinner', 'snack')),
    meal_date DATE NOT NULL,
    total_calories DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_protein DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_carbs DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_fat DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(user_id, meal_date, meal_type)
);

CREATE TABLE IF NOT EXISTS meal_items (
    id UUID PRIMARY KEY,
    meal_id UUID NOT NULL REFERENCES meals(id) ON DELETE CASCADE,
    food_id UUID NOT NULL REFERENCES foods(id),
    quantity_grams DOUBLE PRECISION NOT NULL CHECK (quantity_grams > 0),
    calories DOUBLE PRECISION NOT NULL DEFAULT 0,
    protein DOUBLE PRECISION NOT NULL DEFAULT 0,
    carbs DOUBLE PRECISION NOT NULL DEFAULT 0,
    fat DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return err
	}

	indexes := `
CREATE INDEX IF NOT EXISTS daily_progress_user_date ON daily_progress (user_id, local_date DESC);
CREATE INDEX IF NOT EXISTS achievements_user_unlocked ON achievements (user_id, unlocked_at DESC);
CREATE INDEX IF NOT EXISTS meal_items_meal ON meal_items (meal_id);
CREATE INDEX IF NOT EXISTS foods_name ON foods (lower(name));
`
	_, err = db.ExecContext(ctx, indexes)
	return err
}
