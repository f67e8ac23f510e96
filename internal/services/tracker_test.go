package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutritrack/internal/models"
)

func TestCheckAdvancesMetGoalsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := day(t, "2024-07-01")

	p, err := f.progress.AddWater(ctx, f.user, today, 5)
	require.NoError(t, err)
	f.tracker.Check(ctx, f.user, today, p)

	streaks, err := f.streaks.List(ctx, f.user)
	require.NoError(t, err)
	assert.Empty(t, streaks)

	p, err = f.progress.AddWater(ctx, f.user, today, 3)
	require.NoError(t, err)
	f.tracker.Check(ctx, f.user, today, p)
	f.tracker.Check(ctx, f.user, today, p)

	st, err := f.streaks.Get(ctx, f.user, models.StreakWaterGoal)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)

	total, err := f.achievements.TotalPoints(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 50, total)
}

func TestCheckOverThreeDaysUnlocksMilestone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2024-07-01", "2024-07-02", "2024-07-03"} {
		today := day(t, d)
		p, err := f.progress.LogExercise(ctx, f.user, today, 30)
		require.NoError(t, err)
		f.tracker.Check(ctx, f.user, today, p)
	}

	st, err := f.streaks.Get(ctx, f.user, models.StreakExerciseGoal)
	require.NoError(t, err)
	assert.Equal(t, 3, st.CurrentStreak)

	// Three daily bonuses plus the 3-day milestone.
	total, err := f.achievements.TotalPoints(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 3*50+30, total)
}

func TestCloseDayResetsMissedGoals(t *testing.T) {
	f := newFixture(t)
	chicken, _ := seedFoods(t, f)
	ctx := context.Background()
	d1, d2 := day(t, "2024-07-01"), day(t, "2024-07-02")

	p, err := f.progress.AddWater(ctx, f.user, d1, 8)
	require.NoError(t, err)
	f.tracker.Check(ctx, f.user, d1, p)
	_, _, err = f.meals.AddMealItem(ctx, f.user, d1, models.MealBreakfast, chicken.ID, 100)
	require.NoError(t, err)
	f.tracker.MealLogged(ctx, f.user, d1)

	results, err := f.tracker.CloseDay(ctx, f.user, d1)
	require.NoError(t, err)
	byType := map[models.StreakType]DayResult{}
	for _, r := range results {
		byType[r.StreakType] = r
	}
	assert.True(t, byType[models.StreakWaterGoal].Achieved)
	assert.True(t, byType[models.StreakDailyLogging].Achieved)
	assert.False(t, byType[models.StreakCalorieGoal].Achieved)
	assert.Equal(t, 1, byType[models.StreakWaterGoal].Streak.CurrentStreak)

	// Nothing logged on the second day.
	_, err = f.tracker.CloseDay(ctx, f.user, d2)
	require.NoError(t, err)

	st, err := f.streaks.Get(ctx, f.user, models.StreakWaterGoal)
	require.NoError(t, err)
	assert.Zero(t, st.CurrentStreak)
	assert.Equal(t, 1, st.LongestStreak)
}

func TestCloseDaySkipsStreaksAlreadyPastDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d1, d2 := day(t, "2024-07-01"), day(t, "2024-07-02")

	p, err := f.progress.AddWater(ctx, f.user, d2, 8)
	require.NoError(t, err)
	f.tracker.Check(ctx, f.user, d2, p)

	results, err := f.tracker.CloseDay(ctx, f.user, d1)
	require.NoError(t, err)
	for _, r := range results {
		if r.StreakType == models.StreakWaterGoal {
			assert.NotEmpty(t, r.Skipped)
		}
	}
	st, err := f.streaks.Get(ctx, f.user, models.StreakWaterGoal)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
}
