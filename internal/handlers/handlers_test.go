package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mw "nutritrack/internal/middleware"
	"nutritrack/internal/services"
	"nutritrack/internal/store"
)

var testSecret = []byte("handler-test-secret")

type api struct {
	t          *testing.T
	router     http.Handler
	token      string
	adminToken string
	user       uuid.UUID
	clock      *time.Time
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := zap.NewNop()
	mem := store.NewMemory()
	rules := services.DefaultRules()

	progress := services.NewProgressService(mem, nil, logger)
	achievements := services.NewAchievementService(mem, nil, rules, logger)
	streaks := services.NewStreakService(mem, achievements, rules, logger)
	profiles := services.NewProfileService(mem, services.DefaultTargets(), logger)
	meals := services.NewMealService(mem, progress, logger)
	tracker := services.NewTracker(profiles, progress, streaks, achievements, mem, logger)

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := chi.NewRouter()
	r.Route("/api", func(sub chi.Router) {
		Mount(sub, Services{
			Progress:     progress,
			Streaks:      streaks,
			Achievements: achievements,
			Profiles:     profiles,
			Meals:        meals,
			Tracker:      tracker,
			Now:          func() time.Time { return clock },
		}, mw.NewAuthMiddleware(testSecret).RequireAuth, logger)
	})

	user := uuid.New()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": user.String()}).SignedString(testSecret)
	require.NoError(t, err)
	adminToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.NewString(), "admin": true}).SignedString(testSecret)
	require.NoError(t, err)
	return &api{t: t, router: r, token: token, adminToken: adminToken, user: user, clock: &clock}
}

// setDay moves the server clock to noon UTC on day.
func (a *api) setDay(day string) {
	a.t.Helper()
	d, err := time.Parse("2006-01-02", day)
	require.NoError(a.t, err)
	*a.clock = d.Add(12 * time.Hour)
}

func (a *api) doAs(token, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *api) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.doAs(a.token, method, path, body)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRequiresToken(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/progress/today", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddWaterReachesGoal(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/progress/water", map[string]any{"local_date": "2024-01-01", "glasses": 8})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[progressResponse](t, rec)
	assert.Equal(t, 8, resp.Progress.WaterConsumed)
	assert.Equal(t, "2024-01-01", resp.Progress.LocalDate)
	assert.InDelta(t, 100, resp.Percentages.Water, 1e-9)

	rec = a.do(http.MethodGet, "/api/streaks/water_goal", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeBody[StreakDTO](t, rec)
	assert.Equal(t, 1, st.CurrentStreak)
	require.NotNil(t, st.LastActivityDate)
	assert.Equal(t, "2024-01-01", *st.LastActivityDate)

	rec = a.do(http.MethodGet, "/api/achievements/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[services.PointsSummary](t, rec)
	assert.Equal(t, 50, summary.TotalPoints)
	assert.Equal(t, 1, summary.Level)
}

func TestProgressValidation(t *testing.T) {
	a := newAPI(t)
	tests := []struct {
		name string
		path string
		body any
	}{
		{"zero glasses", "/api/progress/water", map[string]any{"local_date": "2024-01-01", "glasses": 0}},
		{"missing date", "/api/progress/water", map[string]any{"glasses": 2}},
		{"bad date", "/api/progress/water", map[string]any{"local_date": "01/01/2024", "glasses": 2}},
		{"unknown field", "/api/progress/water", map[string]any{"local_date": "2024-01-01", "cups": 2}},
		{"zero minutes", "/api/progress/exercise", map[string]any{"local_date": "2024-01-01", "minutes": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := a.do(http.MethodPost, "/api/progress/water", map[string]any{"local_date": "2024-01-01", "glasses": 0})
	errResp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "glasses", errResp.Field)

	rec = a.do(http.MethodGet, "/api/progress/today?local_date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeBody[progressResponse](t, rec).Progress.WaterConsumed)
}

func TestMoodAndNotes(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPut, "/api/progress/mood", map[string]any{"local_date": "2024-01-01", "mood_rating": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPut, "/api/progress/notes", map[string]any{"local_date": "2024-01-01", "notes": "rest day"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := decodeBody[progressResponse](t, rec).Progress
	require.NotNil(t, p.MoodRating)
	assert.Equal(t, 4, *p.MoodRating)
	require.NotNil(t, p.Notes)
	assert.Equal(t, "rest day", *p.Notes)

	rec = a.do(http.MethodPut, "/api/progress/mood", map[string]any{"local_date": "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreakLookup(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/streaks/sleep_goal", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/streaks/protein_goal", nil).Code)

	rec := a.do(http.MethodGet, "/api/streaks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]StreakDTO](t, rec))
}

func TestCloseDay(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/progress/water", map[string]any{"local_date": "2024-01-01", "glasses": 8})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/api/days/2024-01-02/close?local_date=2024-01-02", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a.setDay("2024-01-02")
	rec = a.do(http.MethodPost, "/api/days/2024-01-02/close?local_date=2024-01-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/streaks/water_goal", nil)
	st := decodeBody[StreakDTO](t, rec)
	assert.Zero(t, st.CurrentStreak)
	assert.Equal(t, 1, st.LongestStreak)
}

func TestMealFlow(t *testing.T) {
	a := newAPI(t)
	oatsID := uuid.New()

	rec := a.doAs(a.adminToken, http.MethodPost, "/api/foods/import", map[string]any{"foods": []map[string]any{
		{"id": oatsID, "name": "Rolled Oats", "calories_per_100g": 380, "protein_per_100g": 13, "carbs_per_100g": 67, "fat_per_100g": 7},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/foods?q=oat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]map[string]any](t, rec), 1)

	rec = a.do(http.MethodPost, "/api/meals/items", map[string]any{
		"local_date": "2024-01-01", "meal_type": "breakfast", "food_id": oatsID, "quantity_grams": 50,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decodeBody[mealItemResponse](t, rec)
	require.NotNil(t, added.Meal)
	require.Len(t, added.Meal.Items, 1)
	assert.InDelta(t, 190, added.Progress.CaloriesConsumed, 1e-9)
	itemID := added.Meal.Items[0].ID

	rec = a.do(http.MethodGet, "/api/streaks/daily_logging", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[StreakDTO](t, rec).CurrentStreak)

	rec = a.do(http.MethodDelete, "/api/meals/items/"+itemID.String()+"?local_date=2024-01-02", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodDelete, "/api/meals/items/"+itemID.String()+"?local_date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, decodeBody[mealItemResponse](t, rec).Progress.CaloriesConsumed)

	rec = a.do(http.MethodDelete, "/api/meals/items/"+itemID.String()+"?local_date=2024-01-01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPost, "/api/meals/items", map[string]any{
		"local_date": "2024-01-01", "meal_type": "breakfast", "food_id": uuid.New(), "quantity_grams": 50,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPatch, "/api/profile", map[string]any{"first_name": "Sam", "activity_level": "very_active"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Sam", body["first_name"])

	rec = a.do(http.MethodPut, "/api/profile/targets", map[string]any{"water": 12})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 12, decodeBody[map[string]any](t, rec)["water"])

	rec = a.do(http.MethodPut, "/api/profile/targets", map[string]any{"calories": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard(t *testing.T) {
	a := newAPI(t)
	a.setDay("2024-01-05")

	rec := a.do(http.MethodPost, "/api/progress/exercise", map[string]any{"local_date": "2024-01-05", "minutes": 15})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/api/dashboard?local_date=2024-01-05", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[dashboardResponse](t, rec)
	assert.Equal(t, "2024-01-05", resp.ReferenceDate)
	assert.InDelta(t, 50, resp.Percentages.Exercise, 1e-9)
	require.Len(t, resp.Last7DaysTrend, 7)
	assert.Equal(t, "2023-12-30", resp.Last7DaysTrend[0].LocalDate)
	assert.Equal(t, 15, resp.Last7DaysTrend[6].ExerciseMinutes)
	assert.Equal(t, 1, resp.Points.Level)
}

func TestListProgressRange(t *testing.T) {
	a := newAPI(t)
	for _, d := range []string{"2024-01-01", "2024-01-03"} {
		a.setDay(d)
		require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/progress/steps", map[string]any{"local_date": d, "steps": 1000}).Code)
	}

	rec := a.do(http.MethodGet, "/api/progress?start_date=2024-01-01&end_date=2024-01-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decodeBody[[]ProgressDTO](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, 1000, rows[1].StepsTaken)

	rec = a.do(http.MethodGet, "/api/progress?start_date=2024-01-05&end_date=2024-01-03", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFoodImportNeedsAdmin(t *testing.T) {
	a := newAPI(t)
	body := map[string]any{"foods": []map[string]any{
		{"name": "Fake Apple", "calories_per_100g": 1, "protein_per_100g": 0, "carbs_per_100g": 0, "fat_per_100g": 0},
	}}

	rec := a.do(http.MethodPost, "/api/foods/import", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/api/foods?q=apple", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]map[string]any](t, rec))

	rec = a.doAs(a.adminToken, http.MethodPost, "/api/foods/import", body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestLocalDateMustBeCurrent(t *testing.T) {
	a := newAPI(t)

	for _, d := range []string{"2099-12-31", "2001-01-01", "2024-01-03", "2023-12-30"} {
		t.Run(d, func(t *testing.T) {
			rec := a.do(http.MethodPost, "/api/progress/water", map[string]any{"local_date": d, "glasses": 8})
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "local_date", decodeBody[errorResponse](t, rec).Field)
		})
	}
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/streaks/water_goal", nil).Code)

	// West of UTC the client is still on the previous day.
	*a.clock = time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)
	for _, d := range []string{"2024-01-01", "2024-01-02"} {
		rec := a.do(http.MethodPost, "/api/progress/water", map[string]any{"local_date": d, "glasses": 8})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := a.do(http.MethodPost, "/api/progress/water", map[string]any{"local_date": "2099-12-31", "glasses": 8})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/api/streaks/water_goal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[StreakDTO](t, rec)
	assert.Equal(t, 2, st.CurrentStreak)
	require.NotNil(t, st.LastActivityDate)
	assert.Equal(t, "2024-01-02", *st.LastActivityDate)

	rejected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/progress/today"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodGet, "/api/progress/today?local_date=2099-12-31"},
		{http.MethodPost, "/api/days/2023-12-31/close"},
		{http.MethodPost, "/api/days/2000-12-31/close?local_date=2001-01-01"},
	}
	for _, tt := range rejected {
		rec := a.do(tt.method, tt.path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.path)
	}
}

func TestHistoryReadsRejectFuture(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/meals?local_date=2023-06-01", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(http.MethodGet, "/api/meals?local_date=2099-12-31", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodGet, "/api/progress?end_date=2099-12-31", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodGet, "/api/meals", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
