package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
	"nutritrack/internal/services"
)

type DashboardHandler struct {
	progress     *services.ProgressService
	profiles     *services.ProfileService
	streaks      *services.StreakService
	achievements *services.AchievementService
	logger       *zap.Logger
	now          func() time.Time
}

func NewDashboardHandler(progress *services.ProgressService, profiles *services.ProfileService, streaks *services.StreakService, achievements *services.AchievementService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{progress: progress, profiles: profiles, streaks: streaks, achievements: achievements, logger: logger, now: time.Now}
}

type trendPoint struct {
	LocalDate        string  `json:"local_date"`
	CaloriesConsumed float64 `json:"calories_consumed"`
	WaterConsumed    int     `json:"water_consumed"`
	ExerciseMinutes  int     `json:"exercise_minutes"`
}

type dashboardResponse struct {
	ReferenceDate  string                  `json:"reference_date"`
	Today          ProgressDTO             `json:"today"`
	Targets        models.Targets          `json:"targets"`
	Percentages    services.Percentages    `json:"percentages"`
	Streaks        []StreakDTO             `json:"streaks"`
	Points         *services.PointsSummary `json:"points"`
	Last7DaysTrend []trendPoint            `json:"last7_days_trend"`
}

// Get gathers everything the home screen shows for ?local_date=YYYY-MM-DD.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	refDate, ok := localDate(w, r.URL.Query().Get("local_date"), h.now)
	if !ok {
		return
	}
	ctx := r.Context()

	today, err := h.progress.GetOrCreateToday(ctx, uid, refDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	targets, err := h.profiles.Targets(ctx, uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	streaks, err := h.streaks.List(ctx, uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	points, err := h.achievements.Summary(ctx, uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rows, err := h.progress.ListRange(ctx, uid, refDate.AddDate(0, 0, -6), refDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		ReferenceDate:  dates.Format(refDate),
		Today:          ToProgressDTO(today),
		Targets:        targets,
		Percentages:    services.GetProgressPercentages(targets, today),
		Streaks:        toStreakDTOs(streaks),
		Points:         points,
		Last7DaysTrend: trend(refDate, rows),
	})
}

// trend fills the seven days ending at ref, zeroing days with no row.
func trend(ref time.Time, rows []models.DailyProgress) []trendPoint {
	byDay := make(map[string]*models.DailyProgress, len(rows))
	for i := range rows {
		byDay[dates.Format(rows[i].LocalDate)] = &rows[i]
	}
	out := make([]trendPoint, 0, 7)
	for d := ref.AddDate(0, 0, -6); !d.After(ref); d = d.AddDate(0, 0, 1) {
		key := dates.Format(d)
		pt := trendPoint{LocalDate: key}
		if p := byDay[key]; p != nil {
			pt.CaloriesConsumed = p.CaloriesConsumed
			pt.WaterConsumed = p.WaterConsumed
			pt.ExerciseMinutes = p.ExerciseMinutes
		}
		out = append(out, pt)
	}
	return out
}
