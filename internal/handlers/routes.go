package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	mw "nutritrack/internal/middleware"
	"nutritrack/internal/realtime"
	"nutritrack/internal/services"
)

const requestTimeout = 30 * time.Second

// Services are the dependencies of the HTTP API.
type Services struct {
	Progress     *services.ProgressService
	Streaks      *services.StreakService
	Achievements *services.AchievementService
	Profiles     *services.ProfileService
	Meals        *services.MealService
	Tracker      *services.Tracker
	Hub          *realtime.Hub
	// Now is the server clock that client dates are checked against.
	// Defaults to time.Now.
	Now func() time.Time
}

// Mount registers the authenticated API on r. requireAuth must put the user
// id on the request context. Catalog imports also need an admin token.
func Mount(r chi.Router, s Services, requireAuth func(http.Handler) http.Handler, logger *zap.Logger) {
	progress := NewProgressHandler(s.Progress, s.Profiles, s.Tracker, logger)
	streaks := NewStreakHandler(s.Streaks, s.Tracker, logger)
	achievements := NewAchievementHandler(s.Achievements, logger)
	profile := NewProfileHandler(s.Profiles, logger)
	meals := NewMealHandler(s.Meals, s.Profiles, s.Tracker, logger)
	foods := NewFoodHandler(s.Meals, logger)
	dashboard := NewDashboardHandler(s.Progress, s.Profiles, s.Streaks, s.Achievements, logger)
	if s.Now != nil {
		progress.now, streaks.now, meals.now, dashboard.now = s.Now, s.Now, s.Now, s.Now
	}

	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Use(middleware.Timeout(requestTimeout))

		pr.Get("/dashboard", dashboard.Get)

		pr.Get("/profile", profile.Get)
		pr.Patch("/profile", profile.Update)
		pr.Put("/profile/targets", profile.UpdateTargets)

		pr.Route("/progress", func(p chi.Router) {
			p.Get("/", progress.List)
			p.Get("/today", progress.Today)
			p.Post("/water", progress.AddWater)
			p.Post("/exercise", progress.LogExercise)
			p.Post("/steps", progress.LogSteps)
			p.Put("/weight", progress.UpdateWeight)
			p.Put("/mood", progress.SetMood)
			p.Put("/sleep", progress.SetSleep)
			p.Put("/notes", progress.SetNotes)
		})

		pr.Get("/streaks", streaks.List)
		pr.Get("/streaks/{type}", streaks.Get)
		pr.Post("/days/{date}/close", streaks.CloseDay)

		pr.Get("/achievements", achievements.List)
		pr.Get("/achievements/summary", achievements.Summary)

		pr.Get("/foods", foods.Search)
		pr.With(mw.RequireAdmin).Post("/foods/import", foods.Import)

		pr.Get("/meals", meals.List)
		pr.Post("/meals/items", meals.AddItem)
		pr.Delete("/meals/items/{id}", meals.RemoveItem)
	})

	if s.Hub != nil {
		r.With(requireAuth).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			uid, ok := userID(w, r)
			if !ok {
				return
			}
			s.Hub.Serve(w, r, uid)
		})
	}
}
