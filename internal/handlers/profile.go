package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"nutritrack/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	logger   *zap.Logger
}

func NewProfileHandler(profiles *services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// Get returns the current user's profile, creating one with default targets.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.Get(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileRequest struct {
	FirstName           *string  `json:"first_name"`
	LastName            *string  `json:"last_name"`
	HeightCm            *float64 `json:"height_cm"`
	WeightKg            *float64 `json:"weight_kg"`
	ActivityLevel       *string  `json:"activity_level"`
	DailyCalorieTarget  *float64 `json:"daily_calorie_target"`
	DailyProteinTarget  *float64 `json:"daily_protein_target"`
	DailyCarbTarget     *float64 `json:"daily_carb_target"`
	DailyFatTarget      *float64 `json:"daily_fat_target"`
	DailyWaterTarget    *int     `json:"daily_water_target"`
	DailyExerciseTarget *int     `json:"daily_exercise_target"`
}

// Update changes only the fields present in the body.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var body profileRequest
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	p, err := h.profiles.Update(r.Context(), uid, services.ProfileUpdate(body))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) UpdateTargets(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var body services.TargetsUpdate
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	p, err := h.profiles.UpdateTargets(r.Context(), uid, body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Targets())
}
