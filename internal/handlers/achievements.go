package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"nutritrack/internal/services"
)

type AchievementHandler struct {
	achievements *services.AchievementService
	logger       *zap.Logger
}

func NewAchievementHandler(achievements *services.AchievementService, logger *zap.Logger) *AchievementHandler {
	return &AchievementHandler{achievements: achievements, logger: logger}
}

// List returns the user's achievements, newest first.
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := h.achievements.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AchievementHandler) Summary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	s, err := h.achievements.Summary(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
