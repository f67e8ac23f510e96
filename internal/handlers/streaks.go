package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nutritrack/internal/models"
	"nutritrack/internal/services"
)

type StreakHandler struct {
	streaks *services.StreakService
	tracker *services.Tracker
	logger  *zap.Logger
	now     func() time.Time
}

func NewStreakHandler(streaks *services.StreakService, tracker *services.Tracker, logger *zap.Logger) *StreakHandler {
	return &StreakHandler{streaks: streaks, tracker: tracker, logger: logger, now: time.Now}
}

func (h *StreakHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := h.streaks.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStreakDTOs(list))
}

func (h *StreakHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	st, err := h.streaks.Get(r.Context(), uid, models.StreakType(chi.URLParam(r, "type")))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ToStreakDTO(st))
}

type closeDayResult struct {
	StreakType models.StreakType `json:"streak_type"`
	Achieved   bool              `json:"achieved"`
	Streak     *StreakDTO        `json:"streak,omitempty"`
	Skipped    string            `json:"skipped,omitempty"`
}

// CloseDay settles all streaks for a finished day. The caller's local_date is
// required; closing that day or a later one is rejected since it is still open.
func (h *StreakHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	day, ok := parseDate(w, "date", chi.URLParam(r, "date"))
	if !ok {
		return
	}
	today, ok := localDate(w, r.URL.Query().Get("local_date"), h.now)
	if !ok {
		return
	}
	if !day.Before(today) {
		badRequest(w, "only past days can be closed")
		return
	}

	results, err := h.tracker.CloseDay(r.Context(), uid, day)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]closeDayResult, 0, len(results))
	for _, res := range results {
		item := closeDayResult{StreakType: res.StreakType, Achieved: res.Achieved, Skipped: res.Skipped}
		if res.Streak != nil {
			dto := ToStreakDTO(res.Streak)
			item.Streak = &dto
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"local_date": chi.URLParam(r, "date"), "streaks": out})
}
