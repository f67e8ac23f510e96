package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/models"
	"nutritrack/internal/services"
)

type ProgressHandler struct {
	progress *services.ProgressService
	profiles *services.ProfileService
	tracker  *services.Tracker
	logger   *zap.Logger
	now      func() time.Time
}

func NewProgressHandler(progress *services.ProgressService, profiles *services.ProfileService, tracker *services.Tracker, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, profiles: profiles, tracker: tracker, logger: logger, now: time.Now}
}

type progressResponse struct {
	Progress    ProgressDTO          `json:"progress"`
	Percentages services.Percentages `json:"percentages"`
}

// Today returns the row for local_date, creating it if needed.
func (h *ProgressHandler) Today(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	today, ok := localDate(w, r.URL.Query().Get("local_date"), h.now)
	if !ok {
		return
	}
	p, err := h.progress.GetOrCreateToday(r.Context(), uid, today)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeProgress(w, r, uid, p)
}

type waterRequest struct {
	LocalDate string `json:"local_date"`
	Glasses   int    `json:"glasses"`
}

func (h *ProgressHandler) AddWater(w http.ResponseWriter, r *http.Request) {
	var req waterRequest
	h.mutate(w, r, &req, func() string { return req.LocalDate }, func(uid uuid.UUID, today time.Time) (*models.DailyProgress, error) {
		return h.progress.AddWater(r.Context(), uid, today, req.Glasses)
	})
}

type exerciseRequest struct {
	LocalDate string `json:"local_date"`
	Minutes   int    `json:"minutes"`
}

func (h *ProgressHandler) LogExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	h.mutate(w, r, &req, func() string { return req.LocalDate }, func(uid uuid.UUID, today time.Time) (*models.DailyProgress, error) {
		return h.progress.LogExercise(r.Context(), uid, today, req.Minutes)
	})
}

type stepsRequest struct {
	LocalDate string `json:"local_date"`
	Steps     int    `json:"steps"`
}

func (h *ProgressHandler) LogSteps(w http.ResponseWriter, r *http.Request) {
	var req stepsRequest
	h.mutate(w, r, &req, func() string { return req.LocalDate }, func(uid uuid.UUID, today time.Time) (*models.DailyProgress, error) {
		return h.progress.LogSteps(r.Context(), uid, today, req.Steps)
	})
}

type weightRequest struct {
	LocalDate string  `json:"local_date"`
	WeightKg  float64 `json:"weight_kg"`
}

func (h *ProgressHandler) UpdateWeight(w http.ResponseWriter, r *http.Request) {
	var req weightRequest
	h.mutate(w, r, &req, func() string { return req.LocalDate }, func(uid uuid.UUID, today time.Time) (*models.DailyProgress, error) {
		return h.progress.UpdateWeight(r.Context(), uid, today, req.WeightKg)
	})
}

type moodRequest struct {
	LocalDate   string `json:"local_date"`
	MoodRating  *int   `json:"mood_rating"`
	EnergyLevel *int   `json:"energy_level"`
}

func (h *ProgressHandler) SetMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	h.mutate(w, r, &req, func() string { return req.LocalDate }, func(uid uuid.UUID, today time.Time) (*models.DailyProgress, error) {
		return h.progress.SetMoodAndEnergy(r.Context(), uid, today, req.MoodRating, req.EnergyLevel)
	})
}

type sleepRequest struct {
	LocalDate  string  `json:"local_date"`
	SleepHours float64 `json:"sleep_hours"`
}

func (h *ProgressHandler) SetSleep(w http.ResponseWriter, r *http.Request) {
	var req sleepRequest
	h.mutate(w, r, &req, func() string { return req.LocalDate }, func(uid uuid.UUID, today time.Time) (*models.DailyProgress, error) {
		return h.progress.SetSleep(r.Context(), uid, today, req.SleepHours)
	})
}

type notesRequest struct {
	LocalDate string `json:"local_date"`
	Notes     string `json:"notes"`
}

func (h *ProgressHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	h.mutate(w, r, &req, func() string { return req.LocalDate }, func(uid uuid.UUID, today time.Time) (*models.DailyProgress, error) {
		return h.progress.SetNotes(r.Context(), uid, today, req.Notes)
	})
}

// List returns rows between start_date and end_date. end_date defaults to the
// current UTC day and start_date to six days before end_date.
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	end, ok := historyDate(w, "end_date", q.Get("end_date"), h.now)
	if !ok {
		return
	}
	start := end.AddDate(0, 0, -6)
	if raw := q.Get("start_date"); raw != "" {
		if start, ok = parseDate(w, "start_date", raw); !ok {
			return
		}
	}
	rows, err := h.progress.ListRange(r.Context(), uid, start, end)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressDTOs(rows))
}

// mutate decodes req, resolves the day, applies the change and runs the goal
// check before responding.
func (h *ProgressHandler) mutate(w http.ResponseWriter, r *http.Request, req any, date func() string, apply func(uuid.UUID, time.Time) (*models.DailyProgress, error)) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := decode(r, req); err != nil {
		badRequest(w, "invalid body")
		return
	}
	today, ok := localDate(w, date(), h.now)
	if !ok {
		return
	}
	p, err := apply(uid, today)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.tracker.Check(r.Context(), uid, today, p)
	h.writeProgress(w, r, uid, p)
}

func (h *ProgressHandler) writeProgress(w http.ResponseWriter, r *http.Request, uid uuid.UUID, p *models.DailyProgress) {
	targets, err := h.profiles.Targets(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{
		Progress:    ToProgressDTO(p),
		Percentages: services.GetProgressPercentages(targets, p),
	})
}
