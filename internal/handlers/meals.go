package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/models"
	"nutritrack/internal/services"
)

type MealHandler struct {
	meals    *services.MealService
	profiles *services.ProfileService
	tracker  *services.Tracker
	logger   *zap.Logger
	now      func() time.Time
}

func NewMealHandler(meals *services.MealService, profiles *services.ProfileService, tracker *services.Tracker, logger *zap.Logger) *MealHandler {
	return &MealHandler{meals: meals, profiles: profiles, tracker: tracker, logger: logger, now: time.Now}
}

func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	day, ok := historyDate(w, "local_date", r.URL.Query().Get("local_date"), h.now)
	if !ok {
		return
	}
	meals, err := h.meals.ListMeals(r.Context(), uid, day)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]MealDTO, 0, len(meals))
	for i := range meals {
		out = append(out, ToMealDTO(&meals[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type addItemRequest struct {
	LocalDate     string          `json:"local_date"`
	MealType      models.MealType `json:"meal_type"`
	FoodID        uuid.UUID       `json:"food_id"`
	QuantityGrams float64         `json:"quantity_grams"`
}

type mealItemResponse struct {
	Meal        *MealDTO             `json:"meal,omitempty"`
	Item        *models.MealItem     `json:"item,omitempty"`
	Progress    ProgressDTO          `json:"progress"`
	Percentages services.Percentages `json:"percentages"`
}

func (h *MealHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid body")
		return
	}
	today, ok := localDate(w, req.LocalDate, h.now)
	if !ok {
		return
	}
	meal, p, err := h.meals.AddMealItem(r.Context(), uid, today, req.MealType, req.FoodID, req.QuantityGrams)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.tracker.MealLogged(r.Context(), uid, today)
	h.tracker.Check(r.Context(), uid, today, p)

	dto := ToMealDTO(meal)
	h.respond(w, r, uid, http.StatusCreated, mealItemResponse{Meal: &dto}, p)
}

// RemoveItem deletes a meal item logged on local_date.
func (h *MealHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid meal item id")
		return
	}
	today, ok := localDate(w, r.URL.Query().Get("local_date"), h.now)
	if !ok {
		return
	}
	item, p, err := h.meals.RemoveMealItem(r.Context(), uid, today, itemID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, uid, http.StatusOK, mealItemResponse{Item: item}, p)
}

func (h *MealHandler) respond(w http.ResponseWriter, r *http.Request, uid uuid.UUID, status int, resp mealItemResponse, p *models.DailyProgress) {
	targets, err := h.profiles.Targets(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp.Progress = ToProgressDTO(p)
	resp.Percentages = services.GetProgressPercentages(targets, p)
	writeJSON(w, status, resp)
}
