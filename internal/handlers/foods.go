package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/models"
	"nutritrack/internal/services"
)

type FoodHandler struct {
	meals  *services.MealService
	logger *zap.Logger
}

func NewFoodHandler(meals *services.MealService, logger *zap.Logger) *FoodHandler {
	return &FoodHandler{meals: meals, logger: logger}
}

// Search matches verified foods by name or brand: GET /foods?q=oat
func (h *FoodHandler) Search(w http.ResponseWriter, r *http.Request) {
	foods, err := h.meals.SearchFoods(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

type importFood struct {
	ID              *uuid.UUID `json:"id"`
	Name            string     `json:"name"`
	Brand           *string    `json:"brand"`
	CaloriesPer100g float64    `json:"calories_per_100g"`
	ProteinPer100g  float64    `json:"protein_per_100g"`
	CarbsPer100g    float64    `json:"carbs_per_100g"`
	FatPer100g      float64    `json:"fat_per_100g"`
	Verified        *bool      `json:"verified"`
}

type importRequest struct {
	Foods []importFood `json:"foods"`
}

// Import upserts a batch of catalog entries in one transaction. Entries
// without an id get a new one; entries default to verified.
func (h *FoodHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid body")
		return
	}
	foods := make([]models.Food, 0, len(req.Foods))
	for _, f := range req.Foods {
		food := models.Food{
			ID:              uuid.New(),
			Name:            f.Name,
			Brand:           f.Brand,
			CaloriesPer100g: f.CaloriesPer100g,
			ProteinPer100g:  f.ProteinPer100g,
			CarbsPer100g:    f.CarbsPer100g,
			FatPer100g:      f.FatPer100g,
			Verified:        true,
		}
		if f.ID != nil {
			food.ID = *f.ID
		}
		if f.Verified != nil {
			food.Verified = *f.Verified
		}
		foods = append(foods, food)
	}
	if err := h.meals.ImportFoods(r.Context(), foods); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"imported": len(foods), "foods": foods})
}
