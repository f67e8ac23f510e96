package store

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
)

type progressKey struct {
	userID uuid.UUID
	day    string
}

type streakKey struct {
	userID uuid.UUID
	typ    models.StreakType
}

type mealKey struct {
	userID   uuid.UUID
	day      string
	mealType models.MealType
}

// Memory is an in-process Store. It is used when no DATABASE_URL is set and
// by tests.
type Memory struct {
	mu           sync.RWMutex
	now          func() time.Time
	progress     map[progressKey]*models.DailyProgress
	streaks      map[streakKey]*models.Streak
	achievements map[uuid.UUID][]models.Achievement
	unlocked     map[dedupKey]struct{}
	profiles     map[uuid.UUID]*models.Profile
	foods        map[uuid.UUID]*models.Food
	meals        map[mealKey]*models.Meal
	mealItems    map[uuid.UUID]*models.MealItem
	mealsByID    map[uuid.UUID]*models.Meal
}

func NewMemory() *Memory {
	return &Memory{
		now:          time.Now,
		progress:     make(map[progressKey]*models.DailyProgress),
		streaks:      make(map[streakKey]*models.Streak),
		achievements: make(map[uuid.UUID][]models.Achievement),
		unlocked:     make(map[dedupKey]struct{}),
		profiles:     make(map[uuid.UUID]*models.Profile),
		foods:        make(map[uuid.UUID]*models.Food),
		meals:        make(map[mealKey]*models.Meal),
		mealItems:    make(map[uuid.UUID]*models.MealItem),
		mealsByID:    make(map[uuid.UUID]*models.Meal),
	}
}

// --- progress ---

func (m *Memory) progressRow(userID uuid.UUID, day time.Time) *models.DailyProgress {
	k := progressKey{userID: userID, day: dates.Format(day)}
	p, ok := m.progress[k]
	if !ok {
		now := m.now()
		p = &models.DailyProgress{
			ID:        uuid.New(),
			UserID:    userID,
			LocalDate: dates.Day(day),
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.progress[k] = p
	}
	return p
}

func (m *Memory) GetOrCreateProgress(ctx context.Context, userID uuid.UUID, day time.Time) (*models.DailyProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.progressRow(userID, day)
	return &cp, nil
}

func (m *Memory) ApplyProgress(ctx context.Context, userID uuid.UUID, day time.Time, c models.ProgressChange) (*models.DailyProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.progressRow(userID, day)
	p.CaloriesConsumed = math.Max(p.CaloriesConsumed+c.Nutrition.Calories, 0)
	p.ProteinConsumed = math.Max(p.ProteinConsumed+c.Nutrition.Protein, 0)
	p.CarbsConsumed = math.Max(p.CarbsConsumed+c.Nutrition.Carbs, 0)
	p.FatConsumed = math.Max(p.FatConsumed+c.Nutrition.Fat, 0)
	p.WaterConsumed = max(p.WaterConsumed+c.WaterDelta, 0)
	p.StepsTaken = max(p.StepsTaken+c.StepsDelta, 0)
	p.ExerciseMinutes = max(p.ExerciseMinutes+c.ExerciseDelta, 0)
	if c.WeightKg != nil {
		p.CurrentWeightKg = ptr(*c.WeightKg)
	}
	if c.MoodRating != nil {
		p.MoodRating = ptr(*c.MoodRating)
	}
	if c.EnergyLevel != nil {
		p.EnergyLevel = ptr(*c.EnergyLevel)
	}
	if c.SleepHours != nil {
		p.SleepHours = ptr(*c.SleepHours)
	}
	if c.Notes != nil {
		p.Notes = ptr(*c.Notes)
	}
	p.UpdatedAt = m.now()
	cp := *p
	return &cp, nil
}

func (m *Memory) ListProgress(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	from, to = dates.Day(from), dates.Day(to)
	out := []models.DailyProgress{}
	for k, p := range m.progress {
		if k.userID != userID || p.LocalDate.Before(from) || p.LocalDate.After(to) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalDate.Before(out[j].LocalDate) })
	return out, nil
}

// --- streaks ---

func (m *Memory) GetStreak(ctx context.Context, userID uuid.UUID, t models.StreakType) (*models.Streak, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.streaks[streakKey{userID, t}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyStreak(s)
	return &cp, nil
}

func (m *Memory) InsertStreak(ctx context.Context, s *models.Streak) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := streakKey{s.UserID, s.StreakType}
	if _, ok := m.streaks[k]; ok {
		return errDuplicate("streak")
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	cp := copyStreak(s)
	m.streaks[k] = &cp
	return nil
}

func (m *Memory) UpdateStreak(ctx context.Context, s *models.Streak) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := streakKey{s.UserID, s.StreakType}
	cur, ok := m.streaks[k]
	if !ok || cur.ID != s.ID {
		return ErrNotFound
	}
	s.UpdatedAt = m.now()
	cp := copyStreak(s)
	m.streaks[k] = &cp
	return nil
}

func (m *Memory) ListStreaks(ctx context.Context, userID uuid.UUID) ([]models.Streak, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Streak{}
	for k, s := range m.streaks {
		if k.userID == userID {
			out = append(out, copyStreak(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StreakType < out[j].StreakType })
	return out, nil
}

func copyStreak(s *models.Streak) models.Streak {
	cp := *s
	if s.LastActivityDate != nil {
		cp.LastActivityDate = ptr(*s.LastActivityDate)
	}
	return cp
}

// --- achievements ---

func (m *Memory) InsertAchievement(ctx context.Context, a *models.Achievement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(a)
	if _, ok := m.unlocked[k]; ok {
		return false, nil
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.UnlockedAt = m.now()
	m.unlocked[k] = struct{}{}
	m.achievements[a.UserID] = append(m.achievements[a.UserID], *a)
	return true, nil
}

func (m *Memory) ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.achievements[userID]
	out := make([]models.Achievement, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (m *Memory) SumPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, a := range m.achievements[userID] {
		total += a.Points
	}
	return total, nil
}

// --- profiles ---

func (m *Memory) GetOrCreateProfile(ctx context.Context, defaults *models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[defaults.UserID]
	if !ok {
		cp := *defaults
		now := m.now()
		cp.CreatedAt, cp.UpdatedAt = now, now
		p = &cp
		m.profiles[defaults.UserID] = p
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) SaveProfile(ctx context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = m.now()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

// --- foods ---

func (m *Memory) GetFood(ctx context.Context, id uuid.UUID) (*models.Food, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.foods[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *Memory) SearchFoods(ctx context.Context, query string, limit int) ([]models.Food, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Food{}
	for _, f := range m.foods {
		if !f.Verified {
			continue
		}
		brand := ""
		if f.Brand != nil {
			brand = strings.ToLower(*f.Brand)
		}
		if strings.Contains(strings.ToLower(f.Name), q) || (brand != "" && strings.Contains(brand, q)) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UpsertFoods(ctx context.Context, foods []models.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range foods {
		if foods[i].ID == uuid.Nil {
			foods[i].ID = uuid.New()
		}
		cp := foods[i]
		m.foods[cp.ID] = &cp
	}
	return nil
}

// --- meals ---

func (m *Memory) AddMealItem(ctx context.Context, userID uuid.UUID, day time.Time, mealType models.MealType, item *models.MealItem) (*models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := mealKey{userID: userID, day: dates.Format(day), mealType: mealType}
	meal, ok := m.meals[k]
	if !ok {
		meal = &models.Meal{
			ID:        uuid.New(),
			UserID:    userID,
			MealType:  mealType,
			MealDate:  dates.Day(day),
			CreatedAt: m.now(),
		}
		m.meals[k] = meal
		m.mealsByID[meal.ID] = meal
	}
	meal.TotalCalories += item.Calories
	meal.TotalProtein += item.Protein
	meal.TotalCarbs += item.Carbs
	meal.TotalFat += item.Fat

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.MealID = meal.ID
	item.CreatedAt = m.now()
	cp := *item
	m.mealItems[item.ID] = &cp
	return m.mealWithItems(meal), nil
}

func (m *Memory) GetMealItem(ctx context.Context, userID, itemID uuid.UUID) (*models.MealItem, *models.Meal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.mealItems[itemID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	meal := m.mealsByID[it.MealID]
	if meal == nil || meal.UserID != userID {
		return nil, nil, ErrNotFound
	}
	cpItem, cpMeal := *it, *meal
	return &cpItem, &cpMeal, nil
}

func (m *Memory) RemoveMealItem(ctx context.Context, userID, itemID uuid.UUID) (*models.MealItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.mealItems[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	meal := m.mealsByID[it.MealID]
	if meal == nil || meal.UserID != userID {
		return nil, ErrNotFound
	}
	delete(m.mealItems, itemID)
	meal.TotalCalories = math.Max(meal.TotalCalories-it.Calories, 0)
	meal.TotalProtein = math.Max(meal.TotalProtein-it.Protein, 0)
	meal.TotalCarbs = math.Max(meal.TotalCarbs-it.Carbs, 0)
	meal.TotalFat = math.Max(meal.TotalFat-it.Fat, 0)
	cp := *it
	return &cp, nil
}

func (m *Memory) ListMeals(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.Meal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d := dates.Format(day)
	out := []models.Meal{}
	for k, meal := range m.meals {
		if k.userID == userID && k.day == d {
			out = append(out, *m.mealWithItems(meal))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) mealWithItems(meal *models.Meal) *models.Meal {
	cp := *meal
	cp.Items = []models.MealItem{}
	for _, it := range m.mealItems {
		if it.MealID == meal.ID {
			cp.Items = append(cp.Items, *it)
		}
	}
	sort.Slice(cp.Items, func(i, j int) bool { return cp.Items[i].CreatedAt.Before(cp.Items[j].CreatedAt) })
	return &cp
}

type errDuplicate string

func (e errDuplicate) Error() string { return "duplicate " + string(e) }

func ptr[T any](v T) *T { return &v }
