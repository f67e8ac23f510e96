package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nutritrack/internal/dates"
	"nutritrack/internal/models"
	"nutritrack/internal/store"
)

type fixture struct {
	store        *store.Memory
	notifier     *recordingNotifier
	progress     *ProgressService
	streaks      *StreakService
	achievements *AchievementService
	profiles     *ProfileService
	meals        *MealService
	tracker      *Tracker
	user         uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	mem := store.NewMemory()
	rules := DefaultRules()
	f := &fixture{store: mem, notifier: &recordingNotifier{}, user: uuid.New()}
	f.progress = NewProgressService(mem, nil, logger)
	f.achievements = NewAchievementService(mem, f.notifier, rules, logger)
	f.streaks = NewStreakService(mem, f.achievements, rules, logger)
	f.profiles = NewProfileService(mem, DefaultTargets(), logger)
	f.meals = NewMealService(mem, f.progress, logger)
	f.tracker = NewTracker(f.profiles, f.progress, f.streaks, f.achievements, mem, logger)
	return f
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.Parse(s)
	require.NoError(t, err)
	return d
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []AchievementEvent
}

func (n *recordingNotifier) Notify(userID uuid.UUID, event any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if e, ok := event.(AchievementEvent); ok {
		n.events = append(n.events, e)
	}
}

type recordingUnlocker struct {
	calls []UnlockRequest
}

func (u *recordingUnlocker) Unlock(ctx context.Context, userID uuid.UUID, req UnlockRequest) (UnlockStatus, *models.Achievement, error) {
	u.calls = append(u.calls, req)
	return Unlocked, &models.Achievement{UserID: userID, Points: req.Points, MilestoneValue: req.Milestone}, nil
}
