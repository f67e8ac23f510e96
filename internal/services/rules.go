package services

// Rules are the point and milestone constants of the achievement system.
type Rules struct {
	StreakMilestones   []int
	StreakPointsPerDay int
	DailyGoalPoints    int
	PointsPerLevel     int
}

func DefaultRules() Rules {
	return Rules{
		StreakMilestones:   []int{3, 7, 14, 30, 60, 100},
		StreakPointsPerDay: 10,
		DailyGoalPoints:    50,
		PointsPerLevel:     500,
	}
}

func (r Rules) isMilestone(n int) bool {
	for _, m := range r.StreakMilestones {
		if m == n {
			return true
		}
	}
	return false
}
