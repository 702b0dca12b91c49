package models

import "time"

type GoalCategory string

const (
	GoalCategorySteps    GoalCategory = "steps"
	GoalCategoryCalories GoalCategory = "calories"
	GoalCategoryWorkouts GoalCategory = "workouts"
	GoalCategorySleep    GoalCategory = "sleep"
)

func (c GoalCategory) Valid() bool {
	switch c {
	case GoalCategorySteps, GoalCategoryCalories, GoalCategoryWorkouts, GoalCategorySleep:
		return true
	default:
		return false
	}
}

func (c GoalCategory) Name() string {
	switch c {
	case GoalCategorySteps:
		return "Steps"
	case GoalCategoryCalories:
		return "Calories"
	case GoalCategoryWorkouts:
		return "Workouts"
	case GoalCategorySleep:
		return "Sleep"
	default:
		return string(c)
	}
}

type Goal struct {
	ID            int64        `json:"id"`
	UserID        int64        `json:"user_id"`
	Title         string       `json:"title"`
	Category      GoalCategory `json:"category"`
	TargetValue   float64      `json:"target_value"`
	ProgressValue float64      `json:"progress_value"`
	IsArchived    bool         `json:"is_archived"`
	CreatedAt     time.Time    `json:"created_at"`
}

// CompletionRatio is clamped to [0, 1]; a goal without a positive target has
// no meaningful ratio and reports 0.
func (g *Goal) CompletionRatio() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	ratio := g.ProgressValue / g.TargetValue
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}
