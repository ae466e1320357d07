package services

import (
	"context"
	"errors"
	"math"

	"github.com/Mzhdi/Nounou-sub000/models"

	"gorm.io/gorm"
)

type GoalService struct {
	db *gorm.DB
}

func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{db: db}
}

// MetricProgress compares one nutrient against its target. Target and
// Percent are nil when the goal does not define the metric.
type MetricProgress struct {
	Consumed float64  `json:"consumed"`
	Target   *float64 `json:"target,omitempty"`
	Percent  *float64 `json:"percent,omitempty"`
}

type GoalProgress struct {
	Goal    *models.DailyGoal         `json:"goal"`
	Metrics map[string]MetricProgress `json:"metrics"`
	// Overall averages only the metrics that have a target; nil when the
	// goal defines none.
	Overall *float64 `json:"overall,omitempty"`
}

// GetActiveGoal returns the user's single active goal, or nil without an
// error when none has been set.
func (s *GoalService) GetActiveGoal(ctx context.Context, userID uint) (*models.DailyGoal, error) {
	var g models.DailyGoal
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, &DatabaseError{Op: "goal.get_active", Err: err}
	}
	return &g, nil
}

func (s *GoalService) UpsertGoal(ctx context.Context, userID uint, targets models.DailyGoal) (*models.DailyGoal, error) {
	var goal models.DailyGoal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		goal = targets
		goal.UserID = userID
		if err := s.db.WithContext(ctx).Create(&goal).Error; err != nil {
			return nil, &DatabaseError{Op: "goal.create", Err: err}
		}
		return &goal, nil
	}
	if err != nil {
		return nil, &DatabaseError{Op: "goal.upsert", Err: err}
	}

	goal.Calories = targets.Calories
	goal.Protein = targets.Protein
	goal.Carbs = targets.Carbs
	goal.Fat = targets.Fat
	goal.Fiber = targets.Fiber
	goal.Sugar = targets.Sugar
	goal.Sodium = targets.Sodium
	if err := s.db.WithContext(ctx).Save(&goal).Error; err != nil {
		return nil, &DatabaseError{Op: "goal.save", Err: err}
	}
	return &goal, nil
}

// ComputeProgress compares a nutrition total (a daily summary or a range
// total) against a goal. Metrics without a target are excluded from the
// overall average, not treated as zero. A nil goal yields nil.
func ComputeProgress(total models.Nutrition, goal *models.DailyGoal) *GoalProgress {
	if goal == nil {
		return nil
	}

	type metric struct {
		name     string
		consumed float64
		target   float64
	}
	metrics := []metric{
		{"calories", total.Calories, goal.Calories},
		{"protein", total.Protein, goal.Protein},
		{"carbs", total.Carbs, goal.Carbs},
		{"fat", total.Fat, goal.Fat},
		{"fiber", total.Fiber, goal.Fiber},
		{"sugar", total.Sugar, goal.Sugar},
		{"sodium", total.Sodium, goal.Sodium},
	}

	out := &GoalProgress{
		Goal:    goal,
		Metrics: make(map[string]MetricProgress, len(metrics)),
	}

	var sum float64
	var defined int
	for _, m := range metrics {
		mp := MetricProgress{Consumed: m.consumed}
		if m.target > 0 {
			target := m.target
			percent := math.Round(m.consumed / m.target * 100)
			mp.Target = &target
			mp.Percent = &percent
			sum += percent
			defined++
		}
		out.Metrics[m.name] = mp
	}
	if defined > 0 {
		overall := math.Round(sum / float64(defined))
		out.Overall = &overall
	}
	return out
}
