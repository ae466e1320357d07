package services

import (
	"context"
	"testing"

	"github.com/Mzhdi/Nounou-sub000/models"
)

func TestGetActiveGoalAbsentIsNotAnError(t *testing.T) {
	s := newTestStack(t)
	goal, err := s.goals.GetActiveGoal(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if goal != nil {
		t.Fatalf("goal = %+v, want nil", goal)
	}
}

func TestUpsertGoalCreatesThenUpdates(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	created, err := s.goals.UpsertGoal(ctx, 1, models.DailyGoal{Calories: 2000, Protein: 120})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := s.goals.UpsertGoal(ctx, 1, models.DailyGoal{Calories: 1800})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("upsert created a second row: %d vs %d", updated.ID, created.ID)
	}
	if updated.Calories != 1800 || updated.Protein != 0 {
		t.Fatalf("targets = %+v, want calories 1800 and protein cleared", updated)
	}

	var count int64
	s.db.Model(&models.DailyGoal{}).Where("user_id = ?", 1).Count(&count)
	if count != 1 {
		t.Fatalf("goal rows = %d, want 1", count)
	}
}

func TestComputeProgressNilGoal(t *testing.T) {
	if p := ComputeProgress(models.Nutrition{Calories: 500}, nil); p != nil {
		t.Fatalf("progress = %+v, want nil for nil goal", p)
	}
}

func TestComputeProgressSkipsUnsetTargets(t *testing.T) {
	goal := &models.DailyGoal{Calories: 2000, Protein: 100}
	total := models.Nutrition{Calories: 1000, Protein: 80, Carbs: 250}

	p := ComputeProgress(total, goal)
	if p == nil {
		t.Fatal("progress is nil")
	}

	cal := p.Metrics["calories"]
	if cal.Target == nil || *cal.Target != 2000 || cal.Percent == nil || *cal.Percent != 50 {
		t.Fatalf("calories = %+v, want target 2000 percent 50", cal)
	}
	prot := p.Metrics["protein"]
	if prot.Percent == nil || *prot.Percent != 80 {
		t.Fatalf("protein = %+v, want percent 80", prot)
	}

	carbs := p.Metrics["carbs"]
	if carbs.Target != nil || carbs.Percent != nil {
		t.Fatalf("carbs = %+v, want no target and no percent", carbs)
	}
	if carbs.Consumed != 250 {
		t.Fatalf("carbs consumed = %v, want 250", carbs.Consumed)
	}

	// overall averages only the two defined metrics
	if p.Overall == nil || *p.Overall != 65 {
		t.Fatalf("overall = %v, want 65", p.Overall)
	}
}

func TestComputeProgressAllTargetsUnset(t *testing.T) {
	p := ComputeProgress(models.Nutrition{Calories: 900}, &models.DailyGoal{})
	if p == nil {
		t.Fatal("progress is nil")
	}
	if p.Overall != nil {
		t.Fatalf("overall = %v, want nil when no metric has a target", *p.Overall)
	}
	for name, m := range p.Metrics {
		if m.Target != nil || m.Percent != nil {
			t.Fatalf("%s = %+v, want bare consumed value", name, m)
		}
	}
}

func TestComputeProgressCanExceedTarget(t *testing.T) {
	p := ComputeProgress(models.Nutrition{Calories: 3000}, &models.DailyGoal{Calories: 2000})
	got := p.Metrics["calories"]
	if got.Percent == nil || *got.Percent != 150 {
		t.Fatalf("percent = %v, want 150 (overshoot is reported, not capped)", got.Percent)
	}
}
