package services

import (
	"context"
	"testing"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"
)

// fakeCatalog serves fixed references without a database.
type fakeCatalog struct {
	foods   map[string]FoodReference
	recipes map[string]RecipeReference
}

func (f *fakeCatalog) LookupFood(_ context.Context, id string) (*FoodReference, error) {
	if ref, ok := f.foods[id]; ok {
		return &ref, nil
	}
	return nil, ErrCatalogMiss
}

func (f *fakeCatalog) LookupRecipe(_ context.Context, id string) (*RecipeReference, error) {
	if ref, ok := f.recipes[id]; ok {
		return &ref, nil
	}
	return nil, ErrCatalogMiss
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		foods: map[string]FoodReference{
			"food-apple": {Label: "Apple", Per100g: models.Nutrition{Calories: 52, Protein: 0.3}},
		},
		recipes: map[string]RecipeReference{
			"recipe-soup": {Title: "Soup", PerServing: models.Nutrition{Calories: 400, Protein: 18}, TotalServings: 4},
		},
	}
}

func newCalc() *NutritionCalculator {
	return NewNutritionCalculator(newFakeCatalog(), logger.Nop())
}

func TestCalculateFoodScalesPer100g(t *testing.T) {
	draft := &EntryDraft{
		Item:        models.ConsumedItem{ItemType: models.ItemTypeFood, ItemID: "food-apple", Quantity: 150, Unit: "g"},
		EntryMethod: "manual",
	}
	res := newCalc().Calculate(context.Background(), draft)

	if res.Nutrition.Calories != 78 {
		t.Fatalf("calories = %v, want 78", res.Nutrition.Calories)
	}
	if res.Nutrition.Protein != 0.45 {
		t.Fatalf("protein = %v, want 0.45", res.Nutrition.Protein)
	}
	if res.CatalogMiss {
		t.Fatalf("unexpected catalog miss")
	}
}

func TestCalculateFoodConvertsUnits(t *testing.T) {
	draft := &EntryDraft{
		Item:        models.ConsumedItem{ItemType: models.ItemTypeFood, ItemID: "food-apple", Quantity: 1, Unit: "kg"},
		EntryMethod: "manual",
	}
	res := newCalc().Calculate(context.Background(), draft)

	if res.Nutrition.Calories != 520 {
		t.Fatalf("calories = %v, want 520", res.Nutrition.Calories)
	}
}

func TestCalculateRecipeScalesPerServing(t *testing.T) {
	draft := &EntryDraft{
		Item:        models.ConsumedItem{ItemType: models.ItemTypeRecipe, ItemID: "recipe-soup", Servings: 0.5},
		EntryMethod: "manual",
	}
	res := newCalc().Calculate(context.Background(), draft)

	if res.Nutrition.Calories != 200 {
		t.Fatalf("calories = %v, want 200", res.Nutrition.Calories)
	}
	if res.Nutrition.Protein != 9 {
		t.Fatalf("protein = %v, want 9", res.Nutrition.Protein)
	}
}

func TestCalculateCatalogMissDegrades(t *testing.T) {
	draft := &EntryDraft{
		Item:        models.ConsumedItem{ItemType: models.ItemTypeFood, ItemID: "food-unknown", Quantity: 100, Unit: "g"},
		EntryMethod: "manual",
	}
	res := newCalc().Calculate(context.Background(), draft)

	if res.Nutrition != (models.Nutrition{}) {
		t.Fatalf("nutrition = %+v, want all zero", res.Nutrition)
	}
	if res.Confidence != missConfidence {
		t.Fatalf("confidence = %v, want %v", res.Confidence, missConfidence)
	}
	if !res.CatalogMiss {
		t.Fatalf("CatalogMiss = false, want true")
	}
	if res.IsVerified {
		t.Fatalf("a catalog miss must never verify the entry")
	}
}

func TestCalculateClampsNegativeReference(t *testing.T) {
	cat := newFakeCatalog()
	cat.foods["food-bad"] = FoodReference{Per100g: models.Nutrition{Calories: -10, Protein: 5}}
	calc := NewNutritionCalculator(cat, logger.Nop())

	draft := &EntryDraft{
		Item:        models.ConsumedItem{ItemType: models.ItemTypeFood, ItemID: "food-bad", Quantity: 100, Unit: "g"},
		EntryMethod: "manual",
	}
	res := calc.Calculate(context.Background(), draft)

	if res.Nutrition.Calories != 0 {
		t.Fatalf("calories = %v, want 0 (clamped)", res.Nutrition.Calories)
	}
	if res.Nutrition.Protein != 5 {
		t.Fatalf("protein = %v, want 5", res.Nutrition.Protein)
	}
}

func TestConfidenceCappedAtOne(t *testing.T) {
	draft := &EntryDraft{
		Item:        models.ConsumedItem{ItemType: models.ItemTypeFood, ItemID: "food-apple", Quantity: 100, Unit: "g"},
		EntryMethod: "barcode_scan",
		Notes:       "post-workout snack",
	}
	res := newCalc().Calculate(context.Background(), draft)

	if res.Confidence != 1 {
		t.Fatalf("confidence = %v, want capped at 1", res.Confidence)
	}
}

func TestQualityScoreWeights(t *testing.T) {
	// calories(20) + protein(5) + quantity(10) + notes(5) + tags(5) + trusted(10) = 55
	draft := &EntryDraft{
		Item:        models.ConsumedItem{ItemType: models.ItemTypeFood, ItemID: "food-apple", Quantity: 150, Unit: "g"},
		EntryMethod: "barcode_scan",
		Notes:       "lunch",
		Tags:        []string{"fruit"},
	}
	res := newCalc().Calculate(context.Background(), draft)

	// apple reference has no carbs/fat in the fake catalog
	if res.QualityScore != 55 {
		t.Fatalf("quality = %d, want 55", res.QualityScore)
	}
}

func TestQualityScoreRecipeContext(t *testing.T) {
	base := &EntryDraft{
		Item:        models.ConsumedItem{ItemType: models.ItemTypeRecipe, ItemID: "recipe-soup", Servings: 1},
		EntryMethod: "manual",
	}
	withPortion := &EntryDraft{
		Item:            models.ConsumedItem{ItemType: models.ItemTypeRecipe, ItemID: "recipe-soup", Servings: 1},
		EntryMethod:     "manual",
		PortionConsumed: 0.25,
	}
	calc := newCalc()
	a := calc.Calculate(context.Background(), base)
	b := calc.Calculate(context.Background(), withPortion)

	if b.QualityScore-a.QualityScore != 5 {
		t.Fatalf("recipe context bonus = %d, want 5", b.QualityScore-a.QualityScore)
	}
}
