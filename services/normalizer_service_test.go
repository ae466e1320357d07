package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Mzhdi/Nounou-sub000/models"
)

func TestNormalizeRecipeWinsOverFood(t *testing.T) {
	draft, err := NormalizeEntry(RawEntry{
		FoodID:      "food-apple",
		RecipeID:    "recipe-soup",
		ServingSize: f64(2),
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if draft.Item.ItemType != models.ItemTypeRecipe {
		t.Fatalf("item type = %q, want recipe", draft.Item.ItemType)
	}
	if draft.Item.ItemID != "recipe-soup" {
		t.Fatalf("item id = %q, want recipe-soup", draft.Item.ItemID)
	}
	if draft.Item.Servings != 2 {
		t.Fatalf("servings = %v, want 2", draft.Item.Servings)
	}
	if draft.Item.Quantity != 0 {
		t.Fatalf("quantity = %v, want 0 on a recipe entry", draft.Item.Quantity)
	}
}

func TestNormalizeFoodDefaults(t *testing.T) {
	draft, err := NormalizeEntry(RawEntry{FoodID: "food-apple"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if draft.Item.ItemType != models.ItemTypeFood {
		t.Fatalf("item type = %q, want food", draft.Item.ItemType)
	}
	if draft.Item.Quantity != 100 || draft.Item.Unit != "g" {
		t.Fatalf("quantity/unit = %v/%q, want 100/g", draft.Item.Quantity, draft.Item.Unit)
	}
	if draft.MealType != "other" {
		t.Fatalf("meal type = %q, want other", draft.MealType)
	}
	if draft.EntryMethod != "manual" {
		t.Fatalf("entry method = %q, want manual", draft.EntryMethod)
	}
	if draft.ConsumedAt.IsZero() {
		t.Fatalf("consumed_at must default to now")
	}
}

func TestNormalizeRecipeDefaultsToOneServing(t *testing.T) {
	draft, err := NormalizeEntry(RawEntry{RecipeID: "recipe-soup", TotalServings: f64(4)})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if draft.Item.Servings != 1 {
		t.Fatalf("servings = %v, want 1", draft.Item.Servings)
	}
	if draft.PortionConsumed != 0.25 {
		t.Fatalf("portion = %v, want 0.25", draft.PortionConsumed)
	}
}

func TestNormalizeRejectsNoReference(t *testing.T) {
	_, err := NormalizeEntry(RawEntry{MealType: "lunch"})
	if err == nil {
		t.Fatalf("expected error for payload without a reference")
	}
	if !IsValidation(err) {
		t.Fatalf("error = %T, want ValidationError", err)
	}
	if !errors.Is(err, ErrNoReference) {
		t.Fatalf("error must wrap ErrNoReference, got %v", err)
	}
}

func TestNormalizeRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		raw  RawEntry
	}{
		{"zero quantity", RawEntry{FoodID: "f", Quantity: f64(0)}},
		{"negative quantity", RawEntry{FoodID: "f", Quantity: f64(-5)}},
		{"zero servings", RawEntry{RecipeID: "r", Servings: f64(0)}},
		{"unknown unit", RawEntry{FoodID: "f", Quantity: f64(1), Unit: "cup"}},
		{"unknown meal type", RawEntry{FoodID: "f", MealType: "brunch"}},
		{"unknown entry method", RawEntry{FoodID: "f", EntryMethod: "telepathy"}},
		{"unknown item type", RawEntry{ItemType: "supplement", ItemID: "x"}},
		{"both quantity and servings", RawEntry{ItemType: "food", ItemID: "f", Quantity: f64(1), Servings: f64(1)}},
		{"servings on food", RawEntry{FoodID: "f", Servings: f64(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizeEntry(tc.raw); !IsValidation(err) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestNormalizeLegacyHybridBecomesRecipe(t *testing.T) {
	draft, err := NormalizeLegacy(models.LegacyMealLog{
		UserID:      1,
		FoodID:      "food-apple",
		Amount:      150,
		Unit:        "g",
		RecipeID:    "recipe-soup",
		ServingSize: 2,
		LoggedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("normalize legacy: %v", err)
	}
	if draft.Item.ItemType != models.ItemTypeRecipe {
		t.Fatalf("hybrid legacy record classified as %q, want recipe", draft.Item.ItemType)
	}
}

func TestNormalizeLegacyInvalidEnumsFallBack(t *testing.T) {
	draft, err := NormalizeLegacy(models.LegacyMealLog{
		UserID:   1,
		FoodID:   "food-apple",
		MealType: "elevenses",
		Method:   "fax",
		LoggedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("normalize legacy: %v", err)
	}
	if draft.MealType != "other" || draft.EntryMethod != "manual" {
		t.Fatalf("fallbacks = %q/%q, want other/manual", draft.MealType, draft.EntryMethod)
	}
}

func TestNormalizeLegacyNegativeAmountFails(t *testing.T) {
	_, err := NormalizeLegacy(models.LegacyMealLog{UserID: 1, FoodID: "food-apple", Amount: -50})
	if !IsValidation(err) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if errors.Is(err, ErrNoReference) {
		t.Fatalf("a bad amount is an error, not a missing reference")
	}
}
