package models

import "time"

// LegacyMealLog is the pre-unification row shape consumed by the
// migration job. Food and recipe references are optional-field overloads;
// the migration classifies each row with the recipe-over-food priority
// rule before it is transformed into a ConsumptionEntry.
type LegacyMealLog struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"user_id"`

	FoodID   string  `json:"food_id,omitempty"`
	FoodName string  `json:"food_name,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Unit     string  `json:"unit,omitempty"`

	RecipeID      string  `json:"recipe_id,omitempty"`
	ServingSize   float64 `json:"serving_size,omitempty"`
	TotalServings float64 `json:"total_servings,omitempty"`

	MealType string    `json:"meal_type,omitempty"`
	Method   string    `json:"method,omitempty"`
	LoggedAt time.Time `json:"logged_at"`
	Notes    string    `json:"notes,omitempty"`
}

func (LegacyMealLog) TableName() string { return "legacy_meal_logs" }
