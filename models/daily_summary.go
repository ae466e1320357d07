package models

import (
	"time"

	"gorm.io/datatypes"
)

// MealTotals is one bucket of a summary's meal breakdown.
type MealTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Entries  int     `json:"entries"`
}

// DailySummary is the derived per-user-per-day aggregate. It is a pure
// cache over active entries: every recompute rebuilds it from source
// records, so it can always be thrown away and recreated.
type DailySummary struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	UserID uint      `gorm:"uniqueIndex:idx_summary_user_date;not null" json:"user_id"`
	Date   time.Time `gorm:"uniqueIndex:idx_summary_user_date;not null" json:"date"`

	Total Nutrition `gorm:"embedded;embeddedPrefix:total_" json:"total_nutrition"`

	MealBreakdown datatypes.JSON `json:"meal_breakdown"` // map[mealType]MealTotals

	EntriesCount     int `json:"entries_count"`
	UniqueFoodsCount int `json:"unique_foods_count"`

	Progress datatypes.JSON `json:"progress,omitempty"` // goal snapshot + per-metric progress

	LastCalculated time.Time `json:"last_calculated"`
}
