package models

import "gorm.io/gorm"

// A food catalog entry; nutrition is stored per 100 g.
type FoodItem struct {
	gorm.Model
	CatalogID string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"catalog_id"`
	Label     string    `gorm:"not null" json:"label"`
	Category  string    `json:"category"`
	Barcode   string    `gorm:"index" json:"barcode,omitempty"`
	Per100g   Nutrition `gorm:"embedded;embeddedPrefix:per100g_" json:"nutrition_per_100g"`
}

// A recipe catalog entry; nutrition is stored per serving.
type Recipe struct {
	gorm.Model
	CatalogID     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"catalog_id"`
	Title         string    `gorm:"not null" json:"title"`
	TotalServings float64   `json:"total_servings"`
	PerServing    Nutrition `gorm:"embedded;embeddedPrefix:per_serving_" json:"nutrition_per_serving"`
}
