package services

import (
	"context"
	"errors"

	"github.com/Mzhdi/Nounou-sub000/models"

	"gorm.io/gorm"
)

// ErrCatalogMiss signals a reference the catalog does not know. The
// nutrition calculator degrades on it instead of failing the entry.
var ErrCatalogMiss = errors.New("catalog: item not found")

type FoodReference struct {
	Label   string
	Per100g models.Nutrition
}

type RecipeReference struct {
	Title         string
	PerServing    models.Nutrition
	TotalServings float64
}

// CatalogProvider is the read surface of the food/recipe catalog.
// Implementations return ErrCatalogMiss for unknown ids.
type CatalogProvider interface {
	LookupFood(ctx context.Context, catalogID string) (*FoodReference, error)
	LookupRecipe(ctx context.Context, catalogID string) (*RecipeReference, error)
}

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) LookupFood(ctx context.Context, catalogID string) (*FoodReference, error) {
	var f models.FoodItem
	err := s.db.WithContext(ctx).
		Where("catalog_id = ?", catalogID).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogMiss
		}
		return nil, &DatabaseError{Op: "catalog.lookup_food", Err: err}
	}
	return &FoodReference{Label: f.Label, Per100g: f.Per100g}, nil
}

func (s *CatalogService) LookupRecipe(ctx context.Context, catalogID string) (*RecipeReference, error) {
	var r models.Recipe
	err := s.db.WithContext(ctx).
		Where("catalog_id = ?", catalogID).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogMiss
		}
		return nil, &DatabaseError{Op: "catalog.lookup_recipe", Err: err}
	}
	return &RecipeReference{Title: r.Title, PerServing: r.PerServing, TotalServings: r.TotalServings}, nil
}

// SearchFoods matches labels case-insensitively; used by the image
// analysis path to map detected labels onto catalog entries.
func (s *CatalogService) SearchFoods(ctx context.Context, query string, limit int) ([]models.FoodItem, error) {
	if limit <= 0 {
		limit = 5
	}
	var foods []models.FoodItem
	err := s.db.WithContext(ctx).
		Where("lower(label) LIKE lower(?)", "%"+query+"%").
		Limit(limit).
		Find(&foods).Error
	if err != nil {
		return nil, &DatabaseError{Op: "catalog.search_foods", Err: err}
	}
	return foods, nil
}
