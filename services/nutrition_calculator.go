package services

import (
	"context"
	"errors"
	"math"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"
)

const (
	baseConfidence = 0.8
	// confidence assigned when the catalog has no data for the item
	missConfidence = 0.3

	verifiedMinScore = 70
)

type NutritionCalculator struct {
	catalog CatalogProvider
	log     *logger.Logger
}

func NewNutritionCalculator(catalog CatalogProvider, log *logger.Logger) *NutritionCalculator {
	return &NutritionCalculator{catalog: catalog, log: log}
}

type CalcResult struct {
	Nutrition    models.Nutrition
	Confidence   float64
	QualityScore int
	IsVerified   bool
	CatalogMiss  bool
}

// Calculate derives the nutrition snapshot for a draft from catalog
// reference data. It never returns an error: a catalog miss (or any
// lookup failure) yields a zero snapshot with reduced confidence, so
// logging a consumption event is never blocked by the catalog.
func (c *NutritionCalculator) Calculate(ctx context.Context, draft *EntryDraft) CalcResult {
	var (
		nutrition models.Nutrition
		miss      bool
	)

	switch draft.Item.ItemType {
	case models.ItemTypeFood:
		ref, err := c.catalog.LookupFood(ctx, draft.Item.ItemID)
		if err != nil {
			miss = true
			c.logLookupFailure(draft.Item, err)
		} else {
			grams := draft.Item.Quantity * models.UnitGrams[draft.Item.Unit]
			nutrition = ref.Per100g.Scale(grams / 100)
		}
	case models.ItemTypeRecipe:
		ref, err := c.catalog.LookupRecipe(ctx, draft.Item.ItemID)
		if err != nil {
			miss = true
			c.logLookupFailure(draft.Item, err)
		} else {
			nutrition = ref.PerServing.Scale(draft.Item.Servings)
		}
	default:
		miss = true
	}

	nutrition = nutrition.Round()
	score := qualityScore(draft, nutrition)

	return CalcResult{
		Nutrition:    nutrition,
		Confidence:   confidence(draft, miss),
		QualityScore: score,
		IsVerified:   !miss && score >= verifiedMinScore,
		CatalogMiss:  miss,
	}
}

func (c *NutritionCalculator) logLookupFailure(item models.ConsumedItem, err error) {
	if errors.Is(err, ErrCatalogMiss) {
		c.log.Debug("catalog miss, degrading to zero nutrition",
			"item_type", item.ItemType, "item_id", item.ItemID)
		return
	}
	c.log.Warn("catalog lookup failed, degrading to zero nutrition",
		"item_type", item.ItemType, "item_id", item.ItemID, "err", err)
}

// trustedMethod covers entry methods backed by an external identification
// step rather than free-hand input.
func trustedMethod(method string) bool {
	return method == "barcode_scan" || method == "image_analysis"
}

func confidence(draft *EntryDraft, miss bool) float64 {
	if miss {
		return missConfidence
	}
	conf := baseConfidence
	if draft.Item.Quantity > 0 || draft.Item.Servings > 0 {
		conf += 0.05
	}
	if draft.Notes != "" {
		conf += 0.05
	}
	if trustedMethod(draft.EntryMethod) {
		conf += 0.1
	}
	return math.Min(round2(conf), 1)
}

// qualityScore is a weighted completeness heuristic over the draft and
// its computed snapshot, capped at 100.
func qualityScore(draft *EntryDraft, n models.Nutrition) int {
	score := 0
	if n.Calories > 0 {
		score += 20
	}
	for _, macro := range []float64{n.Protein, n.Carbs, n.Fat} {
		if macro > 0 {
			score += 5
		}
	}
	if draft.Item.Quantity > 0 || draft.Item.Servings > 0 {
		score += 10
	}
	if draft.Notes != "" {
		score += 5
	}
	if len(draft.Tags) > 0 {
		score += 5
	}
	if trustedMethod(draft.EntryMethod) {
		score += 10
	}
	if draft.Item.ItemType == models.ItemTypeRecipe && draft.PortionConsumed > 0 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
