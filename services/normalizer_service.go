package services

import (
	"errors"
	"time"

	"github.com/Mzhdi/Nounou-sub000/models"
)

// ErrNoReference marks a record carrying neither a food nor a recipe
// reference. The migration counts these as skipped, not as errors.
var ErrNoReference = errors.New("no consumed item reference")

// RawEntry accepts both the unified shape (item_type + item fields) and
// the legacy shape (food_id / recipe_id overloads) in one payload.
type RawEntry struct {
	// unified shape
	ItemType string   `json:"item_type,omitempty"`
	ItemID   string   `json:"item_id,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Servings *float64 `json:"servings,omitempty"`

	// legacy shape
	FoodID        string   `json:"food_id,omitempty"`
	RecipeID      string   `json:"recipe_id,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	ServingSize   *float64 `json:"serving_size,omitempty"`
	TotalServings *float64 `json:"total_servings,omitempty"`

	MealType    string    `json:"meal_type,omitempty"`
	EntryMethod string    `json:"entry_method,omitempty"`
	ConsumedAt  time.Time `json:"consumed_at,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	DeviceInfo  string    `json:"device_info,omitempty"`
}

// EntryDraft is the canonical pre-persistence form of an entry: the
// variant is resolved, enums validated, defaults applied, but no id is
// assigned and no nutrition computed yet.
type EntryDraft struct {
	Item            models.ConsumedItem
	PortionConsumed float64 // servings / total servings, 0 when unknown
	MealType        string
	EntryMethod     string
	ConsumedAt      time.Time
	Notes           string
	Tags            []string
	DeviceInfo      string
}

// NormalizeEntry resolves the consumed item variant and validates the
// payload. A recipe reference always wins over a food reference; a record
// with neither is rejected, never silently coerced.
func NormalizeEntry(raw RawEntry) (*EntryDraft, error) {
	draft := &EntryDraft{
		MealType:    raw.MealType,
		EntryMethod: raw.EntryMethod,
		ConsumedAt:  raw.ConsumedAt,
		Notes:       raw.Notes,
		Tags:        raw.Tags,
		DeviceInfo:  raw.DeviceInfo,
	}

	switch {
	case raw.ItemType == models.ItemTypeRecipe || raw.RecipeID != "":
		if err := resolveRecipe(raw, draft); err != nil {
			return nil, err
		}
	case raw.ItemType == models.ItemTypeFood || raw.FoodID != "":
		if err := resolveFood(raw, draft); err != nil {
			return nil, err
		}
	case raw.ItemType != "":
		return nil, &ValidationError{Field: "item_type", Message: "must be \"food\" or \"recipe\""}
	default:
		return nil, &ValidationError{Field: "consumed_item", Message: ErrNoReference.Error(), Err: ErrNoReference}
	}

	if draft.MealType == "" {
		draft.MealType = "other"
	}
	if !models.IsValidMealType(draft.MealType) {
		return nil, &ValidationError{Field: "meal_type", Message: "unknown meal type " + draft.MealType}
	}

	if draft.EntryMethod == "" {
		draft.EntryMethod = "manual"
	}
	if !models.IsValidEntryMethod(draft.EntryMethod) {
		return nil, &ValidationError{Field: "entry_method", Message: "unknown entry method " + draft.EntryMethod}
	}

	if draft.ConsumedAt.IsZero() {
		draft.ConsumedAt = time.Now()
	}

	return draft, nil
}

func resolveRecipe(raw RawEntry, draft *EntryDraft) error {
	id := raw.ItemID
	if id == "" {
		id = raw.RecipeID
	}
	if id == "" {
		return &ValidationError{Field: "item_id", Message: "recipe entry requires a recipe id"}
	}
	if raw.Quantity != nil && raw.Servings != nil {
		return &ValidationError{Field: "consumed_item", Message: "quantity and servings are mutually exclusive"}
	}

	servings := 1.0
	switch {
	case raw.Servings != nil:
		servings = *raw.Servings
	case raw.ServingSize != nil:
		servings = *raw.ServingSize
	}
	if servings <= 0 {
		return &ValidationError{Field: "servings", Message: "must be greater than zero"}
	}

	draft.Item = models.ConsumedItem{
		ItemType: models.ItemTypeRecipe,
		ItemID:   id,
		Servings: servings,
	}
	if raw.TotalServings != nil && *raw.TotalServings > 0 {
		draft.PortionConsumed = servings / *raw.TotalServings
	}
	return nil
}

func resolveFood(raw RawEntry, draft *EntryDraft) error {
	id := raw.ItemID
	if id == "" {
		id = raw.FoodID
	}
	if id == "" {
		return &ValidationError{Field: "item_id", Message: "food entry requires a food id"}
	}
	if raw.Quantity != nil && raw.Servings != nil {
		return &ValidationError{Field: "consumed_item", Message: "quantity and servings are mutually exclusive"}
	}
	if raw.Servings != nil {
		return &ValidationError{Field: "servings", Message: "not valid for food entries"}
	}

	quantity := 100.0
	switch {
	case raw.Quantity != nil:
		quantity = *raw.Quantity
	case raw.Amount != nil:
		quantity = *raw.Amount
	}
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}

	unit := raw.Unit
	if unit == "" {
		unit = "g"
	}
	if _, ok := models.UnitGrams[unit]; !ok {
		return &ValidationError{Field: "unit", Message: "unknown unit " + unit}
	}

	draft.Item = models.ConsumedItem{
		ItemType: models.ItemTypeFood,
		ItemID:   id,
		Quantity: quantity,
		Unit:     unit,
	}
	return nil
}

// NormalizeLegacy adapts a legacy row into the shared normalization path,
// so the migration classifies records with the same priority rule as the
// live ingestion path.
func NormalizeLegacy(rec models.LegacyMealLog) (*EntryDraft, error) {
	raw := RawEntry{
		FoodID:      rec.FoodID,
		RecipeID:    rec.RecipeID,
		MealType:    rec.MealType,
		EntryMethod: rec.Method,
		ConsumedAt:  rec.LoggedAt,
		Notes:       rec.Notes,
	}
	// zero means the legacy row never recorded an amount; negative values
	// must fail validation instead of silently defaulting
	if rec.Amount != 0 {
		amount := rec.Amount
		raw.Amount = &amount
	}
	raw.Unit = rec.Unit
	if rec.ServingSize != 0 {
		size := rec.ServingSize
		raw.ServingSize = &size
	}
	if rec.TotalServings > 0 {
		total := rec.TotalServings
		raw.TotalServings = &total
	}
	// legacy rows predate the method enum; fall back to manual
	if !models.IsValidEntryMethod(raw.EntryMethod) {
		raw.EntryMethod = ""
	}
	if !models.IsValidMealType(raw.MealType) {
		raw.MealType = ""
	}
	return NormalizeEntry(raw)
}
