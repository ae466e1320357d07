package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EntryService orchestrates the consumption entry lifecycle. Every
// mutation is followed by a daily summary recompute for the affected
// date(s); a recompute failure is logged but never fails the mutation,
// leaving the summary stale until the next write heals it.
type EntryService struct {
	db        *gorm.DB
	calc      *NutritionCalculator
	summaries *SummaryService
	activity  *ActivityLogService
	log       *logger.Logger
}

func NewEntryService(db *gorm.DB, calc *NutritionCalculator, summaries *SummaryService, activity *ActivityLogService, log *logger.Logger) *EntryService {
	return &EntryService{db: db, calc: calc, summaries: summaries, activity: activity, log: log}
}

// ---------- create ----------

func (s *EntryService) Create(ctx context.Context, userID uint, raw RawEntry) (*models.ConsumptionEntry, error) {
	draft, err := NormalizeEntry(raw)
	if err != nil {
		return nil, err
	}
	entry := s.buildEntry(ctx, userID, draft)
	entry.AppendVersion(models.VersionRecord{Action: "created", ModifiedBy: userID, At: time.Now()})

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, &DatabaseError{Op: "entry.create", Err: err}
	}

	s.recompute(ctx, userID, entry.ConsumedAt)
	s.activity.Append(userID, "entry.create", map[string]any{
		"entry_id": entry.ID, "item_type": entry.Item.ItemType, "item_id": entry.Item.ItemID,
	})
	return entry, nil
}

func (s *EntryService) buildEntry(ctx context.Context, userID uint, draft *EntryDraft) *models.ConsumptionEntry {
	res := s.calc.Calculate(ctx, draft)
	entry := &models.ConsumptionEntry{
		UserID:       userID,
		Item:         draft.Item,
		MealType:     draft.MealType,
		ConsumedAt:   draft.ConsumedAt,
		EntryMethod:  draft.EntryMethod,
		Nutrition:    res.Nutrition,
		Confidence:   res.Confidence,
		QualityScore: res.QualityScore,
		IsVerified:   res.IsVerified,
		Notes:        draft.Notes,
		DeviceInfo:   draft.DeviceInfo,
	}
	if len(draft.Tags) > 0 {
		if raw, err := json.Marshal(draft.Tags); err == nil {
			entry.Tags = datatypes.JSON(raw)
		}
	}
	return entry
}

// ---------- reads ----------

// getOwned loads an entry and enforces ownership. A foreign entry looks
// exactly like a missing one so callers cannot probe for existence.
func (s *EntryService) getOwned(ctx context.Context, entryID, userID uint, isAdmin, includeDeleted bool) (*models.ConsumptionEntry, error) {
	var entry models.ConsumptionEntry
	err := s.db.WithContext(ctx).First(&entry, entryID).Error
	if err != nil {
		return nil, wrapDB("entry.get", "entry", err)
	}
	if entry.UserID != userID && !isAdmin {
		return nil, &NotFoundError{Resource: "entry"}
	}
	if entry.IsDeleted && !includeDeleted {
		return nil, &NotFoundError{Resource: "entry"}
	}
	return &entry, nil
}

func (s *EntryService) Get(ctx context.Context, entryID, userID uint, isAdmin bool) (*models.ConsumptionEntry, error) {
	return s.getOwned(ctx, entryID, userID, isAdmin, false)
}

func (s *EntryService) ListByDateRange(ctx context.Context, userID uint, from, to time.Time) ([]models.ConsumptionEntry, error) {
	var entries []models.ConsumptionEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND consumed_at >= ? AND consumed_at < ? AND is_deleted = ?",
			userID, from, to, false).
		Order("consumed_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, &DatabaseError{Op: "entry.list_range", Err: err}
	}
	return entries, nil
}

func (s *EntryService) ListRecent(ctx context.Context, userID uint, limit int) ([]models.ConsumptionEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []models.ConsumptionEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("consumed_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, &DatabaseError{Op: "entry.list_recent", Err: err}
	}
	return entries, nil
}

// ---------- update ----------

type UpdateEntryRequest struct {
	ItemID     *string    `json:"item_id,omitempty"`
	Quantity   *float64   `json:"quantity,omitempty"`
	Unit       *string    `json:"unit,omitempty"`
	Servings   *float64   `json:"servings,omitempty"`
	MealType   *string    `json:"meal_type,omitempty"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

func (s *EntryService) Update(ctx context.Context, entryID, userID uint, isAdmin bool, patch UpdateEntryRequest) (*models.ConsumptionEntry, error) {
	entry, err := s.getOwned(ctx, entryID, userID, isAdmin, false)
	if err != nil {
		return nil, err
	}
	oldDate := entry.ConsumedAt

	needsRecalc := false
	if patch.ItemID != nil && *patch.ItemID != entry.Item.ItemID {
		entry.Item.ItemID = *patch.ItemID
		needsRecalc = true
	}
	if patch.Quantity != nil {
		if entry.Item.ItemType != models.ItemTypeFood {
			return nil, &ValidationError{Field: "quantity", Message: "not valid for recipe entries"}
		}
		if *patch.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Message: "must be greater than zero"}
		}
		entry.Item.Quantity = *patch.Quantity
		needsRecalc = true
	}
	if patch.Unit != nil {
		if _, ok := models.UnitGrams[*patch.Unit]; !ok {
			return nil, &ValidationError{Field: "unit", Message: "unknown unit " + *patch.Unit}
		}
		entry.Item.Unit = *patch.Unit
		needsRecalc = true
	}
	if patch.Servings != nil {
		if entry.Item.ItemType != models.ItemTypeRecipe {
			return nil, &ValidationError{Field: "servings", Message: "not valid for food entries"}
		}
		if *patch.Servings <= 0 {
			return nil, &ValidationError{Field: "servings", Message: "must be greater than zero"}
		}
		entry.Item.Servings = *patch.Servings
		needsRecalc = true
	}
	if patch.MealType != nil {
		if !models.IsValidMealType(*patch.MealType) {
			return nil, &ValidationError{Field: "meal_type", Message: "unknown meal type " + *patch.MealType}
		}
		entry.MealType = *patch.MealType
	}
	if patch.ConsumedAt != nil {
		entry.ConsumedAt = *patch.ConsumedAt
	}
	if patch.Notes != nil {
		entry.Notes = *patch.Notes
	}

	if needsRecalc {
		res := s.calc.Calculate(ctx, s.draftFromEntry(entry))
		entry.Nutrition = res.Nutrition
		entry.Confidence = res.Confidence
		entry.QualityScore = res.QualityScore
		entry.IsVerified = res.IsVerified
	}

	now := time.Now()
	entry.LastModifiedAt = &now
	entry.LastModifiedBy = &userID
	entry.LastModifiedWhy = patch.Reason
	entry.AppendVersion(models.VersionRecord{Action: "updated", ModifiedBy: userID, Reason: patch.Reason, At: now})

	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, &DatabaseError{Op: "entry.update", Err: err}
	}

	s.recompute(ctx, entry.UserID, oldDate)
	if dayStart(entry.ConsumedAt) != dayStart(oldDate) {
		s.recompute(ctx, entry.UserID, entry.ConsumedAt)
	}
	s.activity.Append(userID, "entry.update", map[string]any{"entry_id": entry.ID})
	return entry, nil
}

func (s *EntryService) draftFromEntry(e *models.ConsumptionEntry) *EntryDraft {
	var tags []string
	if len(e.Tags) > 0 {
		_ = json.Unmarshal(e.Tags, &tags)
	}
	return &EntryDraft{
		Item:        e.Item,
		MealType:    e.MealType,
		EntryMethod: e.EntryMethod,
		ConsumedAt:  e.ConsumedAt,
		Notes:       e.Notes,
		Tags:        tags,
		DeviceInfo:  e.DeviceInfo,
	}
}

// AttachAnalysis stores the photo URL and raw provider payload on an
// AI-sourced entry after the upload/analysis step completes.
func (s *EntryService) AttachAnalysis(ctx context.Context, entryID, userID uint, photoURL string, rawAI []byte) (*models.ConsumptionEntry, error) {
	entry, err := s.getOwned(ctx, entryID, userID, false, false)
	if err != nil {
		return nil, err
	}
	entry.PhotoURL = photoURL
	if len(rawAI) > 0 {
		entry.RawAI = datatypes.JSON(rawAI)
	}
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, &DatabaseError{Op: "entry.attach_analysis", Err: err}
	}
	return entry, nil
}

// ---------- delete / restore ----------

func (s *EntryService) SoftDelete(ctx context.Context, entryID, userID uint, isAdmin bool, reason string) error {
	entry, err := s.getOwned(ctx, entryID, userID, isAdmin, false)
	if err != nil {
		return err
	}

	now := time.Now()
	entry.IsDeleted = true
	entry.DeletedAt = &now
	entry.DeletedBy = &userID
	entry.AppendVersion(models.VersionRecord{Action: "deleted", ModifiedBy: userID, Reason: reason, At: now})

	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return &DatabaseError{Op: "entry.soft_delete", Err: err}
	}

	s.recompute(ctx, entry.UserID, entry.ConsumedAt)
	s.activity.Append(userID, "entry.delete", map[string]any{"entry_id": entry.ID, "reason": reason})
	return nil
}

func (s *EntryService) Restore(ctx context.Context, entryID, userID uint, isAdmin bool) (*models.ConsumptionEntry, error) {
	entry, err := s.getOwned(ctx, entryID, userID, isAdmin, true)
	if err != nil {
		return nil, err
	}
	if !entry.IsDeleted {
		return nil, &ValidationError{Field: "entry", Message: "entry is not deleted"}
	}

	entry.IsDeleted = false
	entry.DeletedAt = nil
	entry.DeletedBy = nil
	entry.AppendVersion(models.VersionRecord{Action: "restored", ModifiedBy: userID, At: time.Now()})

	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, &DatabaseError{Op: "entry.restore", Err: err}
	}

	s.recompute(ctx, entry.UserID, entry.ConsumedAt)
	s.activity.Append(userID, "entry.restore", map[string]any{"entry_id": entry.ID})
	return entry, nil
}

// HardDelete permanently removes an entry. Admin/cleanup path only.
func (s *EntryService) HardDelete(ctx context.Context, entryID, userID uint, isAdmin bool) error {
	if !isAdmin {
		return &NotFoundError{Resource: "entry"}
	}
	entry, err := s.getOwned(ctx, entryID, userID, true, true)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.ConsumptionEntry{}, entry.ID).Error; err != nil {
		return &DatabaseError{Op: "entry.hard_delete", Err: err}
	}

	s.recompute(ctx, entry.UserID, entry.ConsumedAt)
	s.activity.Append(userID, "entry.hard_delete", map[string]any{"entry_id": entry.ID})
	return nil
}

// ---------- duplicate ----------

type DuplicateOverrides struct {
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	MealType   *string    `json:"meal_type,omitempty"`
	Quantity   *float64   `json:"quantity,omitempty"`
	Servings   *float64   `json:"servings,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// Duplicate copies an entry, applies overrides and runs the full create
// path. Nutrition is recalculated only when the portion changed.
func (s *EntryService) Duplicate(ctx context.Context, entryID, userID uint, isAdmin bool, overrides DuplicateOverrides) (*models.ConsumptionEntry, error) {
	src, err := s.getOwned(ctx, entryID, userID, isAdmin, false)
	if err != nil {
		return nil, err
	}

	copyEntry := &models.ConsumptionEntry{
		UserID:          src.UserID,
		Item:            src.Item,
		MealType:        src.MealType,
		ConsumedAt:      time.Now(),
		EntryMethod:     src.EntryMethod,
		Nutrition:       src.Nutrition,
		Confidence:      src.Confidence,
		QualityScore:    src.QualityScore,
		IsVerified:      src.IsVerified,
		Notes:           src.Notes,
		Tags:            src.Tags,
		DeviceInfo:      src.DeviceInfo,
		IsDuplicate:     true,
		OriginalEntryID: &src.ID,
	}

	portionChanged := false
	if overrides.ConsumedAt != nil {
		copyEntry.ConsumedAt = *overrides.ConsumedAt
	}
	if overrides.MealType != nil {
		if !models.IsValidMealType(*overrides.MealType) {
			return nil, &ValidationError{Field: "meal_type", Message: "unknown meal type " + *overrides.MealType}
		}
		copyEntry.MealType = *overrides.MealType
	}
	if overrides.Quantity != nil {
		if copyEntry.Item.ItemType != models.ItemTypeFood {
			return nil, &ValidationError{Field: "quantity", Message: "not valid for recipe entries"}
		}
		if *overrides.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Message: "must be greater than zero"}
		}
		copyEntry.Item.Quantity = *overrides.Quantity
		portionChanged = true
	}
	if overrides.Servings != nil {
		if copyEntry.Item.ItemType != models.ItemTypeRecipe {
			return nil, &ValidationError{Field: "servings", Message: "not valid for food entries"}
		}
		if *overrides.Servings <= 0 {
			return nil, &ValidationError{Field: "servings", Message: "must be greater than zero"}
		}
		copyEntry.Item.Servings = *overrides.Servings
		portionChanged = true
	}
	if overrides.Notes != nil {
		copyEntry.Notes = *overrides.Notes
	}

	if portionChanged {
		res := s.calc.Calculate(ctx, s.draftFromEntry(copyEntry))
		copyEntry.Nutrition = res.Nutrition
		copyEntry.Confidence = res.Confidence
		copyEntry.QualityScore = res.QualityScore
		copyEntry.IsVerified = res.IsVerified
	}

	copyEntry.AppendVersion(models.VersionRecord{
		Action:     "created",
		ModifiedBy: userID,
		Reason:     fmt.Sprintf("duplicated from entry %d", src.ID),
		At:         time.Now(),
	})

	if err := s.db.WithContext(ctx).Create(copyEntry).Error; err != nil {
		return nil, &DatabaseError{Op: "entry.duplicate", Err: err}
	}

	s.recompute(ctx, copyEntry.UserID, copyEntry.ConsumedAt)
	s.activity.Append(userID, "entry.duplicate", map[string]any{
		"entry_id": copyEntry.ID, "original_entry_id": src.ID,
	})
	return copyEntry, nil
}

// ---------- batch ----------

type BatchRequest struct {
	Operation  string              `json:"operation"` // delete | update | duplicate
	EntryIDs   []uint              `json:"entry_ids"`
	UpdateData *UpdateEntryRequest `json:"update_data,omitempty"`
}

type BatchItemResult struct {
	EntryID uint   `json:"entry_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BatchResult struct {
	Results   []BatchItemResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// BatchOperations applies one operation to each id independently. One
// failing item never aborts the rest; the caller always gets an itemized
// success/failure list.
func (s *EntryService) BatchOperations(ctx context.Context, userID uint, isAdmin bool, req BatchRequest) (*BatchResult, error) {
	if len(req.EntryIDs) == 0 {
		return nil, &ValidationError{Field: "entry_ids", Message: "must not be empty"}
	}
	if req.Operation == "update" && req.UpdateData == nil {
		return nil, &ValidationError{Field: "update_data", Message: "required for update operations"}
	}

	out := &BatchResult{}
	for _, id := range req.EntryIDs {
		var err error
		switch req.Operation {
		case "delete":
			err = s.SoftDelete(ctx, id, userID, isAdmin, "batch delete")
		case "update":
			_, err = s.Update(ctx, id, userID, isAdmin, *req.UpdateData)
		case "duplicate":
			_, err = s.Duplicate(ctx, id, userID, isAdmin, DuplicateOverrides{})
		default:
			return nil, &ValidationError{Field: "operation", Message: "must be delete, update or duplicate"}
		}

		item := BatchItemResult{EntryID: id, Success: err == nil}
		if err != nil {
			item.Error = err.Error()
			out.Failed++
		} else {
			out.Succeeded++
		}
		out.Results = append(out.Results, item)
	}
	return out, nil
}

// ---------- quick meal ----------

type QuickMealFood struct {
	FoodID   string  `json:"food_id"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type QuickMealRequest struct {
	Foods      []QuickMealFood `json:"foods"`
	MealType   string          `json:"meal_type"`
	RecipeName string          `json:"recipe_name,omitempty"`
	ConsumedAt time.Time       `json:"consumed_at,omitempty"`
}

type QuickMealFailure struct {
	FoodID string `json:"food_id"`
	Error  string `json:"error"`
}

type QuickMealResult struct {
	Entries  []models.ConsumptionEntry `json:"entries"`
	Failures []QuickMealFailure        `json:"failures,omitempty"`
	Total    models.Nutrition          `json:"total_nutrition"`
}

// AddQuickMeal logs one entry per food, each committed independently, and
// accumulates the meal-level nutrition total.
func (s *EntryService) AddQuickMeal(ctx context.Context, userID uint, req QuickMealRequest) (*QuickMealResult, error) {
	if len(req.Foods) == 0 {
		return nil, &ValidationError{Field: "foods", Message: "must not be empty"}
	}

	out := &QuickMealResult{}
	for _, f := range req.Foods {
		raw := RawEntry{
			ItemType:    models.ItemTypeFood,
			ItemID:      f.FoodID,
			Unit:        f.Unit,
			MealType:    req.MealType,
			ConsumedAt:  req.ConsumedAt,
			EntryMethod: "manual",
		}
		if f.Quantity > 0 {
			q := f.Quantity
			raw.Quantity = &q
		}
		if req.RecipeName != "" {
			raw.Notes = req.RecipeName
		}

		entry, err := s.Create(ctx, userID, raw)
		if err != nil {
			out.Failures = append(out.Failures, QuickMealFailure{FoodID: f.FoodID, Error: err.Error()})
			continue
		}
		out.Entries = append(out.Entries, *entry)
		out.Total = out.Total.Add(entry.Nutrition)
	}
	out.Total = out.Total.Round()
	return out, nil
}

// ---------- internals ----------

func (s *EntryService) recompute(ctx context.Context, userID uint, date time.Time) {
	if _, err := s.summaries.RecomputeDailySummary(ctx, userID, date); err != nil {
		s.log.Error("daily summary recompute failed",
			"user_id", userID, "date", dayStart(date).Format("2006-01-02"), "err", err)
	}
}
