package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	ItemTypeFood   = "food"
	ItemTypeRecipe = "recipe"
)

var MealTypes = []string{"breakfast", "lunch", "dinner", "snack", "other"}

var EntryMethods = []string{"manual", "barcode_scan", "image_analysis", "voice", "recipe"}

// Units accepted for food quantities, with their gram equivalents.
// Liquids are treated at density 1 g/ml.
var UnitGrams = map[string]float64{
	"g":  1,
	"kg": 1000,
	"mg": 0.001,
	"oz": 28.35,
	"lb": 453.59,
	"ml": 1,
	"l":  1000,
}

// ConsumedItem is the food-or-recipe variant of an entry. ItemType
// discriminates: food entries carry Quantity+Unit, recipe entries carry
// Servings. The normalizer guarantees exactly one side is populated.
type ConsumedItem struct {
	ItemType string  `gorm:"column:item_type;index;not null" json:"item_type"`
	ItemID   string  `gorm:"column:item_id;type:varchar(255);index;not null" json:"item_id"`
	Quantity float64 `gorm:"column:quantity" json:"quantity,omitempty"`
	Unit     string  `gorm:"column:unit" json:"unit,omitempty"`
	Servings float64 `gorm:"column:servings" json:"servings,omitempty"`
}

// VersionRecord is one element of the append-only versions log.
type VersionRecord struct {
	Action     string    `json:"action"`
	ModifiedBy uint      `json:"modified_by"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

type ConsumptionEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`

	Item ConsumedItem `gorm:"embedded" json:"consumed_item"`

	MealType    string    `gorm:"not null" json:"meal_type"`
	ConsumedAt  time.Time `gorm:"index;not null" json:"consumed_at"`
	EntryMethod string    `gorm:"not null" json:"entry_method"`

	Nutrition  Nutrition `gorm:"embedded" json:"nutrition"`
	Confidence float64   `json:"confidence"`

	// metadata
	Notes      string         `json:"notes,omitempty"`
	Tags       datatypes.JSON `json:"tags,omitempty"`
	DeviceInfo string         `json:"device_info,omitempty"`
	PhotoURL   string         `json:"photo_url,omitempty"`
	RawAI      datatypes.JSON `json:"raw_ai,omitempty"` // raw provider payload for AI-sourced entries

	// tracking
	IsDeleted       bool       `gorm:"index;default:false" json:"is_deleted"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	DeletedBy       *uint      `json:"deleted_by,omitempty"`
	LastModifiedAt  *time.Time `json:"last_modified_at,omitempty"`
	LastModifiedBy  *uint      `json:"last_modified_by,omitempty"`
	LastModifiedWhy string     `json:"last_modified_reason,omitempty"`
	IsDuplicate     bool       `gorm:"default:false" json:"is_duplicate"`
	OriginalEntryID *uint      `json:"original_entry_id,omitempty"`
	QualityScore    int        `json:"quality_score"`
	IsVerified      bool       `gorm:"default:false" json:"is_verified"`
	Versions        datatypes.JSON `json:"versions,omitempty"`
}

// AppendVersion adds a record to the versions log. The log is append-only;
// existing records are never rewritten.
func (e *ConsumptionEntry) AppendVersion(v VersionRecord) {
	var log []VersionRecord
	if len(e.Versions) > 0 {
		_ = json.Unmarshal(e.Versions, &log)
	}
	log = append(log, v)
	raw, err := json.Marshal(log)
	if err != nil {
		return
	}
	e.Versions = datatypes.JSON(raw)
}

func (e *ConsumptionEntry) VersionLog() []VersionRecord {
	var log []VersionRecord
	if len(e.Versions) > 0 {
		_ = json.Unmarshal(e.Versions, &log)
	}
	return log
}

func IsValidMealType(t string) bool {
	for _, m := range MealTypes {
		if m == t {
			return true
		}
	}
	return false
}

func IsValidEntryMethod(m string) bool {
	for _, em := range EntryMethods {
		if em == m {
			return true
		}
	}
	return false
}
