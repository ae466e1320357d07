package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is the audit trail row behind the fire-and-forget sink.
// Appends must never fail the operation that produced them.
type ActivityLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Action    string         `gorm:"index;not null" json:"action"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	Timestamp time.Time      `gorm:"index;not null" json:"timestamp"`
}
