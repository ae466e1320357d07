package services

import (
	"encoding/json"
	"time"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLogService is a fire-and-forget audit sink: a failed append is
// logged and swallowed, never surfaced to the calling operation.
type ActivityLogService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogService(db *gorm.DB, log *logger.Logger) *ActivityLogService {
	return &ActivityLogService{db: db, log: log}
}

func (s *ActivityLogService) Append(userID uint, action string, metadata map[string]any) {
	var payload datatypes.JSON
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			s.log.Warn("activity metadata not serializable", "action", action, "err", err)
		} else {
			payload = datatypes.JSON(raw)
		}
	}

	rec := models.ActivityLog{
		UserID:    userID,
		Action:    action,
		Metadata:  payload,
		Timestamp: time.Now(),
	}
	if err := s.db.Create(&rec).Error; err != nil {
		s.log.Warn("activity log append failed", "user_id", userID, "action", action, "err", err)
	}
}

func (s *ActivityLogService) ListRecent(userID uint, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []models.ActivityLog
	err := s.db.
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, &DatabaseError{Op: "activity.list", Err: err}
	}
	return logs, nil
}
