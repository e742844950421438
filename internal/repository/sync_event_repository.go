package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
	"gorm.io/gorm"
)

type SyncEventRepository struct {
	db *gorm.DB
}

func NewSyncEventRepository(db *gorm.DB) *SyncEventRepository {
	return &SyncEventRepository{db: db}
}

// ChangesSince returns committed changes newer than the cursor, oldest first,
// excluding the requesting device's own writes. Fetches one extra row to
// report whether more remain.
func (r *SyncEventRepository) ChangesSince(userID uuid.UUID, since time.Time, excludeDevice string, limit int) ([]models.SyncEvent, bool, error) {
	var events []models.SyncEvent

	query := r.db.Where("user_id = ? AND created_at > ?", userID, since)
	if excludeDevice != "" {
		query = query.Where("device_id IS NULL OR device_id = '' OR device_id != ?", excludeDevice)
	}

	err := query.
		Order("created_at ASC").
		Limit(limit + 1).
		Find(&events).Error
	if err != nil {
		return nil, false, err
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}
	return events, hasMore, nil
}

// DeleteOldEvents trims the feed; devices further behind than the retention
// window must do a full pull from epoch.
func (r *SyncEventRepository) DeleteOldEvents(before time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", before).Delete(&models.SyncEvent{})
	return result.RowsAffected, result.Error
}
