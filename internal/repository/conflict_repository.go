package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
	"gorm.io/gorm"
)

var ErrConflictImmutable = errors.New("conflict record is already resolved")

type ConflictRepository struct {
	db *gorm.DB
}

func NewConflictRepository(db *gorm.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

func (r *ConflictRepository) Create(record *models.ConflictRecord) error {
	return r.db.Create(record).Error
}

func (r *ConflictRepository) FindByID(id uuid.UUID) (*models.ConflictRecord, error) {
	var record models.ConflictRecord
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListUnresolved is the global worklist, oldest conflict first.
func (r *ConflictRepository) ListUnresolved(limit int) ([]models.ConflictRecord, error) {
	var records []models.ConflictRecord
	query := r.db.
		Where("status = ?", models.ConflictUnresolved).
		Order("detected_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

func (r *ConflictRepository) CountUnresolvedByDevice(deviceID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ConflictRecord{}).
		Where("device_id = ? AND status = ?", deviceID, models.ConflictUnresolved).
		Count(&count).Error
	return count, err
}

func (r *ConflictRepository) CountUnresolvedBySession(sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.ConflictRecord{}).
		Where("session_id = ? AND status = ?", sessionID, models.ConflictUnresolved).
		Count(&count).Error
	return count, err
}

// MarkResolved writes the resolution fields. The status guard makes resolved
// records immutable: a second resolver loses and gets ErrConflictImmutable.
func (r *ConflictRepository) MarkResolved(record *models.ConflictRecord) error {
	result := r.db.Model(&models.ConflictRecord{}).
		Where("id = ? AND status = ?", record.ID, models.ConflictUnresolved).
		Updates(map[string]interface{}{
			"status":              models.ConflictResolved,
			"resolution_strategy": record.ResolutionStrategy,
			"resolution_notes":    record.ResolutionNotes,
			"resolved_by":         record.ResolvedBy,
			"resolved_at":         record.ResolvedAt,
			"resolution_payload":  record.ResolutionPayload,
			"server_version":      record.ServerVersion,
			"server_payload":      record.ServerPayload,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflictImmutable
	}
	return nil
}

// RefreshSnapshot updates the server-side snapshot on a still-unresolved
// record whose entity moved on since detection.
func (r *ConflictRepository) RefreshSnapshot(id uuid.UUID, serverVersion int, serverPayload models.SyncPayload) error {
	return r.db.Model(&models.ConflictRecord{}).
		Where("id = ? AND status = ?", id, models.ConflictUnresolved).
		Updates(map[string]interface{}{
			"server_version": serverVersion,
			"server_payload": serverPayload,
		}).Error
}
