package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
	"github.com/user/corral/backend/internal/sync"
	"gorm.io/gorm"
)

// EntityStore is the authoritative versioned record store. Every mutation is
// one transaction: the conditional version check, the entity write, the
// idempotency ledger row, and the change-feed event commit together, so two
// sessions racing on the same entity can never both observe a stale version
// as clean.
type EntityStore struct {
	db *gorm.DB
}

func NewEntityStore(db *gorm.DB) *EntityStore {
	return &EntityStore{db: db}
}

// Current returns the server-side state of an entity. A never-created entity
// comes back with Version 0 and no error.
func (s *EntityStore) Current(entityType, entityID string) (sync.EntityState, error) {
	var row models.VersionedEntity
	err := s.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sync.EntityState{}, nil
	}
	if err != nil {
		return sync.EntityState{}, err
	}
	return sync.EntityState{
		Version:    row.SyncVersion,
		Payload:    sync.Payload(row.Payload),
		Deleted:    row.Deleted,
		ModifiedAt: row.ModifiedAt,
	}, nil
}

// WasApplied reports whether this device already had the offline change
// counted as applied, in any session.
func (s *EntityStore) WasApplied(deviceID, offlineID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.AppliedChange{}).
		Where("device_id = ? AND offline_id = ?", deviceID, offlineID).
		Count(&count).Error
	return count > 0, err
}

// ApplyCreate inserts the entity at version 1. A concurrent or earlier
// create of the same (type, id) surfaces sync.ErrDuplicateEntity via the
// unique index.
func (s *EntityStore) ApplyCreate(req sync.ApplyRequest) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		row := &models.VersionedEntity{
			EntityType:  req.EntityType,
			EntityID:    req.EntityID,
			Payload:     models.SyncPayload(req.Payload),
			SyncVersion: 1,
			ModifiedAt:  req.ModifiedAt,
		}
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return sync.ErrDuplicateEntity
			}
			return err
		}
		return s.recordApply(tx, req, 1)
	})
}

// ApplyUpdate writes the payload at ExpectedVersion+1 iff the row still holds
// ExpectedVersion. Zero rows affected means another writer took the version
// slot first.
func (s *EntityStore) ApplyUpdate(req sync.ApplyRequest) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.VersionedEntity{}).
			Where("entity_type = ? AND entity_id = ? AND sync_version = ?",
				req.EntityType, req.EntityID, req.ExpectedVersion).
			Updates(map[string]interface{}{
				"payload":      models.SyncPayload(req.Payload),
				"sync_version": req.ExpectedVersion + 1,
				"deleted":      false,
				"modified_at":  req.ModifiedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return sync.ErrVersionMismatch
		}
		return s.recordApply(tx, req, req.ExpectedVersion+1)
	})
}

// ApplyDelete soft-deletes at ExpectedVersion+1 under the same version gate,
// so a later device editing the deleted entity still conflicts on version.
func (s *EntityStore) ApplyDelete(req sync.ApplyRequest) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.VersionedEntity{}).
			Where("entity_type = ? AND entity_id = ? AND sync_version = ?",
				req.EntityType, req.EntityID, req.ExpectedVersion).
			Updates(map[string]interface{}{
				"sync_version": req.ExpectedVersion + 1,
				"deleted":      true,
				"modified_at":  req.ModifiedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return sync.ErrVersionMismatch
		}
		return s.recordApply(tx, req, req.ExpectedVersion+1)
	})
}

func (s *EntityStore) recordApply(tx *gorm.DB, req sync.ApplyRequest, newVersion int) error {
	if req.OfflineID != "" {
		ledger := &models.AppliedChange{
			DeviceID:   req.DeviceID,
			OfflineID:  req.OfflineID,
			SessionID:  req.SessionID,
			EntityType: req.EntityType,
			EntityID:   req.EntityID,
			Action:     string(req.Action),
			AppliedAt:  time.Now(),
		}
		if err := tx.Create(ledger).Error; err != nil {
			return err
		}
	}

	event := &models.SyncEvent{
		UserID:     req.UserID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Action:     eventAction(req.Action),
		Payload:    models.SyncPayload(req.Payload),
		DeviceID:   req.DeviceID,
		Version:    newVersion,
	}
	if req.SessionID != uuid.Nil {
		id := req.SessionID
		event.SessionID = &id
	}
	return tx.Create(event).Error
}

func eventAction(a sync.Action) models.SyncAction {
	switch a {
	case sync.ActionCreate:
		return models.SyncActionCreate
	case sync.ActionDelete:
		return models.SyncActionDelete
	default:
		return models.SyncActionUpdate
	}
}
