package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VersionedEntity is a row in the authoritative entity store. SyncVersion
// increments on every committed mutation and is the optimistic-concurrency
// token the conflict detector compares against. Deletes are soft so a late
// device pushing against a deleted entity still sees a version to conflict
// with.
type VersionedEntity struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EntityType  string      `gorm:"size:50;not null;uniqueIndex:idx_entity_type_id" json:"entity_type"`
	EntityID    string      `gorm:"size:255;not null;uniqueIndex:idx_entity_type_id" json:"entity_id"`
	Payload     SyncPayload `gorm:"type:jsonb" json:"payload"`
	SyncVersion int         `gorm:"not null;default:0" json:"sync_version"`
	Deleted     bool        `gorm:"not null;default:false" json:"deleted"`
	ModifiedAt  time.Time   `json:"modified_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (e *VersionedEntity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// AppliedChange is the idempotency ledger: one row per offline change that
// was counted as applied for a device, across all of its sessions. A replay
// of the same (device, offline id) is acknowledged without touching the
// entity store again.
type AppliedChange struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DeviceID   string    `gorm:"size:255;not null;uniqueIndex:idx_device_offline" json:"device_id"`
	OfflineID  string    `gorm:"size:255;not null;uniqueIndex:idx_device_offline" json:"offline_id"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	EntityType string    `gorm:"size:50;not null" json:"entity_type"`
	EntityID   string    `gorm:"size:255;not null" json:"entity_id"`
	Action     string    `gorm:"size:20;not null" json:"action"`
	AppliedAt  time.Time `json:"applied_at"`
}

func (a *AppliedChange) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
