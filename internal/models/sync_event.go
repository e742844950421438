package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
)

// SyncEvent is one committed server-side mutation in the change feed. A
// device pulls events newer than its cursor to catch up on what other
// devices (or the office) changed. Events are append-only and purged by a
// retention job.
type SyncEvent struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	EntityType string      `gorm:"size:50;not null" json:"entity_type"`
	EntityID   string      `gorm:"size:255;not null" json:"entity_id"`
	Action     SyncAction  `gorm:"type:varchar(20);not null" json:"action"`
	Payload    SyncPayload `gorm:"type:jsonb" json:"payload,omitempty"`
	DeviceID   string      `gorm:"size:255;index" json:"device_id,omitempty"`
	SessionID  *uuid.UUID  `gorm:"type:uuid" json:"session_id,omitempty"`
	Version    int         `gorm:"not null" json:"version"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}

func (se *SyncEvent) BeforeCreate(tx *gorm.DB) error {
	if se.ID == uuid.Nil {
		se.ID = uuid.New()
	}
	return nil
}
