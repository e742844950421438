package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConflictStatus string

const (
	ConflictUnresolved ConflictStatus = "unresolved"
	ConflictResolved   ConflictStatus = "resolved"
)

// ConflictRecord is the durable record of a detected conflict. Both payload
// snapshots are kept for audit. ResolvedBy/ResolvedAt/ResolutionPayload are
// set together when the record moves to resolved; after that the record is
// immutable.
type ConflictRecord struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	DeviceID           string         `gorm:"size:255;not null;index" json:"device_id"`
	EntityType         string         `gorm:"size:50;not null" json:"entity_type"`
	EntityID           string         `gorm:"size:255;not null;index:idx_conflict_entity" json:"entity_id"`
	Action             string         `gorm:"size:20;not null" json:"action"`
	Reason             string         `gorm:"size:50;not null" json:"reason"`
	OfflineID          string         `gorm:"size:255" json:"offline_id,omitempty"`
	ClientVersion      int            `gorm:"not null" json:"client_version"`
	ServerVersion      int            `gorm:"not null" json:"server_version"`
	ClientPayload      SyncPayload    `gorm:"type:jsonb" json:"client_payload,omitempty"`
	ServerPayload      SyncPayload    `gorm:"type:jsonb" json:"server_payload,omitempty"`
	DetectedAt         time.Time      `gorm:"index" json:"detected_at"`
	Status             ConflictStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ResolutionStrategy *string        `gorm:"size:20" json:"resolution_strategy,omitempty"`
	ResolutionNotes    string         `gorm:"type:text" json:"resolution_notes,omitempty"`
	ResolvedBy         *string        `gorm:"size:255" json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time     `json:"resolved_at,omitempty"`
	ResolutionPayload  SyncPayload    `gorm:"type:jsonb" json:"resolution_payload,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`

	// Relations
	Session *SyncSession `gorm:"foreignKey:SessionID" json:"-"`
}

func (c *ConflictRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *ConflictRecord) IsResolved() bool {
	return c.Status == ConflictResolved
}
