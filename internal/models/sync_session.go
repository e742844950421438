package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionInitiated  SessionStatus = "initiated"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
	SessionTimedOut   SessionStatus = "timed_out"
)

// Terminal reports whether the session can no longer accept changes.
// Status only moves forward; a terminal session stays terminal.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionTimedOut:
		return true
	}
	return false
}

// SyncPayload holds JSON data for payload snapshots and device metadata.
type SyncPayload map[string]interface{}

func (sp SyncPayload) Value() (driver.Value, error) {
	if sp == nil {
		return nil, nil
	}
	return json.Marshal(sp)
}

func (sp *SyncPayload) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal SyncPayload value")
	}
	return json.Unmarshal(bytes, sp)
}

// SyncSession is one device's end-to-end attempt to push changes and receive
// a new cursor. Sessions are never deleted; they are the audit trail for
// GetSyncHistory. Invariant: ChangesApplied + ConflictsDetected +
// ChangesRejected == ChangesReceived on a completed session. Failed and
// timed-out sessions leave the unattempted remainder uncounted.
type SyncSession struct {
	ID                uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DeviceID          string        `gorm:"size:255;not null;index" json:"device_id"`
	UserID            uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Status            SessionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Cursor            time.Time     `json:"cursor"`
	StartedAt         time.Time     `gorm:"index" json:"started_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
	ChangesReceived   int           `gorm:"default:0" json:"changes_received"`
	ChangesApplied    int           `gorm:"default:0" json:"changes_applied"`
	ConflictsDetected int           `gorm:"default:0" json:"conflicts_detected"`
	ChangesRejected   int           `gorm:"default:0" json:"changes_rejected"`
	ErrorMessage      string        `gorm:"type:text" json:"error_message,omitempty"`
	DeviceMetadata    SyncPayload   `gorm:"type:jsonb" json:"device_metadata,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (s *SyncSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
