package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// Device is a field tablet (or phone) that syncs against the server. The
// DeviceID is the opaque client-generated identifier used to scope sync
// sessions and attribute conflicts; it never changes for a given install.
type Device struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	DeviceID   string         `gorm:"size:255;uniqueIndex;not null" json:"device_id"`
	Platform   Platform       `gorm:"type:varchar(10)" json:"platform"`
	DeviceName string         `gorm:"size:255" json:"device_name"`
	AppVersion string         `gorm:"size:20" json:"app_version"`
	OSVersion  string         `gorm:"size:20" json:"os_version"`
	LastSeenAt time.Time      `gorm:"default:now()" json:"last_seen_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
