package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleRancher Role = "rancher"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string         `gorm:"size:255" json:"display_name"`
	Role        Role           `gorm:"type:varchar(20);default:'rancher'" json:"role"`
	RanchName   string         `gorm:"size:255" json:"ranch_name,omitempty"`
	Timezone    string         `gorm:"default:'UTC'" json:"timezone"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Devices []Device `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) CanResolveConflicts() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}
