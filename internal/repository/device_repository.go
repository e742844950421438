package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
	"gorm.io/gorm"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) FindByDeviceID(deviceID string) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("device_id = ?", deviceID).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *DeviceRepository) ListByUser(userID uuid.UUID) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.Where("user_id = ?", userID).Order("last_seen_at DESC").Find(&devices).Error
	return devices, err
}

// Upsert registers a tablet on first sync and refreshes its metadata and
// last-seen stamp afterwards. A device identifier belongs to exactly one
// user; re-registering under another account relinks it.
func (r *DeviceRepository) Upsert(device *models.Device) error {
	var existing models.Device
	err := r.db.Where("device_id = ?", device.DeviceID).First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		device.LastSeenAt = time.Now()
		return r.db.Create(device).Error
	}
	if err != nil {
		return err
	}

	existing.UserID = device.UserID
	if device.Platform != "" {
		existing.Platform = device.Platform
	}
	if device.DeviceName != "" {
		existing.DeviceName = device.DeviceName
	}
	if device.AppVersion != "" {
		existing.AppVersion = device.AppVersion
	}
	if device.OSVersion != "" {
		existing.OSVersion = device.OSVersion
	}
	existing.LastSeenAt = time.Now()
	device.ID = existing.ID

	return r.db.Save(&existing).Error
}

func (r *DeviceRepository) TouchLastSeen(deviceID string) error {
	return r.db.Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		Update("last_seen_at", time.Now()).Error
}
