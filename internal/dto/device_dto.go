package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
)

// DeviceResponse is the wire view of a registered tablet.
type DeviceResponse struct {
	ID         uuid.UUID `json:"id"`
	DeviceID   string    `json:"deviceId"`
	Platform   string    `json:"platform,omitempty"`
	DeviceName string    `json:"deviceName,omitempty"`
	AppVersion string    `json:"appVersion,omitempty"`
	OSVersion  string    `json:"osVersion,omitempty"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

func DeviceToResponse(d *models.Device) DeviceResponse {
	return DeviceResponse{
		ID:         d.ID,
		DeviceID:   d.DeviceID,
		Platform:   string(d.Platform),
		DeviceName: d.DeviceName,
		AppVersion: d.AppVersion,
		OSVersion:  d.OSVersion,
		LastSeenAt: d.LastSeenAt,
		CreatedAt:  d.CreatedAt,
	}
}

func DevicesToResponse(devices []models.Device) []DeviceResponse {
	out := make([]DeviceResponse, len(devices))
	for i := range devices {
		out[i] = DeviceToResponse(&devices[i])
	}
	return out
}
