package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/corral/backend/internal/dto"
	"github.com/user/corral/backend/internal/middleware"
	"github.com/user/corral/backend/internal/repository"
	"github.com/user/corral/backend/pkg/errors"
)

// DeviceHandler exposes the device registry built up by InitiateSync.
type DeviceHandler struct {
	devices *repository.DeviceRepository
}

func NewDeviceHandler(devices *repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// ListDevices handles GET /api/v1/devices. Most recently seen first.
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	devices, err := h.devices.ListByUser(userID)
	if err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInternalError, "Failed to list devices", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{"devices": dto.DevicesToResponse(devices), "count": len(devices)})
}
