package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/dto"
	"github.com/user/corral/backend/internal/middleware"
	"github.com/user/corral/backend/internal/models"
	"github.com/user/corral/backend/internal/repository"
	"github.com/user/corral/backend/internal/service"
	"github.com/user/corral/backend/pkg/errors"
)

// SyncHandler exposes the sync engine over REST. All routes sit behind the
// auth middleware; the user and device come from the JWT, not the body.
type SyncHandler struct {
	syncService *service.SyncService
	users       *repository.UserRepository
}

func NewSyncHandler(syncService *service.SyncService, users *repository.UserRepository) *SyncHandler {
	return &SyncHandler{syncService: syncService, users: users}
}

// InitiateSync handles POST /api/v1/sync/initiate
func (h *SyncHandler) InitiateSync(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req dto.InitiateSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ValidationError(err.Error()))
		return
	}

	resp, err := h.syncService.InitiateSync(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ApplyChanges handles POST /api/v1/sync/:sessionId/changes
func (h *SyncHandler) ApplyChanges(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		respondError(c, errors.ValidationError("invalid session id"))
		return
	}

	var req dto.ApplySyncChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ValidationError(err.Error()))
		return
	}

	resp, err := h.syncService.ApplyChanges(sessionID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	// A failed session is still a delivered result: the device needs the
	// partial counters to know what not to resend.
	c.JSON(http.StatusOK, resp)
}

// GetSyncStatus handles GET /api/v1/sync/status/:deviceId
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	resp, err := h.syncService.GetSyncStatus(c.Param("deviceId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSyncHistory handles GET /api/v1/sync/history
func (h *SyncHandler) GetSyncHistory(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	params := repository.SessionHistoryParams{
		DeviceID: c.Query("deviceId"),
		UserID:   &userID,
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}

	if s := c.Query("status"); s != "" {
		status := models.SessionStatus(s)
		params.Status = &status
	}
	if t, ok := queryTime(c, "startDate"); ok {
		params.StartDate = &t
	}
	if t, ok := queryTime(c, "endDate"); ok {
		params.EndDate = &t
	}

	resp, err := h.syncService.GetSyncHistory(params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PullChanges handles GET /api/v1/sync/changes
func (h *SyncHandler) PullChanges(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	deviceID, _ := middleware.GetDeviceID(c)
	if d := c.Query("deviceId"); d != "" {
		deviceID = d
	}

	since := time.Unix(0, 0).UTC()
	if t, ok := queryTime(c, "since"); ok {
		since = t
	}

	resp, err := h.syncService.PullChanges(userID, deviceID, since, queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResolveConflict handles POST /api/v1/sync/conflicts/:conflictId/resolve.
// Explicit resolution overrides another device's committed work, so it is
// reserved for manager and admin accounts.
func (h *SyncHandler) ResolveConflict(c *gin.Context) {
	user, err := h.users.FindByID(middleware.MustGetUserID(c))
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, errors.ErrForbidden)
			return
		}
		respondError(c, errors.Wrap(err, errors.CodeInternalError, "Failed to load user", http.StatusInternalServerError))
		return
	}
	if !user.CanResolveConflicts() {
		respondError(c, errors.ErrForbidden)
		return
	}

	conflictID, err := uuid.Parse(c.Param("conflictId"))
	if err != nil {
		respondError(c, errors.ValidationError("invalid conflict id"))
		return
	}

	var req dto.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ValidationError(err.Error()))
		return
	}

	resp, err := h.syncService.ResolveConflict(conflictID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListUnresolvedConflicts handles GET /api/v1/sync/conflicts
func (h *SyncHandler) ListUnresolvedConflicts(c *gin.Context) {
	conflicts, err := h.syncService.ListUnresolvedConflicts(queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts, "count": len(conflicts)})
}

func respondError(c *gin.Context, err error) {
	if appErr := errors.GetAppError(err); appErr != nil {
		c.JSON(appErr.StatusCode, gin.H{"error": appErr})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalError})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryTime(c *gin.Context, key string) (time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
