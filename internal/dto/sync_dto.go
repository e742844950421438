package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
)

// InitiateSyncRequest opens a sync session for a device. lastSyncDate is the
// device's previous cursor; absent means a first sync pulling from epoch.
type InitiateSyncRequest struct {
	DeviceID       string                 `json:"deviceId" binding:"required"`
	LastSyncDate   *time.Time             `json:"lastSyncDate,omitempty"`
	DeviceMetadata map[string]interface{} `json:"deviceMetadata,omitempty"`
}

// SyncChangeItemRequest is the wire shape of one offline mutation.
type SyncChangeItemRequest struct {
	EntityType string                 `json:"entityType" binding:"required"`
	EntityID   string                 `json:"entityId" binding:"required"`
	Action     string                 `json:"action" binding:"required"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Version    int                    `json:"version"`
	ModifiedAt time.Time              `json:"modifiedAt"`
	OfflineID  string                 `json:"offlineId" binding:"required"`
}

// ApplySyncChangesRequest pushes a change batch into an open session.
// Strategy, when set, auto-resolves detected conflicts inline; when absent
// conflicts stay unresolved for manual handling.
type ApplySyncChangesRequest struct {
	Changes  []SyncChangeItemRequest `json:"changes" binding:"required"`
	Strategy string                  `json:"strategy,omitempty"`
}

// RejectedChange reports why one item of a batch was rejected.
type RejectedChange struct {
	OfflineID string `json:"offlineId"`
	Reason    string `json:"reason"`
}

// SyncLogResponse is the view of a sync session returned by initiate, apply
// and history calls.
type SyncLogResponse struct {
	SessionID         uuid.UUID        `json:"sessionId"`
	DeviceID          string           `json:"deviceId"`
	UserID            uuid.UUID        `json:"userId"`
	Status            string           `json:"status"`
	Cursor            time.Time        `json:"cursor"`
	StartedAt         time.Time        `json:"startedAt"`
	CompletedAt       *time.Time       `json:"completedAt,omitempty"`
	ChangesReceived   int              `json:"changesReceived"`
	ChangesApplied    int              `json:"changesApplied"`
	ConflictsDetected int              `json:"conflictsDetected"`
	ChangesRejected   int              `json:"changesRejected"`
	Rejected          []RejectedChange `json:"rejected,omitempty"`
	ErrorMessage      string           `json:"errorMessage,omitempty"`
}

// SessionToResponse maps a session model onto the wire view.
func SessionToResponse(s *models.SyncSession) SyncLogResponse {
	return SyncLogResponse{
		SessionID:         s.ID,
		DeviceID:          s.DeviceID,
		UserID:            s.UserID,
		Status:            string(s.Status),
		Cursor:            s.Cursor,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
		ChangesReceived:   s.ChangesReceived,
		ChangesApplied:    s.ChangesApplied,
		ConflictsDetected: s.ConflictsDetected,
		ChangesRejected:   s.ChangesRejected,
		ErrorMessage:      s.ErrorMessage,
	}
}

// SyncStatusResponse is the per-device status view. UnresolvedConflictCount
// spans all of the device's sessions; SessionUnresolvedConflictCount covers
// only the last one.
type SyncStatusResponse struct {
	LastSession                    SyncLogResponse `json:"lastSession"`
	UnresolvedConflictCount        int64           `json:"unresolvedConflictCount"`
	SessionUnresolvedConflictCount int64           `json:"sessionUnresolvedConflictCount"`
}

// SyncHistoryResponse is a paginated page of past sessions.
type SyncHistoryResponse struct {
	Sessions   []SyncLogResponse `json:"sessions"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// PullChangesResponse is a page of the server-side change feed.
type PullChangesResponse struct {
	Changes    []SyncEventResponse `json:"changes"`
	HasMore    bool                `json:"hasMore"`
	NextCursor *string             `json:"nextCursor,omitempty"`
	ServerTime time.Time           `json:"serverTime"`
}

// SyncEventResponse is one committed server-side change.
type SyncEventResponse struct {
	ID         uuid.UUID              `json:"id"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Action     string                 `json:"action"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	DeviceID   string                 `json:"deviceId,omitempty"`
	Version    int                    `json:"version"`
	CreatedAt  time.Time              `json:"createdAt"`
}

func EventToResponse(e *models.SyncEvent) SyncEventResponse {
	return SyncEventResponse{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     string(e.Action),
		Payload:    e.Payload,
		DeviceID:   e.DeviceID,
		Version:    e.Version,
		CreatedAt:  e.CreatedAt,
	}
}
