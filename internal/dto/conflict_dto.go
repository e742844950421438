package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
)

// ResolveConflictRequest finalizes a conflict with one of the applying
// strategies (SERVER_WINS, CLIENT_WINS, FIELD_MERGE).
type ResolveConflictRequest struct {
	ResolutionStrategy string `json:"resolutionStrategy" binding:"required"`
	ResolvedBy         string `json:"resolvedBy" binding:"required"`
}

// ConflictResolutionResponse is the wire view of a conflict record.
type ConflictResolutionResponse struct {
	ID                 uuid.UUID              `json:"id"`
	SessionID          uuid.UUID              `json:"sessionId"`
	DeviceID           string                 `json:"deviceId"`
	EntityType         string                 `json:"entityType"`
	EntityID           string                 `json:"entityId"`
	Action             string                 `json:"action"`
	Reason             string                 `json:"reason"`
	ClientVersion      int                    `json:"clientVersion"`
	ServerVersion      int                    `json:"serverVersion"`
	ClientPayload      map[string]interface{} `json:"clientPayload,omitempty"`
	ServerPayload      map[string]interface{} `json:"serverPayload,omitempty"`
	DetectedAt         time.Time              `json:"detectedAt"`
	Status             string                 `json:"status"`
	ResolutionStrategy *string                `json:"resolutionStrategy,omitempty"`
	ResolutionNotes    string                 `json:"resolutionNotes,omitempty"`
	ResolvedBy         *string                `json:"resolvedBy,omitempty"`
	ResolvedAt         *time.Time             `json:"resolvedAt,omitempty"`
	ResolutionPayload  map[string]interface{} `json:"resolutionPayload,omitempty"`
}

func ConflictToResponse(c *models.ConflictRecord) ConflictResolutionResponse {
	return ConflictResolutionResponse{
		ID:                 c.ID,
		SessionID:          c.SessionID,
		DeviceID:           c.DeviceID,
		EntityType:         c.EntityType,
		EntityID:           c.EntityID,
		Action:             c.Action,
		Reason:             c.Reason,
		ClientVersion:      c.ClientVersion,
		ServerVersion:      c.ServerVersion,
		ClientPayload:      c.ClientPayload,
		ServerPayload:      c.ServerPayload,
		DetectedAt:         c.DetectedAt,
		Status:             string(c.Status),
		ResolutionStrategy: c.ResolutionStrategy,
		ResolutionNotes:    c.ResolutionNotes,
		ResolvedBy:         c.ResolvedBy,
		ResolvedAt:         c.ResolvedAt,
		ResolutionPayload:  c.ResolutionPayload,
	}
}

func ConflictsToResponse(records []models.ConflictRecord) []ConflictResolutionResponse {
	out := make([]ConflictResolutionResponse, len(records))
	for i := range records {
		out[i] = ConflictToResponse(&records[i])
	}
	return out
}
