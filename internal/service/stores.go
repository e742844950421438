package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
	"github.com/user/corral/backend/internal/repository"
	"github.com/user/corral/backend/internal/sync"
)

// Storage contracts the sync service depends on. The gorm repositories in
// internal/repository satisfy them; tests substitute in-memory fakes.

type SessionStore interface {
	Create(session *models.SyncSession) error
	FindByID(id uuid.UUID) (*models.SyncSession, error)
	ClaimForApply(id uuid.UUID) (*models.SyncSession, error)
	Finalize(session *models.SyncSession) error
	LatestByDevice(deviceID string) (*models.SyncSession, error)
	History(params repository.SessionHistoryParams) ([]models.SyncSession, int64, error)
}

type ConflictStore interface {
	Create(record *models.ConflictRecord) error
	FindByID(id uuid.UUID) (*models.ConflictRecord, error)
	ListUnresolved(limit int) ([]models.ConflictRecord, error)
	CountUnresolvedByDevice(deviceID string) (int64, error)
	CountUnresolvedBySession(sessionID uuid.UUID) (int64, error)
	MarkResolved(record *models.ConflictRecord) error
	RefreshSnapshot(id uuid.UUID, serverVersion int, serverPayload models.SyncPayload) error
}

type EntityStore interface {
	Current(entityType, entityID string) (sync.EntityState, error)
	WasApplied(deviceID, offlineID string) (bool, error)
	ApplyCreate(req sync.ApplyRequest) error
	ApplyUpdate(req sync.ApplyRequest) error
	ApplyDelete(req sync.ApplyRequest) error
}

type EventStore interface {
	ChangesSince(userID uuid.UUID, since time.Time, excludeDevice string, limit int) ([]models.SyncEvent, bool, error)
}

type DeviceStore interface {
	Upsert(device *models.Device) error
	FindByDeviceID(deviceID string) (*models.Device, error)
	TouchLastSeen(deviceID string) error
}
