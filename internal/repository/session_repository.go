package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/models"
	"github.com/user/corral/backend/internal/sync"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *models.SyncSession) error {
	return r.db.Create(session).Error
}

func (r *SessionRepository) FindByID(id uuid.UUID) (*models.SyncSession, error) {
	var session models.SyncSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ClaimForApply atomically moves the session from initiated to in_progress.
// The conditional update is the guard against two concurrent ApplySyncChanges
// calls for the same session: exactly one wins the claim, the other learns
// why it lost.
func (r *SessionRepository) ClaimForApply(id uuid.UUID) (*models.SyncSession, error) {
	result := r.db.Model(&models.SyncSession{}).
		Where("id = ? AND status = ?", id, models.SessionInitiated).
		Update("status", models.SessionInProgress)
	if result.Error != nil {
		return nil, result.Error
	}

	session, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		if session.Status == models.SessionInProgress {
			return nil, sync.ErrSessionBusy
		}
		return nil, sync.ErrSessionClosed
	}
	return session, nil
}

// Finalize persists the terminal status and tallies. It refuses to touch a
// session that already reached a terminal state, so the timeout sweep and a
// slow apply cannot overwrite each other.
func (r *SessionRepository) Finalize(session *models.SyncSession) error {
	result := r.db.Model(&models.SyncSession{}).
		Where("id = ? AND status IN ?", session.ID,
			[]models.SessionStatus{models.SessionInitiated, models.SessionInProgress}).
		Updates(map[string]interface{}{
			"status":             session.Status,
			"completed_at":       session.CompletedAt,
			"changes_received":   session.ChangesReceived,
			"changes_applied":    session.ChangesApplied,
			"conflicts_detected": session.ConflictsDetected,
			"changes_rejected":   session.ChangesRejected,
			"error_message":      session.ErrorMessage,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sync.ErrSessionClosed
	}
	return nil
}

func (r *SessionRepository) LatestByDevice(deviceID string) (*models.SyncSession, error) {
	var session models.SyncSession
	err := r.db.
		Where("device_id = ?", deviceID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

type SessionHistoryParams struct {
	DeviceID  string
	UserID    *uuid.UUID
	Status    *models.SessionStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// History returns past sessions newest-first with the total match count.
func (r *SessionRepository) History(params SessionHistoryParams) ([]models.SyncSession, int64, error) {
	query := r.db.Model(&models.SyncSession{})

	if params.DeviceID != "" {
		query = query.Where("device_id = ?", params.DeviceID)
	}
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.StartDate != nil {
		query = query.Where("started_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("started_at <= ?", *params.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []models.SyncSession
	err := query.
		Order("started_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&sessions).Error
	return sessions, total, err
}

// SweepTimedOut marks sessions that never reached a terminal state within
// the window as timed_out. Already-applied items stay applied; the device
// re-initiates and resubmits the unacknowledged remainder.
func (r *SessionRepository) SweepTimedOut(before time.Time) (int64, error) {
	now := time.Now()
	result := r.db.Model(&models.SyncSession{}).
		Where("status IN ? AND started_at < ?",
			[]models.SessionStatus{models.SessionInitiated, models.SessionInProgress}, before).
		Updates(map[string]interface{}{
			"status":       models.SessionTimedOut,
			"completed_at": now,
		})
	return result.RowsAffected, result.Error
}

// IsNotFound reports whether err is the store's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
