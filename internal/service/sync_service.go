package service

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/corral/backend/internal/dto"
	"github.com/user/corral/backend/internal/models"
	"github.com/user/corral/backend/internal/pubsub"
	"github.com/user/corral/backend/internal/repository"
	"github.com/user/corral/backend/internal/sync"
	apperrors "github.com/user/corral/backend/pkg/errors"
)

// autoResolver is recorded as resolvedBy on conflicts auto-resolved by a
// batch-level default strategy.
const autoResolver = "auto"

type SyncService struct {
	sessions  SessionStore
	conflicts ConflictStore
	entities  EntityStore
	events    EventStore
	devices   DeviceStore
	hub       *pubsub.Hub
}

func NewSyncService(
	sessions SessionStore,
	conflicts ConflictStore,
	entities EntityStore,
	events EventStore,
	devices DeviceStore,
	hub *pubsub.Hub,
) *SyncService {
	return &SyncService{
		sessions:  sessions,
		conflicts: conflicts,
		entities:  entities,
		events:    events,
		devices:   devices,
		hub:       hub,
	}
}

// InitiateSync opens a session for a device. The returned cursor is the base
// the device should pull server-side changes from: its previous sync date,
// or epoch on a first sync.
func (s *SyncService) InitiateSync(userID uuid.UUID, req dto.InitiateSyncRequest) (*dto.SyncLogResponse, error) {
	if strings.TrimSpace(req.DeviceID) == "" {
		return nil, apperrors.ErrInvalidDevice
	}

	device := &models.Device{
		UserID:   userID,
		DeviceID: req.DeviceID,
	}
	if req.DeviceMetadata != nil {
		device.Platform = models.Platform(metaString(req.DeviceMetadata, "platform"))
		device.DeviceName = metaString(req.DeviceMetadata, "deviceName")
		device.AppVersion = metaString(req.DeviceMetadata, "appVersion")
		device.OSVersion = metaString(req.DeviceMetadata, "osVersion")
	}
	if err := s.devices.Upsert(device); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to register device", 500)
	}

	cursor := time.Unix(0, 0).UTC()
	if req.LastSyncDate != nil {
		cursor = *req.LastSyncDate
	}

	session := &models.SyncSession{
		DeviceID:       req.DeviceID,
		UserID:         userID,
		Status:         models.SessionInitiated,
		Cursor:         cursor,
		StartedAt:      time.Now(),
		DeviceMetadata: models.SyncPayload(req.DeviceMetadata),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to create sync session", 500)
	}

	log.Printf("[SyncService] Session %s initiated for device %s", session.ID, session.DeviceID)

	resp := dto.SessionToResponse(session)
	return &resp, nil
}

type itemOutcome int

const (
	outcomeApplied itemOutcome = iota
	outcomeConflicted
	outcomeRejected
)

// ApplyChanges processes a change batch against an open session. Items are
// applied in precedence order, each in its own transaction; a storage
// failure aborts the remainder and marks the session failed, leaving
// already-applied items committed and their counts visible to the device.
func (s *SyncService) ApplyChanges(sessionID uuid.UUID, req dto.ApplySyncChangesRequest) (*dto.SyncLogResponse, error) {
	strategy := sync.StrategyManual
	if req.Strategy != "" {
		parsed, ok := sync.ParseStrategy(req.Strategy)
		if !ok {
			return nil, apperrors.ErrInvalidStrategy
		}
		strategy = parsed
	}

	session, err := s.sessions.ClaimForApply(sessionID)
	if err != nil {
		switch {
		case repository.IsNotFound(err):
			return nil, apperrors.ErrSessionNotFound
		case errors.Is(err, sync.ErrSessionBusy):
			return nil, apperrors.ErrSessionBusy
		case errors.Is(err, sync.ErrSessionClosed):
			return nil, apperrors.ErrSessionClosed
		default:
			return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to claim sync session", 500)
		}
	}

	items := make([]sync.ChangeItem, len(req.Changes))
	for i, c := range req.Changes {
		items[i] = sync.ChangeItem{
			EntityType:    c.EntityType,
			EntityID:      c.EntityID,
			Action:        sync.Action(c.Action),
			Payload:       sync.Payload(c.Data),
			ClientVersion: c.Version,
			ModifiedAt:    c.ModifiedAt,
			OfflineID:     c.OfflineID,
		}
	}
	ordered := sync.OrderChanges(items)

	session.ChangesReceived = len(ordered)
	var rejected []dto.RejectedChange
	var failure error

	for _, item := range ordered {
		outcome, reason, perr := s.processChange(session, item, strategy)
		if perr != nil {
			failure = perr
			break
		}
		switch outcome {
		case outcomeApplied:
			session.ChangesApplied++
		case outcomeConflicted:
			session.ConflictsDetected++
		case outcomeRejected:
			session.ChangesRejected++
			rejected = append(rejected, dto.RejectedChange{OfflineID: item.OfflineID, Reason: reason})
		}
	}

	now := time.Now()
	session.CompletedAt = &now
	if failure != nil {
		session.Status = models.SessionFailed
		session.ErrorMessage = failure.Error()
		log.Printf("[SyncService] Session %s failed after %d applied: %v",
			session.ID, session.ChangesApplied, failure)
	} else {
		session.Status = models.SessionCompleted
	}

	if err := s.sessions.Finalize(session); err != nil {
		// The timeout sweep may have closed the session underneath a slow
		// batch; the applied items stay applied either way.
		log.Printf("[SyncService] Could not finalize session %s: %v", session.ID, err)
	}

	resp := dto.SessionToResponse(session)
	resp.Rejected = rejected
	return &resp, nil
}

// processChange runs one item through detection and apply. The returned
// error is reserved for storage failures that must abort the batch;
// validation problems and conflicts are outcomes, not errors.
func (s *SyncService) processChange(session *models.SyncSession, item sync.ChangeItem, strategy sync.Strategy) (itemOutcome, string, error) {
	if err := item.Validate(); err != nil {
		return outcomeRejected, err.Error(), nil
	}

	// Idempotency: a replayed change is acknowledged without touching the
	// store again.
	replayed, err := s.entities.WasApplied(session.DeviceID, item.OfflineID)
	if err != nil {
		return 0, "", err
	}
	if replayed {
		return outcomeApplied, "", nil
	}

	state, err := s.entities.Current(item.EntityType, item.EntityID)
	if err != nil {
		return 0, "", err
	}

	detection := sync.Detect(item, state.Version)
	if detection.Clean {
		applyErr := s.applyClean(session, item)
		if applyErr == nil {
			s.notify(session, item.EntityType, item.EntityID, string(item.Action), item.ClientVersion+1)
			return outcomeApplied, "", nil
		}
		if !errors.Is(applyErr, sync.ErrVersionMismatch) && !errors.Is(applyErr, sync.ErrDuplicateEntity) {
			return 0, "", applyErr
		}
		// Lost the version slot to a concurrent writer between detection and
		// apply; re-read and route to conflict handling like any other
		// mismatch.
		state, err = s.entities.Current(item.EntityType, item.EntityID)
		if err != nil {
			return 0, "", err
		}
		if item.Action == sync.ActionCreate {
			detection = sync.Detection{Reason: sync.ReasonDuplicateCreate}
		} else {
			detection = sync.Detection{Reason: sync.ReasonVersionMismatch}
		}
	}

	return s.handleConflict(session, item, state, detection, strategy)
}

func (s *SyncService) applyClean(session *models.SyncSession, item sync.ChangeItem) error {
	req := sync.ApplyRequest{
		EntityType:      item.EntityType,
		EntityID:        item.EntityID,
		Action:          item.Action,
		Payload:         item.Payload,
		ExpectedVersion: item.ClientVersion,
		ModifiedAt:      item.ModifiedAt,
		UserID:          session.UserID,
		DeviceID:        session.DeviceID,
		OfflineID:       item.OfflineID,
		SessionID:       session.ID,
	}
	switch item.Action {
	case sync.ActionCreate:
		return s.entities.ApplyCreate(req)
	case sync.ActionDelete:
		return s.entities.ApplyDelete(req)
	default:
		return s.entities.ApplyUpdate(req)
	}
}

// handleConflict records the conflict and, when the batch carries a
// non-MANUAL default strategy, resolves it inline.
func (s *SyncService) handleConflict(session *models.SyncSession, item sync.ChangeItem, state sync.EntityState, detection sync.Detection, strategy sync.Strategy) (itemOutcome, string, error) {
	record := &models.ConflictRecord{
		SessionID:     session.ID,
		DeviceID:      session.DeviceID,
		EntityType:    item.EntityType,
		EntityID:      item.EntityID,
		Action:        string(item.Action),
		Reason:        string(detection.Reason),
		OfflineID:     item.OfflineID,
		ClientVersion: item.ClientVersion,
		ServerVersion: state.Version,
		ClientPayload: models.SyncPayload(item.Payload),
		ServerPayload: models.SyncPayload(state.Payload),
		DetectedAt:    time.Now(),
		Status:        models.ConflictUnresolved,
	}
	if err := s.conflicts.Create(record); err != nil {
		return 0, "", err
	}

	if strategy == sync.StrategyManual {
		return outcomeConflicted, "", nil
	}

	resolution, err := sync.Resolve(strategy, item.Action, item.Payload, state.Payload)
	if err != nil {
		// The strategy cannot apply to this conflict (FIELD_MERGE on a
		// DELETE); leave it for manual handling.
		return outcomeConflicted, "", nil
	}

	wrote := false
	if resolution.Write {
		applyErr := s.applyResolution(session.UserID, record, state.Version, resolution.Payload)
		if errors.Is(applyErr, sync.ErrVersionMismatch) || errors.Is(applyErr, sync.ErrDuplicateEntity) {
			// The entity moved again mid-batch; the record stays unresolved.
			return outcomeConflicted, "", nil
		}
		if applyErr != nil {
			return 0, "", applyErr
		}
		wrote = true
	}

	s.finishResolution(record, strategy, autoResolver, resolution)
	if err := s.conflicts.MarkResolved(record); err != nil && !errors.Is(err, repository.ErrConflictImmutable) {
		return 0, "", err
	}

	if wrote {
		s.notify(session, item.EntityType, item.EntityID, string(item.Action), state.Version+1)
		return outcomeApplied, "", nil
	}
	return outcomeConflicted, "", nil
}

// applyResolution commits a resolution payload at the given server version.
// A CLIENT_WINS on a DELETE conflict deletes; everything else writes the
// payload over the current record, which also covers duplicate-create
// conflicts.
func (s *SyncService) applyResolution(userID uuid.UUID, record *models.ConflictRecord, serverVersion int, payload sync.Payload) error {
	req := sync.ApplyRequest{
		EntityType:      record.EntityType,
		EntityID:        record.EntityID,
		Action:          sync.Action(record.Action),
		Payload:         payload,
		ExpectedVersion: serverVersion,
		ModifiedAt:      time.Now(),
		UserID:          userID,
		DeviceID:        record.DeviceID,
		OfflineID:       record.OfflineID,
		SessionID:       record.SessionID,
	}
	if sync.Action(record.Action) == sync.ActionDelete {
		return s.entities.ApplyDelete(req)
	}
	return s.entities.ApplyUpdate(req)
}

func (s *SyncService) finishResolution(record *models.ConflictRecord, strategy sync.Strategy, resolvedBy string, resolution sync.Resolution) {
	now := time.Now()
	strategyStr := string(strategy)
	record.Status = models.ConflictResolved
	record.ResolutionStrategy = &strategyStr
	record.ResolvedBy = &resolvedBy
	record.ResolvedAt = &now
	record.ResolutionPayload = models.SyncPayload(resolution.Payload)
	if len(resolution.ConflictingFields) > 0 {
		record.ResolutionNotes = fmt.Sprintf("fields kept at server value: %s",
			strings.Join(resolution.ConflictingFields, ", "))
	}
}

// ResolveConflict finalizes a recorded conflict with one of the applying
// strategies. MANUAL is not accepted: it is the default state, not a
// resolution.
func (s *SyncService) ResolveConflict(conflictID uuid.UUID, req dto.ResolveConflictRequest) (*dto.ConflictResolutionResponse, error) {
	strategy, ok := sync.ParseStrategy(req.ResolutionStrategy)
	if !ok {
		return nil, apperrors.ErrInvalidStrategy
	}
	if strategy == sync.StrategyManual {
		return nil, apperrors.New(apperrors.CodeInvalidStrategy,
			"MANUAL cannot finalize a conflict; choose SERVER_WINS, CLIENT_WINS or FIELD_MERGE", 400)
	}
	if strings.TrimSpace(req.ResolvedBy) == "" {
		return nil, apperrors.ValidationError("resolvedBy is required")
	}

	record, err := s.conflicts.FindByID(conflictID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrConflictNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to load conflict", 500)
	}
	if record.IsResolved() {
		return nil, apperrors.ErrConflictAlreadyResolved
	}

	state, err := s.entities.Current(record.EntityType, record.EntityID)
	if err != nil {
		return nil, apperrors.StorageFailure(err)
	}

	if state.Version != record.ServerVersion {
		// The entity moved on since detection. Versions only grow, so the
		// client change still conflicts; refresh the snapshot and resolve
		// against current state.
		record.ServerVersion = state.Version
		record.ServerPayload = models.SyncPayload(state.Payload)
		if err := s.conflicts.RefreshSnapshot(record.ID, state.Version, record.ServerPayload); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to refresh conflict snapshot", 500)
		}
	}

	resolution, rerr := sync.Resolve(strategy, sync.Action(record.Action),
		sync.Payload(record.ClientPayload), sync.Payload(record.ServerPayload))
	if rerr != nil {
		return nil, apperrors.New(apperrors.CodeInvalidStrategy, rerr.Error(), 400)
	}

	wrote := false
	var session *models.SyncSession
	if resolution.Write {
		var serr error
		session, serr = s.sessions.FindByID(record.SessionID)
		if serr != nil {
			return nil, apperrors.Wrap(serr, apperrors.CodeInternalError, "Failed to load conflict session", 500)
		}
		applyErr := s.applyResolution(session.UserID, record, state.Version, resolution.Payload)
		if errors.Is(applyErr, sync.ErrVersionMismatch) || errors.Is(applyErr, sync.ErrDuplicateEntity) {
			// Raced yet another writer; hand back a fresh conflict instead
			// of committing against a version nobody holds.
			if cur, cerr := s.entities.Current(record.EntityType, record.EntityID); cerr == nil {
				_ = s.conflicts.RefreshSnapshot(record.ID, cur.Version, models.SyncPayload(cur.Payload))
			}
			return nil, apperrors.ErrConflictStale
		}
		if applyErr != nil {
			return nil, apperrors.StorageFailure(applyErr)
		}
		wrote = true
	}

	s.finishResolution(record, strategy, req.ResolvedBy, resolution)
	if err := s.conflicts.MarkResolved(record); err != nil {
		if errors.Is(err, repository.ErrConflictImmutable) {
			return nil, apperrors.ErrConflictAlreadyResolved
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to mark conflict resolved", 500)
	}

	if wrote && session != nil {
		s.notify(session, record.EntityType, record.EntityID, record.Action, state.Version+1)
	}

	log.Printf("[SyncService] Conflict %s resolved with %s by %s", record.ID, strategy, req.ResolvedBy)

	resp := dto.ConflictToResponse(record)
	return &resp, nil
}

// GetSyncStatus returns the device's most recent session and its unresolved
// conflict counts, device-wide and for that session.
func (s *SyncService) GetSyncStatus(deviceID string) (*dto.SyncStatusResponse, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, apperrors.ErrInvalidDevice
	}

	if _, err := s.devices.FindByDeviceID(deviceID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.New(apperrors.CodeNotFound, "Unknown device", 404)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to load device", 500)
	}

	session, err := s.sessions.LatestByDevice(deviceID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.New(apperrors.CodeNotFound, "No sync sessions for device", 404)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to load latest session", 500)
	}

	deviceCount, err := s.conflicts.CountUnresolvedByDevice(deviceID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to count conflicts", 500)
	}

	sessionCount, err := s.conflicts.CountUnresolvedBySession(session.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to count session conflicts", 500)
	}

	return &dto.SyncStatusResponse{
		LastSession:                    dto.SessionToResponse(session),
		UnresolvedConflictCount:        deviceCount,
		SessionUnresolvedConflictCount: sessionCount,
	}, nil
}

// GetSyncHistory lists past sessions, filterable and paginated, newest first.
func (s *SyncService) GetSyncHistory(params repository.SessionHistoryParams) (*dto.SyncHistoryResponse, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	sessions, total, err := s.sessions.History(params)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to list sync history", 500)
	}

	out := make([]dto.SyncLogResponse, len(sessions))
	for i := range sessions {
		out[i] = dto.SessionToResponse(&sessions[i])
	}

	return &dto.SyncHistoryResponse{
		Sessions:   out,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(params.PageSize))),
	}, nil
}

// ListUnresolvedConflicts is the global worklist, oldest first.
func (s *SyncService) ListUnresolvedConflicts(limit int) ([]dto.ConflictResolutionResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	records, err := s.conflicts.ListUnresolved(limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to list conflicts", 500)
	}
	return dto.ConflictsToResponse(records), nil
}

// PullChanges returns server-side changes newer than the cursor, excluding
// the requesting device's own writes.
func (s *SyncService) PullChanges(userID uuid.UUID, deviceID string, since time.Time, limit int) (*dto.PullChangesResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	events, hasMore, err := s.events.ChangesSince(userID, since, deviceID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to load changes", 500)
	}

	if deviceID != "" {
		if err := s.devices.TouchLastSeen(deviceID); err != nil {
			log.Printf("[SyncService] Could not touch device %s: %v", deviceID, err)
		}
	}

	changes := make([]dto.SyncEventResponse, len(events))
	for i := range events {
		changes[i] = dto.EventToResponse(&events[i])
	}

	var nextCursor *string
	if hasMore && len(events) > 0 {
		cursor := events[len(events)-1].CreatedAt.Format(time.RFC3339Nano)
		nextCursor = &cursor
	}

	return &dto.PullChangesResponse{
		Changes:    changes,
		HasMore:    hasMore,
		NextCursor: nextCursor,
		ServerTime: time.Now(),
	}, nil
}

func (s *SyncService) notify(session *models.SyncSession, entityType, entityID, action string, version int) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(session.UserID, pubsub.ChangeNotice{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Version:    version,
		DeviceID:   session.DeviceID,
		SessionID:  session.ID,
		At:         time.Now(),
	})
}

func metaString(meta map[string]interface{}, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
