package sync

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store contract errors. The entity store's conditional writes surface these
// so a losing racer is routed to conflict handling instead of clobbering the
// winner's version slot.
var (
	ErrVersionMismatch = errors.New("server version does not match expected version")
	ErrDuplicateEntity = errors.New("entity already exists")
	ErrSessionBusy     = errors.New("session is already applying changes")
	ErrSessionClosed   = errors.New("session is closed")
)

// EntityState is the current server-side view of one entity. Version is 0
// when the entity has never existed.
type EntityState struct {
	Version    int
	Payload    Payload
	Deleted    bool
	ModifiedAt time.Time
}

// ApplyRequest carries everything one atomic mutation needs: the version
// check, the new payload, and the bookkeeping rows (idempotency ledger entry
// and change-feed event) that commit in the same transaction.
type ApplyRequest struct {
	EntityType      string
	EntityID        string
	Action          Action
	Payload         Payload
	ExpectedVersion int
	ModifiedAt      time.Time
	UserID          uuid.UUID
	DeviceID        string
	OfflineID       string
	SessionID       uuid.UUID
}
