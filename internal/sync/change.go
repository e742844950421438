package sync

import (
	"fmt"
	"time"
)

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Payload is the opaque field map a device submits for an entity.
type Payload map[string]interface{}

// Clone returns a shallow copy so callers can mutate without aliasing.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ChangeItem is a single offline mutation submitted by a device.
// ClientVersion is the server syncVersion the device believes is current
// (0 for CREATE). OfflineID is the device-generated idempotency token.
type ChangeItem struct {
	EntityType    string
	EntityID      string
	Action        Action
	Payload       Payload
	ClientVersion int
	ModifiedAt    time.Time
	OfflineID     string
}

// Validate checks the per-item invariants. A failing item is rejected
// without aborting the rest of the batch.
func (c ChangeItem) Validate() error {
	if c.EntityType == "" {
		return fmt.Errorf("entity type is required")
	}
	if c.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}
	if !c.Action.Valid() {
		return fmt.Errorf("unknown action %q", string(c.Action))
	}
	if c.OfflineID == "" {
		return fmt.Errorf("offline id is required")
	}
	if c.ClientVersion < 0 {
		return fmt.Errorf("version must not be negative")
	}
	switch c.Action {
	case ActionCreate:
		if c.ClientVersion != 0 {
			return fmt.Errorf("version must be 0 for CREATE, got %d", c.ClientVersion)
		}
	case ActionUpdate, ActionDelete:
		if c.ClientVersion < 1 {
			return fmt.Errorf("version must be >= 1 for %s, got %d", c.Action, c.ClientVersion)
		}
	}
	return nil
}
