package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func change(action Action, clientVersion int) ChangeItem {
	return ChangeItem{
		EntityType:    "Animal",
		EntityID:      "a-1",
		Action:        action,
		Payload:       Payload{"name": "Bella"},
		ClientVersion: clientVersion,
		ModifiedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		OfflineID:     "dev1-0001",
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name          string
		change        ChangeItem
		serverVersion int
		wantClean     bool
		wantReason    ConflictReason
	}{
		{"create against missing entity is clean", change(ActionCreate, 0), 0, true, ""},
		{"create against existing entity is a duplicate", change(ActionCreate, 0), 1, false, ReasonDuplicateCreate},
		{"update with matching version is clean", change(ActionUpdate, 3), 3, true, ""},
		{"update behind the server conflicts", change(ActionUpdate, 1), 2, false, ReasonVersionMismatch},
		{"update ahead of the server conflicts", change(ActionUpdate, 5), 2, false, ReasonVersionMismatch},
		{"update against missing entity conflicts", change(ActionUpdate, 1), 0, false, ReasonVersionMismatch},
		{"delete with matching version is clean", change(ActionDelete, 2), 2, true, ""},
		{"delete with stale version conflicts", change(ActionDelete, 1), 4, false, ReasonVersionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detect(tt.change, tt.serverVersion)
			assert.Equal(t, tt.wantClean, d.Clean)
			if !tt.wantClean {
				assert.Equal(t, tt.wantReason, d.Reason)
			}
		})
	}
}

func TestDetectIgnoresModifiedAt(t *testing.T) {
	// A newer client timestamp must not rescue a stale version: clocks on
	// field tablets cannot be trusted.
	c := change(ActionUpdate, 1)
	c.ModifiedAt = time.Now().Add(24 * time.Hour)
	d := Detect(c, 2)
	assert.False(t, d.Clean)
	assert.Equal(t, ReasonVersionMismatch, d.Reason)
}

func TestChangeItemValidate(t *testing.T) {
	valid := change(ActionUpdate, 1)
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ChangeItem)
	}{
		{"missing entity type", func(c *ChangeItem) { c.EntityType = "" }},
		{"missing entity id", func(c *ChangeItem) { c.EntityID = "" }},
		{"unknown action", func(c *ChangeItem) { c.Action = "UPSERT" }},
		{"missing offline id", func(c *ChangeItem) { c.OfflineID = "" }},
		{"negative version", func(c *ChangeItem) { c.ClientVersion = -1 }},
		{"create with nonzero version", func(c *ChangeItem) { c.Action = ActionCreate; c.ClientVersion = 2 }},
		{"update with zero version", func(c *ChangeItem) { c.Action = ActionUpdate; c.ClientVersion = 0 }},
		{"delete with zero version", func(c *ChangeItem) { c.Action = ActionDelete; c.ClientVersion = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := change(ActionUpdate, 1)
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
