package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func item(entityType, offlineID string, modifiedAt time.Time) ChangeItem {
	return ChangeItem{
		EntityType:    entityType,
		EntityID:      "e-" + offlineID,
		Action:        ActionUpdate,
		ClientVersion: 1,
		ModifiedAt:    modifiedAt,
		OfflineID:     offlineID,
	}
}

func TestOrderChangesParentsBeforeChildren(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	in := []ChangeItem{
		item("FinancialMovement", "c1", now),
		item("Animal", "c2", now),
		item("Breed", "c3", now),
	}

	got := OrderChanges(in)

	assert.Equal(t, []string{"Breed", "Animal", "FinancialMovement"},
		[]string{got[0].EntityType, got[1].EntityType, got[2].EntityType})
	// The input slice stays untouched.
	assert.Equal(t, "FinancialMovement", in[0].EntityType)
}

func TestOrderChangesWithinTypeByModifiedAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	in := []ChangeItem{
		item("Animal", "later", base.Add(time.Hour)),
		item("Animal", "earlier", base),
	}

	got := OrderChanges(in)

	assert.Equal(t, "earlier", got[0].OfflineID)
	assert.Equal(t, "later", got[1].OfflineID)
}

func TestOrderChangesUnknownTypesAfterKnown(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	in := []ChangeItem{
		item("Zebu", "z", now),
		item("Auction", "a", now),
		item("FinancialMovement", "f", now),
	}

	got := OrderChanges(in)

	assert.Equal(t, []string{"FinancialMovement", "Auction", "Zebu"},
		[]string{got[0].EntityType, got[1].EntityType, got[2].EntityType})
}

func TestOrderChangesDeterministicTiebreak(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	in := []ChangeItem{
		item("Animal", "b", now),
		item("Animal", "a", now),
	}

	got := OrderChanges(in)

	assert.Equal(t, "a", got[0].OfflineID)
	assert.Equal(t, "b", got[1].OfflineID)
}
