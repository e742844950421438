package sync

import "sort"

// entityPrecedence orders entity types parents-before-children so that a
// child created in the same batch as its parent is applied after it. Breeds
// and permits are referenced by animals; movements and health applications
// reference animals.
var entityPrecedence = map[string]int{
	"Breed":             0,
	"HealthProduct":     1,
	"RanchPermit":       2,
	"Animal":            3,
	"FinancialMovement": 4,
	"HealthApplication": 5,
}

func typeRank(entityType string) (int, bool) {
	rank, known := entityPrecedence[entityType]
	return rank, known
}

// OrderChanges returns a new slice sorted by entity type precedence, then by
// client modification time ascending, then by offline id. Unknown entity
// types sort after known ones, alphabetically, keeping the order total and
// deterministic.
func OrderChanges(changes []ChangeItem) []ChangeItem {
	ordered := make([]ChangeItem, len(changes))
	copy(ordered, changes)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		ra, ka := typeRank(a.EntityType)
		rb, kb := typeRank(b.EntityType)
		switch {
		case ka && kb && ra != rb:
			return ra < rb
		case ka != kb:
			return ka
		case !ka && !kb && a.EntityType != b.EntityType:
			return a.EntityType < b.EntityType
		}
		if !a.ModifiedAt.Equal(b.ModifiedAt) {
			return a.ModifiedAt.Before(b.ModifiedAt)
		}
		return a.OfflineID < b.OfflineID
	})
	return ordered
}
