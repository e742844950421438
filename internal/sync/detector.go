package sync

// ConflictReason classifies why a change could not be applied cleanly.
type ConflictReason string

const (
	ReasonDuplicateCreate ConflictReason = "duplicate_create"
	ReasonVersionMismatch ConflictReason = "version_mismatch"
)

// Detection is the outcome of running a change against current server state.
type Detection struct {
	Clean  bool
	Reason ConflictReason
}

// Detect decides whether a change applies cleanly against the current server
// version. Version equality is the sole gate for UPDATE/DELETE: client clocks
// skew across devices, so modifiedAt is never consulted here. serverVersion
// is 0 when the entity does not exist.
func Detect(change ChangeItem, serverVersion int) Detection {
	switch change.Action {
	case ActionCreate:
		if serverVersion >= 1 {
			return Detection{Reason: ReasonDuplicateCreate}
		}
		return Detection{Clean: true}
	default:
		if change.ClientVersion != serverVersion {
			return Detection{Reason: ReasonVersionMismatch}
		}
		return Detection{Clean: true}
	}
}
