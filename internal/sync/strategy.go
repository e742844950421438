package sync

import "fmt"

// Strategy is the closed set of conflict resolution policies. Adding a
// strategy means extending the switch in Resolve, which the compiler and
// tests keep exhaustive.
type Strategy string

const (
	StrategyServerWins Strategy = "SERVER_WINS"
	StrategyClientWins Strategy = "CLIENT_WINS"
	StrategyFieldMerge Strategy = "FIELD_MERGE"
	StrategyManual     Strategy = "MANUAL"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyServerWins, StrategyClientWins, StrategyFieldMerge, StrategyManual:
		return true
	}
	return false
}

// ParseStrategy maps a wire string onto a Strategy.
func ParseStrategy(raw string) (Strategy, bool) {
	s := Strategy(raw)
	return s, s.Valid()
}

// Resolution is the committed outcome of applying a non-MANUAL strategy.
// Write reports whether the server record must be mutated (incrementing its
// syncVersion); Payload is the data finally committed either way.
type Resolution struct {
	Payload           Payload
	Write             bool
	ConflictingFields []string
}

// Resolve computes the resolution for one of the three applying strategies.
// MANUAL never reaches here: it leaves the conflict record unresolved for a
// human operator. FIELD_MERGE is not defined for DELETE conflicts — merging
// fields into a deletion has no coherent result.
func Resolve(strategy Strategy, action Action, client, server Payload) (Resolution, error) {
	switch strategy {
	case StrategyServerWins:
		return Resolution{Payload: server.Clone()}, nil
	case StrategyClientWins:
		return Resolution{Payload: client.Clone(), Write: true}, nil
	case StrategyFieldMerge:
		if action == ActionDelete {
			return Resolution{}, fmt.Errorf("FIELD_MERGE is not valid for DELETE conflicts")
		}
		merged, conflicting, changed := MergeFields(client, server)
		return Resolution{Payload: merged, Write: changed, ConflictingFields: conflicting}, nil
	case StrategyManual:
		return Resolution{}, fmt.Errorf("MANUAL does not resolve; conflict stays open")
	default:
		return Resolution{}, fmt.Errorf("unknown strategy %q", string(strategy))
	}
}
